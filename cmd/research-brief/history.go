// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-brief/internal/archive"
	"github.com/pdiddy/research-brief/internal/render"
	"github.com/pdiddy/research-brief/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse briefs saved with run --archive",
	Long: `History reads the local brief archive, a SQLite database under
--archive-dir. Briefs are added by "research-brief run --archive". Use
subcommands to list, show, export, or delete them.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List archived briefs, newest first",
	Long: `List prints one line per archived brief. A query argument filters
briefs by full-text search over answers and document names; results are
then ranked by relevance instead of age.`,
	RunE: runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	briefs, err := store.List(cmd.Context(), archiveQuery(cmd, args))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistoryList(cmd.OutOrStdout(), briefs, jsonOutput)
}

func formatHistoryList(w io.Writer, briefs []types.Brief, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(briefs)
	}

	if len(briefs) == 0 {
		fmt.Fprintln(w, "No briefs archived.")
		return nil
	}

	fmt.Fprintf(w, "%-24s  %-16s  %-30s  %-14s  %s\n", "ID", "Generated", "Document", "Model", "Answer")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, b := range briefs {
		fmt.Fprintf(w, "%-24s  %-16s  %-30s  %-14s  %s\n",
			b.ID,
			b.GeneratedAt.Local().Format("2006-01-02 15:04"),
			truncate(filepath.Base(b.Document), 30),
			truncate(b.LLMModel, 14),
			truncate(firstLine(b.Answer), 40))
	}

	fmt.Fprintf(w, "\n%d briefs\n", len(briefs))
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Render one archived brief",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return err
	}
	sources, _ := cmd.Flags().GetBool("sources")

	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	b, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return render.Write(cmd.OutOrStdout(), format, b, render.Options{Sources: sources})
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export archived briefs to YAML or JSON",
	Long: `Export writes every archived brief, with its retrieved sources, to
stdout or --out. The same filters as list select a subset.`,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := archiveQuery(cmd, args)
	export := func(w io.Writer) error {
		switch format {
		case "yaml", "":
			return store.ExportYAML(cmd.Context(), w, opts)
		case "json":
			return store.ExportJSON(cmd.Context(), w, opts)
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
	}

	if out == "" {
		return export(cmd.OutOrStdout())
	}
	if err := writeFile(out, export); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", out)
	return nil
}

// --- delete subcommand ---

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a brief from the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

// --- shared helpers ---

func openArchive() (*archive.Store, error) {
	return archive.Open(viper.GetString("archive_dir"))
}

func archiveQuery(cmd *cobra.Command, args []string) archive.QueryOptions {
	match, _ := cmd.Flags().GetString("match")
	if match == "" && len(args) > 0 {
		match = strings.Join(args, " ")
	}
	document, _ := cmd.Flags().GetString("document")
	limit, _ := cmd.Flags().GetInt("limit")

	return archive.QueryOptions{
		Match:    match,
		Document: document,
		Limit:    limit,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func init() {
	// Filters shared by list and export.
	for _, c := range []*cobra.Command{historyListCmd, historyExportCmd} {
		c.Flags().String("match", "", "full-text search over answers and document names")
		c.Flags().String("document", "", "only briefs for this document path")
	}
	historyListCmd.Flags().Int("limit", 0, "maximum results (0 = default of 20)")
	historyListCmd.Flags().Bool("json", false, "output results as JSON")

	historyShowCmd.Flags().String("format", string(render.FormatTerminal), "output format: terminal, markdown, html, json, yaml")
	historyShowCmd.Flags().Bool("sources", true, "include the retrieved chunks")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("out", "", "write to this file instead of stdout")
	historyExportCmd.Flags().Int("limit", 0, "maximum briefs to export (0 = all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	rootCmd.AddCommand(historyCmd)
}
