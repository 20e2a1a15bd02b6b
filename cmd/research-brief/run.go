// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-brief/internal/archive"
	"github.com/pdiddy/research-brief/internal/brief"
	"github.com/pdiddy/research-brief/internal/render"
	"github.com/pdiddy/research-brief/internal/secrets"
	"github.com/pdiddy/research-brief/internal/ui"
	"github.com/pdiddy/research-brief/pkg/types"
)

// defaultPaper is read when run is given no path.
const defaultPaper = "data/paper.pdf"

// missingInputHint is printed when the paper cannot be found.
const missingInputHint = "Add paper.pdf to the data/ folder, or pass a path: research-brief run <file.pdf>"

// newPipeline builds the pipeline for a run. Tests replace it to inject
// fakes.
var newPipeline = func(cfg types.PipelineConfig, opts ...brief.Option) (runner, error) {
	return brief.New(cfg, opts...)
}

type runner interface {
	Run(ctx context.Context, path string) (*types.Brief, error)
}

var runCmd = &cobra.Command{
	Use:   "run [pdf]",
	Short: "Generate a research brief for a PDF",
	Long: `Run loads the PDF (default data/paper.pdf), chunks and indexes its text,
retrieves the most relevant chunks for the summary question, and prints the
brief produced by the language model.

The pipeline fails fast: a missing file, a PDF with no extractable text,
an unreachable embedding or model backend each end the run with a message
and a non-zero exit status. Nothing is retried.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrief,
}

func runBrief(cmd *cobra.Command, args []string) error {
	path := defaultPaper
	if len(args) > 0 {
		path = args[0]
	}

	cfg, err := pipelineConfig(viper.GetViper())
	if err != nil {
		return err
	}
	formatName, _ := cmd.Flags().GetString("format")
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg,
		brief.WithKeys(secrets.New(viper.GetString("secrets_dir"))),
		brief.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	job := func(ctx context.Context) (*types.Brief, error) { return p.Run(ctx, path) }

	var b *types.Brief
	if plain, _ := cmd.Flags().GetBool("plain"); plain {
		b, err = job(ctx)
	} else {
		b, err = ui.Run(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), "Generating research brief...", job)
	}
	if err != nil {
		var missing *brief.MissingInputError
		if errors.As(err, &missing) {
			fmt.Fprintln(cmd.ErrOrStderr(), render.Notice(missingInputHint))
		}
		logger.Debug().Str("kind", brief.Kind(err)).Msg("run failed")
		return err
	}

	if save, _ := cmd.Flags().GetBool("archive"); save {
		if err := archiveBrief(ctx, viper.GetString("archive_dir"), b); err != nil {
			return err
		}
	}

	sources, _ := cmd.Flags().GetBool("sources")
	opts := render.Options{Sources: sources}

	if pdfPath, _ := cmd.Flags().GetString("pdf"); pdfPath != "" {
		if err := writeFile(pdfPath, func(w io.Writer) error { return render.PDF(w, b, opts) }); err != nil {
			return err
		}
		logger.Info().Str("file", pdfPath).Msg("wrote PDF brief")
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return render.Write(cmd.OutOrStdout(), format, b, opts)
	}
	if err := writeFile(out, func(w io.Writer) error { return render.Write(w, format, b, opts) }); err != nil {
		return err
	}
	logger.Info().Str("file", out).Str("format", string(format)).Msg("wrote brief")
	return nil
}

func archiveBrief(ctx context.Context, dir string, b *types.Brief) error {
	store, err := archive.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(ctx, b); err != nil {
		return err
	}
	logger.Info().Str("id", b.ID).Str("archive", store.Path()).Msg("archived brief")
	return nil
}

// writeFile creates path and hands it to write, closing it afterwards.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func init() {
	d := types.DefaultPipelineConfig()
	f := runCmd.Flags()

	// Pipeline options, bound to the config keys of the same name.
	f.Int("chunk-size", d.ChunkSize, "maximum chunk length in characters")
	f.Int("chunk-overlap", d.ChunkOverlap, "characters shared by adjacent chunks")
	f.String("embedding-model", d.EmbeddingModel, "local embedding model")
	f.String("llm-model", d.LLMModel, "language model (claude-* and gemini-* use remote providers)")
	f.Float64("temperature", d.Temperature, "decoding temperature")
	f.Int("top-k", d.TopK, "chunks retrieved for the summary question")
	f.String("embedder", string(d.Embedder), "embedding backend: ollama or tfidf")
	f.String("metric", string(d.Metric), "index similarity: cosine or l2")
	f.String("ollama-url", d.OllamaURL, "base URL of the Ollama service")
	f.Duration("request-timeout", d.RequestTimeout, "timeout for each backend call")
	f.Int("max-tokens", d.MaxTokens, "answer token cap for remote providers")

	for flag, key := range map[string]string{
		"chunk-size":      "chunk_size",
		"chunk-overlap":   "chunk_overlap",
		"embedding-model": "embedding_model",
		"llm-model":       "llm_model",
		"temperature":     "temperature",
		"top-k":           "top_k",
		"embedder":        "embedder",
		"metric":          "metric",
		"ollama-url":      "ollama_url",
		"request-timeout": "request_timeout",
		"max-tokens":      "max_tokens",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	// Output.
	f.String("format", string(render.FormatTerminal), "output format: terminal, markdown, html, json, yaml, pdf")
	f.String("out", "", "write the brief to this file instead of stdout")
	f.String("pdf", "", "also write the brief as a PDF to this file")
	f.Bool("sources", false, "include the retrieved chunks in the output")
	f.Bool("archive", false, "save the brief to the archive")
	f.Bool("plain", false, "run without the busy indicator")

	rootCmd.AddCommand(runCmd)
}
