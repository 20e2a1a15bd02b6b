// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render presents a Brief as terminal output, Markdown, HTML, PDF,
// JSON, or YAML. The model's answer is rendered as-is.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-brief/pkg/types"
)

// Title heads every rendering.
const Title = "Research Brief"

// Format names an output format.
type Format string

const (
	FormatTerminal Format = "terminal"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatPDF      Format = "pdf"
)

// Formats lists the accepted values of Format.
var Formats = []Format{FormatTerminal, FormatMarkdown, FormatHTML, FormatJSON, FormatYAML, FormatPDF}

// ParseFormat validates a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "md" {
		return FormatMarkdown, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of %v)", s, Formats)
}

// Options tune the renderers that support them.
type Options struct {
	// Width is the terminal width; zero picks a default.
	Width int
	// Sources includes the retrieved chunks.
	Sources bool
}

// Write renders b in format f to w.
func Write(w io.Writer, f Format, b *types.Brief, opts Options) error {
	switch f {
	case FormatTerminal:
		_, err := io.WriteString(w, Terminal(b, opts)+"\n")
		return err
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(b, opts))
		return err
	case FormatHTML:
		page, err := HTML(b, opts)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case FormatPDF:
		return PDF(w, b, opts)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// Markdown renders b as a Markdown document.
func Markdown(b *types.Brief, opts Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", Title)
	fmt.Fprintf(&sb, "- **Document:** %s\n", filepath.Base(b.Document))
	fmt.Fprintf(&sb, "- **Model:** %s\n", b.LLMModel)
	fmt.Fprintf(&sb, "- **Embeddings:** %s\n", b.EmbeddingModel)
	if !b.GeneratedAt.IsZero() {
		fmt.Fprintf(&sb, "- **Generated:** %s\n", b.GeneratedAt.Format(time.RFC1123))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(b.Answer))
	sb.WriteString("\n")

	if opts.Sources && len(b.Sources) > 0 {
		sb.WriteString("\n## Sources\n\n")
		for i, s := range b.Sources {
			fmt.Fprintf(&sb, "%d. Chunk %d, characters %d-%d (score %.3f)\n\n", i+1, s.Index, s.Start, s.End, s.Score)
			for _, line := range strings.Split(excerpt(s.Text, 400), "\n") {
				fmt.Fprintf(&sb, "   > %s\n", line)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// footer summarizes the run for the bottom of a card or page.
func footer(b *types.Brief) string {
	return fmt.Sprintf("%d pages, %d chunks, top %d retrieved · %s + %s",
		b.Stats.Pages, b.Stats.Chunks, b.Stats.Retrieved, b.LLMModel, b.EmbeddingModel)
}

// excerpt shortens s to at most n runes on a word boundary.
func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndexAny(cut, " \n"); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "..."
}
