// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed maps text to fixed-dimension vectors. The same Embedder
// instance embeds both the chunks and the query so they share one space.
package embed

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/research-brief/pkg/types"
)

// Embedder turns text into a vector. Implementations are deterministic: the
// same text yields the same vector for one model version.
type Embedder interface {
	// Name identifies the backend and model, e.g. "ollama/all-minilm".
	Name() string

	// Prepare readies the backend. It receives the chunk corpus so fitted
	// backends can build their vocabulary; remote backends verify the model
	// is available.
	Prepare(ctx context.Context, corpus []string) error

	// Embed returns the vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// New returns the Embedder selected by cfg.Embedder.
func New(cfg types.PipelineConfig, client *http.Client) (Embedder, error) {
	switch cfg.Embedder {
	case types.EmbedderOllama, "":
		return NewOllama(cfg.OllamaURL, cfg.EmbeddingModel, client)
	case types.EmbedderTFIDF:
		return NewTFIDF(), nil
	default:
		return nil, fmt.Errorf("unknown embedder %q", cfg.Embedder)
	}
}
