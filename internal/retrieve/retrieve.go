// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve fetches the chunks most similar to a query.
package retrieve

import (
	"context"
	"fmt"

	"github.com/pdiddy/research-brief/pkg/types"
)

// DefaultK is the number of chunks returned when K is not set.
const DefaultK = types.DefaultTopK

// Embedder is the slice of embed.Embedder the retriever needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher ranks indexed chunks against a vector.
type Searcher interface {
	Query(vector []float32, k int) ([]types.ScoredChunk, error)
}

// EmbedError marks a failure to embed the query, as opposed to a failure
// inside the index.
type EmbedError struct {
	Err error
}

func (e *EmbedError) Error() string { return "embedding query: " + e.Err.Error() }

func (e *EmbedError) Unwrap() error { return e.Err }

// Retriever embeds a query with the same embedder used for the chunks and
// asks the index for the top K.
type Retriever struct {
	Embedder Embedder
	Index    Searcher
	K        int
}

// New returns a Retriever. k <= 0 selects DefaultK.
func New(e Embedder, idx Searcher, k int) *Retriever {
	if k <= 0 {
		k = DefaultK
	}
	return &Retriever{Embedder: e, Index: idx, K: k}
}

// Retrieve returns up to K chunks, most similar first. An empty result is
// not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]types.ScoredChunk, error) {
	vec, err := r.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, &EmbedError{Err: err}
	}
	hits, err := r.Index.Query(vec, r.K)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	return hits, nil
}
