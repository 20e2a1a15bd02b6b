// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vectorindex is an in-memory exact nearest-neighbour index over
// chunk vectors. It is built once per run and never mutated or persisted.
package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/viant/vec/search"

	"github.com/pdiddy/research-brief/pkg/types"
)

// ErrEmpty is returned by Build when there is nothing to index.
var ErrEmpty = errors.New("no vectors to index")

// Index holds (chunk, vector) pairs with precomputed magnitudes.
type Index struct {
	metric types.Metric
	chunks []types.Chunk
	vecs   []search.Float32s
	mags   []float32
	dim    int
}

// Build indexes chunks[i] under vectors[i]. Lengths must match and every
// vector must share one dimension.
func Build(chunks []types.Chunk, vectors [][]float32, metric types.Metric) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil, ErrEmpty
	}
	switch metric {
	case types.MetricCosine, types.MetricL2:
	case "":
		metric = types.MetricCosine
	default:
		return nil, fmt.Errorf("unknown metric %q", metric)
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("vector 0 has dimension 0")
	}
	idx := &Index{
		metric: metric,
		chunks: append([]types.Chunk(nil), chunks...),
		vecs:   make([]search.Float32s, len(vectors)),
		mags:   make([]float32, len(vectors)),
		dim:    dim,
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("inconsistent vector dims: vector %d has %d, want %d", i, len(v), dim)
		}
		idx.vecs[i] = search.Float32s(v)
		idx.mags[i] = idx.vecs[i].Magnitude()
	}
	return idx, nil
}

// Len is the number of indexed chunks.
func (x *Index) Len() int { return len(x.chunks) }

// Dim is the vector dimension.
func (x *Index) Dim() int { return x.dim }

// Metric is the similarity the index ranks by.
func (x *Index) Metric() types.Metric { return x.metric }

// Query returns up to k chunks ordered by decreasing similarity. Ties keep
// chunk order. k <= 0 returns every chunk.
func (x *Index) Query(vector []float32, k int) ([]types.ScoredChunk, error) {
	if len(vector) != x.dim {
		return nil, fmt.Errorf("query dim %d != index dim %d", len(vector), x.dim)
	}

	q := search.Float32s(vector)
	qm := q.Magnitude()
	out := make([]types.ScoredChunk, len(x.chunks))
	for i := range x.chunks {
		out[i] = types.ScoredChunk{Chunk: x.chunks[i], Score: x.similarity(q, qm, i)}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })

	if k <= 0 || k > len(out) {
		k = len(out)
	}
	return out[:k], nil
}

// similarity is cosine similarity, or 1/(1+d) for Euclidean distance d.
// Zero vectors score 0 under cosine.
func (x *Index) similarity(q search.Float32s, qm float32, i int) float64 {
	switch x.metric {
	case types.MetricL2:
		d := float64(q.EuclideanDistance(x.vecs[i]))
		return 1 / (1 + d)
	default:
		if qm == 0 || x.mags[i] == 0 {
			return 0
		}
		s := 1 - float64(q.CosineDistance(x.vecs[i]))
		if math.IsNaN(s) {
			return 0
		}
		return s
	}
}
