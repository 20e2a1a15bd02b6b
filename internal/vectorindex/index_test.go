// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorindex

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-brief/pkg/types"
)

func chunks(n int) []types.Chunk {
	out := make([]types.Chunk, n)
	for i := range out {
		out[i] = types.Chunk{Index: i, Text: fmt.Sprintf("chunk %d", i), Start: i * 10, End: i*10 + 10}
	}
	return out
}

var sample = [][]float32{
	{1, 0, 0},
	{0, 1, 0},
	{0.9, 0.1, 0},
	{0, 0, 1},
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []types.Chunk
		vectors [][]float32
		metric  types.Metric
	}{
		{"length mismatch", chunks(2), sample[:1], types.MetricCosine},
		{"empty", nil, nil, types.MetricCosine},
		{"dimension mismatch", chunks(2), [][]float32{{1, 2}, {1, 2, 3}}, types.MetricCosine},
		{"zero dimension", chunks(1), [][]float32{{}}, types.MetricCosine},
		{"unknown metric", chunks(1), [][]float32{{1}}, "dot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.chunks, tt.vectors, tt.metric)
			assert.Error(t, err)
		})
	}

	_, err := Build(nil, nil, types.MetricCosine)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestQuery_SelfIsTop(t *testing.T) {
	for _, metric := range []types.Metric{types.MetricCosine, types.MetricL2} {
		t.Run(string(metric), func(t *testing.T) {
			idx, err := Build(chunks(len(sample)), sample, metric)
			require.NoError(t, err)
			assert.Equal(t, 4, idx.Len())
			assert.Equal(t, 3, idx.Dim())

			for i, v := range sample {
				got, err := idx.Query(v, 1)
				require.NoError(t, err)
				require.Len(t, got, 1)
				assert.Equal(t, i, got[0].Index)
				assert.InDelta(t, 1.0, got[0].Score, 1e-5)
			}
		})
	}
}

func TestQuery_SortedNonIncreasing(t *testing.T) {
	idx, err := Build(chunks(len(sample)), sample, types.MetricCosine)
	require.NoError(t, err)

	got, err := idx.Query([]float32{1, 0.2, 0}, 0)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	assert.Equal(t, 2, got[0].Index)
	assert.Equal(t, 0, got[1].Index)
}

func TestQuery_TiesKeepChunkOrder(t *testing.T) {
	vecs := [][]float32{{0, 1}, {1, 0}, {1, 0}, {1, 0}}
	idx, err := Build(chunks(4), vecs, types.MetricCosine)
	require.NoError(t, err)

	got, err := idx.Query([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].Index, got[1].Index, got[2].Index})
}

func TestQuery_KLargerThanIndex(t *testing.T) {
	idx, err := Build(chunks(2), sample[:2], types.MetricCosine)
	require.NoError(t, err)

	got, err := idx.Query([]float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestQuery_ZeroQueryVector(t *testing.T) {
	idx, err := Build(chunks(len(sample)), sample, types.MetricCosine)
	require.NoError(t, err)

	got, err := idx.Query([]float32{0, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Zero(t, got[0].Score)
	assert.Equal(t, 0, got[0].Index)
}

func TestQuery_CosineScores(t *testing.T) {
	vecs := [][]float32{{3, 4}, {4, 3}, {-3, -4}, {2, 0}}
	idx, err := Build(chunks(len(vecs)), vecs, types.MetricCosine)
	require.NoError(t, err)

	got, err := idx.Query([]float32{6, 8}, 0)
	require.NoError(t, err)
	require.Len(t, got, 4)

	want := map[int]float64{0: 1, 1: 0.96, 3: 0.6, 2: -1}
	for _, sc := range got {
		assert.InDelta(t, want[sc.Index], sc.Score, 1e-5, "chunk %d", sc.Index)
	}
	assert.Equal(t, []int{0, 1, 3, 2}, []int{got[0].Index, got[1].Index, got[2].Index, got[3].Index})
}

func TestQuery_L2Similarity(t *testing.T) {
	idx, err := Build(chunks(2), [][]float32{{0, 0}, {3, 4}}, types.MetricL2)
	require.NoError(t, err)
	assert.Equal(t, types.MetricL2, idx.Metric())

	got, err := idx.Query([]float32{0, 0}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
	assert.InDelta(t, 1.0/6.0, got[1].Score, 1e-6)
}

func TestQuery_DimMismatch(t *testing.T) {
	idx, err := Build(chunks(1), [][]float32{{1, 2}}, "")
	require.NoError(t, err)
	assert.Equal(t, types.MetricCosine, idx.Metric())

	_, err = idx.Query([]float32{1}, 1)
	assert.Error(t, err)
}

func TestBuild_CopiesChunks(t *testing.T) {
	cs := chunks(1)
	idx, err := Build(cs, [][]float32{{1}}, types.MetricCosine)
	require.NoError(t, err)
	cs[0].Text = "mutated"

	got, err := idx.Query([]float32{1}, 1)
	require.NoError(t, err)
	assert.Equal(t, "chunk 0", got[0].Text)
}
