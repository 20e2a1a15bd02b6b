// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brief

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-brief/internal/embed"
	"github.com/pdiddy/research-brief/internal/llm"
	"github.com/pdiddy/research-brief/internal/loader"
	"github.com/pdiddy/research-brief/internal/logging"
	"github.com/pdiddy/research-brief/pkg/types"
)

// --- fakes ---

// docLoader returns a fixed document or error for any path.
type docLoader struct {
	doc types.Document
	err error
}

func (l docLoader) Load(path string) (types.Document, error) {
	if l.err != nil {
		return types.Document{}, l.err
	}
	d := l.doc
	d.Path = path
	return d, nil
}

func (l docLoader) LoadBytes(name string, _ []byte) (types.Document, error) { return l.Load(name) }

// spyEmbedder wraps TF-IDF and counts calls.
type spyEmbedder struct {
	inner    *embed.TFIDF
	prepares int
	embeds   int
	failAt   int
}

func newSpy() *spyEmbedder { return &spyEmbedder{inner: embed.NewTFIDF(), failAt: -1} }

func (s *spyEmbedder) Name() string { return "spy/tfidf" }

func (s *spyEmbedder) Prepare(ctx context.Context, corpus []string) error {
	s.prepares++
	return s.inner.Prepare(ctx, corpus)
}

func (s *spyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	defer func() { s.embeds++ }()
	if s.embeds == s.failAt {
		return nil, errors.New("embedding service crashed")
	}
	return s.inner.Embed(ctx, text)
}

type stubModel struct {
	answer  string
	err     error
	prompts []string
}

func (m *stubModel) Name() string { return "stub/model" }

func (m *stubModel) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.answer, m.err
}

// paperText returns exactly n characters of sentence-shaped prose.
func paperText(n int) string {
	sentences := []string{
		"The objective of this study is to measure retrieval quality.",
		"We use a transformer encoder and a brute force index.",
		"Results show a clear improvement over the keyword baseline.",
		"We conclude that dense retrieval helps short documents.",
	}
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		b.WriteString(sentences[i%len(sentences)])
		b.WriteByte(' ')
	}
	return b.String()[:n-1] + "."
}

func docOf(text string) types.Document {
	return types.Document{Pages: []types.Page{{Number: 1, Text: text}}, Content: text}
}

func testConfig() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()
	cfg.Embedder = types.EmbedderTFIDF
	return cfg
}

// --- scenarios ---

func TestRun_ThreeChunkDocument(t *testing.T) {
	spy := newSpy()
	model := &stubModel{answer: "Research objective: measure retrieval quality."}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	p, err := New(testConfig(),
		WithLoader(docLoader{doc: docOf(paperText(3200))}),
		WithEmbedder(spy),
		WithModel(model),
		WithClock(func() time.Time { return fixed }),
	)
	require.NoError(t, err)

	b, err := p.Run(context.Background(), "data/paper.pdf")
	require.NoError(t, err)

	assert.Equal(t, 3, b.Stats.Chunks)
	assert.Equal(t, 3, b.Stats.Vectors)
	assert.Equal(t, 3200, b.Stats.Characters)
	assert.NotEmpty(t, b.Answer)
	assert.Equal(t, "data/paper.pdf", b.Document)
	assert.Equal(t, "stub/model", b.LLMModel)
	assert.Equal(t, "spy/tfidf", b.EmbeddingModel)
	assert.Equal(t, types.SummaryQuery, b.Query)
	assert.Equal(t, fixed, b.GeneratedAt)

	// Three chunks plus the query, one model call.
	assert.Equal(t, 1, spy.prepares)
	assert.Equal(t, 4, spy.embeds)
	require.Len(t, model.prompts, 1)

	// top_k 4 over 3 chunks returns all of them, most similar first.
	require.Len(t, b.Sources, 3)
	assert.Equal(t, 3, b.Stats.Retrieved)
	for i := 1; i < len(b.Sources); i++ {
		assert.GreaterOrEqual(t, b.Sources[i-1].Score, b.Sources[i].Score)
	}
	for _, s := range b.Sources {
		assert.Contains(t, model.prompts[0], s.Text)
	}
}

func TestRun_TopKLimitsContext(t *testing.T) {
	cfg := testConfig()
	cfg.ChunkSize = 300
	cfg.ChunkOverlap = 30
	cfg.TopK = 2
	model := &stubModel{answer: "ok"}

	p, err := New(cfg, WithLoader(docLoader{doc: docOf(paperText(3000))}), WithModel(model))
	require.NoError(t, err)

	b, err := p.Run(context.Background(), "paper.pdf")
	require.NoError(t, err)
	assert.Greater(t, b.Stats.Chunks, 2)
	assert.Len(t, b.Sources, 2)
}

func TestRun_BlankPDFStopsBeforeEmbedding(t *testing.T) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.AddPage()
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	path := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	spy := newSpy()
	model := &stubModel{answer: "x"}
	p, err := New(testConfig(), WithEmbedder(spy), WithModel(model))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), path)
	require.Error(t, err)

	var ee *EmptyExtractionError
	require.True(t, errors.As(err, &ee), "got %T: %v", err, err)
	assert.ErrorIs(t, err, loader.ErrNoText)
	assert.Equal(t, KindEmptyExtraction, Kind(err))
	assert.Zero(t, spy.prepares)
	assert.Zero(t, spy.embeds)
	assert.Empty(t, model.prompts)
}

func TestRun_UnreachableModelAfterIndexBuilt(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	model, err := llm.NewOllama(url, "llama3", 0, nil)
	require.NoError(t, err)

	spy := newSpy()
	p, err := New(testConfig(),
		WithLoader(docLoader{doc: docOf(paperText(3200))}),
		WithEmbedder(spy),
		WithModel(model),
	)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), "paper.pdf")
	require.Error(t, err)

	var me *ModelBackendError
	require.True(t, errors.As(err, &me), "got %T: %v", err, err)
	assert.Equal(t, KindModelBackend, Kind(err))
	// Every chunk and the query were embedded, so the index existed.
	assert.Equal(t, 4, spy.embeds)
}

// --- error taxonomy ---

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		loader   Loader
		embedder func() *spyEmbedder
		model    *stubModel
		path     string
		wantKind string
	}{
		{
			name:     "missing file",
			loader:   loader.New(nil),
			path:     "does/not/exist.pdf",
			wantKind: KindMissingInput,
		},
		{
			name:     "empty path",
			loader:   loader.New(nil),
			path:     "",
			wantKind: KindMissingInput,
		},
		{
			name:     "whitespace document",
			loader:   docLoader{doc: docOf("   \n\n  ")},
			path:     "p.pdf",
			wantKind: KindEmptyChunkSet,
		},
		{
			name:     "embedding fails mid-corpus",
			loader:   docLoader{doc: docOf(paperText(3200))},
			embedder: func() *spyEmbedder { s := newSpy(); s.failAt = 1; return s },
			path:     "p.pdf",
			wantKind: KindEmbeddingBackend,
		},
		{
			name:     "query embedding fails",
			loader:   docLoader{doc: docOf(paperText(3200))},
			embedder: func() *spyEmbedder { s := newSpy(); s.failAt = 3; return s },
			path:     "p.pdf",
			wantKind: KindEmbeddingBackend,
		},
		{
			name:     "model error",
			loader:   docLoader{doc: docOf(paperText(500))},
			model:    &stubModel{err: errors.New("connection refused")},
			path:     "p.pdf",
			wantKind: KindModelBackend,
		},
		{
			name:     "empty answer",
			loader:   docLoader{doc: docOf(paperText(500))},
			model:    &stubModel{answer: "  "},
			path:     "p.pdf",
			wantKind: KindModelBackend,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := newSpy()
			if tt.embedder != nil {
				spy = tt.embedder()
			}
			model := tt.model
			if model == nil {
				model = &stubModel{answer: "fine"}
			}
			p, err := New(testConfig(), WithLoader(tt.loader), WithEmbedder(spy), WithModel(model))
			require.NoError(t, err)

			b, err := p.Run(context.Background(), tt.path)
			require.Error(t, err)
			assert.Nil(t, b)
			assert.Equal(t, tt.wantKind, Kind(err), "error: %v", err)
		})
	}
}

func TestRunBytes(t *testing.T) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	doc.Cell(0, 10, "Attention improves retrieval quality")
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))

	model := &stubModel{answer: "Key findings: attention helps."}
	p, err := New(testConfig(), WithModel(model), WithLogger(logging.Discard()))
	require.NoError(t, err)

	b, err := p.RunBytes(context.Background(), "upload.pdf", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "upload.pdf", b.Document)
	assert.Equal(t, 1, b.Stats.Chunks)
	assert.Equal(t, "tfidf", b.EmbeddingModel)
	assert.Contains(t, model.prompts[0], "Attention")
}

// --- construction ---

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ChunkOverlap = cfg.ChunkSize
	_, err := New(cfg, WithModel(&stubModel{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ChunkOverlap")
}

func TestNew_RemoteModelWithoutKey(t *testing.T) {
	cfg := testConfig()
	cfg.LLMModel = "claude-sonnet-4-20250514"
	_, err := New(cfg)
	require.Error(t, err)
	assert.Equal(t, KindModelBackend, Kind(err))
}

// staticKeys returns the same key for every lookup.
type staticKeys struct{ key string }

func (s staticKeys) Lookup(string) (string, error) { return s.key, nil }

func TestNew_TemperatureAboveProviderLimit(t *testing.T) {
	cfg := testConfig()
	cfg.LLMModel = "claude-sonnet-4-20250514"
	cfg.Temperature = 1.5
	require.NoError(t, cfg.Validate())

	_, err := New(cfg, WithKeys(staticKeys{"k"}))
	require.Error(t, err)
	assert.Equal(t, KindModelBackend, Kind(err))
	assert.Contains(t, err.Error(), "out of range [0, 1] for anthropic")
}

func TestNew_DefaultComponents(t *testing.T) {
	p, err := New(types.DefaultPipelineConfig())
	require.NoError(t, err)
	assert.Equal(t, "ollama/all-minilm", p.embedder.Name())
	assert.Equal(t, "ollama/llama3", p.model.Name())
	assert.Equal(t, types.DefaultPipelineConfig(), p.Config())
}

func TestKind(t *testing.T) {
	base := errors.New("cause")
	tests := []struct {
		err  error
		want string
	}{
		{&MissingInputError{Path: "p", Err: base}, KindMissingInput},
		{&EmptyExtractionError{Path: "p", Err: base}, KindEmptyExtraction},
		{&EmptyChunkSetError{Path: "p"}, KindEmptyChunkSet},
		{&EmbeddingBackendError{Backend: "b", Chunk: 2, Err: base}, KindEmbeddingBackend},
		{&IndexBuildError{Err: base}, KindIndexBuild},
		{&ModelBackendError{Model: "m", Err: base}, KindModelBackend},
		{fmt.Errorf("wrapped: %w", &IndexBuildError{Err: base}), KindIndexBuild},
		{base, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err))
		if tt.want != "" && tt.want != KindEmptyChunkSet {
			assert.ErrorIs(t, tt.err, base)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "no research paper at data/paper.pdf", (&MissingInputError{Path: "data/paper.pdf"}).Error())
	assert.Contains(t, (&EmptyExtractionError{Path: "scan.pdf"}).Error(), "likely scanned")
	assert.Contains(t, (&EmbeddingBackendError{Backend: "b", Chunk: 3, Err: errors.New("x")}).Error(), "chunk 3")
	assert.NotContains(t, (&EmbeddingBackendError{Backend: "b", Chunk: -1, Err: errors.New("x")}).Error(), "chunk")
}
