// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package brief runs the research brief pipeline: load a PDF, chunk it,
// embed and index the chunks, retrieve context for the summary question, and
// ask the language model for the brief.
//
// Stages run strictly in order and the first failure ends the run. Every
// failure is reported as one of the error types in this package. The vector
// index lives only for the duration of a run.
package brief

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/phuslu/log"

	"github.com/pdiddy/research-brief/internal/chunk"
	"github.com/pdiddy/research-brief/internal/embed"
	"github.com/pdiddy/research-brief/internal/llm"
	"github.com/pdiddy/research-brief/internal/loader"
	"github.com/pdiddy/research-brief/internal/logging"
	"github.com/pdiddy/research-brief/internal/retrieve"
	"github.com/pdiddy/research-brief/internal/synth"
	"github.com/pdiddy/research-brief/internal/vectorindex"
	"github.com/pdiddy/research-brief/pkg/types"
)

// Loader reads a PDF into a Document. It reports a missing file with
// loader.ErrMissing and an unreadable one with loader.ErrNoText.
type Loader interface {
	Load(path string) (types.Document, error)
	LoadBytes(name string, data []byte) (types.Document, error)
}

// Pipeline turns one PDF into a Brief. It holds no state between runs.
type Pipeline struct {
	cfg      types.PipelineConfig
	splitter *chunk.Splitter
	loader   Loader
	embedder embed.Embedder
	model    llm.Client
	keys     llm.KeySource
	http     *http.Client
	log      *log.Logger
	now      func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLoader replaces the PDF loader.
func WithLoader(l Loader) Option { return func(p *Pipeline) { p.loader = l } }

// WithEmbedder replaces the embedder selected by the configuration.
func WithEmbedder(e embed.Embedder) Option { return func(p *Pipeline) { p.embedder = e } }

// WithModel replaces the language model selected by the configuration.
func WithModel(m llm.Client) Option { return func(p *Pipeline) { p.model = m } }

// WithKeys sets the API key source for remote model providers.
func WithKeys(k llm.KeySource) Option { return func(p *Pipeline) { p.keys = k } }

// WithHTTPClient sets the client used for local and remote inference calls.
func WithHTTPClient(c *http.Client) Option { return func(p *Pipeline) { p.http = c } }

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *log.Logger) Option { return func(p *Pipeline) { p.log = l } }

// WithClock sets the time source used to stamp briefs.
func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

// New validates cfg and wires the pipeline. Components not supplied through
// options are built from cfg. A model that cannot be configured, such as a
// remote provider without an API key, is reported as a ModelBackendError.
func New(cfg types.PipelineConfig, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	splitter, err := chunk.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: cfg, splitter: splitter, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logging.OrDiscard(p.log)
	if p.http == nil {
		p.http = &http.Client{Timeout: cfg.RequestTimeout}
	}
	if p.loader == nil {
		p.loader = loader.New(p.log)
	}
	if p.embedder == nil {
		e, err := embed.New(cfg, p.http)
		if err != nil {
			return nil, &EmbeddingBackendError{Backend: string(cfg.Embedder), Chunk: -1, Err: err}
		}
		p.embedder = e
	}
	if p.model == nil {
		m, err := llm.New(context.Background(), cfg, p.keys, p.http)
		if err != nil {
			return nil, &ModelBackendError{Model: cfg.LLMModel, Err: err}
		}
		p.model = m
	}
	return p, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() types.PipelineConfig { return p.cfg }

// Run produces a brief for the PDF at path.
func (p *Pipeline) Run(ctx context.Context, path string) (*types.Brief, error) {
	if path == "" {
		return nil, &MissingInputError{Path: path, Err: loader.ErrMissing}
	}

	start := time.Now()
	doc, err := p.loader.Load(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	return p.run(ctx, doc, time.Since(start))
}

// RunBytes produces a brief for a PDF held in memory. name labels the
// document in the brief and in log output.
func (p *Pipeline) RunBytes(ctx context.Context, name string, data []byte) (*types.Brief, error) {
	start := time.Now()
	doc, err := p.loader.LoadBytes(name, data)
	if err != nil {
		return nil, loadError(name, err)
	}
	return p.run(ctx, doc, time.Since(start))
}

func loadError(path string, err error) error {
	if errors.Is(err, loader.ErrMissing) {
		return &MissingInputError{Path: path, Err: err}
	}
	return &EmptyExtractionError{Path: path, Err: err}
}

func (p *Pipeline) run(ctx context.Context, doc types.Document, loadTime time.Duration) (*types.Brief, error) {
	stats := types.RunStats{
		Pages:          doc.PageCount(),
		ExtractedPages: doc.ExtractedPages(),
		Characters:     utf8.RuneCountInString(doc.Content),
		LoadTime:       loadTime,
	}
	p.log.Info().Str("document", doc.Path).
		Int("pages", stats.Pages).
		Int("extracted_pages", stats.ExtractedPages).
		Int("characters", stats.Characters).
		Dur("took", loadTime).
		Msg("document loaded")

	// --- chunk ---

	chunks := p.splitter.SplitAll(doc.Content)
	if len(chunks) == 0 {
		return nil, &EmptyChunkSetError{Path: doc.Path}
	}
	stats.Chunks = len(chunks)
	p.log.Info().Str("document", doc.Path).
		Int("chunk_size", p.cfg.ChunkSize).
		Int("chunk_overlap", p.cfg.ChunkOverlap).
		Msg(chunk.Stats(chunks))

	// --- embed and index ---

	indexStart := time.Now()
	idx, err := p.index(ctx, chunks)
	if err != nil {
		return nil, err
	}
	stats.Vectors = idx.Len()
	stats.Dimension = idx.Dim()
	stats.IndexTime = time.Since(indexStart)
	p.log.Info().Str("embedder", p.embedder.Name()).
		Int("vectors", stats.Vectors).
		Int("dimension", stats.Dimension).
		Str("metric", string(idx.Metric())).
		Dur("took", stats.IndexTime).
		Msg("index built")

	// --- retrieve and generate ---

	genStart := time.Now()
	syn := synth.New(retrieve.New(p.embedder, idx, p.cfg.TopK), p.model)
	res, err := syn.Answer(ctx, types.SummaryQuery)
	if err != nil {
		return nil, p.answerError(err)
	}
	stats.Retrieved = len(res.Sources)
	stats.GenerateTime = time.Since(genStart)
	p.log.Info().Str("model", p.model.Name()).
		Int("retrieved", stats.Retrieved).
		Int("answer_chars", utf8.RuneCountInString(res.Answer)).
		Dur("took", stats.GenerateTime).
		Msg("brief generated")

	return &types.Brief{
		Document:       doc.Path,
		Query:          types.SummaryQuery,
		Answer:         res.Answer,
		LLMModel:       p.model.Name(),
		EmbeddingModel: p.embedder.Name(),
		Sources:        res.Sources,
		Stats:          stats,
		GeneratedAt:    p.now().UTC(),
	}, nil
}

// index embeds every chunk exactly once and builds the vector index.
func (p *Pipeline) index(ctx context.Context, chunks []types.Chunk) (*vectorindex.Index, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	if err := p.embedder.Prepare(ctx, texts); err != nil {
		return nil, &EmbeddingBackendError{Backend: p.embedder.Name(), Chunk: -1, Err: err}
	}

	vectors := make([][]float32, len(chunks))
	for i, text := range texts {
		v, err := p.embedder.Embed(ctx, text)
		if err != nil {
			return nil, &EmbeddingBackendError{Backend: p.embedder.Name(), Chunk: i, Err: err}
		}
		vectors[i] = v
		p.log.Debug().Int("chunk", i).Int("dimension", len(v)).Msg("chunk embedded")
	}

	idx, err := vectorindex.Build(chunks, vectors, p.cfg.Metric)
	if err != nil {
		return nil, &IndexBuildError{Err: err}
	}
	return idx, nil
}

// answerError maps a synthesis failure onto the taxonomy. A failure to embed
// the query belongs to the embedding backend; any other retrieval failure
// means the index could not serve the query.
func (p *Pipeline) answerError(err error) error {
	var embedErr *retrieve.EmbedError
	if errors.As(err, &embedErr) {
		return &EmbeddingBackendError{Backend: p.embedder.Name(), Chunk: -1, Err: embedErr.Err}
	}
	var retrievalErr *synth.RetrievalError
	if errors.As(err, &retrievalErr) {
		return &IndexBuildError{Err: retrievalErr.Err}
	}
	var genErr *synth.GenerationError
	if errors.As(err, &genErr) {
		return &ModelBackendError{Model: p.model.Name(), Err: genErr.Err}
	}
	return fmt.Errorf("answering: %w", err)
}
