// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// EmbedderBackend selects the embedding implementation.
type EmbedderBackend string

const (
	EmbedderOllama EmbedderBackend = "ollama"
	EmbedderTFIDF  EmbedderBackend = "tfidf"
)

// Metric selects the vector similarity used by the index. It must match the
// metric the embedding model was trained with.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
)

// Defaults for PipelineConfig.
const (
	DefaultChunkSize      = 1500
	DefaultChunkOverlap   = 150
	DefaultEmbeddingModel = "all-minilm"
	DefaultLLMModel       = "llama3"
	DefaultTopK           = 4
	DefaultOllamaURL      = "http://localhost:11434"
	DefaultMaxTokens      = 1024
	DefaultTimeout        = 5 * time.Minute
)

// PipelineConfig holds every tunable of the research brief pipeline. It is
// passed to the pipeline constructor; nothing in the pipeline reads global
// state.
type PipelineConfig struct {
	// ChunkSize is the maximum chunk length in characters (default 1500).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size" validate:"gt=0"`

	// ChunkOverlap is the number of characters shared by adjacent chunks
	// (default 150). Must be smaller than ChunkSize.
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap" mapstructure:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`

	// EmbeddingModel identifies the local embedding model (default "all-minilm").
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model" mapstructure:"embedding_model" validate:"required_if=Embedder ollama"`

	// LLMModel identifies the language model (default "llama3"). A "claude-"
	// or "gemini-" prefix routes the request to the matching remote provider.
	LLMModel string `json:"llm_model" yaml:"llm_model" mapstructure:"llm_model" validate:"required"`

	// Temperature is the decoding randomness (default 0, deterministic).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`

	// TopK is the number of chunks retrieved per query (default 4).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k" validate:"gte=1"`

	// Embedder selects the embedding backend: ollama or tfidf.
	Embedder EmbedderBackend `json:"embedder" yaml:"embedder" mapstructure:"embedder" validate:"oneof=ollama tfidf"`

	// Metric selects the index similarity: cosine or l2.
	Metric Metric `json:"metric" yaml:"metric" mapstructure:"metric" validate:"oneof=cosine l2"`

	// OllamaURL is the base URL of the local inference service.
	OllamaURL string `json:"ollama_url" yaml:"ollama_url" mapstructure:"ollama_url" validate:"required,url"`

	// RequestTimeout bounds each call to an inference backend.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout" validate:"gte=0"`

	// MaxTokens caps the answer length for remote providers that require it.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens" validate:"gt=0"`
}

// DefaultPipelineConfig returns the configuration used when no file, flag,
// or environment variable overrides a value.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChunkSize:      DefaultChunkSize,
		ChunkOverlap:   DefaultChunkOverlap,
		EmbeddingModel: DefaultEmbeddingModel,
		LLMModel:       DefaultLLMModel,
		Temperature:    0,
		TopK:           DefaultTopK,
		Embedder:       EmbedderOllama,
		Metric:         MetricCosine,
		OllamaURL:      DefaultOllamaURL,
		RequestTimeout: DefaultTimeout,
		MaxTokens:      DefaultMaxTokens,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and returns a single error listing every
// offending field.
func (c PipelineConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "ltfield":
		return fmt.Sprintf("%s (%v) must be smaller than %s", fe.Field(), fe.Value(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s %q must be one of [%s]", fe.Field(), fe.Value(), fe.Param())
	case "required", "required_if":
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("%s (%v) fails %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
	}
}
