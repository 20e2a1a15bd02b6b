// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm calls the language model that writes the brief. The provider is
// chosen from the model identifier: "claude-" and "anthropic/" models go to
// Anthropic, "gemini-" and "google/" models go to Gemini, and everything else
// is served by the local Ollama instance.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/research-brief/internal/secrets"
	"github.com/pdiddy/research-brief/pkg/types"
)

// Client generates a completion for a single prompt. Implementations make
// exactly one request per call and never retry.
type Client interface {
	// Name identifies the provider and model, e.g. "ollama/llama3".
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider names a model backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// KeySource resolves API keys for remote providers.
type KeySource interface {
	Lookup(name string) (string, error)
}

// DetectProvider determines the provider from a model identifier.
func DetectProvider(model string) Provider {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "anthropic/"), strings.HasPrefix(m, "claude/"), strings.HasPrefix(m, "claude-"):
		return ProviderAnthropic
	case strings.HasPrefix(m, "google/"), strings.HasPrefix(m, "gemini/"), strings.HasPrefix(m, "gemini-"):
		return ProviderGemini
	default:
		return ProviderOllama
	}
}

// NormalizeModel strips a provider prefix from the model identifier.
func NormalizeModel(model string) string {
	for _, prefix := range []string{"anthropic/", "claude/", "google/", "gemini/", "ollama/"} {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// MaxTemperature is the highest sampling temperature the provider accepts.
func MaxTemperature(p Provider) float64 {
	if p == ProviderAnthropic {
		return 1
	}
	return 2
}

// New returns the Client for cfg.LLMModel. keys is consulted only for
// remote providers.
func New(ctx context.Context, cfg types.PipelineConfig, keys KeySource, httpClient *http.Client) (Client, error) {
	model := NormalizeModel(cfg.LLMModel)
	if model == "" {
		return nil, fmt.Errorf("no language model configured")
	}

	provider := DetectProvider(cfg.LLMModel)
	if limit := MaxTemperature(provider); cfg.Temperature < 0 || cfg.Temperature > limit {
		return nil, fmt.Errorf("temperature %g out of range [0, %g] for %s", cfg.Temperature, limit, provider)
	}

	switch provider {
	case ProviderAnthropic:
		key, err := lookup(keys, secrets.AnthropicAPIKey)
		if err != nil {
			return nil, err
		}
		return NewAnthropic(key, model, cfg.Temperature, cfg.MaxTokens, httpClient), nil
	case ProviderGemini:
		key, err := lookup(keys, secrets.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		return NewGemini(ctx, key, model, cfg.Temperature, httpClient)
	default:
		return NewOllama(cfg.OllamaURL, model, cfg.Temperature, httpClient)
	}
}

func lookup(keys KeySource, name string) (string, error) {
	if keys == nil {
		return "", fmt.Errorf("no key source for %s", name)
	}
	key, err := keys.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("resolving API key: %w", err)
	}
	return key, nil
}
