// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/pdiddy/research-brief/internal/ollama"
)

// Ollama generates text with a model served by a local Ollama instance.
type Ollama struct {
	Model       string
	Temperature float64
	client      *api.Client
}

// NewOllama returns an Ollama client for model at baseURL.
func NewOllama(baseURL, model string, temperature float64, httpClient *http.Client) (*Ollama, error) {
	c, err := ollama.NewClient(baseURL, httpClient)
	if err != nil {
		return nil, err
	}
	return &Ollama{Model: model, Temperature: temperature, client: c}, nil
}

func (o *Ollama) Name() string { return "ollama/" + o.Model }

// Generate sends prompt to /api/generate with streaming disabled.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   o.Model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: map[string]any{"temperature": o.Temperature},
	}

	var out strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if ollama.IsNotFound(err) {
		return "", fmt.Errorf("model %q is not available (ollama pull %s): %w", o.Model, o.Model, err)
	}
	if err != nil {
		return "", fmt.Errorf("generating with %s: %w", o.Model, err)
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", fmt.Errorf("generating with %s: empty response", o.Model)
	}
	return out.String(), nil
}
