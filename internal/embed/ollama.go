// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ollama/ollama/api"

	"github.com/pdiddy/research-brief/internal/ollama"
)

// Ollama embeds text through a local Ollama service.
type Ollama struct {
	Model  string
	client *api.Client
}

// NewOllama returns an Ollama embedder for model served at baseURL.
func NewOllama(baseURL, model string, httpClient *http.Client) (*Ollama, error) {
	c, err := ollama.NewClient(baseURL, httpClient)
	if err != nil {
		return nil, err
	}
	return &Ollama{Model: model, client: c}, nil
}

func (o *Ollama) Name() string { return "ollama/" + o.Model }

// Prepare checks that the model is installed so a missing model fails before
// any chunk is embedded.
func (o *Ollama) Prepare(ctx context.Context, _ []string) error {
	_, err := o.client.Show(ctx, &api.ShowRequest{Model: o.Model})
	if ollama.IsNotFound(err) {
		return fmt.Errorf("embedding model %q is not installed (ollama pull %s): %w", o.Model, o.Model, err)
	}
	if err != nil {
		return fmt.Errorf("checking embedding model %q: %w", o.Model, err)
	}
	return nil
}

func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.Embed(ctx, &api.EmbedRequest{Model: o.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("embedding with %s: %w", o.Model, err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("embedding with %s: empty vector in response", o.Model)
	}
	return resp.Embeddings[0], nil
}
