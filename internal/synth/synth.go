// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth assembles the retrieval-augmented prompt and asks the
// language model for the answer.
package synth

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/research-brief/pkg/types"
)

// stuffPromptTmpl places every retrieved chunk into one prompt ahead of the
// question.
var stuffPromptTmpl = template.Must(template.New("stuff").Parse(`Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{{.Context}}

Question: {{.Question}}
Helpful Answer:`))

// Retriever returns the chunks relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]types.ScoredChunk, error)
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is the synthesized answer together with the context it was built
// from.
type Result struct {
	Answer  string
	Prompt  string
	Sources []types.ScoredChunk
}

// RetrievalError wraps a failure in the retrieval pass.
type RetrievalError struct{ Err error }

func (e *RetrievalError) Error() string { return "retrieving context: " + e.Err.Error() }
func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError wraps a failure of the language model call.
type GenerationError struct{ Err error }

func (e *GenerationError) Error() string { return "generating answer: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// Synthesizer runs one retrieval pass and one model call per question.
type Synthesizer struct {
	Retriever Retriever
	Model     Generator
}

// New returns a Synthesizer.
func New(r Retriever, model Generator) *Synthesizer {
	return &Synthesizer{Retriever: r, Model: model}
}

// Answer retrieves context for question, builds the prompt, and calls the
// model exactly once. An empty retrieval still reaches the model with an
// empty context.
func (s *Synthesizer) Answer(ctx context.Context, question string) (*Result, error) {
	sources, err := s.Retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}

	prompt, err := BuildPrompt(question, sources)
	if err != nil {
		return nil, err
	}

	answer, err := s.Model.Generate(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}
	if strings.TrimSpace(answer) == "" {
		return nil, &GenerationError{Err: fmt.Errorf("model returned an empty answer")}
	}
	return &Result{Answer: answer, Prompt: prompt, Sources: sources}, nil
}

// BuildPrompt renders the stuff template: chunk texts joined by blank lines,
// followed by the question.
func BuildPrompt(question string, sources []types.ScoredChunk) (string, error) {
	texts := make([]string, len(sources))
	for i, s := range sources {
		texts[i] = s.Text
	}

	var buf bytes.Buffer
	err := stuffPromptTmpl.Execute(&buf, struct {
		Context  string
		Question string
	}{
		Context:  strings.Join(texts, "\n\n"),
		Question: question,
	})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}
