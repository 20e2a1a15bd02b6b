// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SummaryQuery is the fixed prompt sent through the pipeline. It asks for the
// four sections of a research brief.
const SummaryQuery = `Provide a clear academic summary covering:
- Research objective
- Methodology
- Key findings
- Conclusions`

// RunStats records what each pipeline stage produced.
type RunStats struct {
	Pages          int `json:"pages" yaml:"pages"`
	ExtractedPages int `json:"extracted_pages" yaml:"extracted_pages"`
	Characters     int `json:"characters" yaml:"characters"`
	Chunks         int `json:"chunks" yaml:"chunks"`
	Vectors        int `json:"vectors" yaml:"vectors"`
	Dimension      int `json:"dimension" yaml:"dimension"`
	Retrieved      int `json:"retrieved" yaml:"retrieved"`

	LoadTime     time.Duration `json:"load_time" yaml:"load_time"`
	IndexTime    time.Duration `json:"index_time" yaml:"index_time"`
	GenerateTime time.Duration `json:"generate_time" yaml:"generate_time"`
}

// Brief is the result of one pipeline run: the model's answer plus the
// provenance needed to render or archive it.
type Brief struct {
	// ID is assigned by the archive; empty for unarchived briefs.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Document is the path or name of the source PDF.
	Document string `json:"document" yaml:"document"`

	// Query is the prompt the answer responds to.
	Query string `json:"query" yaml:"query"`

	// Answer is the language model's text, rendered as-is.
	Answer string `json:"answer" yaml:"answer"`

	LLMModel       string `json:"llm_model" yaml:"llm_model"`
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`

	// Sources are the retrieved chunks, most similar first.
	Sources []ScoredChunk `json:"sources" yaml:"sources"`

	Stats       RunStats  `json:"stats" yaml:"stats"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}
