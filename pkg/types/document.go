// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Page is the text extracted from one PDF page. Text is empty when the page
// yielded nothing extractable.
type Page struct {
	// Number is the 1-based page number.
	Number int `json:"number" yaml:"number"`

	// Text is the plain text of the page, exactly as extracted.
	Text string `json:"text" yaml:"text"`
}

// Document is a loaded PDF: its source path, the per-page extraction, and the
// concatenated plain text. It is created once per run and never mutated.
type Document struct {
	// Path is the filesystem path or display name of the source PDF.
	Path string `json:"path" yaml:"path"`

	// Pages holds one entry per page in page order, including empty pages.
	Pages []Page `json:"pages" yaml:"pages"`

	// Content is the concatenation of all page texts in page order.
	Content string `json:"content" yaml:"content"`
}

// PageCount returns the number of pages in the source PDF.
func (d Document) PageCount() int { return len(d.Pages) }

// ExtractedPages returns how many pages contributed text.
func (d Document) ExtractedPages() int {
	n := 0
	for _, p := range d.Pages {
		if p.Text != "" {
			n++
		}
	}
	return n
}

// Chunk is a contiguous substring of a Document's content used as the unit of
// retrieval. Start and End are rune offsets into Document.Content, so Text
// equals the runes of Content in [Start, End).
type Chunk struct {
	Index int    `json:"index" yaml:"index"`
	Text  string `json:"text" yaml:"text"`
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
}

// Len returns the chunk length in characters.
func (c Chunk) Len() int { return c.End - c.Start }

// ScoredChunk is a Chunk returned by a similarity query. Higher Score means
// more similar.
type ScoredChunk struct {
	Chunk `yaml:",inline"`
	Score float64 `json:"score" yaml:"score"`
}
