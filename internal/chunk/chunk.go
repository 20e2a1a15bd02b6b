// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits document text into fixed-size overlapping segments.
//
// Lengths are counted in Unicode code points. A chunk that stops short of the
// end of the text is cut at the last natural boundary (paragraph break, line
// break, sentence end, space) found in a look-back window; without one the cut
// falls exactly at the size limit. The next chunk starts overlap characters
// before the cut, so the sequence covers the text with no gaps.
package chunk

import (
	"fmt"
	"iter"
	"unicode"

	"github.com/pdiddy/research-brief/pkg/types"
)

// separators are tried in order; the first found inside the look-back window
// wins.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune(" "),
}

// lookbackDivisor bounds how far a cut may move back from the size limit, as
// a fraction of the chunk size.
const lookbackDivisor = 4

// Splitter cuts text into chunks of at most Size characters, adjacent chunks
// sharing Overlap characters.
type Splitter struct {
	size    int
	overlap int
}

// New returns a Splitter. It requires 0 <= overlap < size.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split yields the chunks of text in order. Leading and trailing whitespace
// is ignored; Start and End remain offsets into the untrimmed text.
// Whitespace-only text yields nothing.
func (s *Splitter) Split(text string) iter.Seq[types.Chunk] {
	return func(yield func(types.Chunk) bool) {
		all := []rune(text)
		lead := 0
		for lead < len(all) && unicode.IsSpace(all[lead]) {
			lead++
		}
		tail := len(all)
		for tail > lead && unicode.IsSpace(all[tail-1]) {
			tail--
		}
		runes := all[lead:tail]
		n := len(runes)

		for start, idx := 0, 0; start < n; idx++ {
			end := min(start+s.size, n)
			if end < n {
				end = s.snap(runes, start, end)
			}
			c := types.Chunk{
				Index: idx,
				Text:  string(runes[start:end]),
				Start: lead + start,
				End:   lead + end,
			}
			if !yield(c) || end == n {
				return
			}
			start = end - s.overlap
		}
	}
}

// SplitAll collects Split into a slice.
func (s *Splitter) SplitAll(text string) []types.Chunk {
	var out []types.Chunk
	for c := range s.Split(text) {
		out = append(out, c)
	}
	return out
}

// snap moves end back to just after the best separator in the window
// (lower, end]. The lower bound keeps every cut past start+overlap so the
// next chunk always begins after the current one.
func (s *Splitter) snap(runes []rune, start, end int) int {
	lower := max(start+s.overlap+1, end-s.size/lookbackDivisor)
	for _, sep := range separators {
		for p := end; p-len(sep) >= 0 && p >= lower; p-- {
			if hasSuffixAt(runes, p, sep) {
				return p
			}
		}
	}
	return end
}

func hasSuffixAt(runes []rune, p int, sep []rune) bool {
	if p < len(sep) {
		return false
	}
	for i, r := range sep {
		if runes[p-len(sep)+i] != r {
			return false
		}
	}
	return true
}

// Stats summarizes a chunk set for logging.
func Stats(chunks []types.Chunk) string {
	if len(chunks) == 0 {
		return "0 chunks"
	}
	shortest, longest := chunks[0].Len(), chunks[0].Len()
	for _, c := range chunks[1:] {
		shortest = min(shortest, c.Len())
		longest = max(longest, c.Len())
	}
	return fmt.Sprintf("%d chunks, %d-%d chars", len(chunks), shortest, longest)
}
