// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader extracts plain text from a PDF page by page.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/phuslu/log"

	"github.com/pdiddy/research-brief/internal/logging"
	"github.com/pdiddy/research-brief/pkg/types"
)

// ErrMissing is returned when the input path does not exist.
var ErrMissing = errors.New("document not found")

// ErrNoText is returned when no page yields extractable text. Scanned PDFs
// without a text layer end up here; there is no OCR fallback.
var ErrNoText = errors.New("no extractable text")

// pageReader is the slice of *pdf.Reader the loader needs. Tests substitute
// fakes to drive per-page failures.
type pageReader interface {
	NumPage() int
	PageText(i int) (string, error)
}

// PDF loads documents with github.com/ledongthuc/pdf.
type PDF struct {
	Logger *log.Logger
}

// New returns a PDF loader. A nil logger discards output.
func New(logger *log.Logger) *PDF {
	return &PDF{Logger: logger}
}

// Load reads the PDF at path. The existence check happens before the file is
// opened so a missing file is never reported as a parse failure.
func (l *PDF) Load(path string) (types.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.Document{}, fmt.Errorf("%s: %w", path, ErrMissing)
		}
		return types.Document{}, fmt.Errorf("checking %s: %w", path, err)
	}
	if info.IsDir() {
		return types.Document{}, fmt.Errorf("%s is a directory: %w", path, ErrMissing)
	}

	f, err := os.Open(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return l.read(path, f, info.Size())
}

// LoadBytes reads a PDF held in memory. name is recorded as the document path.
func (l *PDF) LoadBytes(name string, data []byte) (types.Document, error) {
	if len(data) == 0 {
		return types.Document{}, fmt.Errorf("%s: empty input: %w", name, ErrNoText)
	}
	return l.read(name, bytes.NewReader(data), int64(len(data)))
}

func (l *PDF) read(name string, r io.ReaderAt, size int64) (doc types.Document, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if p := recover(); p != nil {
			doc = types.Document{}
			err = fmt.Errorf("parsing %s: %v: %w", name, p, ErrNoText)
		}
	}()

	rd, err := pdf.NewReader(r, size)
	if err != nil {
		return types.Document{}, fmt.Errorf("parsing %s: %w: %w", name, err, ErrNoText)
	}
	return extract(name, ledongthucReader{rd}, l.Logger)
}

// extract walks every page of pr and builds the Document. Pages that fail or
// yield nothing are kept as empty entries and logged at debug level.
func extract(name string, pr pageReader, logger *log.Logger) (types.Document, error) {
	logger = logging.OrDiscard(logger)
	n := pr.NumPage()
	doc := types.Document{Path: name, Pages: make([]types.Page, 0, n)}

	var content strings.Builder
	for i := 1; i <= n; i++ {
		text, err := pr.PageText(i)
		if err != nil {
			logger.Debug().Str("document", name).Int("page", i).Err(err).Msg("page extraction failed, skipping")
			text = ""
		} else if text == "" {
			logger.Debug().Str("document", name).Int("page", i).Msg("page has no text")
		}
		doc.Pages = append(doc.Pages, types.Page{Number: i, Text: text})
		content.WriteString(text)
	}
	doc.Content = content.String()

	if strings.TrimSpace(doc.Content) == "" {
		return types.Document{}, fmt.Errorf("%s: %d pages: %w", name, n, ErrNoText)
	}
	return doc, nil
}

// ledongthucReader adapts *pdf.Reader to pageReader.
type ledongthucReader struct {
	r *pdf.Reader
}

func (a ledongthucReader) NumPage() int { return a.r.NumPage() }

func (a ledongthucReader) PageText(i int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("page %d: %v", i, p)
		}
	}()
	page := a.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
