// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pdiddy/research-brief/pkg/types"
)

const (
	pdfFont     = "Helvetica"
	pdfFontSize = 10.0
	pdfLine     = 5.0
)

// PDF writes b as a one-column A4 document.
func PDF(w io.Writer, b *types.Brief, opts Options) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(15, 15, 15)
	doc.SetAutoPageBreak(true, 15)
	doc.SetTitle(Title, true)
	doc.SetCreator("research-brief", true)
	doc.AddPage()

	r := &pdfRenderer{pdf: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}

	source := []byte(Markdown(b, opts))
	tree := markdown.Parser().Parse(text.NewReader(source))
	r.source = source
	if err := ast.Walk(tree, r.walk); err != nil {
		return fmt.Errorf("laying out brief: %w", err)
	}

	doc.Ln(pdfLine)
	doc.SetFont(pdfFont, "I", 8)
	doc.SetTextColor(100, 116, 139)
	doc.MultiCell(0, 4, r.tr(footer(b)), "", "C", false)

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}

// pdfRenderer walks a goldmark tree and writes it with fpdf. Only the node
// kinds a brief produces get special treatment; anything else falls through
// as plain text.
type pdfRenderer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	source []byte
	bold   bool
	italic bool
	size   float64
	lists  int
}

func (r *pdfRenderer) setFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	size := r.size
	if size == 0 {
		size = pdfFontSize
	}
	r.pdf.SetFont(pdfFont, style, size)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := n.(type) {
	case *ast.Document:
		if entering {
			r.setFont()
		}
	case *ast.Heading:
		if entering {
			r.pdf.Ln(3)
			r.bold = true
			r.size = map[int]float64{1: 18, 2: 13}[n.Level]
			if r.size == 0 {
				r.size = 11
			}
		} else {
			r.bold, r.size = false, 0
			r.pdf.Ln(r.lineHeight(n.Level))
		}
		r.setFont()
	case *ast.Paragraph:
		if !entering {
			r.pdf.Ln(pdfLine + 2)
		}
	case *ast.List:
		if entering {
			r.lists++
		} else {
			r.lists--
			r.pdf.Ln(2)
		}
	case *ast.ListItem:
		if entering {
			r.pdf.SetX(15 + float64(r.lists)*4)
			if list, ok := n.Parent().(*ast.List); ok && list.IsOrdered() {
				idx := 1
				for s := n.PreviousSibling(); s != nil; s = s.PreviousSibling() {
					idx++
				}
				r.pdf.Write(pdfLine, fmt.Sprintf("%d. ", list.Start+idx-1))
			} else {
				r.pdf.Write(pdfLine, "- ")
			}
		}
	case *ast.Blockquote:
		if entering {
			r.italic = true
		} else {
			r.italic = false
		}
		r.setFont()
	case *ast.Emphasis:
		if n.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.setFont()
	case *ast.CodeSpan:
		if entering {
			r.pdf.SetFont("Courier", "", pdfFontSize)
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					r.pdf.Write(pdfLine, r.tr(string(t.Segment.Value(r.source))))
				}
			}
			r.setFont()
			return ast.WalkSkipChildren, nil
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			r.pdf.SetFont("Courier", "", pdfFontSize-1)
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				r.pdf.MultiCell(0, pdfLine-1, r.tr(string(seg.Value(r.source))), "", "L", false)
			}
			r.setFont()
			return ast.WalkSkipChildren, nil
		}
	case *ast.Text:
		if entering {
			r.pdf.Write(r.lineHeight(0), r.tr(string(n.Segment.Value(r.source))))
			if n.SoftLineBreak() {
				r.pdf.Write(pdfLine, " ")
			}
			if n.HardLineBreak() {
				r.pdf.Ln(pdfLine)
			}
		}
	case *ast.ThematicBreak:
		if entering {
			r.pdf.Ln(2)
			y := r.pdf.GetY()
			r.pdf.Line(15, y, 195, y)
			r.pdf.Ln(2)
		}
	}
	return ast.WalkContinue, nil
}

// lineHeight follows the current font size; level selects a heading size.
func (r *pdfRenderer) lineHeight(level int) float64 {
	switch {
	case level == 1 || r.size >= 18:
		return 9
	case level == 2 || r.size >= 13:
		return 7
	default:
		return pdfLine
	}
}
