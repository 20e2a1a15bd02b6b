// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pdiddy/research-brief/pkg/types"
)

// markdown converts Markdown to HTML. Raw HTML in the input is not passed
// through.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} · {{.Document}}</title>
<style>
body { background: radial-gradient(circle at top, #020617, #000000); color: #E5E7EB; font-family: Inter, sans-serif; }
main { max-width: 48rem; margin: 3rem auto; }
.card { background: #020617; border: 1px solid #1E293B; border-radius: 16px; padding: 2rem; }
.notice { border-left: 4px solid #6366F1; padding: 12px; margin-bottom: 1rem; }
footer { text-align: center; margin-top: 3rem; font-size: 0.85rem; color: #64748B; }
</style>
</head>
<body>
<main>
<div class="notice">Loaded document: <b>{{.Document}}</b></div>
<div class="card">
{{.Body}}</div>
<footer>{{.Footer}}</footer>
</main>
</body>
</html>
`))

// HTML renders b as a standalone HTML page. The answer is treated as
// Markdown.
func HTML(b *types.Brief, opts Options) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(b, opts)), &body); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}

	var page bytes.Buffer
	err := pageTmpl.Execute(&page, struct {
		Title, Document, Body, Footer string
	}{
		Title:    Title,
		Document: html.EscapeString(filepath.Base(b.Document)),
		Body:     body.String(),
		Footer:   html.EscapeString(footer(b)),
	})
	if err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return page.String(), nil
}
