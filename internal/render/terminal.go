// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/research-brief/pkg/types"
)

const defaultWidth = 80

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#6366F1"))

	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#6366F1")).
			PaddingLeft(1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#1E293B")).
			Padding(1, 2)

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94A3B8"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// Terminal renders b as a styled card for a terminal.
func Terminal(b *types.Brief, opts Options) string {
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	inner := max(width-cardStyle.GetHorizontalFrameSize(), 20)

	var parts []string
	parts = append(parts, titleStyle.Render(Title))
	parts = append(parts, noticeStyle.Render("Loaded document: "+filepath.Base(b.Document)))
	parts = append(parts, cardStyle.Width(inner).Render(strings.TrimSpace(b.Answer)))

	if opts.Sources {
		for i, s := range b.Sources {
			head := fmt.Sprintf("[%d] chunk %d, score %.3f", i+1, s.Index, s.Score)
			parts = append(parts, sourceStyle.Width(width).Render(head+"\n"+excerpt(s.Text, 240)))
		}
	}

	parts = append(parts, footerStyle.Render(footer(b)))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Notice renders a one-line status message in the card style, used for the
// missing-document hint.
func Notice(msg string) string {
	return noticeStyle.Render(msg)
}
