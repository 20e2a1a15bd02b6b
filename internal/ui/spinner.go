// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ui shows a busy indicator while the pipeline runs.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/research-brief/pkg/types"
)

// ErrInterrupted is returned when the user quits before the job finishes.
var ErrInterrupted = errors.New("interrupted")

// Job produces a brief. It must honour ctx cancellation.
type Job func(ctx context.Context) (*types.Brief, error)

var labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))

const cancellingLabel = "Cancelling..."

type doneMsg struct {
	brief *types.Brief
	err   error
}

// model is the bubbletea model: a spinner plus the job result. The job
// itself runs outside the program so Run can always wait for it.
type model struct {
	spinner spinner.Model
	label   string
	cancel  context.CancelFunc

	brief       *types.Brief
	err         error
	interrupted bool
	done        bool
}

func newModel(label string, cancel context.CancelFunc) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE"))
	return model{spinner: s, label: label, cancel: cancel}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.brief, m.err, m.done = msg.brief, msg.err, true
		if m.interrupted {
			m.brief, m.err = nil, ErrInterrupted
		}
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			// Keep spinning until the job observes the cancellation.
			if !m.interrupted {
				m.interrupted = true
				m.label = cancellingLabel
				m.cancel()
			}
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), labelStyle.Render(m.label))
}

// Run executes job behind a spinner drawn on out and returns its result.
// Keys are read from in; a nil in disables keyboard input. Run does not
// return until job has returned, even when the user interrupts or ctx is
// cancelled.
func Run(ctx context.Context, in io.Reader, out io.Writer, label string, job Job) (*types.Brief, error) {
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(label, cancel), tea.WithInput(in), tea.WithOutput(out), tea.WithContext(ctx))

	result := make(chan doneMsg, 1)
	go func() {
		b, err := job(jobCtx)
		msg := doneMsg{brief: b, err: err}
		result <- msg
		p.Send(msg)
	}()

	final, runErr := p.Run()
	if runErr != nil {
		cancel()
	}
	res := <-result

	switch {
	case errors.Is(runErr, tea.ErrProgramKilled), errors.Is(runErr, tea.ErrInterrupted):
		return nil, ErrInterrupted
	case runErr != nil:
		return nil, fmt.Errorf("running busy indicator: %w", runErr)
	}
	if fm, ok := final.(model); ok && fm.interrupted {
		return nil, ErrInterrupted
	}
	if res.err != nil && ctx.Err() != nil {
		return nil, ErrInterrupted
	}
	return res.brief, res.err
}
