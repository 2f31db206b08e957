// Package ui renders the interactive progress view the CLI tools share.
package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Action performs the tool's work and returns human-readable detail lines.
type Action func(ctx context.Context) ([]string, error)

type actionMsg struct {
	details []string
	err     error
}

type model struct {
	title   string
	action  Action
	done    bool
	details []string
	err     error
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		details, err := m.action(context.Background())
		return actionMsg{details: details, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case actionMsg:
		m.done = true
		m.details = msg.details
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")

	switch {
	case !m.done:
		b.WriteString("Running...\n")
	case m.err != nil:
		b.WriteString(failStyle.Render("FAILED") + ": " + m.err.Error() + "\n")
	default:
		b.WriteString(okStyle.Render("OK") + "\n")
		for _, d := range m.details {
			b.WriteString("  " + d + "\n")
		}
	}
	return b.String()
}

// Run executes the action behind a progress view and returns its outcome.
func Run(title string, action Action) ([]string, error) {
	final, err := tea.NewProgram(model{title: title, action: action}).Run()
	if err != nil {
		return nil, fmt.Errorf("run ui: %w", err)
	}
	m, ok := final.(model)
	if !ok {
		return nil, fmt.Errorf("unexpected ui model %T", final)
	}
	return m.details, m.err
}
