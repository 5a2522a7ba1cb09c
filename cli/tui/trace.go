package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/loamworks/sounder/probe"
)

// TraceModel is a Bubble Tea model for browsing a finished probe trace.
type TraceModel struct {
	report   *probe.ProbeReport
	cursor   int
	width    int
	height   int
	quitting bool
}

// NewTraceModel creates a trace viewer over a finished report.
func NewTraceModel(report *probe.ProbeReport) TraceModel {
	return TraceModel{report: report}
}

// Init implements tea.Model.
func (m TraceModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m TraceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.report.Attempts)-1 {
				m.cursor++
			}
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m TraceModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Probe Trace"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Endpoint:"),
		ValueStyle.Render(m.report.BaseEndpoint)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Outcome:"),
		OutcomeStyle(m.report.Outcome).Render(m.report.Outcome)))
	if m.report.WinnerURL != "" {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Winner:"),
			SuccessStyle.Render(m.report.WinnerURL)))
	}
	b.WriteString("\n")

	for i, attempt := range m.report.Attempts {
		line := fmt.Sprintf("%2d  %-15s  %s", i+1, attempt.Outcome, attempt.URL)
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + OutcomeStyle(attempt.Outcome).Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderDetail())

	help := HelpStyle.Render("↑/↓ select attempt · q to quit")
	return BoxStyle.Render(b.String()) + "\n" + help
}

// renderDetail shows the full record of the selected attempt.
func (m TraceModel) renderDetail() string {
	if m.cursor >= len(m.report.Attempts) {
		return ""
	}
	attempt := m.report.Attempts[m.cursor]

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Attempt Detail"))
	b.WriteString("\n")

	rows := [][]string{
		{"URL", attempt.URL},
		{"Outcome", attempt.Outcome},
		{"Duration", fmt.Sprintf("%dms", attempt.DurationMs)},
	}
	if len(attempt.Subprotocols) > 0 {
		rows = append(rows, []string{"Subprotocols", strings.Join(attempt.Subprotocols, ", ")})
	}
	if attempt.HTTPStatus != 0 {
		rows = append(rows, []string{"HTTP Status", fmt.Sprintf("%d", attempt.HTTPStatus)})
	}
	if attempt.Location != "" {
		rows = append(rows, []string{"Location", attempt.Location})
	}
	if attempt.Error != "" {
		rows = append(rows, []string{"Error", attempt.Error})
	}
	if attempt.RedirectedFrom != "" {
		rows = append(rows, []string{"Redirected From", attempt.RedirectedFrom})
	}

	for _, row := range rows {
		value := row[1]
		if row[0] == "Outcome" {
			value = OutcomeStyle(attempt.Outcome).Render(value)
		} else {
			value = ValueStyle.Render(value)
		}
		b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render(row[0]+":"), value))
	}

	return b.String()
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
	Up   key.Binding
	Down key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "previous attempt"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "next attempt"),
	),
}

// RunTraceTUI runs the trace viewer.
func RunTraceTUI(report *probe.ProbeReport) error {
	model := NewTraceModel(report)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
