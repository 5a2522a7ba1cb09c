package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loamworks/sounder/probe"
)

func testReport() *probe.ProbeReport {
	return &probe.ProbeReport{
		ProbeID:      "p-1",
		BaseEndpoint: "https://res.example.com",
		Outcome:      probe.ReportOutcomeConnected,
		WinnerURL:    "wss://res.example.com/realtime?api-version=v1&deployment=d",
		Attempts: []probe.AttemptReport{
			{URL: "wss://res.example.com/rt", Outcome: "rejected", HTTPStatus: 404, DurationMs: 120},
			{URL: "wss://res.example.com/realtime?api-version=v1&deployment=d", Outcome: "connected", DurationMs: 80},
		},
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTraceModel_View(t *testing.T) {
	m := NewTraceModel(testReport())

	view := m.View()
	for _, want := range []string{"Probe Trace", "https://res.example.com", "rejected", "connected", "Attempt Detail"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTraceModel_CursorNavigation(t *testing.T) {
	m := NewTraceModel(testReport())

	// Down moves the selection; the detail pane follows.
	updated, _ := m.Update(keyMsg("j"))
	m = updated.(TraceModel)
	if m.cursor != 1 {
		t.Fatalf("expected cursor 1 after down, got %d", m.cursor)
	}

	// Down at the last entry is a no-op.
	updated, _ = m.Update(keyMsg("j"))
	m = updated.(TraceModel)
	if m.cursor != 1 {
		t.Fatalf("cursor must not run past the last attempt, got %d", m.cursor)
	}

	updated, _ = m.Update(keyMsg("k"))
	m = updated.(TraceModel)
	if m.cursor != 0 {
		t.Fatalf("expected cursor 0 after up, got %d", m.cursor)
	}

	// Up at the first entry is a no-op.
	updated, _ = m.Update(keyMsg("k"))
	m = updated.(TraceModel)
	if m.cursor != 0 {
		t.Fatalf("cursor must not run before the first attempt, got %d", m.cursor)
	}
}

func TestTraceModel_Quit(t *testing.T) {
	m := NewTraceModel(testReport())

	updated, cmd := m.Update(keyMsg("q"))
	m = updated.(TraceModel)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if m.View() != "" {
		t.Error("quitting model must render empty")
	}
}

func TestTraceModel_DetailShowsRejection(t *testing.T) {
	m := NewTraceModel(testReport())

	detail := m.renderDetail()
	if !strings.Contains(detail, "404") {
		t.Errorf("detail missing HTTP status:\n%s", detail)
	}
}

func TestOutcomeStyle_CoversAllOutcomes(t *testing.T) {
	for _, outcome := range []string{"connected", "rejected", "transport_error", "timed_out", "exhausted", "unknown"} {
		// Must not panic and must render the text through.
		if got := OutcomeStyle(outcome).Render(outcome); !strings.Contains(got, outcome) {
			t.Errorf("style for %q lost its text: %q", outcome, got)
		}
	}
}
