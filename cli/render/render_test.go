package render_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/loamworks/sounder/cli/render"
	"github.com/loamworks/sounder/probe"
	"github.com/loamworks/sounder/types"
)

func sampleReport() *probe.ProbeReport {
	return &probe.ProbeReport{
		ProbeID:           "p-1",
		BaseEndpoint:      "https://res.example.com",
		Outcome:           probe.ReportOutcomeConnected,
		WinnerURL:         "wss://res.example.com/realtime?api-version=v1&deployment=d",
		CandidatesPlanned: 4,
		AttemptsRecorded:  2,
		DurationMs:        1200,
		Attempts: []probe.AttemptReport{
			{URL: "wss://res.example.com/rt", Outcome: "rejected", HTTPStatus: 404, DurationMs: 300},
			{URL: "wss://res.example.com/realtime?api-version=v1&deployment=d", Outcome: "connected", DurationMs: 900},
		},
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    render.Format
		wantErr bool
	}{
		{"json", render.FormatJSON, false},
		{"JSON", render.FormatJSON, false},
		{"table", render.FormatTable, false},
		{"yaml", render.FormatYAML, false},
		{"", "", false},
		{"xml", "", true},
	}
	for _, tc := range cases {
		got, err := render.ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := render.NewRendererWithWriter(render.FormatJSON, true, &buf)

	if err := r.RenderReport(sampleReport()); err != nil {
		t.Fatalf("render: %v", err)
	}

	var decoded probe.ProbeReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.ProbeID != "p-1" || len(decoded.Attempts) != 2 {
		t.Errorf("unexpected decoded report: %+v", decoded)
	}
}

func TestRenderReport_Table(t *testing.T) {
	var buf bytes.Buffer
	r := render.NewRendererWithWriter(render.FormatTable, true, &buf)

	if err := r.RenderReport(sampleReport()); err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Probe:", "p-1", "Winner:", "connected", "404", "OUTCOME"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderReport_YAML(t *testing.T) {
	var buf bytes.Buffer
	r := render.NewRendererWithWriter(render.FormatYAML, true, &buf)

	if err := r.RenderReport(sampleReport()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "probeid: p-1") && !strings.Contains(buf.String(), "p-1") {
		t.Errorf("yaml output missing probe id:\n%s", buf.String())
	}
}

func TestRenderCandidates_Table(t *testing.T) {
	var buf bytes.Buffer
	r := render.NewRendererWithWriter(render.FormatTable, true, &buf)

	candidates := []types.EndpointCandidate{
		{URL: "wss://h/rt?api-version=v1&deployment=d", Subprotocols: []string{"realtime.v1"}},
		{URL: "wss://h/rt?api-version=v1&model=d"},
	}
	if err := r.RenderCandidates(candidates); err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "wss://h/rt?api-version=v1&deployment=d") {
		t.Errorf("candidate URL missing:\n%s", out)
	}
	if !strings.Contains(out, "realtime.v1") {
		t.Errorf("subprotocols missing:\n%s", out)
	}
}

func TestRenderCandidates_Empty(t *testing.T) {
	var buf bytes.Buffer
	r := render.NewRendererWithWriter(render.FormatTable, true, &buf)

	if err := r.RenderCandidates(nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No candidates") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestRenderReport_NoColorPlainOutcome(t *testing.T) {
	var buf bytes.Buffer
	r := render.NewRendererWithWriter(render.FormatTable, true, &buf)

	if err := r.RenderReport(sampleReport()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Error("no-color output must not contain ANSI escapes")
	}
}
