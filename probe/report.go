package probe

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/loamworks/sounder/metrics"
	"github.com/loamworks/sounder/types"
)

// ProbeReport is the structured JSON report written by --report.
// The trace data is flattened into per-attempt rows; redirect chains are
// expressed by URL back-reference rather than pointer.
type ProbeReport struct {
	ProbeID      string `json:"probe_id"`
	BaseEndpoint string `json:"base_endpoint"`
	// Outcome is "connected" when a winner was found, "exhausted" otherwise.
	Outcome            string   `json:"outcome"`
	WinnerURL          string   `json:"winner_url,omitempty"`
	WinnerSubprotocols []string `json:"winner_subprotocols,omitempty"`
	CandidatesPlanned  int      `json:"candidates_planned"`
	AttemptsRecorded   int      `json:"attempts_recorded"`
	DurationMs         int64    `json:"duration_ms"`

	Attempts []AttemptReport   `json:"attempts"`
	Metrics  *metrics.Snapshot `json:"metrics,omitempty"`
}

// Report-level outcome values.
const (
	ReportOutcomeConnected = "connected"
	ReportOutcomeExhausted = "exhausted"
)

// AttemptReport is one trace entry in report form.
type AttemptReport struct {
	URL            string   `json:"url"`
	Subprotocols   []string `json:"subprotocols,omitempty"`
	Outcome        string   `json:"outcome"`
	HTTPStatus     int      `json:"http_status,omitempty"`
	Location       string   `json:"location,omitempty"`
	Error          string   `json:"error,omitempty"`
	RedirectedFrom string   `json:"redirected_from,omitempty"`
	DurationMs     int64    `json:"duration_ms"`
}

// BuildProbeReport composes a ProbeReport from a finished trace.
func BuildProbeReport(probeID, baseEndpoint string, planned int, trace *types.ProbeTrace, duration time.Duration, snap metrics.Snapshot) *ProbeReport {
	report := &ProbeReport{
		ProbeID:           probeID,
		BaseEndpoint:      baseEndpoint,
		Outcome:           ReportOutcomeExhausted,
		CandidatesPlanned: planned,
		AttemptsRecorded:  trace.Len(),
		DurationMs:        duration.Milliseconds(),
		Attempts:          make([]AttemptReport, 0, trace.Len()),
		Metrics:           &snap,
	}

	if trace.Succeeded() {
		report.Outcome = ReportOutcomeConnected
		report.WinnerURL = trace.Winner.Candidate.URL
		report.WinnerSubprotocols = trace.Winner.Candidate.Subprotocols
	}

	for _, attempt := range trace.Attempts {
		row := AttemptReport{
			URL:          attempt.Candidate.URL,
			Subprotocols: attempt.Candidate.Subprotocols,
			Outcome:      string(attempt.Outcome.Kind),
			HTTPStatus:   attempt.Outcome.HTTPStatus,
			Location:     attempt.Outcome.Location,
			Error:        attempt.Outcome.Message,
			DurationMs:   attempt.Duration.Milliseconds(),
		}
		if attempt.RedirectedFrom != nil {
			row.RedirectedFrom = attempt.RedirectedFrom.Candidate.URL
		}
		report.Attempts = append(report.Attempts, row)
	}

	return report
}

// WriteProbeReport writes the report as JSON to the specified path.
// If path is "-", writes to stderr so stdout stays reserved for the
// rendered trace.
func WriteProbeReport(report *ProbeReport, path string) error {
	if path == "" {
		return errors.New("report path must not be empty")
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		if _, err := os.Stderr.Write(data); err != nil {
			return fmt.Errorf("failed to write report to stderr: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

// writeProbeReportTo writes report JSON to any writer (for testing).
func writeProbeReportTo(report *ProbeReport, w io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
