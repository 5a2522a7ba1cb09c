// Package render provides centralized output rendering for the sounder CLI.
//
// Format selection rules:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format flag always overrides defaults
//   - Invalid formats are errors
//
// All presentation of the probe trace goes through this package; the core
// returns structured data only.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/loamworks/sounder/cli/tui"
	"github.com/loamworks/sounder/probe"
	"github.com/loamworks/sounder/types"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer creates a renderer from CLI context, applying the TTY
// default selection rules.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	if format == "" {
		if isTTY(os.Stdout) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	return &Renderer{
		format:  format,
		noColor: c.Bool("no-color"),
		out:     os.Stdout,
	}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{format: format, noColor: noColor, out: out}
}

// RenderReport outputs a probe report in the configured format.
func (r *Renderer) RenderReport(report *probe.ProbeReport) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(report)
	case FormatYAML:
		return r.renderYAML(report)
	case FormatTable:
		return r.renderReportTable(report)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderCandidates outputs a candidate enumeration in the configured format.
func (r *Renderer) RenderCandidates(candidates []types.EndpointCandidate) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(candidates)
	case FormatYAML:
		return r.renderYAML(candidates)
	case FormatTable:
		return r.renderCandidatesTable(candidates)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderTraceTUI starts the opt-in read-only trace viewer.
func (r *Renderer) RenderTraceTUI(report *probe.ProbeReport) error {
	return tui.RunTraceTUI(report)
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	_, err = r.out.Write(out)
	return err
}

// renderReportTable prints the run summary followed by one row per attempt.
func (r *Renderer) renderReportTable(report *probe.ProbeReport) error {
	fmt.Fprintf(r.out, "Probe:    %s\n", report.ProbeID)
	fmt.Fprintf(r.out, "Endpoint: %s\n", report.BaseEndpoint)
	fmt.Fprintf(r.out, "Outcome:  %s\n", r.colorOutcome(report.Outcome))
	if report.WinnerURL != "" {
		fmt.Fprintf(r.out, "Winner:   %s", report.WinnerURL)
		if len(report.WinnerSubprotocols) > 0 {
			fmt.Fprintf(r.out, " (subprotocols: %s)", strings.Join(report.WinnerSubprotocols, ", "))
		}
		fmt.Fprintln(r.out)
	}
	fmt.Fprintf(r.out, "Attempts: %d of %d planned, %dms total\n\n",
		report.AttemptsRecorded, report.CandidatesPlanned, report.DurationMs)

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "#\tOUTCOME\tSTATUS\tDURATION\tURL\tDETAIL")
	for i, attempt := range report.Attempts {
		detail := attempt.Error
		if attempt.Location != "" {
			detail = "-> " + attempt.Location
		}
		if attempt.RedirectedFrom != "" {
			detail = "via redirect from " + attempt.RedirectedFrom
		}
		status := ""
		if attempt.HTTPStatus != 0 {
			status = fmt.Sprintf("%d", attempt.HTTPStatus)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%dms\t%s\t%s\n",
			i+1, r.colorOutcome(attempt.Outcome), status, attempt.DurationMs, attempt.URL, detail)
	}
	return nil
}

func (r *Renderer) renderCandidatesTable(candidates []types.EndpointCandidate) error {
	if len(candidates) == 0 {
		_, err := fmt.Fprintln(r.out, "No candidates")
		return err
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "#\tURL\tSUBPROTOCOLS")
	for i, c := range candidates {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, c.URL, strings.Join(c.Subprotocols, ", "))
	}
	return nil
}

// colorOutcome styles an outcome string unless --no-color is set.
func (r *Renderer) colorOutcome(outcome string) string {
	if r.noColor {
		return outcome
	}
	return tui.OutcomeStyle(outcome).Render(outcome)
}

func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
