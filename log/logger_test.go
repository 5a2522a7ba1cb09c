package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_CarriesProbeID(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerWithWriter("probe-42", &buf)

	logger.Info("starting probe run", map[string]any{"candidates": 3})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["probe_id"] != "probe-42" {
		t.Errorf("probe_id missing: %v", entry)
	}
	if entry["message"] != "starting probe run" {
		t.Errorf("message missing: %v", entry)
	}
	if entry["level"] != "info" {
		t.Errorf("unexpected level: %v", entry)
	}
}

func TestLogger_WithOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("probe-1").WithOutput(&buf)

	logger.Warn("probe run exhausted without success", nil)

	if !strings.Contains(buf.String(), "exhausted") {
		t.Errorf("redirected output missing entry: %s", buf.String())
	}
}

func TestSugaredLogger(t *testing.T) {
	var buf bytes.Buffer
	sugar := newLoggerWithWriter("probe-1", &buf).Sugar()

	sugar.Infof("attempted %d candidates", 7)

	if !strings.Contains(buf.String(), "attempted 7 candidates") {
		t.Errorf("formatted message missing: %s", buf.String())
	}
}
