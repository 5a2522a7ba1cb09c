// Package adapter defines the event-bus adapter boundary.
//
// Adapters publish probe completion notifications to downstream systems.
// The CLI owns adapter lifecycle; users provide configuration only.
// Publishing is best-effort: a failed publish is logged and never alters
// the probe result.
package adapter

import "context"

// ProbeCompletedEvent is the payload published when a probing run finishes.
type ProbeCompletedEvent struct {
	ContractVersion string `json:"contract_version"`
	EventType       string `json:"event_type"` // always "probe_completed"
	ProbeID         string `json:"probe_id"`
	BaseEndpoint    string `json:"base_endpoint"`
	// Outcome is "connected" or "exhausted".
	Outcome          string `json:"outcome"`
	WinnerURL        string `json:"winner_url,omitempty"`
	AttemptsRecorded int    `json:"attempts_recorded"`
	DurationMs       int64  `json:"duration_ms"`
	Timestamp        string `json:"timestamp"` // ISO 8601
}

// Adapter publishes probe completion events to a downstream system.
// Implementations must be safe for single-use per run.
type Adapter interface {
	// Publish sends a probe completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *ProbeCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
