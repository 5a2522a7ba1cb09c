// Package metrics provides per-run metrics collection for the prober.
//
// The Collector accumulates counters during a single probing run. It is a
// leaf package with no internal dependencies. All increment methods are
// nil-receiver safe so the runner never has to guard metric calls.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of the run counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after
// creation; embedded verbatim in the probe report.
type Snapshot struct {
	AttemptsStarted   int64 `json:"attempts_started"`
	Connected         int64 `json:"connected"`
	Rejected          int64 `json:"rejected"`
	TransportErrors   int64 `json:"transport_errors"`
	TimedOut          int64 `json:"timed_out"`
	RedirectsFollowed int64 `json:"redirects_followed"`
	Aborted           int64 `json:"aborted"`

	// Dimensions, set at construction.
	ProbeID string `json:"probe_id,omitempty"`
	Mode    string `json:"mode,omitempty"`
}

// Collector accumulates metrics during a single probing run.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	attemptsStarted   int64
	connected         int64
	rejected          int64
	transportErrors   int64
	timedOut          int64
	redirectsFollowed int64
	aborted           int64

	probeID string
	mode    string
}

// NewCollector creates a Collector with dimension labels.
// mode is "sequential" or "parallel".
func NewCollector(probeID, mode string) *Collector {
	return &Collector{probeID: probeID, mode: mode}
}

// IncAttemptStarted counts a handshake initiation.
func (c *Collector) IncAttemptStarted() {
	if c == nil {
		return
	}
	c.inc(&c.attemptsStarted)
}

// IncConnected counts a successful upgrade.
func (c *Collector) IncConnected() {
	if c == nil {
		return
	}
	c.inc(&c.connected)
}

// IncRejected counts a non-upgrade HTTP rejection.
func (c *Collector) IncRejected() {
	if c == nil {
		return
	}
	c.inc(&c.rejected)
}

// IncTransportError counts a below-HTTP handshake failure.
func (c *Collector) IncTransportError() {
	if c == nil {
		return
	}
	c.inc(&c.transportErrors)
}

// IncTimedOut counts an attempt aborted by the per-attempt deadline.
func (c *Collector) IncTimedOut() {
	if c == nil {
		return
	}
	c.inc(&c.timedOut)
}

// IncRedirectFollowed counts a synthesized single-hop redirect attempt.
func (c *Collector) IncRedirectFollowed() {
	if c == nil {
		return
	}
	c.inc(&c.redirectsFollowed)
}

// IncAborted counts an in-flight attempt dropped by run cancellation.
func (c *Collector) IncAborted() {
	if c == nil {
		return
	}
	c.inc(&c.aborted)
}

// inc must only be called on a non-nil receiver: the exported methods
// take a field's address at the call site, so they guard nil themselves.
func (c *Collector) inc(field *int64) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// Snapshot returns an immutable copy of the current counters.
// Safe to call on a nil Collector (returns the zero Snapshot).
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		AttemptsStarted:   c.attemptsStarted,
		Connected:         c.connected,
		Rejected:          c.rejected,
		TransportErrors:   c.transportErrors,
		TimedOut:          c.timedOut,
		RedirectsFollowed: c.redirectsFollowed,
		Aborted:           c.aborted,
		ProbeID:           c.probeID,
		Mode:              c.mode,
	}
}
