package types

import "time"

// AttemptResult is the record of one handshake attempt.
// One result exists per candidate attempted; no attempt is recorded twice.
type AttemptResult struct {
	// Candidate is the endpoint shape that was tried.
	Candidate EndpointCandidate `json:"candidate"`
	// Outcome is the resolved attempt outcome.
	Outcome Outcome `json:"outcome"`
	// Duration is the wall-clock time from handshake start to resolution.
	Duration time.Duration `json:"duration"`
	// RedirectedFrom references the earlier result whose Location header
	// produced this attempt. Nil for ordinary attempts. The chain has
	// length at most 1 and is never cyclic: a redirect target is never
	// itself redirect-followed.
	RedirectedFrom *AttemptResult `json:"-"`
}

// ProbeTrace is the ordered, complete record of every attempt made during
// one probing run. Insertion order is outcome-resolution order; in a
// sequential run that equals generator order.
//
// A trace is created fresh per run, owns its entries exclusively, and is
// immutable once handed to the caller.
type ProbeTrace struct {
	// Attempts holds every resolved attempt in resolution order.
	Attempts []*AttemptResult `json:"attempts"`
	// Winner references the first connected entry, or nil if the
	// enumeration was exhausted without a successful upgrade.
	Winner *AttemptResult `json:"-"`
}

// Append records a resolved attempt and claims the winner slot if this is
// the first connected entry. Appending is the only mutation a trace sees.
func (t *ProbeTrace) Append(result *AttemptResult) {
	t.Attempts = append(t.Attempts, result)
	if t.Winner == nil && result.Outcome.Connected() {
		t.Winner = result
	}
}

// Succeeded reports whether the run discovered a working configuration.
func (t *ProbeTrace) Succeeded() bool { return t.Winner != nil }

// Len returns the number of recorded attempts.
func (t *ProbeTrace) Len() int { return len(t.Attempts) }
