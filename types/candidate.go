// Package types defines core domain types for the sounder prober.
//
//nolint:revive // types is a common Go package naming convention
package types

import "strings"

// EndpointCandidate is one concrete guess at the correct endpoint shape:
// a fully-qualified streaming-transport URL plus the ordered set of
// sub-protocol tokens offered during the handshake.
//
// Candidates are immutable once constructed and are produced only by the
// candidate generator. Subprotocols must not be mutated after construction.
type EndpointCandidate struct {
	// URL is the fully-qualified ws:// or wss:// URL to dial.
	URL string `json:"url"`
	// Subprotocols is the ordered set of sub-protocol tokens offered
	// in the upgrade request. May be empty.
	Subprotocols []string `json:"subprotocols,omitempty"`
}

// Key returns the deduplication identity of the candidate.
// Two candidates with the same URL and the same ordered sub-protocol set
// are the same attempt and must not both be tried.
func (c EndpointCandidate) Key() string {
	return c.URL + "\x00" + strings.Join(c.Subprotocols, ",")
}
