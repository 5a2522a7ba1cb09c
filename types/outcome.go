package types

import "fmt"

// OutcomeKind is the attempt outcome discriminant.
type OutcomeKind string

// Outcome kind constants. Every attempt resolves to exactly one of these.
const (
	// OutcomeConnected means the remote accepted the transport upgrade.
	OutcomeConnected OutcomeKind = "connected"
	// OutcomeRejected means the remote answered with a non-upgrade HTTP
	// response. Status carries the HTTP status code.
	OutcomeRejected OutcomeKind = "rejected"
	// OutcomeTransportError means the handshake failed below the HTTP
	// layer (DNS, refused connection, TLS, abrupt close).
	OutcomeTransportError OutcomeKind = "transport_error"
	// OutcomeTimedOut means no resolution arrived inside the per-attempt
	// timeout and the attempt was forcibly aborted.
	OutcomeTimedOut OutcomeKind = "timed_out"
)

// Outcome is the resolved result of a single handshake attempt.
// Exactly one kind is populated per attempt; an outcome is never
// overwritten once recorded.
type Outcome struct {
	// Kind is the outcome discriminant.
	Kind OutcomeKind `json:"kind"`
	// HTTPStatus is the HTTP status code. Set only for rejected.
	HTTPStatus int `json:"http_status,omitempty"`
	// Location is the Location header value, if the remote sent one.
	// Set only for rejected.
	Location string `json:"location,omitempty"`
	// Message is the error description. Set only for transport_error.
	Message string `json:"message,omitempty"`
}

// Connected reports whether the outcome is a successful upgrade.
func (o Outcome) Connected() bool { return o.Kind == OutcomeConnected }

// Redirect reports whether the outcome is a followable redirect:
// a rejection with a redirect-class status and a Location value.
func (o Outcome) Redirect() bool {
	return o.Kind == OutcomeRejected && o.Location != "" &&
		(o.HTTPStatus == 301 || o.HTTPStatus == 302)
}

// String renders the outcome for diagnostics.
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeConnected:
		return "connected"
	case OutcomeRejected:
		if o.Location != "" {
			return fmt.Sprintf("rejected (HTTP %d, Location: %s)", o.HTTPStatus, o.Location)
		}
		return fmt.Sprintf("rejected (HTTP %d)", o.HTTPStatus)
	case OutcomeTransportError:
		return fmt.Sprintf("transport error: %s", o.Message)
	case OutcomeTimedOut:
		return "timed out"
	default:
		return string(o.Kind)
	}
}
