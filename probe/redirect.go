package probe

import (
	"fmt"
	"net/url"

	"github.com/loamworks/sounder/types"
)

// synthesizeRedirect builds the single follow-up candidate for a rejected
// attempt that answered 301/302 with a Location header. Relative locations
// are resolved against the original candidate URL; http(s) schemes are
// rewritten to their streaming form; the original sub-protocol set is
// carried over unchanged.
//
// The redirect target is attempted exactly once and is never itself
// redirect-followed.
func synthesizeRedirect(original types.EndpointCandidate, location string) (types.EndpointCandidate, error) {
	base, err := url.Parse(original.URL)
	if err != nil {
		return types.EndpointCandidate{}, fmt.Errorf("parse original URL %q: %w", original.URL, err)
	}

	loc, err := url.Parse(location)
	if err != nil {
		return types.EndpointCandidate{}, fmt.Errorf("parse redirect location %q: %w", location, err)
	}

	target := base.ResolveReference(loc)
	switch target.Scheme {
	case "http":
		target.Scheme = "ws"
	case "https":
		target.Scheme = "wss"
	case "ws", "wss":
		// already a streaming scheme
	default:
		return types.EndpointCandidate{}, fmt.Errorf("redirect location %q has unsupported scheme %q", location, target.Scheme)
	}

	return types.EndpointCandidate{
		URL:          target.String(),
		Subprotocols: original.Subprotocols,
	}, nil
}
