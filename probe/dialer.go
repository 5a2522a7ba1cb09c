// Package probe implements the probe runner: bounded-time handshake
// attempts, outcome classification, single-hop redirect following, and
// trace aggregation with early exit on first success.
package probe

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/loamworks/sounder/iox"
	"github.com/loamworks/sounder/types"
)

// Dialer performs a single transport-upgrade handshake.
// The runner owns attempt lifecycle and classification; a Dialer only
// reports what the wire did. Implementations must honor ctx cancellation
// and must not retain the returned connection.
type Dialer interface {
	// Dial attempts the upgrade for one candidate. On success conn is the
	// open transport handle and err is nil. On a non-upgrade HTTP answer
	// resp carries the response and err is non-nil. Below-HTTP failures
	// return err with nil resp.
	Dial(ctx context.Context, candidate types.EndpointCandidate, header http.Header) (conn io.Closer, resp *http.Response, err error)
}

// HandshakeDialer dials with gorilla/websocket. One instance is safe for
// concurrent use; sub-protocols vary per candidate so each call builds its
// own websocket.Dialer.
type HandshakeDialer struct{}

// Dial implements Dialer.
func (HandshakeDialer) Dial(ctx context.Context, candidate types.EndpointCandidate, header http.Header) (io.Closer, *http.Response, error) {
	d := websocket.Dialer{
		Proxy:        http.ProxyFromEnvironment,
		Subprotocols: candidate.Subprotocols,
	}
	conn, resp, err := d.DialContext(ctx, candidate.URL, header)
	if err != nil {
		return nil, resp, err
	}
	return conn, resp, nil
}

// classify maps a dial result onto exactly one outcome.
//
// Order matters: a handshake rejection carries both a non-nil response and
// a non-nil error, and a deadline can expire while a response is being
// read — the rejection wins when the remote actually answered.
func classify(ctx context.Context, conn io.Closer, resp *http.Response, err error) types.Outcome {
	if err == nil {
		// Remote accepted the upgrade. Close immediately; no payload is
		// ever exchanged over a probe connection.
		iox.DiscardClose(conn)
		return types.Outcome{Kind: types.OutcomeConnected}
	}

	if resp != nil {
		defer drainClose(resp)
		return types.Outcome{
			Kind:       types.OutcomeRejected,
			HTTPStatus: resp.StatusCode,
			Location:   resp.Header.Get("Location"),
		}
	}

	if timedOut(ctx, err) {
		return types.Outcome{Kind: types.OutcomeTimedOut}
	}

	return types.Outcome{Kind: types.OutcomeTransportError, Message: err.Error()}
}

// timedOut reports whether the dial failure was the per-attempt deadline
// rather than a transport fault.
func timedOut(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// The websocket dialer can wrap the context error beyond recognition;
	// the attempt context expiring is authoritative either way.
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// drainClose drains and closes a rejection response body so the underlying
// connection is released.
func drainClose(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	iox.DiscardClose(resp.Body)
}
