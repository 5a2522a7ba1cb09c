package probe

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/loamworks/sounder/log"
	"github.com/loamworks/sounder/metrics"
	"github.com/loamworks/sounder/types"
)

// DefaultRedirectHops is the redirect-hop budget applied when the config
// leaves MaxRedirectHops unset.
const DefaultRedirectHops = 1

// RunnerConfig configures a single probing run.
type RunnerConfig struct {
	// ProbeID identifies this run in logs, metrics, and the report.
	ProbeID string
	// Timeout is the hard per-attempt wall-clock bound.
	// Zero means types.DefaultAttemptTimeout.
	Timeout time.Duration
	// CredentialHeaders are carried verbatim on every handshake.
	CredentialHeaders map[string]string
	// MaxRedirectHops bounds redirect following per original candidate.
	// Negative disables redirects; zero means DefaultRedirectHops.
	MaxRedirectHops int
	// Parallel is the worker count. Values <= 1 select the sequential
	// scheduler with deterministic trace order.
	Parallel int
	// Rate caps attempts per second. Zero means unlimited.
	Rate float64
	// Dialer overrides handshake dialing (for testing).
	// Nil means HandshakeDialer.
	Dialer Dialer
	// Collector receives per-attempt metrics. Nil disables collection
	// (all Collector methods are nil-safe).
	Collector *metrics.Collector
}

// Runner executes the attempt lifecycle over an ordered candidate list.
type Runner struct {
	config  RunnerConfig
	dialer  Dialer
	limiter *rate.Limiter
	logger  *log.Logger
	timeout time.Duration
	hops    int
}

// NewRunner creates a runner, applying config defaults.
func NewRunner(config RunnerConfig) *Runner {
	r := &Runner{
		config:  config,
		dialer:  config.Dialer,
		timeout: config.Timeout,
		hops:    config.MaxRedirectHops,
		logger:  log.NewLogger(config.ProbeID),
	}
	if r.dialer == nil {
		r.dialer = HandshakeDialer{}
	}
	if r.timeout <= 0 {
		r.timeout = types.DefaultAttemptTimeout
	}
	if r.hops == 0 {
		r.hops = DefaultRedirectHops
	} else if r.hops < 0 {
		r.hops = 0
	}
	if config.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(config.Rate), 1)
	}
	return r
}

// Run attempts every candidate in order until the first successful upgrade
// or exhaustion, returning the full trace either way. An empty candidate
// set is a *types.ConfigurationError; per-attempt failures never are.
//
// With Parallel <= 1 attempts run strictly one at a time and the trace is
// in generator order. Otherwise a bounded worker pool runs attempts
// concurrently, the trace is in outcome-resolution order, and the first
// success cancels every in-flight attempt before Run returns.
func (r *Runner) Run(ctx context.Context, candidates []types.EndpointCandidate) (*types.ProbeTrace, error) {
	if len(candidates) == 0 {
		return nil, &types.ConfigurationError{Field: "candidates", Reason: "empty candidate set"}
	}

	header := make(http.Header, len(r.config.CredentialHeaders))
	for k, v := range r.config.CredentialHeaders {
		header.Set(k, v)
	}

	r.logger.Info("starting probe run", map[string]any{
		"candidates": len(candidates),
		"timeout":    r.timeout.String(),
		"parallel":   r.config.Parallel,
	})

	var trace *types.ProbeTrace
	if r.config.Parallel <= 1 {
		trace = r.runSequential(ctx, candidates, header)
	} else {
		trace = r.runParallel(ctx, candidates, header)
	}

	if trace.Succeeded() {
		r.logger.Info("probe run succeeded", map[string]any{
			"winner":   trace.Winner.Candidate.URL,
			"attempts": trace.Len(),
		})
	} else {
		r.logger.Warn("probe run exhausted without success", map[string]any{
			"attempts": trace.Len(),
		})
	}
	return trace, nil
}

// runSequential is the one-attempt-in-flight scheduler.
func (r *Runner) runSequential(ctx context.Context, candidates []types.EndpointCandidate, header http.Header) *types.ProbeTrace {
	trace := &types.ProbeTrace{}

	for _, c := range candidates {
		if r.pace(ctx) != nil {
			break
		}

		result, aborted := r.attempt(ctx, c, header)
		if aborted {
			break
		}
		trace.Append(result)
		r.record(result)
		if result.Outcome.Connected() {
			break
		}

		if chained := r.followRedirect(ctx, result, header); chained != nil {
			trace.Append(chained)
			r.record(chained)
			if chained.Outcome.Connected() {
				break
			}
		}
	}

	return trace
}

// runParallel is the bounded worker-pool scheduler. Workers share nothing
// but the immutable candidate slice and the mutex-guarded trace; the first
// success cancels the pool context and unresolved attempts are dropped.
func (r *Runner) runParallel(ctx context.Context, candidates []types.EndpointCandidate, header http.Header) *types.ProbeTrace {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	trace := &types.ProbeTrace{}
	var mu sync.Mutex
	var won atomic.Bool

	sem := make(chan struct{}, r.config.Parallel)
	var wg sync.WaitGroup

	commit := func(results ...*types.AttemptResult) {
		mu.Lock()
		defer mu.Unlock()
		for _, res := range results {
			trace.Append(res)
			r.record(res)
			if res.Outcome.Connected() && won.CompareAndSwap(false, true) {
				cancel()
			}
		}
	}

dispatch:
	for _, c := range candidates {
		if won.Load() || r.pace(runCtx) != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-runCtx.Done():
			break dispatch
		}

		wg.Add(1)
		go func(c types.EndpointCandidate) {
			defer wg.Done()
			defer func() { <-sem }()

			result, aborted := r.attempt(runCtx, c, header)
			if aborted {
				r.config.Collector.IncAborted()
				return
			}

			chained, chainedAborted := r.followRedirectParallel(runCtx, result, header)
			if chainedAborted {
				commit(result)
				r.config.Collector.IncAborted()
				return
			}
			if chained != nil {
				commit(result, chained)
				return
			}
			commit(result)
		}(c)
	}

	wg.Wait()
	return trace
}

// attempt executes one handshake under the per-attempt deadline.
// The aborted return is true when the run was cancelled while the attempt
// was still pending; such attempts resolve to no outcome and are not
// recorded.
func (r *Runner) attempt(ctx context.Context, c types.EndpointCandidate, header http.Header) (*types.AttemptResult, bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.config.Collector.IncAttemptStarted()
	start := time.Now()
	conn, resp, err := r.dialer.Dial(attemptCtx, c, header)
	elapsed := time.Since(start)

	if err != nil && resp == nil && errors.Is(attemptCtx.Err(), context.Canceled) {
		// Run cancelled mid-handshake; close anything the dialer opened.
		if conn != nil {
			_ = conn.Close()
		}
		return nil, true
	}

	return &types.AttemptResult{
		Candidate: c,
		Outcome:   classify(attemptCtx, conn, resp, err),
		Duration:  elapsed,
	}, false
}

// followRedirect synthesizes and attempts the single-hop redirect target
// for a followable rejection. Returns nil when there is nothing to follow.
func (r *Runner) followRedirect(ctx context.Context, result *types.AttemptResult, header http.Header) *types.AttemptResult {
	chained, aborted := r.followRedirectParallel(ctx, result, header)
	if aborted {
		return nil
	}
	return chained
}

func (r *Runner) followRedirectParallel(ctx context.Context, result *types.AttemptResult, header http.Header) (*types.AttemptResult, bool) {
	if r.hops <= 0 || !result.Outcome.Redirect() {
		return nil, false
	}

	follow, err := synthesizeRedirect(result.Candidate, result.Outcome.Location)
	if err != nil {
		r.logger.Warn("redirect not followable", map[string]any{
			"from":  result.Candidate.URL,
			"error": err.Error(),
		})
		return nil, false
	}

	r.config.Collector.IncRedirectFollowed()
	chained, aborted := r.attempt(ctx, follow, header)
	if aborted {
		return nil, true
	}
	// Hop budget is spent: the chained attempt is never itself followed.
	chained.RedirectedFrom = result
	return chained, false
}

// pace blocks on the attempts-per-second limiter, if one is configured.
func (r *Runner) pace(ctx context.Context) error {
	if r.limiter == nil {
		return ctx.Err()
	}
	return r.limiter.Wait(ctx)
}

// record emits per-attempt metrics and a log line.
func (r *Runner) record(result *types.AttemptResult) {
	switch result.Outcome.Kind {
	case types.OutcomeConnected:
		r.config.Collector.IncConnected()
	case types.OutcomeRejected:
		r.config.Collector.IncRejected()
	case types.OutcomeTransportError:
		r.config.Collector.IncTransportError()
	case types.OutcomeTimedOut:
		r.config.Collector.IncTimedOut()
	}

	fields := map[string]any{
		"url":      result.Candidate.URL,
		"outcome":  string(result.Outcome.Kind),
		"duration": result.Duration.String(),
	}
	if result.Outcome.HTTPStatus != 0 {
		fields["http_status"] = result.Outcome.HTTPStatus
	}
	if result.RedirectedFrom != nil {
		fields["redirected_from"] = result.RedirectedFrom.Candidate.URL
	}
	r.logger.Debug("attempt resolved", fields)
}

// Compile-time interface check for the production dialer.
var _ Dialer = HandshakeDialer{}
