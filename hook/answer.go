package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/loamworks/sounder/iox"
)

// Answerer invokes the external call-answering API.
type Answerer interface {
	// Answer accepts an incoming call, directing mid-call notifications
	// to callbackURL.
	Answer(ctx context.Context, incomingCallContext, callbackURL string) error
}

// AnswerClientConfig configures the call-answering client.
type AnswerClientConfig struct {
	// URL is the call-answering API endpoint (required).
	URL string
	// Headers are credential and negotiation headers sent on each request.
	Headers map[string]string
	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration
	// Retries is the number of retry attempts on transient failure (default 2).
	Retries int
}

// AnswerClient posts answer requests with bounded retries and exponential
// backoff. 4xx responses are non-retriable.
type AnswerClient struct {
	config AnswerClientConfig
	client *http.Client
}

// NewAnswerClient creates an answer client from the given config.
func NewAnswerClient(cfg AnswerClientConfig) (*AnswerClient, error) {
	if cfg.URL == "" {
		return nil, errors.New("answer client requires a URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.Retries == 0 {
		cfg.Retries = 2
	}

	return &AnswerClient{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// answerRequest is the wire body of an answer call.
type answerRequest struct {
	IncomingCallContext string `json:"incomingCallContext"`
	CallbackURI         string `json:"callbackUri"`
}

// Answer implements Answerer.
func (c *AnswerClient) Answer(ctx context.Context, incomingCallContext, callbackURL string) error {
	body, err := json.Marshal(answerRequest{
		IncomingCallContext: incomingCallContext,
		CallbackURI:         callbackURL,
	})
	if err != nil {
		return fmt.Errorf("answer: marshal request: %w", err)
	}

	var lastErr error
	attempts := 1 + c.config.Retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("answer: context canceled: %w", err)
		}
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return fmt.Errorf("answer: context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		lastErr = c.doRequest(ctx, body)
		if lastErr == nil {
			return nil
		}

		var statusErr *statusError
		if errors.As(lastErr, &statusErr) && statusErr.code >= 400 && statusErr.code < 500 {
			return fmt.Errorf("answer: non-retriable error: %w", lastErr)
		}
	}

	return fmt.Errorf("answer: failed after %d attempts: %w", attempts, lastErr)
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func (c *AnswerClient) doRequest(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

// Verify AnswerClient implements Answerer.
var _ Answerer = (*AnswerClient)(nil)
