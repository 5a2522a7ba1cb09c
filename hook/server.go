// Package hook implements the inbound webhook surface.
//
// The hook receives provider push notifications and does exactly two
// things: it answers subscription-validation handshakes synchronously by
// echoing the validation token, and it accepts call-arrival events by
// invoking the external call-answering API with a callback URL pointing
// back at itself. Neither path touches the probing core, and answering a
// call never blocks the event response.
package hook

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/loamworks/sounder/log"
)

// Event type suffixes. Providers namespace event types differently across
// versions, so matching is by suffix rather than exact string.
const (
	EventTypeSubscriptionValidation = "SubscriptionValidationEvent"
	EventTypeIncomingCall           = "IncomingCall"
)

// answerTimeout bounds the detached call-answer request.
const answerTimeout = 15 * time.Second

// Event is one inbound push-notification envelope.
type Event struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

// subscriptionValidationData carries the validation handshake token.
type subscriptionValidationData struct {
	ValidationCode string `json:"validationCode"`
}

// incomingCallData carries the opaque context needed to answer a call.
type incomingCallData struct {
	IncomingCallContext string `json:"incomingCallContext"`
}

// Config configures the hook server.
type Config struct {
	// CallbackBase is the externally reachable base URL of this hook,
	// used to build the callback URL handed to the answering API.
	CallbackBase string
	// Answerer invokes the external call-answering API.
	// Nil disables call answering; arrival events are acknowledged only.
	Answerer Answerer
}

// Server is the inbound webhook HTTP surface.
type Server struct {
	config Config
	logger *log.Logger
}

// NewServer creates a hook server.
func NewServer(config Config, logger *log.Logger) *Server {
	return &Server{config: config, logger: logger}
}

// Router builds the chi router for the hook surface.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Post("/hook/events", s.handleEvents)
	r.Post("/hook/calls/callback", s.handleCallback)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

// CallbackURL returns the callback URL handed to the answering API.
func (s *Server) CallbackURL() string {
	return strings.TrimRight(s.config.CallbackBase, "/") + "/hook/calls/callback"
}

// handleEvents processes an inbound push-notification batch.
// Subscription validation is answered synchronously in the response body;
// call arrivals are acknowledged immediately and answered out of band.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var events []Event
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		s.logger.Warn("unparseable event batch", map[string]any{"error": err.Error()})
		http.Error(w, "invalid event payload", http.StatusBadRequest)
		return
	}

	for _, event := range events {
		switch {
		case strings.HasSuffix(event.EventType, EventTypeSubscriptionValidation):
			s.answerValidation(w, event)
			return

		case strings.HasSuffix(event.EventType, EventTypeIncomingCall):
			s.acceptCall(event)

		default:
			s.logger.Debug("ignoring event", map[string]any{"event_type": event.EventType})
		}
	}

	w.WriteHeader(http.StatusAccepted)
}

// answerValidation echoes the validation token back synchronously.
// No probing involvement: this is purely the subscription handshake.
func (s *Server) answerValidation(w http.ResponseWriter, event Event) {
	var data subscriptionValidationData
	if err := json.Unmarshal(event.Data, &data); err != nil || data.ValidationCode == "" {
		s.logger.Warn("validation event without code", map[string]any{"event_type": event.EventType})
		http.Error(w, "missing validation code", http.StatusBadRequest)
		return
	}

	s.logger.Info("answering subscription validation", nil)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"validationResponse": data.ValidationCode})
}

// acceptCall hands the call context to the answering API on a detached
// goroutine so the event response is never held up.
func (s *Server) acceptCall(event Event) {
	var data incomingCallData
	if err := json.Unmarshal(event.Data, &data); err != nil || data.IncomingCallContext == "" {
		s.logger.Warn("call event without context", map[string]any{"event_type": event.EventType})
		return
	}

	if s.config.Answerer == nil {
		s.logger.Warn("call arrived but no answerer is configured", nil)
		return
	}

	callback := s.CallbackURL()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), answerTimeout)
		defer cancel()
		if err := s.config.Answerer.Answer(ctx, data.IncomingCallContext, callback); err != nil {
			s.logger.Error("call answer failed", map[string]any{"error": err.Error()})
			return
		}
		s.logger.Info("call answered", map[string]any{"callback": callback})
	}()
}

// handleCallback acknowledges mid-call notifications from the answering
// API. The hook does not interpret them.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	defer func() { _ = r.Body.Close() }()
	s.logger.Debug("call callback received", nil)
	w.WriteHeader(http.StatusOK)
}
