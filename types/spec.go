package types

import (
	"fmt"
	"time"
)

// DefaultAttemptTimeout is the per-attempt handshake timeout applied when
// the spec leaves PerAttemptTimeout zero.
const DefaultAttemptTimeout = 7 * time.Second

// ProbeSpec is the single configuration bundle for one probing run.
// It is constructed once at process start from flags and config file and
// passed into the generator and runner as an immutable value; the core
// never reads process environment.
type ProbeSpec struct {
	// BaseEndpoint is the provider's HTTP(S) base URL. Trailing slashes
	// are stripped during generation.
	BaseEndpoint string
	// DeploymentID is the deployment identifier substituted into the
	// deployment query parameter.
	DeploymentID string
	// Versions are the known protocol-version strings, most likely first.
	Versions []string
	// Paths are the known URL path segments, most likely first.
	Paths []string
	// ParamNames are the known names for the deployment query parameter.
	ParamNames []string
	// SubprotocolSets are the known sub-protocol token sets to offer.
	SubprotocolSets [][]string
	// CredentialHeaders are opaque headers carried on every handshake:
	// an authorization token plus any fixed protocol-negotiation headers
	// the remote requires.
	CredentialHeaders map[string]string
	// PerAttemptTimeout is the hard wall-clock bound per attempt.
	// Zero means DefaultAttemptTimeout.
	PerAttemptTimeout time.Duration
}

// Timeout returns the effective per-attempt timeout.
func (s *ProbeSpec) Timeout() time.Duration {
	if s.PerAttemptTimeout <= 0 {
		return DefaultAttemptTimeout
	}
	return s.PerAttemptTimeout
}

// Validate checks the full bundle before any network activity.
// Every violation is a *ConfigurationError so callers can separate bad
// input from probe outcomes.
func (s *ProbeSpec) Validate() error {
	if err := s.ValidateEnumeration(); err != nil {
		return err
	}
	if len(s.CredentialHeaders) == 0 {
		return &ConfigurationError{Field: "credential_headers", Reason: "credential material is required"}
	}
	return nil
}

// ValidateEnumeration checks only the fields candidate generation reads.
// Credential material is a runner concern, not a generator input, so a
// dry-run enumeration does not require it.
func (s *ProbeSpec) ValidateEnumeration() error {
	if s.BaseEndpoint == "" {
		return &ConfigurationError{Field: "base_endpoint", Reason: "required"}
	}
	if s.DeploymentID == "" {
		return &ConfigurationError{Field: "deployment_id", Reason: "required"}
	}
	if len(s.Versions) == 0 {
		return &ConfigurationError{Field: "versions", Reason: "at least one version is required"}
	}
	if len(s.Paths) == 0 {
		return &ConfigurationError{Field: "paths", Reason: "at least one path is required"}
	}
	if len(s.ParamNames) == 0 {
		return &ConfigurationError{Field: "param_names", Reason: "at least one parameter name is required"}
	}
	if len(s.SubprotocolSets) == 0 {
		return &ConfigurationError{Field: "subprotocol_sets", Reason: "at least one sub-protocol set is required"}
	}
	return nil
}

// ConfigurationError reports invalid or missing required input.
// It is the only error the prober returns; per-attempt failures are
// recorded in the trace, never surfaced as errors.
type ConfigurationError struct {
	// Field is the offending configuration field.
	Field string
	// Reason describes the violation.
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}
