package config

import (
	"fmt"
	"time"
)

// Config represents a sounder.yaml configuration file.
// All values are optional and act as defaults for sounder probe flags.
// CLI flags always override config values.
type Config struct {
	Probe       ProbeConfig       `yaml:"probe"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Adapter     AdapterConfig     `yaml:"adapter"`
	Hook        HookConfig        `yaml:"hook"`
}

// ProbeConfig holds enumeration and runner defaults from the config file.
type ProbeConfig struct {
	BaseEndpoint    string     `yaml:"base_endpoint"`
	DeploymentID    string     `yaml:"deployment_id"`
	Versions        []string   `yaml:"versions"`
	Paths           []string   `yaml:"paths"`
	ParamNames      []string   `yaml:"param_names"`
	SubprotocolSets [][]string `yaml:"subprotocol_sets"`
	Timeout         Duration   `yaml:"timeout"`
	Parallel        int        `yaml:"parallel"`
	Rate            float64    `yaml:"rate"`
	MaxRedirectHops *int       `yaml:"max_redirect_hops,omitempty"`
}

// CredentialsConfig holds credential material from the config file.
// BearerToken is sugar for an Authorization header; Headers carries any
// vendor-specific key or protocol-negotiation headers verbatim.
type CredentialsConfig struct {
	BearerToken string            `yaml:"bearer_token,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
}

// CredentialHeaders merges the bearer token sugar into the raw header map.
// An explicit Authorization header in Headers wins over BearerToken.
func (c CredentialsConfig) CredentialHeaders() map[string]string {
	merged := make(map[string]string, len(c.Headers)+1)
	if c.BearerToken != "" {
		merged["Authorization"] = "Bearer " + c.BearerToken
	}
	for k, v := range c.Headers {
		merged[k] = v
	}
	return merged
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// HookConfig holds inbound webhook defaults from the config file.
type HookConfig struct {
	Listen       string            `yaml:"listen"`
	CallbackBase string            `yaml:"callback_base"`
	AnswerURL    string            `yaml:"answer_url"`
	Headers      map[string]string `yaml:"headers,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "7s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "7s" or "1m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
