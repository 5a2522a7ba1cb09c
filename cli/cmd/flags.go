package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/loamworks/sounder/cli/config"
	"github.com/loamworks/sounder/types"
)

// specFlags are the enumeration flags shared by probe and candidates.
func specFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to sounder.yaml config file",
		},
		&cli.StringFlag{
			Name:  "base-endpoint",
			Usage: "Provider HTTP(S) base URL",
		},
		&cli.StringFlag{
			Name:  "deployment-id",
			Usage: "Deployment identifier for the deployment query parameter",
		},
		&cli.StringSliceFlag{
			Name:  "version",
			Usage: "Known protocol version (repeatable, most likely first)",
		},
		&cli.StringSliceFlag{
			Name:  "path",
			Usage: "Known URL path segment (repeatable, most likely first)",
		},
		&cli.StringSliceFlag{
			Name:  "param-name",
			Usage: "Known deployment query parameter name (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:  "subprotocols",
			Usage: "Sub-protocol token set as a comma-joined list (repeatable)",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format: json, table, or yaml (default: TTY-sensitive)",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored table output",
		},
	}
}

// credentialFlags are the handshake credential flags for probe.
func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "bearer-token",
			Usage: "Bearer token (sugar for Authorization: Bearer <token>)",
		},
		&cli.StringSliceFlag{
			Name:  "header",
			Usage: "Credential or negotiation header as 'Name: value' (repeatable)",
		},
	}
}

// loadConfig loads the optional YAML config file named by --config.
// Absent flag means an empty config: flags alone must suffice.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// buildSpec merges the config file and CLI flags into a ProbeSpec.
// Flags always override config values.
func buildSpec(c *cli.Context, cfg *config.Config) (*types.ProbeSpec, error) {
	spec := &types.ProbeSpec{
		BaseEndpoint:      cfg.Probe.BaseEndpoint,
		DeploymentID:      cfg.Probe.DeploymentID,
		Versions:          cfg.Probe.Versions,
		Paths:             cfg.Probe.Paths,
		ParamNames:        cfg.Probe.ParamNames,
		SubprotocolSets:   cfg.Probe.SubprotocolSets,
		CredentialHeaders: cfg.Credentials.CredentialHeaders(),
		PerAttemptTimeout: cfg.Probe.Timeout.Duration,
	}

	if v := c.String("base-endpoint"); v != "" {
		spec.BaseEndpoint = v
	}
	if v := c.String("deployment-id"); v != "" {
		spec.DeploymentID = v
	}
	if v := c.StringSlice("version"); len(v) > 0 {
		spec.Versions = v
	}
	if v := c.StringSlice("path"); len(v) > 0 {
		spec.Paths = v
	}
	if v := c.StringSlice("param-name"); len(v) > 0 {
		spec.ParamNames = v
	}
	if v := c.StringSlice("subprotocols"); len(v) > 0 {
		spec.SubprotocolSets = parseSubprotocolSets(v)
	}
	if c.IsSet("timeout") {
		spec.PerAttemptTimeout = c.Duration("timeout")
	}

	if v := c.String("bearer-token"); v != "" {
		if spec.CredentialHeaders == nil {
			spec.CredentialHeaders = map[string]string{}
		}
		spec.CredentialHeaders["Authorization"] = "Bearer " + v
	}
	for _, raw := range c.StringSlice("header") {
		name, value, err := parseHeader(raw)
		if err != nil {
			return nil, err
		}
		if spec.CredentialHeaders == nil {
			spec.CredentialHeaders = map[string]string{}
		}
		spec.CredentialHeaders[name] = value
	}

	return spec, nil
}

// parseSubprotocolSets splits each repeated flag value into one token set.
// "a,b" becomes the ordered set [a b]; an empty value is the empty set
// (offer no sub-protocol).
func parseSubprotocolSets(values []string) [][]string {
	sets := make([][]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			sets = append(sets, nil)
			continue
		}
		parts := strings.Split(v, ",")
		tokens := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				tokens = append(tokens, t)
			}
		}
		sets = append(sets, tokens)
	}
	return sets
}

// parseHeader splits a 'Name: value' flag into its parts.
func parseHeader(raw string) (string, string, error) {
	name, value, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if !ok || name == "" || value == "" {
		return "", "", fmt.Errorf("invalid header %q (want 'Name: value')", raw)
	}
	return name, value, nil
}
