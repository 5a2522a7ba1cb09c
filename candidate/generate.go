// Package candidate enumerates the ordered set of endpoint shapes to try.
//
// Generation is pure: no network, no environment, deterministic for
// identical input. Ordering is a deliberate priority ordering — the runner
// stops at first success, so list the most likely version and path first.
package candidate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/loamworks/sounder/types"
)

// versionParam is the fixed query parameter carrying the protocol version.
// The variable axis is the deployment parameter name, not the version name.
const versionParam = "api-version"

// Generate produces the ordered candidate list for a validated spec as the
// nested cross product, outer to inner:
// version × path × parameter-name × subprotocol-set.
//
// Candidates whose resulting URL and sub-protocol set coincide with an
// earlier one are suppressed, keeping the first occurrence. Returns
// *types.ConfigurationError for a malformed base endpoint or invalid spec.
func Generate(spec *types.ProbeSpec) ([]types.EndpointCandidate, error) {
	if err := spec.ValidateEnumeration(); err != nil {
		return nil, err
	}

	base, err := normalizeBase(spec.BaseEndpoint)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	candidates := make([]types.EndpointCandidate, 0,
		len(spec.Versions)*len(spec.Paths)*len(spec.ParamNames)*len(spec.SubprotocolSets))

	for _, version := range spec.Versions {
		for _, path := range spec.Paths {
			for _, param := range spec.ParamNames {
				for _, tokens := range spec.SubprotocolSets {
					c := types.EndpointCandidate{
						URL:          buildURL(base, path, version, param, spec.DeploymentID),
						Subprotocols: tokens,
					}
					if _, dup := seen[c.Key()]; dup {
						continue
					}
					seen[c.Key()] = struct{}{}
					candidates = append(candidates, c)
				}
			}
		}
	}

	return candidates, nil
}

// normalizeBase validates the base endpoint and returns it with trailing
// slashes stripped and the scheme rewritten to its secure-streaming
// equivalent (http→ws, https→wss), host and port preserved.
func normalizeBase(raw string) (string, error) {
	trimmed := strings.TrimRight(raw, "/")

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", &types.ConfigurationError{
			Field:  "base_endpoint",
			Reason: fmt.Sprintf("malformed URL %q: %v", raw, err),
		}
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", &types.ConfigurationError{
			Field:  "base_endpoint",
			Reason: fmt.Sprintf("unsupported scheme %q (want http or https)", u.Scheme),
		}
	}
	if u.Host == "" {
		return "", &types.ConfigurationError{
			Field:  "base_endpoint",
			Reason: fmt.Sprintf("missing host in %q", raw),
		}
	}

	return u.String(), nil
}

// buildURL assembles one candidate URL:
// {base}/{path}?api-version={version}&{param}={deploymentID}.
func buildURL(base, path, version, param, deploymentID string) string {
	// url.Values.Encode sorts keys; build the query by hand so api-version
	// stays first and the emitted URL matches provider documentation shape.
	query := versionParam + "=" + url.QueryEscape(version) +
		"&" + url.QueryEscape(param) + "=" + url.QueryEscape(deploymentID)

	return base + "/" + strings.Trim(path, "/") + "?" + query
}
