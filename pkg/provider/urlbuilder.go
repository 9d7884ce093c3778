package provider

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/Ruscigno/MarketPulse/pkg/model"
	"github.com/Ruscigno/MarketPulse/pkg/vendors"
)

const apiKeyParam = "apikey"

// buildRequestURL assembles the absolute URL for an endpoint call:
// base address + endpoint path, followed by the endpoint's function
// value, every required templated parameter, every optional parameter
// that resolves non-empty, and the API key unless already present.
// A required parameter that renders empty is a configuration error
// for this call, not a retryable vendor failure.
func buildRequestURL(cfg *vendors.VendorConfig, ep *vendors.EndpointConfig, req model.MarketDataRequest) (string, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if ep.Path != "" {
		expanded, err := resolveTemplate(ep.Path, cfg, req)
		if err != nil {
			return "", err
		}
		base += "/" + strings.TrimLeft(expanded, "/")
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL for vendor %s: %w", cfg.VendorName, err)
	}

	query := parsed.Query()
	if ep.Function != "" {
		query.Set("function", ep.Function)
	}

	for _, key := range sortedKeys(ep.Query.Required) {
		value, err := resolveTemplate(ep.Query.Required[key], cfg, req)
		if err != nil {
			return "", err
		}
		if value == "" {
			return "", fmt.Errorf("required query parameter %q resolved to an empty value", key)
		}
		query.Set(key, value)
	}

	for _, key := range sortedKeys(ep.Query.Optional) {
		value, err := resolveTemplate(ep.Query.Optional[key], cfg, req)
		if err != nil {
			return "", err
		}
		if value == "" {
			continue
		}
		query.Set(key, value)
	}

	if cfg.APIKey != "" && !query.Has(apiKeyParam) {
		query.Set(apiKeyParam, cfg.APIKey)
	}

	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// resolveTemplate substitutes {token} placeholders. The well-known
// tokens symbol, apikey and vendor resolve from the request and the
// vendor config; any other token resolves from the request parameter
// of the same name.
func resolveTemplate(template string, cfg *vendors.VendorConfig, req model.MarketDataRequest) (string, error) {
	var out strings.Builder
	rest := template
	for {
		open := strings.Index(rest, "{")
		if open < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}
		close := strings.Index(rest[open:], "}")
		if close < 0 {
			return "", fmt.Errorf("unterminated template token in %q", template)
		}
		out.WriteString(rest[:open])
		token := rest[open+1 : open+close]
		out.WriteString(resolveToken(token, cfg, req))
		rest = rest[open+close+1:]
	}
}

func resolveToken(token string, cfg *vendors.VendorConfig, req model.MarketDataRequest) string {
	switch strings.ToLower(token) {
	case "symbol":
		return req.PrimarySymbol()
	case apiKeyParam:
		return cfg.APIKey
	case "vendor":
		return cfg.VendorName
	default:
		return req.Parameter(strings.ToLower(token))
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
