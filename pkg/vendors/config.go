package vendors

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Ruscigno/MarketPulse/pkg/model"
)

// RateLimits holds the per-vendor call budgets. Zero means unlimited.
type RateLimits struct {
	PerMinute int `yaml:"perMinute"`
	PerHour   int `yaml:"perHour"`
	PerDay    int `yaml:"perDay"`
}

// QueryParams groups the templated query parameters of an endpoint.
// Required parameters must render non-empty; optional parameters are
// skipped when their template resolves to an empty value.
type QueryParams struct {
	Required map[string]string `yaml:"required"`
	Optional map[string]string `yaml:"optional"`
}

// PathList is a single source path or an ordered fallback list of
// source paths for one field mapping.
type PathList []string

// UnmarshalYAML accepts either a scalar path or a sequence of paths.
func (p *PathList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*p = PathList{single}
		return nil
	}
	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}
	*p = PathList(many)
	return nil
}

// ResponseConfig describes how a vendor's raw JSON response maps onto
// a normalized result.
type ResponseConfig struct {
	RootPath      string              `yaml:"rootPath"`
	TimestampKey  string              `yaml:"timestampKey"`
	FieldMappings map[string]PathList `yaml:"fieldMappings"`
}

// EndpointConfig describes one named endpoint of a vendor.
type EndpointConfig struct {
	DataType   model.DataType `yaml:"dataType"`
	HTTPMethod string         `yaml:"httpMethod"`
	Path       string         `yaml:"path"`
	Function   string         `yaml:"function"`
	Query      QueryParams    `yaml:"queryParams"`
	Response   ResponseConfig `yaml:"response"`
}

// VendorConfig is the full declarative description of one vendor.
// Loaded once at startup and treated as immutable for the process
// lifetime; reconfiguration requires a restart.
type VendorConfig struct {
	VendorName string                    `yaml:"vendorName"`
	APIKey     string                    `yaml:"apiKey"`
	BaseURL    string                    `yaml:"baseUrl"`
	RateLimits RateLimits                `yaml:"rateLimits"`
	Endpoints  map[string]EndpointConfig `yaml:"endpoints"`
}

// EndpointFor returns the configured endpoint declaring the requested
// data type. Endpoint names are walked in sorted order so the choice
// is stable when a vendor declares more than one endpoint per type.
func (c *VendorConfig) EndpointFor(t model.DataType) (*EndpointConfig, bool) {
	names := make([]string, 0, len(c.Endpoints))
	for name := range c.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ep := c.Endpoints[name]; ep.DataType == t {
			return &ep, true
		}
	}
	return nil, false
}

// Supports reports whether the vendor declares at least one endpoint
// for the data type.
func (c *VendorConfig) Supports(t model.DataType) bool {
	_, ok := c.EndpointFor(t)
	return ok
}

// Validate rejects configurations that would fail at request time.
// Every endpoint must declare a non-default data type and HTTP method.
func (c *VendorConfig) Validate() error {
	if strings.TrimSpace(c.VendorName) == "" {
		return fmt.Errorf("vendor config: vendorName is required")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("vendor %s: baseUrl is required", c.VendorName)
	}
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("vendor %s: at least one endpoint is required", c.VendorName)
	}
	for name, ep := range c.Endpoints {
		if ep.DataType == model.DataTypeUnknown {
			return fmt.Errorf("vendor %s, endpoint %s: dataType is required", c.VendorName, name)
		}
		if _, ok := model.NewResult(ep.DataType); !ok {
			return fmt.Errorf("vendor %s, endpoint %s: unregistered dataType %q", c.VendorName, name, ep.DataType)
		}
		switch strings.ToUpper(ep.HTTPMethod) {
		case http.MethodGet, http.MethodPost:
		case "":
			return fmt.Errorf("vendor %s, endpoint %s: httpMethod is required", c.VendorName, name)
		default:
			return fmt.Errorf("vendor %s, endpoint %s: unsupported httpMethod %q", c.VendorName, name, ep.HTTPMethod)
		}
	}
	return nil
}
