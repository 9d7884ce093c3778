package vendors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Ruscigno/MarketPulse/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const sampleDoc = `
vendorName: AlphaVantage
apiKey: ${TEST_VENDOR_API_KEY}
baseUrl: https://www.alphavantage.co/query
rateLimits:
  perMinute: 5
  perDay: 25
endpoints:
  globalQuote:
    dataType: quote
    httpMethod: get
    function: GLOBAL_QUOTE
    queryParams:
      required:
        symbol: "{symbol}"
    response:
      rootPath: Global Quote
      timestampKey: 07. latest trading day
      fieldMappings:
        price: 05. price
        volume:
          - 06. volume
          - volume
`

func writeConfig(t *testing.T, dir, name, doc string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644))
}

func TestLoadFile(t *testing.T) {
	t.Setenv("TEST_VENDOR_API_KEY", "from-env")
	dir := t.TempDir()
	writeConfig(t, dir, "alpha.yaml", sampleDoc)

	cfg, err := LoadFile(filepath.Join(dir, "alpha.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "AlphaVantage", cfg.VendorName)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, 5, cfg.RateLimits.PerMinute)
	assert.Equal(t, 25, cfg.RateLimits.PerDay)

	ep, ok := cfg.EndpointFor(model.DataTypeQuote)
	require.True(t, ok)
	assert.Equal(t, "GET", ep.HTTPMethod)
	assert.Equal(t, "GLOBAL_QUOTE", ep.Function)
	assert.Equal(t, PathList{"05. price"}, ep.Response.FieldMappings["price"])
	assert.Equal(t, PathList{"06. volume", "volume"}, ep.Response.FieldMappings["volume"])
}

func TestLoadDir(t *testing.T) {
	t.Setenv("TEST_VENDOR_API_KEY", "k")
	dir := t.TempDir()
	writeConfig(t, dir, "alpha.yaml", sampleDoc)
	writeConfig(t, dir, "notes.txt", "ignored")

	configs, err := LoadDir(dir, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "AlphaVantage", configs[0].VendorName)
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(t.TempDir(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no vendor configurations")
}

func TestLoadFileInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "bad.yaml", "vendorName: [")

	_, err := LoadFile(filepath.Join(dir, "bad.yaml"))
	require.Error(t, err)
}

func TestPathListScalarAndSequence(t *testing.T) {
	var scalar struct {
		Path PathList `yaml:"path"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`path: a.b`), &scalar))
	assert.Equal(t, PathList{"a.b"}, scalar.Path)

	var seq struct {
		Path PathList `yaml:"path"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("path:\n  - a\n  - b"), &seq))
	assert.Equal(t, PathList{"a", "b"}, seq.Path)
}

func TestValidate(t *testing.T) {
	valid := func() *VendorConfig {
		return &VendorConfig{
			VendorName: "Alpha",
			BaseURL:    "https://example.com",
			Endpoints: map[string]EndpointConfig{
				"quote": {DataType: model.DataTypeQuote, HTTPMethod: "GET"},
			},
		}
	}

	require.NoError(t, valid().Validate())

	noName := valid()
	noName.VendorName = " "
	assert.ErrorContains(t, noName.Validate(), "vendorName")

	noBase := valid()
	noBase.BaseURL = ""
	assert.ErrorContains(t, noBase.Validate(), "baseUrl")

	noEndpoints := valid()
	noEndpoints.Endpoints = nil
	assert.ErrorContains(t, noEndpoints.Validate(), "endpoint")

	noType := valid()
	noType.Endpoints["quote"] = EndpointConfig{HTTPMethod: "GET"}
	assert.ErrorContains(t, noType.Validate(), "dataType")

	badMethod := valid()
	badMethod.Endpoints["quote"] = EndpointConfig{DataType: model.DataTypeQuote, HTTPMethod: "DELETE"}
	assert.ErrorContains(t, badMethod.Validate(), "httpMethod")

	badType := valid()
	badType.Endpoints["quote"] = EndpointConfig{DataType: model.DataType("BONDS"), HTTPMethod: "GET"}
	assert.ErrorContains(t, badType.Validate(), "unregistered")
}

func TestEndpointForStableOrder(t *testing.T) {
	cfg := &VendorConfig{
		VendorName: "Alpha",
		BaseURL:    "https://example.com",
		Endpoints: map[string]EndpointConfig{
			"bQuote": {DataType: model.DataTypeQuote, HTTPMethod: "GET", Function: "SECOND"},
			"aQuote": {DataType: model.DataTypeQuote, HTTPMethod: "GET", Function: "FIRST"},
		},
	}

	ep, ok := cfg.EndpointFor(model.DataTypeQuote)
	require.True(t, ok)
	assert.Equal(t, "FIRST", ep.Function)

	assert.True(t, cfg.Supports(model.DataTypeQuote))
	assert.False(t, cfg.Supports(model.DataTypeOHLCVSeries))
}
