package provider

import (
	"net/url"
	"strings"
	"testing"

	"github.com/Ruscigno/MarketPulse/pkg/model"
	"github.com/Ruscigno/MarketPulse/pkg/vendors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builderConfig() *vendors.VendorConfig {
	return &vendors.VendorConfig{
		VendorName: "AlphaVantage",
		APIKey:     "secret",
		BaseURL:    "https://www.alphavantage.co/query",
	}
}

func builderRequest() model.MarketDataRequest {
	return model.MarketDataRequest{
		Type:        model.DataTypeQuote,
		Identifiers: []model.Identifier{{Symbol: "IBM"}},
		Parameters:  map[string]string{"interval": "5min"},
	}
}

func TestBuildURLFunctionAndAPIKey(t *testing.T) {
	ep := &vendors.EndpointConfig{
		DataType: model.DataTypeQuote,
		Function: "GLOBAL_QUOTE",
		Query: vendors.QueryParams{
			Required: map[string]string{"symbol": "{symbol}"},
		},
	}

	raw, err := buildRequestURL(builderConfig(), ep, builderRequest())
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "GLOBAL_QUOTE", q.Get("function"))
	assert.Equal(t, "IBM", q.Get("symbol"))
	assert.Equal(t, "secret", q.Get("apikey"))
}

func TestBuildURLRequiredEmptyIsError(t *testing.T) {
	ep := &vendors.EndpointConfig{
		DataType: model.DataTypeQuote,
		Query: vendors.QueryParams{
			Required: map[string]string{"outputsize": "{outputsize}"},
		},
	}

	_, err := buildRequestURL(builderConfig(), ep, builderRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required query parameter "outputsize"`)
}

func TestBuildURLOptionalEmptySkipped(t *testing.T) {
	ep := &vendors.EndpointConfig{
		DataType: model.DataTypeQuote,
		Query: vendors.QueryParams{
			Optional: map[string]string{
				"interval":   "{interval}",
				"outputsize": "{outputsize}",
			},
		},
	}

	raw, err := buildRequestURL(builderConfig(), ep, builderRequest())
	require.NoError(t, err)

	parsed, _ := url.Parse(raw)
	q := parsed.Query()
	assert.Equal(t, "5min", q.Get("interval"))
	assert.False(t, q.Has("outputsize"))
}

func TestBuildURLAPIKeyNotDuplicated(t *testing.T) {
	ep := &vendors.EndpointConfig{
		DataType: model.DataTypeQuote,
		Query: vendors.QueryParams{
			Required: map[string]string{"apikey": "{apikey}"},
		},
	}

	raw, err := buildRequestURL(builderConfig(), ep, builderRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(raw, "apikey=secret"))
}

func TestBuildURLPathTemplate(t *testing.T) {
	cfg := builderConfig()
	cfg.BaseURL = "https://api.example.com"
	ep := &vendors.EndpointConfig{
		DataType: model.DataTypeQuote,
		Path:     "/stocks/{symbol}/quote",
	}

	raw, err := buildRequestURL(cfg, ep, builderRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "https://api.example.com/stocks/IBM/quote"))
}

func TestBuildURLUnterminatedToken(t *testing.T) {
	ep := &vendors.EndpointConfig{
		DataType: model.DataTypeQuote,
		Query: vendors.QueryParams{
			Required: map[string]string{"symbol": "{symbol"},
		},
	}

	_, err := buildRequestURL(builderConfig(), ep, builderRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated template token")
}

func TestResolveTokenVendorAndCase(t *testing.T) {
	got, err := resolveTemplate("{VENDOR}-{Symbol}", builderConfig(), builderRequest())
	require.NoError(t, err)
	assert.Equal(t, "AlphaVantage-IBM", got)
}
