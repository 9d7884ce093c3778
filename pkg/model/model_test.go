package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataType(t *testing.T) {
	cases := map[string]DataType{
		"QUOTE":        DataTypeQuote,
		"quote":        DataTypeQuote,
		" Quote ":      DataTypeQuote,
		"OHLCV_SERIES": DataTypeOHLCVSeries,
		"ohlcv":        DataTypeOHLCVSeries,
	}
	for input, expected := range cases {
		got, err := ParseDataType(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, got, input)
	}

	_, err := ParseDataType("bonds")
	require.Error(t, err)
}

func TestStorageIdentifier(t *testing.T) {
	withSymbol := MarketDataRequest{
		Type:        DataTypeQuote,
		Identifiers: []Identifier{{Symbol: "IBM"}},
	}
	assert.Equal(t, "IBM", withSymbol.StorageIdentifier())

	withParams := MarketDataRequest{
		Type:       DataTypeQuote,
		Parameters: map[string]string{"market": "US", "currency": "USD"},
	}
	// smallest key wins regardless of map order
	assert.Equal(t, "currency:USD", withParams.StorageIdentifier())

	empty := MarketDataRequest{Type: DataTypeOHLCVSeries}
	assert.Equal(t, "unknown-ohlcv_series", empty.StorageIdentifier())
}

func TestNewResultVariants(t *testing.T) {
	quote, ok := NewResult(DataTypeQuote)
	require.True(t, ok)
	assert.IsType(t, &QuoteDto{}, quote)
	assert.Equal(t, DataTypeQuote, quote.Base().Type)

	series, ok := NewResult(DataTypeOHLCVSeries)
	require.True(t, ok)
	assert.IsType(t, &OhlcvSeriesDto{}, series)

	_, ok = NewResult(DataTypeUnknown)
	assert.False(t, ok)
}

func TestFieldForCaseInsensitive(t *testing.T) {
	setter, ok := FieldFor(DataTypeQuote, "PrevClose")
	require.True(t, ok)
	assert.Equal(t, FieldFloat64, setter.Kind)

	quote, _ := NewResult(DataTypeQuote)
	setter.Set(quote, 42.5)
	require.NotNil(t, quote.(*QuoteDto).PrevClose)
	assert.Equal(t, 42.5, *quote.(*QuoteDto).PrevClose)

	_, ok = FieldFor(DataTypeQuote, "no such field")
	assert.False(t, ok)
}

func TestTimestampSetter(t *testing.T) {
	setter, ok := FieldFor(DataTypeQuote, "timestamp")
	require.True(t, ok)
	assert.Equal(t, FieldTime, setter.Kind)

	quote, _ := NewResult(DataTypeQuote)
	ts := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	setter.Set(quote, ts)
	require.NotNil(t, quote.Base().Timestamp)
	assert.Equal(t, ts, *quote.Base().Timestamp)
}

func TestApiResultHelpers(t *testing.T) {
	ok := Ok[string]("data", 200)
	assert.True(t, ok.Success)
	assert.Equal(t, 200, ok.StatusCode)

	fail := Fail[string]("boom")
	assert.False(t, fail.Success)
	assert.Equal(t, "boom", fail.Error)
	assert.Nil(t, fail.RetryAfter)

	later := time.Now().Add(time.Hour)
	retry := FailRetry[string]("later", &later)
	assert.False(t, retry.Success)
	require.NotNil(t, retry.RetryAfter)
	assert.Equal(t, later, *retry.RetryAfter)
}

func TestGateHelpers(t *testing.T) {
	assert.True(t, AllowGate().Allowed)

	later := time.Now().Add(time.Hour)
	deny := DenyGate("Daily rate limit reached", &later)
	assert.False(t, deny.Allowed)
	assert.Equal(t, "Daily rate limit reached", deny.Reason)
	require.NotNil(t, deny.RetryAfter)
}
