package model

import (
	"fmt"
	"strings"
	"time"
)

// DataType identifies the kind of market data a request is asking for.
type DataType string

const (
	DataTypeUnknown     DataType = ""
	DataTypeQuote       DataType = "QUOTE"
	DataTypeOHLCVSeries DataType = "OHLCV_SERIES"
)

// IsQuoteLike reports whether the data type represents point-in-time
// quote data, which has a much tighter freshness window than series data.
func (t DataType) IsQuoteLike() bool {
	return t == DataTypeQuote
}

// ParseDataType converts a wire-level string into a DataType.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "QUOTE":
		return DataTypeQuote, nil
	case "OHLCV_SERIES", "OHLCV":
		return DataTypeOHLCVSeries, nil
	default:
		return DataTypeUnknown, fmt.Errorf("unknown data type: %q", s)
	}
}

// Identifier identifies an instrument. Symbol is the primary join key
// used for storage lookups, parsing and URL templating.
type Identifier struct {
	Symbol    string `json:"symbol"`
	Exchange  string `json:"exchange,omitempty"`
	AssetType string `json:"assetType,omitempty"`
}

// TimeRange is an optional window used by historical data types.
type TimeRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// MarketDataRequest is the normalized request handled by the broker.
// It is constructed once per call and never mutated downstream.
type MarketDataRequest struct {
	Type             DataType          `json:"type"`
	Identifiers      []Identifier      `json:"identifiers,omitempty"`
	Range            TimeRange         `json:"range,omitempty"`
	Parameters       map[string]string `json:"parameters,omitempty"`
	PreferredVendors []string          `json:"preferredVendors,omitempty"`
}

// PrimarySymbol returns the symbol of the first identifier, if any.
func (r MarketDataRequest) PrimarySymbol() string {
	if len(r.Identifiers) > 0 {
		return r.Identifiers[0].Symbol
	}
	return ""
}

// Parameter returns the named request parameter, or empty string.
func (r MarketDataRequest) Parameter(key string) string {
	if r.Parameters == nil {
		return ""
	}
	return r.Parameters[key]
}

// StorageIdentifier computes the key under which payloads for this
// request are stored: the first identifier's symbol when present,
// otherwise the first parameter rendered as "key:value", otherwise
// "unknown-<type>".
func (r MarketDataRequest) StorageIdentifier() string {
	if sym := r.PrimarySymbol(); sym != "" {
		return sym
	}
	if len(r.Parameters) > 0 {
		keys := make([]string, 0, len(r.Parameters))
		for k := range r.Parameters {
			keys = append(keys, k)
		}
		// map iteration order is random; pick the smallest key so the
		// storage identifier is stable across calls
		min := keys[0]
		for _, k := range keys[1:] {
			if k < min {
				min = k
			}
		}
		return fmt.Sprintf("%s:%s", min, r.Parameters[min])
	}
	return fmt.Sprintf("unknown-%s", strings.ToLower(string(r.Type)))
}
