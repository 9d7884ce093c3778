package model

import (
	"time"
)

// MarketDataResult is implemented by every typed result the gateway
// can produce. Concrete variants embed ResultBase.
type MarketDataResult interface {
	Base() *ResultBase
}

// ResultBase carries the fields shared by every result variant.
type ResultBase struct {
	Vendor            string     `json:"vendor"`
	Type              DataType   `json:"type"`
	PrimaryIdentifier string     `json:"primaryIdentifier,omitempty"`
	RawJSON           string     `json:"-"`
	Timestamp         *time.Time `json:"timestamp,omitempty"`
}

// Base returns the shared result fields.
func (b *ResultBase) Base() *ResultBase { return b }

// QuoteDto is a point-in-time quote. All numeric fields are optional:
// a vendor payload that carries only a subset still parses.
type QuoteDto struct {
	ResultBase

	Price     *float64 `json:"price,omitempty"`
	Open      *float64 `json:"open,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Low       *float64 `json:"low,omitempty"`
	PrevClose *float64 `json:"prevClose,omitempty"`
	Volume    *int64   `json:"volume,omitempty"`
	Currency  *string  `json:"currency,omitempty"`
}

// OhlcvBar is a single bar of an OHLCV series.
type OhlcvBar struct {
	TsUTC  time.Time `json:"tsUtc"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume *int64    `json:"volume,omitempty"`
}

// OhlcvSeriesDto is a series of OHLCV bars.
type OhlcvSeriesDto struct {
	ResultBase

	Currency    *string    `json:"currency,omitempty"`
	Granularity string     `json:"granularity,omitempty"`
	Adjustment  string     `json:"adjustment,omitempty"`
	Partial     bool       `json:"partial"`
	Bars        []OhlcvBar `json:"bars"`
}
