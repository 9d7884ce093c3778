package model

import (
	"strings"
	"time"
)

// FieldKind declares the coercion target for a mapped result field.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldBool
	FieldInt64
	FieldFloat64
	FieldTime
)

// FieldSetter assigns an already-coerced value to a field of a result.
// The value handed to Set matches the declared Kind: string, bool,
// int64, float64 or time.Time.
type FieldSetter struct {
	Kind FieldKind
	Set  func(r MarketDataResult, v interface{})
}

// resultSpec binds a data type to its zero-value constructor and the
// settable fields of the produced variant. The table is fixed at
// compile time; new result variants register here and nowhere else.
type resultSpec struct {
	newResult func() MarketDataResult
	fields    map[string]FieldSetter
}

var resultRegistry = map[DataType]resultSpec{
	DataTypeQuote: {
		newResult: func() MarketDataResult { return &QuoteDto{ResultBase: ResultBase{Type: DataTypeQuote}} },
		fields: map[string]FieldSetter{
			"price":     floatField(func(q *QuoteDto, v float64) { q.Price = &v }),
			"open":      floatField(func(q *QuoteDto, v float64) { q.Open = &v }),
			"high":      floatField(func(q *QuoteDto, v float64) { q.High = &v }),
			"low":       floatField(func(q *QuoteDto, v float64) { q.Low = &v }),
			"prevclose": floatField(func(q *QuoteDto, v float64) { q.PrevClose = &v }),
			"volume": {Kind: FieldInt64, Set: func(r MarketDataResult, v interface{}) {
				if q, ok := r.(*QuoteDto); ok {
					n := v.(int64)
					q.Volume = &n
				}
			}},
			"currency": {Kind: FieldString, Set: func(r MarketDataResult, v interface{}) {
				if q, ok := r.(*QuoteDto); ok {
					s := v.(string)
					q.Currency = &s
				}
			}},
			"timestamp": timestampField(),
		},
	},
	DataTypeOHLCVSeries: {
		newResult: func() MarketDataResult {
			return &OhlcvSeriesDto{ResultBase: ResultBase{Type: DataTypeOHLCVSeries}}
		},
		fields: map[string]FieldSetter{
			"currency": {Kind: FieldString, Set: func(r MarketDataResult, v interface{}) {
				if s, ok := r.(*OhlcvSeriesDto); ok {
					c := v.(string)
					s.Currency = &c
				}
			}},
			"granularity": {Kind: FieldString, Set: func(r MarketDataResult, v interface{}) {
				if s, ok := r.(*OhlcvSeriesDto); ok {
					s.Granularity = v.(string)
				}
			}},
			"adjustment": {Kind: FieldString, Set: func(r MarketDataResult, v interface{}) {
				if s, ok := r.(*OhlcvSeriesDto); ok {
					s.Adjustment = v.(string)
				}
			}},
			"partial": {Kind: FieldBool, Set: func(r MarketDataResult, v interface{}) {
				if s, ok := r.(*OhlcvSeriesDto); ok {
					s.Partial = v.(bool)
				}
			}},
			"timestamp": timestampField(),
		},
	},
}

func floatField(assign func(*QuoteDto, float64)) FieldSetter {
	return FieldSetter{Kind: FieldFloat64, Set: func(r MarketDataResult, v interface{}) {
		if q, ok := r.(*QuoteDto); ok {
			assign(q, v.(float64))
		}
	}}
}

func timestampField() FieldSetter {
	return FieldSetter{Kind: FieldTime, Set: func(r MarketDataResult, v interface{}) {
		t := v.(time.Time)
		r.Base().Timestamp = &t
	}}
}

// NewResult instantiates the zero-value result variant registered for
// the data type. The second return value is false for unregistered types.
func NewResult(t DataType) (MarketDataResult, bool) {
	spec, ok := resultRegistry[t]
	if !ok {
		return nil, false
	}
	return spec.newResult(), true
}

// FieldFor looks up the setter registered for a target field of the
// data type's result variant. Field names match case-insensitively.
func FieldFor(t DataType, name string) (FieldSetter, bool) {
	spec, ok := resultRegistry[t]
	if !ok {
		return FieldSetter{}, false
	}
	setter, ok := spec.fields[strings.ToLower(name)]
	return setter, ok
}
