package resolver

import (
	"context"
	"testing"

	"github.com/Ruscigno/MarketPulse/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	types map[model.DataType]bool
}

func (s *stubProvider) Name() string                   { return s.name }
func (s *stubProvider) Supports(t model.DataType) bool { return s.types[t] }
func (s *stubProvider) CanFetch(context.Context, model.MarketDataRequest) model.FetchGate {
	return model.AllowGate()
}

func (s *stubProvider) Fetch(context.Context, model.MarketDataRequest) model.ApiResult[model.MarketDataResult] {
	return model.Fail[model.MarketDataResult]("not implemented")
}

func (s *stubProvider) ParseStored(model.MarketDataRequest, string) (model.MarketDataResult, error) {
	return nil, nil
}

func quotesOnly(name string) *stubProvider {
	return &stubProvider{name: name, types: map[model.DataType]bool{model.DataTypeQuote: true}}
}

func TestFindCandidatesFiltersByType(t *testing.T) {
	series := &stubProvider{name: "SeriesVendor", types: map[model.DataType]bool{model.DataTypeOHLCVSeries: true}}
	r := New(quotesOnly("Alpha"), series, quotesOnly("Beta"))

	got := r.FindCandidates(model.MarketDataRequest{Type: model.DataTypeQuote})

	require.Len(t, got, 2)
	assert.Equal(t, "Alpha", got[0].Name())
	assert.Equal(t, "Beta", got[1].Name())
}

func TestFindCandidatesPreferredFirst(t *testing.T) {
	r := New(quotesOnly("Alpha"), quotesOnly("Beta"), quotesOnly("Gamma"))

	got := r.FindCandidates(model.MarketDataRequest{
		Type:             model.DataTypeQuote,
		PreferredVendors: []string{"gamma", "BETA"},
	})

	require.Len(t, got, 3)
	assert.Equal(t, "Gamma", got[0].Name())
	assert.Equal(t, "Beta", got[1].Name())
	assert.Equal(t, "Alpha", got[2].Name())
}

func TestFindCandidatesUnknownPreferredIgnored(t *testing.T) {
	r := New(quotesOnly("Alpha"))

	got := r.FindCandidates(model.MarketDataRequest{
		Type:             model.DataTypeQuote,
		PreferredVendors: []string{"NoSuchVendor"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Alpha", got[0].Name())
}

func TestByName(t *testing.T) {
	r := New(quotesOnly("Alpha"))

	p, ok := r.ByName("ALPHA")
	require.True(t, ok)
	assert.Equal(t, "Alpha", p.Name())

	_, ok = r.ByName("missing")
	assert.False(t, ok)
}
