package resolver

import (
	"strings"

	"github.com/Ruscigno/MarketPulse/pkg/model"
	"github.com/Ruscigno/MarketPulse/pkg/provider"
)

// Resolver maps vendor names to provider instances and orders the
// candidates for a request.
type Resolver struct {
	providers []provider.MarketDataProvider
	byName    map[string]provider.MarketDataProvider
}

// New creates a resolver over the given providers. Registration order
// is the tie-break order for candidates.
func New(providers ...provider.MarketDataProvider) *Resolver {
	byName := make(map[string]provider.MarketDataProvider, len(providers))
	for _, p := range providers {
		byName[strings.ToLower(p.Name())] = p
	}
	return &Resolver{providers: providers, byName: byName}
}

// ByName looks a provider up by its case-insensitive vendor name.
func (r *Resolver) ByName(name string) (provider.MarketDataProvider, bool) {
	p, ok := r.byName[strings.ToLower(name)]
	return p, ok
}

// FindCandidates returns every provider whose configuration declares
// at least one endpoint for the request's data type. When the request
// carries preferred vendors they come first, in the given order; the
// remaining candidates keep their original order. Vendor name
// matching is case-insensitive.
func (r *Resolver) FindCandidates(req model.MarketDataRequest) []provider.MarketDataProvider {
	supported := make([]provider.MarketDataProvider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.Supports(req.Type) {
			supported = append(supported, p)
		}
	}
	if len(req.PreferredVendors) == 0 {
		return supported
	}

	taken := make(map[string]bool, len(supported))
	ordered := make([]provider.MarketDataProvider, 0, len(supported))
	for _, name := range req.PreferredVendors {
		for _, p := range supported {
			if !taken[p.Name()] && strings.EqualFold(p.Name(), name) {
				ordered = append(ordered, p)
				taken[p.Name()] = true
			}
		}
	}
	for _, p := range supported {
		if !taken[p.Name()] {
			ordered = append(ordered, p)
		}
	}
	return ordered
}
