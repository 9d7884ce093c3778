package endpoint

import (
	"context"
	"errors"

	"github.com/Ruscigno/MarketPulse/pkg/service"
	"github.com/go-kit/kit/endpoint"
)

// Endpoints holds all Go-Kit endpoints.
type Endpoints struct {
	FetchMarketData endpoint.Endpoint
	CheckHealth     endpoint.Endpoint
}

// MakeEndpoints creates endpoints for the service.
func MakeEndpoints(s service.Service) Endpoints {
	return Endpoints{
		FetchMarketData: makeFetchMarketDataEndpoint(s),
		CheckHealth:     makeCheckHealthEndpoint(s),
	}
}

func makeFetchMarketDataEndpoint(s service.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(service.FetchRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}
		return s.FetchMarketData(ctx, req)
	}
}

func makeCheckHealthEndpoint(s service.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return s.CheckHealth(ctx), nil
	}
}
