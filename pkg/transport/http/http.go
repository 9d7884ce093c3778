package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Ruscigno/MarketPulse/pkg/endpoint"
	apperrors "github.com/Ruscigno/MarketPulse/pkg/errors"
	"github.com/Ruscigno/MarketPulse/pkg/middleware"
	"github.com/Ruscigno/MarketPulse/pkg/service"
	httptransport "github.com/go-kit/kit/transport/http"
	"go.uber.org/zap"
)

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	APIKey            string
	MaxBodySize       int64
	RequestsPerSecond int
	BurstSize         int
	Logger            *zap.Logger
}

// NewHTTPHandler sets up HTTP handlers for the endpoints with the
// middleware stack.
func NewHTTPHandler(endpoints endpoint.Endpoints, config HTTPConfig) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(encodeError),
	}

	mux := http.NewServeMux()

	mux.Handle("/v1/market-data", httptransport.NewServer(
		endpoints.FetchMarketData,
		decodeFetchRequest,
		encodeResponse,
		options...,
	))

	mux.Handle("/health", httptransport.NewServer(
		endpoints.CheckHealth,
		decodeHealthRequest,
		encodeResponse,
		options...,
	))

	// last applied = first executed
	var handler http.Handler = mux
	handler = middleware.RequestLogging(config.Logger)(handler)
	handler = middleware.RequestValidation(middleware.ValidationConfig{
		MaxBodySize: config.MaxBodySize,
		Logger:      config.Logger,
	})(handler)
	handler = middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: config.RequestsPerSecond,
		BurstSize:         config.BurstSize,
		Logger:            config.Logger,
	})(handler)
	handler = middleware.APIKeyAuth(middleware.AuthConfig{
		APIKey: config.APIKey,
		Logger: config.Logger,
	})(handler)
	handler = middleware.RequestID()(handler)

	return handler
}

func decodeFetchRequest(_ context.Context, r *http.Request) (interface{}, error) {
	if r.Method != http.MethodPost {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "expected POST")
	}
	var req service.FetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body")
	}
	return req, nil
}

func decodeHealthRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

func encodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if health, ok := response.(service.HealthResponse); ok && health.Status != service.HealthStatusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	return json.NewEncoder(w).Encode(response)
}

func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	status := http.StatusInternalServerError
	code := apperrors.ErrCodeInternal

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus()
		code = appErr.Code
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":    false,
		"code":  code,
		"error": err.Error(),
	})
}
