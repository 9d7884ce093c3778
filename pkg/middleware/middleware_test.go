package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	})
	handler := RequestID()(inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDReused(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	})
	handler := RequestID()(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "caller-supplied", seen)
}

func TestAPIKeyAuth(t *testing.T) {
	handler := APIKeyAuth(AuthConfig{APIKey: "secret", Logger: zap.NewNop()})(okHandler())

	denied := httptest.NewRecorder()
	handler.ServeHTTP(denied, httptest.NewRequest(http.MethodGet, "/v1/market-data", nil))
	assert.Equal(t, http.StatusUnauthorized, denied.Code)

	allowed := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/market-data", nil)
	req.Header.Set("X-API-Key", "secret")
	handler.ServeHTTP(allowed, req)
	assert.Equal(t, http.StatusOK, allowed.Code)

	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestAPIKeyAuthDisabledWhenUnset(t *testing.T) {
	handler := APIKeyAuth(AuthConfig{Logger: zap.NewNop()})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/market-data", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitBlocksBurstOverflow(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         2,
		Logger:            zap.NewNop(),
	})(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}

func TestRequestValidationContentType(t *testing.T) {
	handler := RequestValidation(ValidationConfig{
		MaxBodySize: 1 << 20,
		Logger:      zap.NewNop(),
	})(okHandler())

	bad := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("<xml/>"))
	req.Header.Set("Content-Type", "text/xml")
	handler.ServeHTTP(bad, req)
	require.Equal(t, http.StatusUnsupportedMediaType, bad.Code)

	good := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(good, req)
	assert.Equal(t, http.StatusOK, good.Code)
}
