package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// AuthConfig holds API key authentication configuration.
type AuthConfig struct {
	APIKey string
	Logger *zap.Logger
}

// APIKeyAuth rejects requests without the expected X-API-Key header.
// An empty configured key disables authentication; /health always
// passes.
func APIKeyAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.APIKey == "" || strings.HasPrefix(r.URL.Path, "/health") {
				next.ServeHTTP(w, r)
				return
			}
			provided := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.APIKey)) != 1 {
				cfg.Logger.Warn("Rejected request with invalid API key",
					zap.String("path", r.URL.Path),
					zap.String("remote", r.RemoteAddr))
				writeJSONError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
