package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// ValidationConfig holds request validation configuration.
type ValidationConfig struct {
	MaxBodySize int64
	Logger      *zap.Logger
}

// RequestValidation caps the request body size and rejects requests
// with an unexpected content type on mutating verbs.
func RequestValidation(cfg ValidationConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.MaxBodySize > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxBodySize)
			}
			if r.Method == http.MethodPost || r.Method == http.MethodPut {
				ct := r.Header.Get("Content-Type")
				if ct != "" && ct != "application/json" && ct != "application/json; charset=utf-8" {
					cfg.Logger.Warn("Rejected request with unsupported content type",
						zap.String("content_type", ct),
						zap.String("path", r.URL.Path))
					writeJSONError(w, http.StatusUnsupportedMediaType, "expected application/json")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
