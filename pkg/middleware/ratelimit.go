package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds inbound rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	BurstSize         int
	Logger            *zap.Logger
}

// clientLimiter tracks one caller's token bucket.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit applies a per-client token bucket to inbound requests.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		clients = make(map[string]*clientLimiter)
	)

	// drop buckets for clients not seen in a while
	go func() {
		for range time.Tick(5 * time.Minute) {
			mu.Lock()
			for key, client := range clients {
				if time.Since(client.lastSeen) > 10*time.Minute {
					delete(clients, key)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.RequestsPerSecond <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			mu.Lock()
			client, ok := clients[host]
			if !ok {
				client = &clientLimiter{
					limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
				}
				clients[host] = client
			}
			client.lastSeen = time.Now()
			mu.Unlock()

			if !client.limiter.Allow() {
				cfg.Logger.Warn("Inbound rate limit exceeded", zap.String("client", host))
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
