package broker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Ruscigno/MarketPulse/pkg/metrics"
	"github.com/Ruscigno/MarketPulse/pkg/model"
	"github.com/Ruscigno/MarketPulse/pkg/provider"
	"github.com/Ruscigno/MarketPulse/pkg/resolver"
	"github.com/Ruscigno/MarketPulse/pkg/retry"
	"github.com/Ruscigno/MarketPulse/pkg/storage"
	"go.uber.org/zap"
)

const (
	quoteFreshness  = 24 * time.Hour
	seriesFreshness = 7 * 24 * time.Hour

	persistTimeout = 10 * time.Second
)

// Broker is the top-level orchestrator: it orders the candidate
// vendors, probes storage for a fresh payload, and only then walks the
// candidates with live HTTP calls, first success wins. The broker
// never fabricates data; every result it returns was either parsed
// from storage or freshly fetched.
type Broker struct {
	resolver *resolver.Resolver
	storage  storage.Storage
	metrics  metrics.Collector
	logger   *zap.Logger

	now func() time.Time

	// tracks in-flight best-effort persistence, so shutdown and tests
	// can wait for writes to settle
	persistWG sync.WaitGroup
}

// New creates a market data broker.
func New(res *resolver.Resolver, store storage.Storage, collector metrics.Collector, logger *zap.Logger) *Broker {
	return &Broker{
		resolver: res,
		storage:  store,
		metrics:  collector,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Fetch resolves the request against storage first and live vendors
// second. Individual vendor failures are recovered locally; only total
// exhaustion of all candidates surfaces as a failed envelope.
func (b *Broker) Fetch(ctx context.Context, req model.MarketDataRequest) model.ApiResult[model.MarketDataResult] {
	candidates := b.resolver.FindCandidates(req)
	if len(candidates) == 0 {
		return model.Fail[model.MarketDataResult](
			fmt.Sprintf("No vendor is configured for data type %s", req.Type))
	}

	identifier := req.StorageIdentifier()

	if result, ok := b.storagePass(ctx, req, candidates, identifier); ok {
		return result
	}
	return b.livePass(ctx, req, candidates, identifier)
}

// storagePass tries to satisfy the request from stored payloads. A
// parse failure or a stale timestamp is a miss, never a fatal error.
func (b *Broker) storagePass(ctx context.Context, req model.MarketDataRequest, candidates []provider.MarketDataProvider, identifier string) (model.ApiResult[model.MarketDataResult], bool) {
	window := freshnessWindow(req.Type)
	now := b.now()

	for _, candidate := range candidates {
		raw, err := b.storage.TryReadLatest(ctx, candidate.Name(), identifier, nil)
		if err != nil {
			b.logger.Warn("Storage read failed, treating as miss",
				zap.String("vendor", candidate.Name()),
				zap.String("identifier", identifier),
				zap.Error(err))
			continue
		}
		if raw == "" {
			continue
		}

		result, err := candidate.ParseStored(req, raw)
		if err != nil {
			b.logger.Warn("Stored payload failed to parse, treating as miss",
				zap.String("vendor", candidate.Name()),
				zap.String("identifier", identifier),
				zap.Error(err))
			continue
		}

		ts := result.Base().Timestamp
		if ts == nil {
			continue
		}
		effective := *ts
		if effective.After(now) {
			// a vendor clock ahead of ours must not make data immortal
			effective = now
		}
		if now.Sub(effective) > window {
			continue
		}

		b.count("broker_storage_hits_total", candidate.Name())
		b.logger.Info("Served market data from storage",
			zap.String("vendor", candidate.Name()),
			zap.String("identifier", identifier),
			zap.Time("timestamp", *ts))
		res := model.Ok(result, 0)
		res.Meta = map[string]string{"source": "storage"}
		return res, true
	}
	return model.ApiResult[model.MarketDataResult]{}, false
}

// livePass walks the candidates in order with live HTTP calls. The
// first success is persisted best-effort and returned; every failure
// is folded into the aggregated error message.
func (b *Broker) livePass(ctx context.Context, req model.MarketDataRequest, candidates []provider.MarketDataProvider, identifier string) model.ApiResult[model.MarketDataResult] {
	var (
		reasons    []string
		retryAfter *time.Time
	)
	noteRetry := func(t *time.Time) {
		if t == nil {
			return
		}
		if retryAfter == nil || t.Before(*retryAfter) {
			retryAfter = t
		}
	}

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return model.Fail[model.MarketDataResult]("Request timed out/cancelled.")
		}

		if gate := candidate.CanFetch(ctx, req); !gate.Allowed {
			reasons = append(reasons, fmt.Sprintf("%s: %s", candidate.Name(), gate.Reason))
			noteRetry(gate.RetryAfter)
			b.count("broker_rate_limited_total", candidate.Name())
			continue
		}

		result := candidate.Fetch(ctx, req)
		if result.Success {
			b.count("broker_live_fetches_total", candidate.Name())
			b.persistAsync(candidate.Name(), identifier, result.Data)
			if result.Meta == nil {
				result.Meta = map[string]string{}
			}
			result.Meta["source"] = "live"
			return result
		}

		reasons = append(reasons, fmt.Sprintf("%s: %s", candidate.Name(), result.Error))
		noteRetry(result.RetryAfter)
		b.count("broker_vendor_failures_total", candidate.Name())
		b.logger.Warn("Vendor fetch failed, trying next candidate",
			zap.String("vendor", candidate.Name()),
			zap.String("error", result.Error))
	}

	return model.FailRetry[model.MarketDataResult](strings.Join(reasons, "; "), retryAfter)
}

// persistAsync writes the raw payload and the typed result back to
// storage. The write is fire-and-forget relative to the caller; a
// failure is logged and never affects the result already returned.
func (b *Broker) persistAsync(vendor, identifier string, result model.MarketDataResult) {
	raw := result.Base().RawJSON
	b.persistWG.Add(1)
	go func() {
		defer b.persistWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		cfg := retry.DefaultConfig()
		cfg.Logger = b.logger

		if raw != "" {
			if err := retry.Do(ctx, cfg, func() error {
				return b.storage.SaveAPIResponse(ctx, vendor, identifier, raw)
			}); err != nil {
				b.logger.Error("Failed to persist raw vendor payload",
					zap.String("vendor", vendor),
					zap.String("identifier", identifier),
					zap.Error(err))
			}
		}
		if err := retry.Do(ctx, cfg, func() error {
			return b.storage.SaveParsedResult(ctx, result)
		}); err != nil {
			b.logger.Error("Failed to persist parsed result",
				zap.String("vendor", vendor),
				zap.String("identifier", identifier),
				zap.Error(err))
		}
	}()
}

// Flush waits for outstanding persistence writes. Intended for
// graceful shutdown.
func (b *Broker) Flush() { b.persistWG.Wait() }

func (b *Broker) count(name, vendor string) {
	if b.metrics == nil {
		return
	}
	b.metrics.IncrementCounter(name, map[string]string{"vendor": vendor})
}

func freshnessWindow(t model.DataType) time.Duration {
	if t.IsQuoteLike() {
		return quoteFreshness
	}
	return seriesFreshness
}
