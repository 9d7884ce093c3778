package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Ruscigno/MarketPulse/pkg/metrics"
	"github.com/Ruscigno/MarketPulse/pkg/model"
	"github.com/Ruscigno/MarketPulse/pkg/parser"
	"github.com/Ruscigno/MarketPulse/pkg/vendors"
	"go.uber.org/zap"
)

const (
	reasonUnsupportedType = "Endpoint for requested type is not supported"
	reasonDailyLimit      = "Daily rate limit reached"
	reasonMinuteLimit     = "Per-minute rate limit reached"

	httpTimeout = 15 * time.Second
)

// UsageTracker is the rate-gate view of the usage tracker.
type UsageTracker interface {
	GetCallsMade(ctx context.Context, vendor string, day time.Time) (int, error)
	IncrementUsage(ctx context.Context, vendor string, ts time.Time) error
	CallsInLastMinute(vendor string) int
	OldestInWindow(vendor string) (time.Time, bool)
}

// MarketDataProvider is one vendor adapter as the broker sees it.
type MarketDataProvider interface {
	Name() string
	Supports(t model.DataType) bool
	CanFetch(ctx context.Context, req model.MarketDataRequest) model.FetchGate
	Fetch(ctx context.Context, req model.MarketDataRequest) model.ApiResult[model.MarketDataResult]
	ParseStored(req model.MarketDataRequest, raw string) (model.MarketDataResult, error)
}

// Provider adapts one configured vendor: it gates calls through the
// usage tracker, builds the request URL from the endpoint templates,
// executes the HTTP call on a dedicated long-lived client and hands
// the body to the response parser. There is no vendor-specific code;
// behavior is driven entirely by the vendor configuration.
type Provider struct {
	cfg     *vendors.VendorConfig
	tracker UsageTracker
	parser  *parser.Parser
	client  *http.Client
	metrics metrics.Collector
	logger  *zap.Logger

	now func() time.Time
}

// NewProvider creates a provider for one vendor configuration. Each
// provider owns its HTTP client so one vendor's latency cannot starve
// another vendor's connection pool.
func NewProvider(cfg *vendors.VendorConfig, tracker UsageTracker, p *parser.Parser, collector metrics.Collector, logger *zap.Logger) *Provider {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		// automatic gzip decompression stays on (DisableCompression false)
	}
	return &Provider{
		cfg:     cfg,
		tracker: tracker,
		parser:  p,
		client:  &http.Client{Timeout: httpTimeout, Transport: transport},
		metrics: collector,
		logger:  logger.With(zap.String("vendor", cfg.VendorName)),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Name returns the configured vendor name.
func (p *Provider) Name() string { return p.cfg.VendorName }

// Supports reports whether the vendor declares an endpoint for the
// data type.
func (p *Provider) Supports(t model.DataType) bool { return p.cfg.Supports(t) }

// CanFetch runs the rate-limit pre-check without touching the network.
func (p *Provider) CanFetch(ctx context.Context, req model.MarketDataRequest) model.FetchGate {
	if !p.cfg.Supports(req.Type) {
		return model.DenyGate(reasonUnsupportedType, nil)
	}

	now := p.now()
	if limit := p.cfg.RateLimits.PerDay; limit > 0 {
		calls, err := p.tracker.GetCallsMade(ctx, p.cfg.VendorName, now)
		if err != nil {
			// counter store trouble must not block every vendor; the
			// daily gate degrades to open
			p.logger.Warn("Failed to read usage counter, allowing call", zap.Error(err))
		} else if calls >= limit {
			retryAfter := nextUTCMidnight(now)
			return model.DenyGate(reasonDailyLimit, &retryAfter)
		}
	}

	if limit := p.cfg.RateLimits.PerMinute; limit > 0 {
		if p.tracker.CallsInLastMinute(p.cfg.VendorName) >= limit {
			var retryAfter *time.Time
			if oldest, ok := p.tracker.OldestInWindow(p.cfg.VendorName); ok {
				t := oldest.Add(time.Minute)
				retryAfter = &t
			}
			return model.DenyGate(reasonMinuteLimit, retryAfter)
		}
	}

	return model.AllowGate()
}

// Fetch executes one live call against the vendor.
func (p *Provider) Fetch(ctx context.Context, req model.MarketDataRequest) model.ApiResult[model.MarketDataResult] {
	// defense in depth: the broker checks the gate too, but a provider
	// must never bypass its own limits
	if gate := p.CanFetch(ctx, req); !gate.Allowed {
		return model.FailRetry[model.MarketDataResult](gate.Reason, gate.RetryAfter)
	}

	ep, _ := p.cfg.EndpointFor(req.Type)
	requestURL, err := buildRequestURL(p.cfg, ep, req)
	if err != nil {
		return model.Fail[model.MarketDataResult](err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(ep.HTTPMethod), requestURL, nil)
	if err != nil {
		return model.Fail[model.MarketDataResult](fmt.Sprintf("Request failed: %v", err))
	}

	started := p.now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.Fail[model.MarketDataResult]("Request timed out/cancelled.")
		}
		p.recordCall("error", started)
		return model.Fail[model.MarketDataResult](fmt.Sprintf("Request failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.recordCall("error", started)
		return model.Fail[model.MarketDataResult](fmt.Sprintf("Request failed: %v", err))
	}
	p.recordCall(fmt.Sprintf("%d", resp.StatusCode), started)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result := model.Fail[model.MarketDataResult](
			fmt.Sprintf("Vendor returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		result.StatusCode = resp.StatusCode
		result.VendorError = strings.TrimSpace(string(body))
		return result
	}

	parsed, err := p.parser.Parse(p.cfg, req, body)
	if err != nil {
		return model.Fail[model.MarketDataResult](err.Error())
	}
	p.stamp(parsed, req)

	// fire-and-forget: a failed increment is logged, never fatal
	go func(ts time.Time) {
		incCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.tracker.IncrementUsage(incCtx, p.cfg.VendorName, ts); err != nil {
			p.logger.Error("Failed to increment usage counter", zap.Error(err))
		}
	}(p.now())

	return model.Ok(parsed, resp.StatusCode)
}

// ParseStored parses a payload read back from storage with this
// vendor's configured mapping.
func (p *Provider) ParseStored(req model.MarketDataRequest, raw string) (model.MarketDataResult, error) {
	parsed, err := p.parser.Parse(p.cfg, req, []byte(raw))
	if err != nil {
		return nil, err
	}
	p.stamp(parsed, req)
	return parsed, nil
}

func (p *Provider) stamp(result model.MarketDataResult, req model.MarketDataRequest) {
	base := result.Base()
	base.Vendor = p.cfg.VendorName
	base.Type = req.Type
	base.PrimaryIdentifier = req.StorageIdentifier()
}

func (p *Provider) recordCall(status string, started time.Time) {
	if p.metrics == nil {
		return
	}
	labels := map[string]string{"vendor": p.cfg.VendorName, "status": status}
	p.metrics.IncrementCounter("vendor_http_requests_total", labels)
	p.metrics.RecordDuration("vendor_http_request_duration", p.now().Sub(started), labels)
}

func nextUTCMidnight(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
