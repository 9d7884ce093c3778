package usage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const windowLength = time.Minute

// Tracker counts vendor API calls. Daily counters live in the Store
// and are mirrored in an in-memory cache; a rolling one-minute window
// per vendor backs the per-minute gate. All state sits behind a single
// mutex so the increment-then-read sequence stays atomic.
type Tracker struct {
	store  Store
	logger *zap.Logger

	mu     sync.Mutex
	daily  map[string]int
	window map[string][]time.Time

	now func() time.Time
}

// NewTracker creates a usage tracker backed by store.
func NewTracker(store Store, logger *zap.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger,
		daily:  make(map[string]int),
		window: make(map[string][]time.Time),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func cacheKey(vendor string, day time.Time) string {
	return vendor + ":" + day.UTC().Format("2006-01-02")
}

// GetCallsMade returns the number of calls made for vendor on the
// given UTC day. Cache hits skip the store entirely.
func (t *Tracker) GetCallsMade(ctx context.Context, vendor string, day time.Time) (int, error) {
	key := cacheKey(vendor, day)

	t.mu.Lock()
	if calls, ok := t.daily[key]; ok {
		t.mu.Unlock()
		return calls, nil
	}
	t.mu.Unlock()

	calls, err := t.store.GetDailyCount(ctx, vendor, day)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	t.daily[key] = calls
	t.mu.Unlock()
	return calls, nil
}

// IncrementUsage records one call for vendor at ts: the persistent
// daily counter is bumped atomically, the cache refreshed with the
// authoritative count, and the timestamp pushed onto the rolling
// per-minute window.
func (t *Tracker) IncrementUsage(ctx context.Context, vendor string, ts time.Time) error {
	ts = ts.UTC()
	calls, err := t.store.IncrementDaily(ctx, vendor, ts)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.daily[cacheKey(vendor, ts)] = calls
	t.window[vendor] = trimWindow(append(t.window[vendor], ts), ts)
	t.mu.Unlock()

	t.logger.Debug("Recorded vendor API call",
		zap.String("vendor", vendor),
		zap.Int("calls_today", calls))
	return nil
}

// CallsInLastMinute returns how many calls landed inside the rolling
// window for vendor.
func (t *Tracker) CallsInLastMinute(vendor string) int {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window[vendor] = trimWindow(t.window[vendor], now)
	return len(t.window[vendor])
}

// OldestInWindow returns the oldest call timestamp still inside the
// rolling window, when any.
func (t *Tracker) OldestInWindow(vendor string) (time.Time, bool) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window[vendor] = trimWindow(t.window[vendor], now)
	entries := t.window[vendor]
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0], true
}

func trimWindow(entries []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-windowLength)
	i := 0
	for i < len(entries) && !entries[i].After(cutoff) {
		i++
	}
	return entries[i:]
}
