package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Collector is the interface the gateway components report into.
type Collector interface {
	IncrementCounter(name string, labels map[string]string)
	RecordHistogram(name string, value float64, labels map[string]string)
	SetGauge(name string, value float64, labels map[string]string)
	RecordDuration(name string, duration time.Duration, labels map[string]string)
}

// InMemoryCollector is a basic thread-safe in-memory collector. It is
// good enough for the /health surface and for tests; a real metrics
// backend can replace it behind the Collector interface.
type InMemoryCollector struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string][]float64
	gauges     map[string]float64
	logger     *zap.Logger
}

// NewInMemoryCollector creates a new in-memory collector.
func NewInMemoryCollector(logger *zap.Logger) *InMemoryCollector {
	return &InMemoryCollector{
		counters:   make(map[string]float64),
		histograms: make(map[string][]float64),
		gauges:     make(map[string]float64),
		logger:     logger,
	}
}

// IncrementCounter increments a counter metric.
func (c *InMemoryCollector) IncrementCounter(name string, labels map[string]string) {
	key := buildMetricKey(name, labels)
	c.mu.Lock()
	c.counters[key]++
	c.mu.Unlock()
}

// RecordHistogram records a histogram observation.
func (c *InMemoryCollector) RecordHistogram(name string, value float64, labels map[string]string) {
	key := buildMetricKey(name, labels)
	c.mu.Lock()
	c.histograms[key] = append(c.histograms[key], value)
	c.mu.Unlock()
}

// SetGauge sets a gauge metric.
func (c *InMemoryCollector) SetGauge(name string, value float64, labels map[string]string) {
	key := buildMetricKey(name, labels)
	c.mu.Lock()
	c.gauges[key] = value
	c.mu.Unlock()
}

// RecordDuration records a duration as a histogram in seconds.
func (c *InMemoryCollector) RecordDuration(name string, duration time.Duration, labels map[string]string) {
	c.RecordHistogram(name, duration.Seconds(), labels)
}

// CounterValue reads a counter back. Used by health reporting and tests.
func (c *InMemoryCollector) CounterValue(name string, labels map[string]string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[buildMetricKey(name, labels)]
}

func buildMetricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(name)
	for _, k := range keys {
		sb.WriteString("|")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(labels[k])
	}
	return sb.String()
}
