package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// HealthStatus represents the health of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// HealthResponse represents the overall health response.
type HealthResponse struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Components []ComponentHealth `json:"components"`
	Uptime     string            `json:"uptime"`
}

// Pinger is any dependency that can be health-probed.
type Pinger interface {
	Health(ctx context.Context) error
}

type HealthChecker struct {
	db        Pinger
	logger    *zap.Logger
	startTime time.Time
	version   string
}

// NewHealthChecker creates a health checker over the database.
func NewHealthChecker(db Pinger, logger *zap.Logger, version string) *HealthChecker {
	return &HealthChecker{db: db, logger: logger, startTime: time.Now(), version: version}
}

// Check probes every component and folds the results.
func (h *HealthChecker) Check(ctx context.Context) HealthResponse {
	now := time.Now()
	response := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: now,
		Version:   h.version,
		Uptime:    now.Sub(h.startTime).Round(time.Second).String(),
	}

	dbHealth := ComponentHealth{Name: "database", Status: HealthStatusHealthy, Timestamp: now}
	if h.db != nil {
		if err := h.db.Health(ctx); err != nil {
			h.logger.Error("Database health check failed", zap.Error(err))
			dbHealth.Status = HealthStatusUnhealthy
			dbHealth.Message = err.Error()
			response.Status = HealthStatusUnhealthy
		}
	}
	response.Components = append(response.Components, dbHealth)
	return response
}
