package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store persists per-vendor daily call counters across restarts.
type Store interface {
	// GetDailyCount reads the counter for vendor+day, defaulting to 0.
	GetDailyCount(ctx context.Context, vendor string, day time.Time) (int, error)
	// IncrementDaily atomically adds one call to the counter for
	// vendor+day and returns the authoritative count.
	IncrementDaily(ctx context.Context, vendor string, day time.Time) (int, error)
}

// PostgresStore implements Store on top of the api_usage table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new counter store.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetDailyCount reads the counter row for vendor+day.
func (s *PostgresStore) GetDailyCount(ctx context.Context, vendor string, day time.Time) (int, error) {
	var calls int
	err := s.db.GetContext(ctx, &calls,
		`SELECT calls FROM api_usage WHERE vendor = $1 AND day = $2`,
		vendor, day.UTC().Format("2006-01-02"))
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage counter for %s: %w", vendor, err)
	}
	return calls, nil
}

// IncrementDaily upserts the counter row. The single INSERT .. ON
// CONFLICT statement keeps concurrent first-call-of-the-day increments
// from racing each other.
func (s *PostgresStore) IncrementDaily(ctx context.Context, vendor string, day time.Time) (int, error) {
	var calls int
	err := s.db.GetContext(ctx, &calls,
		`INSERT INTO api_usage (vendor, day, calls, updated_at)
		 VALUES ($1, $2, 1, NOW())
		 ON CONFLICT (vendor, day)
		 DO UPDATE SET calls = api_usage.calls + 1, updated_at = NOW()
		 RETURNING calls`,
		vendor, day.UTC().Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("failed to increment usage counter for %s: %w", vendor, err)
	}
	return calls, nil
}
