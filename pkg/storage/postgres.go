package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Ruscigno/MarketPulse/pkg/model"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage on top of the api_responses,
// quotes and ohlcv_bars tables.
type PostgresStorage struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL-backed storage.
func NewPostgresStorage(db *sqlx.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{db: db, logger: logger}
}

// TryReadLatest returns the newest raw payload for vendor+identifier.
func (s *PostgresStorage) TryReadLatest(ctx context.Context, vendor, identifier string, day *time.Time) (string, error) {
	var (
		raw string
		err error
	)
	if day != nil {
		err = s.db.GetContext(ctx, &raw,
			`SELECT raw FROM api_responses
			 WHERE vendor = $1 AND identifier = $2 AND response_date = $3
			 ORDER BY created_at DESC LIMIT 1`,
			vendor, identifier, day.UTC().Format("2006-01-02"))
	} else {
		err = s.db.GetContext(ctx, &raw,
			`SELECT raw FROM api_responses
			 WHERE vendor = $1 AND identifier = $2
			 ORDER BY created_at DESC LIMIT 1`,
			vendor, identifier)
	}
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read stored payload for %s/%s: %w", vendor, identifier, err)
	}
	return raw, nil
}

// SaveAPIResponse persists a raw vendor payload.
func (s *PostgresStorage) SaveAPIResponse(ctx context.Context, vendor, identifier, raw string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_responses (vendor, identifier, response_date, raw, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		vendor, identifier, time.Now().UTC().Format("2006-01-02"), raw)
	if err != nil {
		return fmt.Errorf("failed to save raw payload for %s/%s: %w", vendor, identifier, err)
	}
	return nil
}

// SaveParsedResult persists the typed sink row(s) for the result.
func (s *PostgresStorage) SaveParsedResult(ctx context.Context, result model.MarketDataResult) error {
	switch typed := result.(type) {
	case *model.QuoteDto:
		return s.saveQuote(ctx, typed)
	case *model.OhlcvSeriesDto:
		return s.saveSeries(ctx, typed)
	default:
		// no typed sink for this data type
		return nil
	}
}

func (s *PostgresStorage) saveQuote(ctx context.Context, q *model.QuoteDto) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quotes (vendor, symbol, price, open, high, low, prev_close, volume, currency, quoted_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`,
		q.Vendor, q.PrimaryIdentifier, q.Price, q.Open, q.High, q.Low,
		q.PrevClose, q.Volume, q.Currency, q.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save quote for %s/%s: %w", q.Vendor, q.PrimaryIdentifier, err)
	}
	return nil
}

func (s *PostgresStorage) saveSeries(ctx context.Context, series *model.OhlcvSeriesDto) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin series transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				s.logger.Error("Failed to rollback series transaction", zap.Error(rbErr))
			}
		}
	}()

	for _, bar := range series.Bars {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ohlcv_bars (vendor, symbol, ts_utc, open, high, low, close, volume, granularity, adjustment)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (vendor, symbol, ts_utc, granularity) DO UPDATE
			 SET open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
			     close = EXCLUDED.close, volume = EXCLUDED.volume, adjustment = EXCLUDED.adjustment`,
			series.Vendor, series.PrimaryIdentifier, bar.TsUTC, bar.Open, bar.High,
			bar.Low, bar.Close, bar.Volume, series.Granularity, series.Adjustment)
		if err != nil {
			return fmt.Errorf("failed to save bar for %s/%s: %w", series.Vendor, series.PrimaryIdentifier, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit series transaction: %w", err)
	}
	return nil
}
