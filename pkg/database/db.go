package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	connectionTimeout = 30 * time.Second
	maxOpenConns      = 25
	maxIdleConns      = 5
	connMaxLifetime   = 5 * time.Minute

	migrationsPath = "file://pkg/database/migrations"
)

// DB wraps the database connection used by the storage backend and
// the usage counter store.
type DB struct {
	*sqlx.DB
	logger *zap.Logger
}

// NewDB opens and verifies a PostgreSQL connection.
func NewDB(databaseURL string, logger *zap.Logger) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Error("Failed to close connection after ping failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	logger.Info("Connected to database")
	return &DB{DB: sqlx.NewDb(sqlDB, "postgres"), logger: logger}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.logger.Info("Closing database connection")
	return db.DB.Close()
}

// Health checks the database connection.
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	var result int
	if err := db.GetContext(ctx, &result, "SELECT 1"); err != nil {
		return fmt.Errorf("database query test failed: %w", err)
	}
	return nil
}

// RunMigrations applies pending schema migrations.
func (db *DB) RunMigrations() error {
	db.logger.Info("Running database migrations")

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		db.logger.Warn("Could not get migration version", zap.Error(err))
	} else {
		db.logger.Info("Migrations applied",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty))
	}
	return nil
}

// WithTransaction executes fn within a database transaction.
func (db *DB) WithTransaction(ctx context.Context, fn func(*sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				db.logger.Error("Failed to rollback transaction during panic", zap.Error(rbErr))
			}
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				db.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
			}
			return
		}
		err = tx.Commit()
	}()

	err = fn(tx)
	return err
}
