package storage

import (
	"context"
	"time"

	"github.com/Ruscigno/MarketPulse/pkg/model"
)

// Storage is the contract the broker consumes: read back the latest
// raw payload for a vendor+identifier and persist raw/parsed payloads
// after a live fetch. Implementations own their schema; the broker
// never looks inside.
type Storage interface {
	// TryReadLatest returns the most recent raw payload stored for
	// vendor+identifier, optionally narrowed to a single UTC day.
	// An empty string with a nil error means nothing is stored.
	TryReadLatest(ctx context.Context, vendor, identifier string, day *time.Time) (string, error)

	// SaveAPIResponse persists a raw vendor payload.
	SaveAPIResponse(ctx context.Context, vendor, identifier, raw string) error

	// SaveParsedResult persists a typed result for data types that
	// have a typed sink. Types without one are silently accepted.
	SaveParsedResult(ctx context.Context, result model.MarketDataResult) error
}
