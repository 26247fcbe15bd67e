// Package persistence defines the storage contracts for computed
// volatility records. Engines never talk to storage; the orchestrating
// pipeline persists snapshots when a repository is configured.
package persistence

import (
	"context"

	"github.com/optrun/optrun/internal/domain/volatility"
)

// VolRepo stores volatility records. Records are append-style snapshots:
// a fresh computation supersedes older rows, it never mutates them.
type VolRepo interface {
	// SaveRecord upserts one computed record, keyed by (symbol, computed_at).
	SaveRecord(ctx context.Context, rec volatility.Record) error

	// LatestRecord returns the most recent record for symbol, or nil when
	// none exists.
	LatestRecord(ctx context.Context, symbol string) (*volatility.Record, error)
}
