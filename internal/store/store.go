// Package store persists the place-details cache and the run ledger.
package store

import (
	"context"
	"time"

	"github.com/sells-group/gmaps-contacts/internal/model"
)

// Store is the persistence interface of the harvester.
type Store interface {
	// Place details cache
	GetPlace(ctx context.Context, placeID string, maxAge time.Duration) (*model.Row, error)
	PutPlace(ctx context.Context, placeID string, row model.Row) error

	// Runs
	CreateRun(ctx context.Context, kind model.RunKind, region string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, counts model.RunCounts) error
	FailRun(ctx context.Context, runID string, cause error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
