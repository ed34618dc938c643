package db

import "context"

// SnapshotStore defines the persistence operations for availability snapshots.
// postgres.DB implements it.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, locationID string, unitID int) ([]SnapshotRow, error)
	// UpdateSnapshot deletes remove and inserts add in a single transaction
	UpdateSnapshot(ctx context.Context, locationID string, unitID int, remove, add []string) error
	// ListSnapshotUnits returns the unit ids at a location that have persisted dates
	ListSnapshotUnits(ctx context.Context, locationID string) ([]int, error)
}
