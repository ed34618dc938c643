package db

import "time"

// SnapshotRow is one persisted (location, unit, date) availability record.
// Rows are only ever inserted or deleted.
type SnapshotRow struct {
	ID            int64
	LocationID    string
	UnitID        int
	AvailableDate string // YYYY-MM-DD
	CreatedAt     time.Time
}
