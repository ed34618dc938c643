package services

import "fmt"

// UpstreamFetchError means availability for a location could not be fetched completely.
// The location's cycle is abandoned; the next tick starts over.
type UpstreamFetchError struct {
	LocationID string
	Err        error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("failed to fetch availability for location %s: %v", e.LocationID, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// PersistenceError means a snapshot read or write failed for one unit.
// The unit's snapshot is left as it was.
type PersistenceError struct {
	LocationID string
	UnitID     int
	Op         string // "read" or "write"
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s snapshot for location %s unit %d: %v", e.Op, e.LocationID, e.UnitID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NotificationError means the report for a location could not be sent
type NotificationError struct {
	LocationID string
	Err        error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("failed to send notification for location %s: %v", e.LocationID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }
