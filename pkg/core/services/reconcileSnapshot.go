package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cabinwatch/cabinwatch/pkg/core/model"
	"github.com/cabinwatch/cabinwatch/pkg/db"
)

// SnapshotStore defines the snapshot operations needed for reconciliation
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, locationID string, unitID int) ([]db.SnapshotRow, error)
	UpdateSnapshot(ctx context.Context, locationID string, unitID int, remove, add []string) error
}

// SnapshotPlan is the diff for one unit together with the writes needed to apply it
type SnapshotPlan struct {
	LocationID string
	UnitID     int
	model.Reconciliation
}

// Diff compares a fresh fetch against the persisted snapshot.
// Dates in both sets appear in neither result.
func Diff(fresh, persisted model.DateSet) model.Reconciliation {
	return model.Reconciliation{
		Booked:         persisted.Minus(fresh),
		NewlyAvailable: fresh.Minus(persisted),
	}
}

// LoadSnapshot reads the persisted available dates for a unit
func LoadSnapshot(ctx context.Context, store SnapshotStore, locationID string, unitID int) (model.DateSet, error) {
	rows, err := store.GetSnapshot(ctx, locationID, unitID)
	if err != nil {
		return nil, &PersistenceError{LocationID: locationID, UnitID: unitID, Op: "read", Err: err}
	}

	persisted := model.NewDateSet()
	for _, row := range rows {
		d, err := model.ParseDate(row.AvailableDate)
		if err != nil {
			return nil, &PersistenceError{LocationID: locationID, UnitID: unitID, Op: "read", Err: err}
		}
		persisted.Add(d)
	}
	return persisted, nil
}

// PlanSnapshot diffs fresh against the persisted snapshot without writing anything
func PlanSnapshot(ctx context.Context, store SnapshotStore, locationID string, unitID int, fresh model.DateSet) (SnapshotPlan, error) {
	persisted, err := LoadSnapshot(ctx, store, locationID, unitID)
	if err != nil {
		return SnapshotPlan{}, err
	}

	return SnapshotPlan{
		LocationID:     locationID,
		UnitID:         unitID,
		Reconciliation: Diff(fresh, persisted),
	}, nil
}

// ApplySnapshot writes a plan: booked dates are deleted and newly available dates inserted together.
// An empty plan issues no writes.
func ApplySnapshot(ctx context.Context, store SnapshotStore, plan SnapshotPlan, logger *zap.Logger) error {
	if plan.IsEmpty() {
		return nil
	}

	remove := formatDates(plan.Booked)
	add := formatDates(plan.NewlyAvailable)

	if err := store.UpdateSnapshot(ctx, plan.LocationID, plan.UnitID, remove, add); err != nil {
		return &PersistenceError{LocationID: plan.LocationID, UnitID: plan.UnitID, Op: "write", Err: err}
	}

	logger.Debug("Updated snapshot",
		zap.String("location", plan.LocationID),
		zap.Int("unitId", plan.UnitID),
		zap.Int("removed", len(remove)),
		zap.Int("added", len(add)))
	return nil
}

// ReconcileSnapshot brings the persisted snapshot for a unit in line with fresh and returns the diff
func ReconcileSnapshot(
	ctx context.Context,
	store SnapshotStore,
	locationID string,
	unitID int,
	fresh model.DateSet,
	logger *zap.Logger,
) (model.Reconciliation, error) {
	plan, err := PlanSnapshot(ctx, store, locationID, unitID, fresh)
	if err != nil {
		return model.Reconciliation{}, err
	}

	if err := ApplySnapshot(ctx, store, plan, logger); err != nil {
		return model.Reconciliation{}, err
	}

	return plan.Reconciliation, nil
}

func formatDates(set model.DateSet) []string {
	sorted := set.Sorted()
	out := make([]string, len(sorted))
	for i, d := range sorted {
		out[i] = d.String()
	}
	return out
}

// String summarises a plan for logs
func (p SnapshotPlan) String() string {
	return fmt.Sprintf("location %s unit %d: -%d +%d", p.LocationID, p.UnitID, p.Booked.Len(), p.NewlyAvailable.Len())
}
