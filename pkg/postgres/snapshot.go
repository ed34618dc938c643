package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cabinwatch/cabinwatch/pkg/db"
)

// execer is satisfied by both the pool and a transaction
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// GetSnapshot returns the persisted available dates for a unit, oldest first
func (d *DB) GetSnapshot(ctx context.Context, locationID string, unitID int) ([]db.SnapshotRow, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, location_id, unit_id, to_char(available_date, 'YYYY-MM-DD'), created_at
		FROM availability_snapshot
		WHERE location_id = $1 AND unit_id = $2
		ORDER BY available_date
	`, locationID, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	result := make([]db.SnapshotRow, 0)
	for rows.Next() {
		var row db.SnapshotRow
		if err := rows.Scan(&row.ID, &row.LocationID, &row.UnitID, &row.AvailableDate, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	return result, nil
}

// UpdateSnapshot deletes remove and inserts add for a unit in one transaction.
// Either both writes land or neither does.
func (d *DB) UpdateSnapshot(ctx context.Context, locationID string, unitID int, remove, add []string) error {
	err := pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		if err := deleteDates(ctx, tx, locationID, unitID, remove); err != nil {
			return err
		}
		return insertDates(ctx, tx, locationID, unitID, add)
	})
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}
	return nil
}

// insertDates records dates (YYYY-MM-DD) as available. Dates already recorded are skipped.
func insertDates(ctx context.Context, q execer, locationID string, unitID int, dates []string) error {
	if len(dates) == 0 {
		return nil
	}

	_, err := q.Exec(ctx, `
		INSERT INTO availability_snapshot (location_id, unit_id, available_date)
		SELECT $1, $2, d::date FROM unnest($3::text[]) AS d
		ON CONFLICT (location_id, unit_id, available_date) DO NOTHING
	`, locationID, unitID, dates)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot dates: %w", err)
	}
	return nil
}

func deleteDates(ctx context.Context, q execer, locationID string, unitID int, dates []string) error {
	if len(dates) == 0 {
		return nil
	}

	_, err := q.Exec(ctx, `
		DELETE FROM availability_snapshot
		WHERE location_id = $1 AND unit_id = $2 AND available_date = ANY($3::text[]::date[])
	`, locationID, unitID, dates)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot dates: %w", err)
	}
	return nil
}

// ListSnapshotUnits returns the unit ids at a location that have persisted dates
func (d *DB) ListSnapshotUnits(ctx context.Context, locationID string) ([]int, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT DISTINCT unit_id FROM availability_snapshot WHERE location_id = $1 ORDER BY unit_id
	`, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot units: %w", err)
	}

	units, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("failed to collect snapshot units: %w", err)
	}
	return units, nil
}
