package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cabinwatch/cabinwatch/pkg/core/ranges"
	"github.com/cabinwatch/cabinwatch/pkg/core/services"
	"github.com/cabinwatch/cabinwatch/pkg/db"
)

// SnapshotCmd creates the snapshot command, which prints persisted availability as ranges
func SnapshotCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <location_id> [unit_id]",
		Short: "Show the persisted available dates for a unit (or every unit at a location)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var unitIDs []int
			if len(args) == 2 {
				unitID, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("unit_id must be a number: %w", err)
				}
				unitIDs = []int{unitID}
			}

			if err := app.OpenDatabase(); err != nil {
				return err
			}

			return printSnapshot(app.Ctx, cmd.OutOrStdout(), app.Snapshots, args[0], unitIDs)
		},
	}
}

// printSnapshot writes the persisted dates of each unit as runs.
// With no unitIDs every unit stored for the location is printed.
func printSnapshot(ctx context.Context, w io.Writer, store db.SnapshotStore, locationID string, unitIDs []int) error {
	if len(unitIDs) == 0 {
		ids, err := store.ListSnapshotUnits(ctx, locationID)
		if err != nil {
			return err
		}
		unitIDs = ids
	}

	if len(unitIDs) == 0 {
		fmt.Fprintf(w, "No snapshot stored for location %s\n", locationID)
		return nil
	}

	for _, unitID := range unitIDs {
		persisted, err := services.LoadSnapshot(ctx, store, locationID, unitID)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "\nUnit %d: %d available dates\n", unitID, persisted.Len())
		for _, r := range ranges.Compress(persisted) {
			fmt.Fprintf(w, "  %s  %2d night(s)  until %s\n", r.Start.Display(), r.Length, r.End().Display())
		}
	}
	fmt.Fprintln(w)

	return nil
}
