package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cabinwatch/cabinwatch/pkg/core/model"
	"github.com/cabinwatch/cabinwatch/pkg/core/services"
)

// CheckCmd creates the check command, which runs one cycle now
func CheckCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [location_id]",
		Short: "Check all locations (or one) once and send any report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			locations := app.Locations
			if len(args) == 1 {
				loc, err := app.findLocation(args[0])
				if err != nil {
					return err
				}
				locations = []model.Location{loc}
			}

			if err := app.OpenDatabase(); err != nil {
				return err
			}
			if !dryRun {
				if err := app.OpenSender(); err != nil {
					return err
				}
			}

			failed := 0
			for _, loc := range locations {
				result, err := services.CheckLocation(app.Ctx, app.VisBookClient, app.Snapshots, app.Sender, loc, app.checkOptions(dryRun), app.Logger)
				if err != nil {
					failed++
					app.Logger.Error("Check failed", zap.String("location", loc.ID), zap.Error(err))
				}
				printCheckResult(loc, result, dryRun)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d locations reported errors", failed, len(locations))
			}
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Fetch and compose without persisting or sending")

	return cmd
}

func printCheckResult(loc model.Location, result *services.CheckResult, dryRun bool) {
	fmt.Printf("\n%s (%s)\n", loc.Name, loc.ID)
	if result == nil {
		fmt.Println("  ✗ fetch failed, nothing changed")
		return
	}

	for _, u := range result.Units {
		switch {
		case u.Err != nil:
			fmt.Printf("  ✗ %s (%d): %v\n", u.Unit.Name, u.Unit.ID, u.Err)
		case u.Reconciliation.IsEmpty():
			fmt.Printf("  · %s (%d): no change\n", u.Unit.Name, u.Unit.ID)
		default:
			fmt.Printf("  ✓ %s (%d): %d booked, %d newly available\n",
				u.Unit.Name, u.Unit.ID, u.Reconciliation.Booked.Len(), u.Reconciliation.NewlyAvailable.Len())
		}
	}

	switch {
	case result.Body == "":
		fmt.Println("  Nothing to report")
	case dryRun:
		fmt.Printf("\nSubject: %s\n\n%s\n", result.Subject, result.Body)
	case result.Sent:
		fmt.Printf("  Sent %q\n", result.Subject)
	}
}
