package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cabinwatch/cabinwatch/pkg/core/model"
	"github.com/cabinwatch/cabinwatch/pkg/core/scheduler"
	"github.com/cabinwatch/cabinwatch/pkg/core/services"
)

// RunCmd creates the run command, which starts the scheduler
func RunCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check all locations on the configured schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.OpenDatabase(); err != nil {
				return err
			}
			if err := app.OpenSender(); err != nil {
				return err
			}

			check := func(ctx context.Context, location model.Location) error {
				_, err := services.CheckLocation(ctx, app.VisBookClient, app.Snapshots, app.Sender, location, app.checkOptions(false), app.Logger)
				return err
			}

			trigger, err := scheduler.NewTrigger(app.Cfg.Schedule, app.Locations, check, app.Logger)
			if err != nil {
				return err
			}

			if now, _ := cmd.Flags().GetBool("now"); now {
				trigger.RunCycle(app.Ctx)
			}

			return trigger.Run(app.Ctx)
		},
	}

	cmd.Flags().Bool("now", false, "Run one cycle immediately before waiting for the schedule")

	return cmd
}
