package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cabinwatch/cabinwatch/cmd/cli/commands"
	"github.com/cabinwatch/cabinwatch/internal/config"
	"github.com/cabinwatch/cabinwatch/pkg/clients/visbookclient"
	"github.com/cabinwatch/cabinwatch/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	app.Ctx = ctx

	rootCmd := &cobra.Command{
		Use:   "cabinwatch",
		Short: "cabinwatch - cabin availability alerts",
		Long:  `Polls VisBook for cabin availability and emails what was booked and what became bookable since the last check.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.RunCmd(app))
	rootCmd.AddCommand(commands.CheckCmd(app))
	rootCmd.AddCommand(commands.SnapshotCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.AuthCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up the logger, configuration and upstream client
func initApp() error {
	var err error
	app.Env = env

	app.Logger, err = logging.InitLogger(env, logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting cabinwatch", zap.String("environment", env))

	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app.Locations, err = app.Cfg.DomainLocations()
	if err != nil {
		return err
	}
	app.Logger.Debug("Configuration loaded", zap.Int("locations", len(app.Locations)), zap.String("schedule", app.Cfg.Schedule))

	app.VisBookClient = visbookclient.NewClient(visbookclient.Config{
		BaseURL: app.Cfg.Upstream.BaseURL,
		Timeout: app.Cfg.Upstream.RequestTimeout,
	})

	return nil
}
