package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cabinwatch/cabinwatch/internal/config"
	"github.com/cabinwatch/cabinwatch/pkg/clients/gmailclient"
	"github.com/cabinwatch/cabinwatch/pkg/clients/sendgridclient"
	"github.com/cabinwatch/cabinwatch/pkg/clients/visbookclient"
	"github.com/cabinwatch/cabinwatch/pkg/core/model"
	"github.com/cabinwatch/cabinwatch/pkg/core/services"
	"github.com/cabinwatch/cabinwatch/pkg/db"
	"github.com/cabinwatch/cabinwatch/pkg/postgres"
	"github.com/cabinwatch/cabinwatch/pkg/utils"
)

// AppContext holds the application dependencies shared across all commands.
// Logger and Cfg are always set; the database and transports are opened on demand.
type AppContext struct {
	Env           string
	Cfg           *config.Config
	Locations     []model.Location
	VisBookClient *visbookclient.Client
	Database      *postgres.DB
	Snapshots     db.SnapshotStore
	Sender        services.NotificationSender
	Logger        *zap.Logger
	Ctx           context.Context
}

// OpenDatabase connects to PostgreSQL and applies pending migrations
func (app *AppContext) OpenDatabase() error {
	if app.Database != nil {
		return nil
	}

	app.Logger.Info("Connecting to database")
	database, err := postgres.NewDB(app.Ctx, app.Cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	ran, err := database.RunMigrations(app.Ctx)
	if err != nil {
		database.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, filename := range ran {
		app.Logger.Info("Applied migration", zap.String("file", filename))
	}

	app.Database = database
	app.Snapshots = database
	return nil
}

// OpenSender builds the configured email transport
func (app *AppContext) OpenSender() error {
	if app.Sender != nil {
		return nil
	}

	switch app.Cfg.Email.Transport {
	case config.TransportGmail:
		oauthCfg, err := config.LoadOAuthClientWithEnv(app.Env)
		if err != nil {
			return fmt.Errorf("failed to load OAuth client config: %w", err)
		}
		oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
		if err != nil {
			return err
		}
		token, err := utils.GetToken(app.Ctx, oauthConfig, app.Env, app.Logger)
		if err != nil {
			return err
		}
		client, err := gmailclient.NewClient(app.Ctx, oauthCfg, token, app.Cfg.Email.From)
		if err != nil {
			return fmt.Errorf("failed to create gmail client: %w", err)
		}
		app.Sender = client
	default:
		app.Sender = sendgridclient.NewClient(sendgridclient.Config{
			APIKey: app.Cfg.Email.SendGridAPIKey,
			From:   app.Cfg.Email.From,
		})
	}

	app.Logger.Debug("Email transport ready", zap.String("transport", app.Cfg.Email.Transport))
	return nil
}

// Close releases open resources
func (app *AppContext) Close() {
	if app.Database != nil {
		app.Database.Close()
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}

// checkOptions maps config onto per-location check options
func (app *AppContext) checkOptions(dryRun bool) services.CheckOptions {
	return services.CheckOptions{
		Recipient:             app.Cfg.Email.To,
		SubjectPrefix:         app.Cfg.Email.SubjectPrefix,
		MaxConcurrentRequests: app.Cfg.Upstream.MaxConcurrentRequests,
		PersistAfterSend:      app.Cfg.Email.PersistAfterSend,
		DryRun:                dryRun,
	}
}

// findLocation returns the configured location with the given id
func (app *AppContext) findLocation(id string) (model.Location, error) {
	for _, loc := range app.Locations {
		if loc.ID == id {
			return loc, nil
		}
	}
	return model.Location{}, fmt.Errorf("location %q is not configured", id)
}
