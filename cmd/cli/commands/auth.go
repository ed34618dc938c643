package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cabinwatch/cabinwatch/internal/config"
	"github.com/cabinwatch/cabinwatch/pkg/utils"
)

// AuthCmd creates the auth command, which caches a Gmail token for the gmail transport
func AuthCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize Gmail sending and cache the token for this environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			oauthCfg, err := config.LoadOAuthClientWithEnv(app.Env)
			if err != nil {
				return fmt.Errorf("failed to load OAuth client config: %w", err)
			}

			oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
			if err != nil {
				return err
			}

			if _, err := utils.GetTokenWithFlow(app.Ctx, oauthConfig, app.Env, app.Logger); err != nil {
				return err
			}

			fmt.Printf("✓ Gmail token cached for env %q\n", app.Env)
			return nil
		},
	}
}
