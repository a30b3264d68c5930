package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/logitrack/internal/wire"
)

// TokenCmd returns the token command
func TokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for the --as user",
		Long: `Sign a JWT carrying the --as user's ID and role, for calling the HTTP API
from scripts or the dashboard during development.

Examples:
  logitrack token --as USR-002
  logitrack token --as USR-001 --ttl 24h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wire.Config().Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwtSecret is not configured")
			}
			actor, err := currentActor()
			if err != nil {
				return err
			}
			token, err := wire.AuthHandler().IssueToken(actor.UserID, actor.Role, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "Token lifetime")
	return cmd
}
