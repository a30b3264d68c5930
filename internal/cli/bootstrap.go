// Package cli provides CLI commands for the logitrack application.
package cli

import (
	gocontext "context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/logitrack/internal/config"
	"github.com/example/logitrack/internal/ctxutil"
	"github.com/example/logitrack/internal/ports/primary"
	"github.com/example/logitrack/internal/ports/secondary"
	"github.com/example/logitrack/internal/wire"
)

// globalActorID is the user the current invocation acts as (--as or LOGITRACK_AS).
var globalActorID string

var globalConfigPath string

// BindGlobalFlags registers the flags shared by every command and points
// the wire package at the selected config file before any command runs.
func BindGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&globalConfigPath, "config", "", "Config file (default ~/.logitrack/config.yaml)")
	root.PersistentFlags().StringVar(&globalActorID, "as", os.Getenv("LOGITRACK_AS"), "User ID to act as (e.g. USR-002)")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		path := globalConfigPath
		if path == "" {
			defaultPath, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			path = defaultPath
		}
		wire.SetConfigPath(path)
		return nil
	}
}

// NewContext creates a context.Background() with the current actor embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext(actor primary.Actor) gocontext.Context {
	ctx := gocontext.Background()
	if actor.UserID != "" {
		return ctxutil.WithActor(ctx, actor.UserID, actor.Role)
	}
	return ctx
}

// resolveActor looks up the --as user and takes the role from the users table.
func resolveActor(users secondary.UserRepository) (primary.Actor, error) {
	if globalActorID == "" {
		return primary.Actor{}, fmt.Errorf("--as is required (or set LOGITRACK_AS)")
	}
	if err := validateEntityID(globalActorID, "user"); err != nil {
		return primary.Actor{}, err
	}

	user, err := users.GetByID(gocontext.Background(), globalActorID)
	if errors.Is(err, secondary.ErrNotFound) {
		return primary.Actor{}, fmt.Errorf("user %s not found", globalActorID)
	}
	if err != nil {
		return primary.Actor{}, fmt.Errorf("failed to resolve user %s: %w", globalActorID, err)
	}
	return primary.Actor{UserID: user.ID, Role: user.Role}, nil
}

// currentActor resolves the --as user against the configured database.
func currentActor() (primary.Actor, error) {
	return resolveActor(wire.Users())
}
