package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/logitrack/internal/db"
	"github.com/example/logitrack/internal/wire"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the logitrack database",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := db.SchemaVersion(wire.DB())
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		fmt.Printf("✓ Database ready at %s (schema version %d)\n", wire.Config().Database.Path, version)
		return nil
	},
}

var dbSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo users, shipments and the three-rung contact ladder",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.SeedFixtures(wire.DB()); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
		fmt.Println("✓ Demo data loaded")
		fmt.Println("  Ladder: USR-003 (email, 300s) → USR-002 (phone, 600s) → USR-001 (push, 900s)")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbSeedCmd)
}

// DBCmd returns the db command
func DBCmd() *cobra.Command {
	return dbCmd
}
