package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/logitrack/internal/cli"
	"github.com/example/logitrack/internal/version"
	"github.com/example/logitrack/internal/wire"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "logitrack",
		Short:   "Logitrack - shipment escalation ladder",
		Version: version.String(),
		Long: `Logitrack routes delivery problems up a ladder of escalation contacts
until someone acknowledges them. It serves an HTTP API with a live websocket
feed and offers the same operations from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.BindGlobalFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.DBCmd())
	rootCmd.AddCommand(cli.ContactCmd())
	rootCmd.AddCommand(cli.EscalationCmd())
	rootCmd.AddCommand(cli.TokenCmd())

	err := rootCmd.Execute()
	wire.Shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
