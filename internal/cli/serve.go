package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/logitrack/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket server",
		Long: `Serve the escalation API, the /ws live feed, /healthz and /metrics.

Examples:
  logitrack serve
  logitrack serve --listen :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wire.Config().Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwtSecret is required to serve (set LOGITRACK_JWT_SECRET)")
			}
			if listen != "" {
				wire.Config().Server.ListenAddress = listen
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return wire.Server().ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (overrides server.listenAddress)")
	return cmd
}
