package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sql2nl/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP translation service",
		Long: `Run the HTTP translation service.

Endpoints:
  POST /translate  {"sql": "...", "model": "..."} -> {"explanation", "mode", "warning"}
  POST /explain    {"sql": "..."} -> heuristic analysis with detected features
  GET  /healthz    liveness check

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  sql2nl serve --port 8080`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)

			srv := server.New(server.Config{
				Port:              cc.Cfg.Server.Port,
				ReadHeaderTimeout: cc.Cfg.Server.ReadHeaderTimeout,
				ShutdownTimeout:   cc.Cfg.Server.ShutdownTimeout,
				Translator:        cc.NewTranslator(),
				Logger:            cc.Logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Serve(ctx)
		},
	}

	cmd.Flags().Int("port", server.DefaultPort, "Port to listen on")

	return cmd
}
