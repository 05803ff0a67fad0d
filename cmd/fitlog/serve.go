// ABOUTME: CLI command for running the HTTP API.
// ABOUTME: Replays pending cascades, then serves until SIGINT or SIGTERM.
package main

import (
	"os/signal"
	"syscall"

	"github.com/harperreed/fitlog/internal/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

The listen address comes from --addr, FITLOG_ADDR, PORT, or the config
file, defaulting to :3000. CORS origins come from allowed_origins or
FITLOG_ALLOWED_ORIGINS (comma separated); empty allows every origin.

Cascades interrupted by an earlier crash are finished before the server
starts accepting requests.

ENDPOINTS:

  POST   /register, /log-workout, /log-nutrition, /log-achievement,
         /log-metric, /log-goal, /log-social-post
  GET    /users, /workouts, /nutrition, /achievements, /metrics, /goals,
         /social-posts, /users/{userId}, /users/{userId}/<kind>
  DELETE /delete-user/{id}, /delete-workout/{id}, ...
  GET    /healthz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		summary, err := svc.Reconcile(ctx)
		if err != nil {
			logger.Warn("some cascades are still pending", zap.Int("pending", summary.Pending), zap.Error(err))
		} else if summary.Completed+summary.Dropped > 0 {
			logger.Info("cascade journal replayed",
				zap.Int("completed", summary.Completed),
				zap.Int("pending", summary.Pending),
				zap.Int("dropped", summary.Dropped))
		}

		addr := cfg.GetAddr()
		if serveAddr != "" {
			addr = serveAddr
		}
		router := api.NewRouter(svc, logger, api.Options{AllowedOrigins: cfg.AllowedOrigins})
		return api.Serve(ctx, addr, router, logger.With(zap.String("backend", cfg.GetBackend())))
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :3000)")
	rootCmd.AddCommand(serveCmd)
}
