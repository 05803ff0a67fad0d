// ABOUTME: Root Cobra command for the fitlog CLI.
// ABOUTME: Loads config, opens the configured store, and builds the record services.
package main

import (
	"fmt"

	"github.com/harperreed/fitlog/internal/config"
	"github.com/harperreed/fitlog/internal/logging"
	"github.com/harperreed/fitlog/internal/records"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	store  storage.Store
	svc    *records.Services
	logger *zap.Logger

	devLogs bool
)

// Commands that never touch the store.
var storelessCommands = map[string]bool{
	"help":       true,
	"completion": true,
	"show":       true,
	"path":       true,
	"set":        true,
	"version":    true,
}

var rootCmd = &cobra.Command{
	Use:   "fitlog",
	Short: "Fitness tracking backend",
	Long: `fitlog records users, workouts, nutrition, achievements, metrics, goals,
and social posts in a document store and serves them over HTTP and MCP.

QUICK START:

  $ fitlog serve                          # HTTP API on :3000
  $ fitlog add user '{"username":"ann","email":"ann@example.com","password":"pw"}'
  $ fitlog add workout '{"duration":30,"intensity":"high","userId":"user1"}'
  $ fitlog list workouts                  # Every stored workout
  $ fitlog list workouts --user user1     # Only ann's workouts
  $ fitlog delete-user user1              # Remove user1 and every record referencing it

BACKENDS:

  badger (default)  embedded, ~/.local/share/fitlog/badger
  sqlite            embedded, ~/.local/share/fitlog/fitlog.db
  mongo             FITLOG_MONGO_URI, database my-fitness-db
  charm             Charm KV, synced across devices

  Select one in ~/.config/fitlog/config.json or with FITLOG_BACKEND.

MCP INTEGRATION:

  Run 'fitlog mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "fitlog": { "command": "fitlog", "args": ["mcp"] }
    }
  }`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = logging.New(cfg.GetLogLevel(), devLogs)
		if err != nil {
			return err
		}

		if storelessCommands[cmd.Name()] {
			return nil
		}

		store, err = cfg.OpenStorage(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", cfg.GetBackend(), err)
		}
		svc = records.New(store, logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeStore()
	},
}

func closeStore() error {
	if logger != nil {
		_ = logger.Sync()
	}
	if store == nil {
		return nil
	}
	err := store.Close()
	store = nil
	svc = nil
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&devLogs, "dev", false, "human-readable console logs")
}
