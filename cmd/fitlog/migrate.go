// ABOUTME: CLI command for copying data between storage backends.
// ABOUTME: Identifiers are preserved so allocation continues where the source left off.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/config"
	"github.com/harperreed/fitlog/internal/records"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/spf13/cobra"
)

var (
	migrateTo      string
	migrateDataDir string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy all data to another backend",
	Long: `Copy every collection from the configured backend to another one.

Documents already present in the destination are skipped, so an
interrupted migration can be run again. The source is left untouched;
switch backends afterwards with 'fitlog config set backend <name>'.

EXAMPLES:

  fitlog migrate --to sqlite
  fitlog migrate --to badger --data-dir /srv/fitlog
  FITLOG_BACKEND=sqlite fitlog migrate --to mongo`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dstCfg := *cfg
		dstCfg.Backend = migrateTo
		if migrateDataDir != "" {
			dstCfg.DataDir = migrateDataDir
		}
		if dstCfg.GetBackend() == cfg.GetBackend() && dstCfg.GetDataDir() == cfg.GetDataDir() {
			return fmt.Errorf("source and destination are both %s in %s", cfg.GetBackend(), cfg.GetDataDir())
		}

		out := cmd.OutOrStdout()
		if dir := embeddedDir(&dstCfg); dir != "" {
			nonEmpty, err := storage.IsDirNonEmpty(dir)
			if err != nil {
				return err
			}
			if nonEmpty {
				color.New(color.FgYellow).Fprintf(out, "⚠ %s already has data; existing documents are kept\n", dir)
			}
		}

		dst, err := dstCfg.OpenStorage(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", dstCfg.GetBackend(), err)
		}
		defer dst.Close()

		resume := pauseAutoSync(dst)
		summary, err := storage.MigrateData(cmd.Context(), store, dst, records.Collections())
		if syncErr := resume(); syncErr != nil {
			color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "⚠ Sync after migration failed: %v\n", syncErr)
		}
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		color.New(color.FgGreen).Fprintf(out, "✓ Copied %d documents from %s to %s\n",
			summary.Total(), cfg.GetBackend(), dstCfg.GetBackend())
		printCounts(out, summary.Copied, summary.Skipped, "copied")
		return nil
	},
}

// embeddedDir returns where an embedded backend keeps its files, or "" for remote ones.
func embeddedDir(c *config.Config) string {
	switch c.GetBackend() {
	case "badger":
		return filepath.Join(c.GetDataDir(), "badger")
	case "sqlite":
		return c.GetDataDir()
	default:
		return ""
	}
}

func init() {
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "destination backend: badger, sqlite, mongo, or charm")
	migrateCmd.Flags().StringVar(&migrateDataDir, "data-dir", "", "destination data directory for embedded backends")
	_ = migrateCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(migrateCmd)
}
