// ABOUTME: CLI commands for Charm cloud sync when the charm backend is selected.
// ABOUTME: Supports link, unlink, status, now, reset, and wipe operations.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/charm/kv"
	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/charm"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/spf13/cobra"
)

const charmDBName = "fitlog"

var errNotCharm = errors.New("sync requires the charm backend (fitlog config set backend charm)")

func charmStore() (*charm.Client, error) {
	c, ok := store.(*charm.Client)
	if !ok {
		return nil, errNotCharm
	}
	return c, nil
}

// pauseAutoSync turns off per-write sync on a Charm store for a bulk
// write; the returned func syncs once and restores it.
func pauseAutoSync(s storage.Store) func() error {
	c, ok := s.(*charm.Client)
	if !ok {
		return func() error { return nil }
	}
	c.SetAutoSync(false)
	return func() error {
		c.SetAutoSync(true)
		return c.Sync()
	}
}

func confirm(cmd *cobra.Command, prompt, want string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(answer), want)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync fitlog data across devices",
	Long: `Sync fitlog data across devices using Charm Cloud.

Requires the charm backend. Data is encrypted with your SSH key before
upload and syncs automatically after every write.

COMMANDS:

  link        Link this device to your Charm account
  unlink      Disconnect this device from Charm
  status      Show sync status and record counts
  now         Push and pull immediately
  reset       Reset local data and restore from cloud (destructive)
  wipe        Delete cloud and local data (destructive)`,
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link this device to Charm",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := charmStore()
		if err != nil {
			return err
		}

		charmCmd := exec.Command("charm", "link")
		charmCmd.Stdin = os.Stdin
		charmCmd.Stdout = os.Stdout
		charmCmd.Stderr = os.Stderr
		if err := charmCmd.Run(); err != nil {
			return fmt.Errorf("failed to link: %w\n\nMake sure 'charm' CLI is installed: go install github.com/charmbracelet/charm@latest", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintln(out, "✓ Device linked to Charm")
		if err := c.Sync(); err != nil {
			color.New(color.FgYellow).Fprintf(out, "⚠ Initial sync failed: %v\n", err)
		} else {
			color.New(color.FgGreen).Fprintln(out, "✓ Initial sync complete")
		}
		return nil
	},
}

var syncUnlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Disconnect from Charm",
	RunE: func(cmd *cobra.Command, args []string) error {
		charmCmd := exec.Command("charm", "unlink")
		charmCmd.Stdin = os.Stdin
		charmCmd.Stdout = os.Stdout
		charmCmd.Stderr = os.Stderr
		if err := charmCmd.Run(); err != nil {
			return fmt.Errorf("failed to unlink: %w", err)
		}

		color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ Device unlinked from Charm; local data is preserved")
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := charmStore()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		id, err := c.ID()
		if err != nil {
			color.New(color.FgYellow).Fprintln(out, "Not linked to Charm")
			fmt.Fprintln(out, "\nRun 'fitlog sync link' to connect to Charm.")
			return nil
		}

		fmt.Fprintln(out, "Charm ID:", id)
		fmt.Fprintln(out, "Server:", os.Getenv("CHARM_HOST"))
		if c.IsReadOnly() {
			color.New(color.FgYellow).Fprintln(out, "⚠ Read-only: another process holds the database")
		}
		fmt.Fprintln(out)

		color.New(color.FgGreen).Fprintln(out, "✓ Connected to Charm")
		for _, coll := range svc.All() {
			n, err := coll.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %s %d\n", padRight(coll.Kind().Collection+":", 14), n)
		}
		return nil
	},
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Sync immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := charmStore()
		if err != nil {
			return err
		}
		if err := c.Sync(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ Synced")
		return nil
	},
}

var syncResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset local data and restore from cloud",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := charmStore(); err != nil {
			return err
		}
		if !confirm(cmd, "This will DELETE all local fitlog data and restore from cloud.\nContinue? [y/N]: ", "y") {
			fmt.Fprintln(cmd.OutOrStdout(), "Canceled.")
			return nil
		}

		if err := closeStore(); err != nil {
			return err
		}
		if err := kv.Reset(charmDBName); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}

		color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ Local data reset and restored from cloud")
		return nil
	},
}

var syncWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all cloud and local data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := charmStore(); err != nil {
			return err
		}
		if !confirm(cmd, "This will PERMANENTLY DELETE all cloud backups and local fitlog data.\nType 'wipe' to confirm: ", "wipe") {
			fmt.Fprintln(cmd.OutOrStdout(), "Canceled.")
			return nil
		}

		if err := closeStore(); err != nil {
			return err
		}
		result, err := kv.Wipe(charmDBName)
		if err != nil {
			return fmt.Errorf("wipe failed: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintln(out, "✓ Data wiped successfully")
		fmt.Fprintf(out, "  Cloud backups deleted: %d\n", result.CloudBackupsDeleted)
		fmt.Fprintf(out, "  Local files deleted: %d\n", result.LocalFilesDeleted)
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncLinkCmd)
	syncCmd.AddCommand(syncUnlinkCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncNowCmd)
	syncCmd.AddCommand(syncResetCmd)
	syncCmd.AddCommand(syncWipeCmd)
	rootCmd.AddCommand(syncCmd)
}
