// ABOUTME: CLI command for finishing interrupted cascade deletes.
// ABOUTME: Replays every journaled cascade and reports what remains.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Finish interrupted user deletions",
	Long: `Replay cascade deletions that did not complete.

When deleting a user fails part way, the remaining work is kept in a
journal. This command retries each journaled cascade. 'fitlog serve' does
the same on startup.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := svc.Reconcile(cmd.Context())
		out := cmd.OutOrStdout()
		if summary.Completed+summary.Pending+summary.Dropped == 0 {
			if err != nil {
				return fmt.Errorf("reconcile failed: %w", err)
			}
			fmt.Fprintln(out, "No pending cascades.")
			return nil
		}
		color.New(color.FgGreen).Fprintf(out, "✓ Completed %d cascade(s)\n", summary.Completed)
		if summary.Dropped > 0 {
			fmt.Fprintf(out, "  Dropped %d for reused user IDs\n", summary.Dropped)
		}
		if summary.Pending > 0 {
			color.New(color.FgYellow).Fprintf(out, "⚠ %d cascade(s) still pending\n", summary.Pending)
		}
		if err != nil {
			return fmt.Errorf("reconcile incomplete: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
