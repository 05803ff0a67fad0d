// ABOUTME: CLI commands for deleting records and users.
// ABOUTME: delete-user cascades to every record that references the user.
package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/records"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <kind> <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a record",
	Long: `Delete a record by kind and ID.

Users cannot be deleted here; use 'fitlog delete-user', which also removes
everything the user owns.

EXAMPLES:

  fitlog delete workout workout3
  fitlog rm social-post social12

CAUTION:

  This permanently deletes the record. There is no undo.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := collectionArg(args[0])
		if err != nil {
			return err
		}
		if c.Kind().Name == models.KindUser.Name {
			return fmt.Errorf("use 'fitlog delete-user %s' to delete a user", args[1])
		}

		rec, err := c.DeleteRecord(cmd.Context(), args[1])
		if err != nil {
			return err
		}

		color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "✗ Deleted %s %s\n", c.Kind().Name, rec.RecordID())
		return nil
	},
}

var deleteUserCmd = &cobra.Command{
	Use:   "delete-user <id>",
	Short: "Delete a user and all their records",
	Long: `Delete a user, then every workout, nutrition entry, achievement, metric,
goal, and social post that references them.

If some dependent deletes fail, the user is still removed and the
remaining work is journaled; 'fitlog reconcile' finishes it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := svc.DeleteUser(cmd.Context(), args[0])
		var cerr *records.CascadeError
		if errors.As(err, &cerr) {
			color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(),
				"⚠ Deleted user %s but records remain in %s\n  Run 'fitlog reconcile' to finish.\n",
				cerr.UserID, strings.Join(cerr.Collections(), ", "))
			return err
		}
		if err != nil {
			return err
		}

		color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "✗ Deleted user %s (%s) and their records\n", user.ID, user.Username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(deleteUserCmd)
}
