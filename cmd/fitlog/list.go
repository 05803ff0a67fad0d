// ABOUTME: CLI commands for listing and showing records.
// ABOUTME: Lists a whole collection or only the records referencing one user.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/records"
	"github.com/spf13/cobra"
)

var listUser string

var listCmd = &cobra.Command{
	Use:     "list <kind>",
	Aliases: []string{"ls", "l"},
	Short:   "List records of a kind",
	Long: `List every stored record of a kind.

OUTPUT FORMAT:

  Each line shows: ID  JSON

FILTERING:

  Use --user to show only records that reference a user (userId, or
  authorId for social posts).

EXAMPLES:

  fitlog list users
  fitlog list workouts --user user1
  fitlog ls social-posts -u user2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := collectionArg(args[0])
		if err != nil {
			return err
		}
		kind := c.Kind()

		var recs []models.Record
		if listUser != "" {
			if kind.OwnerField == "" {
				return fmt.Errorf("%s records cannot be filtered by user", kind.Name)
			}
			recs, err = c.ListOwnedRecords(cmd.Context(), listUser)
		} else {
			recs, err = c.ListRecords(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", kind.Name, err)
		}

		out := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintf(out, "No %s records found.\n", kind.Name)
			return nil
		}
		return printRecords(out, recs)
	},
}

var showCmd = &cobra.Command{
	Use:     "get <kind> <id>",
	Aliases: []string{"show"},
	Short:   "Show one record",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := collectionArg(args[0])
		if err != nil {
			return err
		}
		rec, err := c.GetRecord(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func collectionArg(name string) (records.Collection, error) {
	c, ok := svc.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown kind: %s", name)
	}
	return c, nil
}

func printRecords(w io.Writer, recs []models.Record) error {
	faint := color.New(color.Faint)
	for _, r := range recs {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", faint.Sprint(padRight(r.RecordID(), 16)), data)
	}
	return nil
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	listCmd.Flags().StringVarP(&listUser, "user", "u", "", "only records referencing this user")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}
