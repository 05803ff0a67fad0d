// ABOUTME: CLI command for logging a record from a JSON body.
// ABOUTME: Accepts the same bodies as the HTTP log endpoints.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/records"
	"github.com/spf13/cobra"
)

// logFunc decodes a JSON body and logs it, returning the stored record.
type logFunc func(ctx context.Context, body []byte) (models.Record, string, error)

func jsonLogger[T models.Record, I models.Input[T]](s *records.Service[T, I]) logFunc {
	return func(ctx context.Context, body []byte) (models.Record, string, error) {
		var in I
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, "", fmt.Errorf("invalid %s body: %w", s.Kind().Name, err)
		}
		out, err := s.Log(ctx, in)
		if err != nil {
			return nil, "", err
		}
		return out.Record, out.LastID, nil
	}
}

func loggers(s *records.Services) map[string]logFunc {
	return map[string]logFunc{
		models.KindUser.Name:        jsonLogger(s.Users),
		models.KindWorkout.Name:     jsonLogger(s.Workouts),
		models.KindNutrition.Name:   jsonLogger(s.Nutrition),
		models.KindAchievement.Name: jsonLogger(s.Achievements),
		models.KindMetric.Name:      jsonLogger(s.Metrics),
		models.KindGoal.Name:        jsonLogger(s.Goals),
		models.KindSocialPost.Name:  jsonLogger(s.SocialPosts),
	}
}

var addCmd = &cobra.Command{
	Use:     "add <kind> [json]",
	Aliases: []string{"log", "a"},
	Short:   "Log a record",
	Long: `Log a record of the given kind. The body is the same JSON the HTTP
log endpoints accept; pass "-" or omit it to read from stdin.

KINDS:

  user, workout, nutrition, achievement, metric, goal, social-post

EXAMPLES:

  fitlog add metric '{"metricName":"weight","value":82.5,"userId":"user1"}'
  fitlog add goal '{"goalName":"5k","targetDate":"2024-12-31","userId":"user1"}'
  cat meal.json | fitlog add nutrition`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := models.KindByName(args[0])
		if !ok {
			return fmt.Errorf("unknown kind: %s", args[0])
		}

		var body []byte
		var err error
		if len(args) == 1 || args[1] == "-" {
			body, err = io.ReadAll(cmd.InOrStdin())
		} else {
			body = []byte(args[1])
		}
		if err != nil {
			return fmt.Errorf("failed to read body: %w", err)
		}

		rec, lastID, err := loggers(svc)[kind.Name](cmd.Context(), body)
		if err != nil {
			return fmt.Errorf("failed to log %s: %w", kind.Name, err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ Logged %s %s\n", kind.Name, rec.RecordID())
		if lastID != "" {
			color.New(color.Faint).Fprintf(out, "  previous last id: %s\n", lastID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
