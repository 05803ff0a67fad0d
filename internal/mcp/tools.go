// ABOUTME: MCP tool implementations for fitlog records.
// ABOUTME: Log, list, and delete tools for every kind plus user lookups and cascading delete.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/records"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_user",
		Description: "Register a new user",
	}, s.handleLogUser)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_workout",
		Description: "Log a workout session (duration in minutes and an intensity)",
	}, s.handleLogWorkout)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_nutrition",
		Description: "Log the foods a user ate on a date",
	}, s.handleLogNutrition)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_achievement",
		Description: "Record an achievement for a user",
	}, s.handleLogAchievement)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_metric",
		Description: "Record a named measurement (weight, resting_hr, etc.) for a user",
	}, s.handleLogMetric)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_goal",
		Description: "Set a goal for a user",
	}, s.handleLogGoal)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_social_post",
		Description: "Publish a social post on behalf of a user",
	}, s.handleLogSocialPost)

	for _, c := range s.svc.All() {
		kind := c.Kind()
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        "list_" + toolPlural(kind),
			Description: fmt.Sprintf("List every stored %s record", kind.Name),
		}, s.listHandler(c))

		if kind.Name == models.KindUser.Name {
			continue
		}
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        "delete_" + toolName(kind),
			Description: fmt.Sprintf("Delete a %s record by ID (e.g. %s3)", kind.Name, kind.Prefix),
		}, s.deleteHandler(c))
	}

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_user",
		Description: "Get a user by ID",
	}, s.handleGetUser)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_user_records",
		Description: "List the records of one kind that belong to a user",
	}, s.handleListUserRecords)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_user",
		Description: "Delete a user and every record that references them",
	}, s.handleDeleteUser)
}

func toolName(k models.Kind) string {
	return strings.ReplaceAll(k.Name, "-", "_")
}

func toolPlural(k models.Kind) string {
	if k.Name == models.KindNutrition.Name {
		return "nutrition"
	}
	return toolName(k) + "s"
}

// Tool input/output types

type logUserInput struct {
	Username string `json:"username" jsonschema:"Unique username"`
	Email    string `json:"email" jsonschema:"Unique email address"`
	Password string `json:"password" jsonschema:"Password, stored as given"`
}

type logWorkoutInput struct {
	Duration  float64 `json:"duration" jsonschema:"Duration in minutes"`
	Intensity string  `json:"intensity" jsonschema:"Intensity such as low, moderate, or high"`
	Notes     string  `json:"notes,omitempty" jsonschema:"Optional notes"`
	Date      string  `json:"date,omitempty" jsonschema:"Date (ISO 8601 or YYYY-MM-DD), defaults to now"`
	UserID    string  `json:"user_id,omitempty" jsonschema:"Owning user ID, e.g. user1"`
}

type foodArg struct {
	FoodName string  `json:"food_name" jsonschema:"Name of the food"`
	Quantity float64 `json:"quantity" jsonschema:"Quantity eaten"`
	Calories float64 `json:"calories" jsonschema:"Calories"`
}

type logNutritionInput struct {
	Foods  []foodArg `json:"foods" jsonschema:"Foods consumed"`
	Date   string    `json:"date" jsonschema:"Date of the meal (ISO 8601 or YYYY-MM-DD)"`
	UserID string    `json:"user_id" jsonschema:"Owning user ID"`
}

type logAchievementInput struct {
	AchievementName string `json:"achievement_name" jsonschema:"What was achieved"`
	DateAchieved    string `json:"date_achieved,omitempty" jsonschema:"When it was achieved, defaults to now"`
	UserID          string `json:"user_id" jsonschema:"Owning user ID"`
}

type logMetricInput struct {
	MetricName string  `json:"metric_name" jsonschema:"Name of the measurement"`
	Value      float64 `json:"value" jsonschema:"Measured value"`
	Date       string  `json:"date,omitempty" jsonschema:"When it was measured, defaults to now"`
	UserID     string  `json:"user_id" jsonschema:"Owning user ID"`
}

type logGoalInput struct {
	GoalName    string `json:"goal_name" jsonschema:"Name of the goal"`
	Description string `json:"description,omitempty" jsonschema:"Optional description"`
	TargetDate  string `json:"target_date,omitempty" jsonschema:"Optional target date"`
	UserID      string `json:"user_id" jsonschema:"Owning user ID"`
}

type logSocialPostInput struct {
	PostText   string `json:"post_text" jsonschema:"Text of the post"`
	AuthorID   string `json:"author_id" jsonschema:"Author user ID"`
	DatePosted string `json:"date_posted,omitempty" jsonschema:"When it was posted, defaults to now"`
}

type logOutput struct {
	ID      string `json:"id"`
	LastID  string `json:"last_id,omitempty"`
	Message string `json:"message"`
	Record  any    `json:"record"`
}

type listInput struct{}

type idInput struct {
	ID string `json:"id" jsonschema:"Record ID, e.g. workout3"`
}

type userInput struct {
	UserID string `json:"user_id" jsonschema:"User ID, e.g. user1"`
}

type userRecordsInput struct {
	UserID string `json:"user_id" jsonschema:"User ID, e.g. user1"`
	Kind   string `json:"kind" jsonschema:"Record kind: workouts, nutrition, achievements, metrics, goals, or social-posts"`
}

type simpleOutput struct {
	Message string `json:"message"`
	Record  any    `json:"record,omitempty"`
}

// Conversions

func optString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func optDate(field, v string) (*models.Date, error) {
	if v == "" {
		return nil, nil
	}
	t, err := models.ParseDate(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	d := models.NewDate(t)
	return &d, nil
}

// toolError flattens a service error into a message suited to an assistant.
func toolError(action string, err error) error {
	var nf *records.NotFoundError
	if errors.As(err, &nf) {
		return errors.New(nf.Message)
	}
	var verr *records.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("%s: %s", action, verr.Fields.Error())
	}
	return fmt.Errorf("%s: %w", action, err)
}

func logged[T models.Record](kind models.Kind, out records.Logged[T]) logOutput {
	id := out.Record.RecordID()
	return logOutput{
		ID:      id,
		LastID:  out.LastID,
		Message: fmt.Sprintf("Logged %s %s", kind.Name, id),
		Record:  out.Record,
	}
}

// Tool handlers

func (s *Server) handleLogUser(ctx context.Context, req *mcp.CallToolRequest, input logUserInput) (*mcp.CallToolResult, logOutput, error) {
	out, err := s.svc.Users.Log(ctx, models.UserInput{
		Username: optString(input.Username),
		Email:    optString(input.Email),
		Password: optString(input.Password),
	})
	if err != nil {
		return nil, logOutput{}, toolError("failed to register user", err)
	}
	return nil, logged(models.KindUser, out), nil
}

func (s *Server) handleLogWorkout(ctx context.Context, req *mcp.CallToolRequest, input logWorkoutInput) (*mcp.CallToolResult, logOutput, error) {
	date, err := optDate("date", input.Date)
	if err != nil {
		return nil, logOutput{}, err
	}
	out, err := s.svc.Workouts.Log(ctx, models.WorkoutInput{
		Duration:  &input.Duration,
		Intensity: optString(input.Intensity),
		Notes:     optString(input.Notes),
		Date:      date,
		UserID:    optString(input.UserID),
	})
	if err != nil {
		return nil, logOutput{}, toolError("failed to log workout", err)
	}
	return nil, logged(models.KindWorkout, out), nil
}

func (s *Server) handleLogNutrition(ctx context.Context, req *mcp.CallToolRequest, input logNutritionInput) (*mcp.CallToolResult, logOutput, error) {
	date, err := optDate("date", input.Date)
	if err != nil {
		return nil, logOutput{}, err
	}
	foods := make([]models.FoodInput, 0, len(input.Foods))
	for _, f := range input.Foods {
		foods = append(foods, models.FoodInput{
			FoodName: optString(f.FoodName),
			Quantity: &f.Quantity,
			Calories: &f.Calories,
		})
	}
	out, err := s.svc.Nutrition.Log(ctx, models.NutritionInput{
		FoodsConsumed: foods,
		Date:          date,
		UserID:        optString(input.UserID),
	})
	if err != nil {
		return nil, logOutput{}, toolError("failed to log nutrition", err)
	}
	return nil, logged(models.KindNutrition, out), nil
}

func (s *Server) handleLogAchievement(ctx context.Context, req *mcp.CallToolRequest, input logAchievementInput) (*mcp.CallToolResult, logOutput, error) {
	date, err := optDate("date_achieved", input.DateAchieved)
	if err != nil {
		return nil, logOutput{}, err
	}
	out, err := s.svc.Achievements.Log(ctx, models.AchievementInput{
		AchievementName: optString(input.AchievementName),
		DateAchieved:    date,
		UserID:          optString(input.UserID),
	})
	if err != nil {
		return nil, logOutput{}, toolError("failed to log achievement", err)
	}
	return nil, logged(models.KindAchievement, out), nil
}

func (s *Server) handleLogMetric(ctx context.Context, req *mcp.CallToolRequest, input logMetricInput) (*mcp.CallToolResult, logOutput, error) {
	date, err := optDate("date", input.Date)
	if err != nil {
		return nil, logOutput{}, err
	}
	out, err := s.svc.Metrics.Log(ctx, models.MetricInput{
		MetricName: optString(input.MetricName),
		Value:      &input.Value,
		Date:       date,
		UserID:     optString(input.UserID),
	})
	if err != nil {
		return nil, logOutput{}, toolError("failed to log metric", err)
	}
	return nil, logged(models.KindMetric, out), nil
}

func (s *Server) handleLogGoal(ctx context.Context, req *mcp.CallToolRequest, input logGoalInput) (*mcp.CallToolResult, logOutput, error) {
	target, err := optDate("target_date", input.TargetDate)
	if err != nil {
		return nil, logOutput{}, err
	}
	out, err := s.svc.Goals.Log(ctx, models.GoalInput{
		GoalName:    optString(input.GoalName),
		Description: optString(input.Description),
		TargetDate:  target,
		UserID:      optString(input.UserID),
	})
	if err != nil {
		return nil, logOutput{}, toolError("failed to log goal", err)
	}
	return nil, logged(models.KindGoal, out), nil
}

func (s *Server) handleLogSocialPost(ctx context.Context, req *mcp.CallToolRequest, input logSocialPostInput) (*mcp.CallToolResult, logOutput, error) {
	posted, err := optDate("date_posted", input.DatePosted)
	if err != nil {
		return nil, logOutput{}, err
	}
	out, err := s.svc.SocialPosts.Log(ctx, models.SocialPostInput{
		PostText:   optString(input.PostText),
		AuthorID:   optString(input.AuthorID),
		DatePosted: posted,
	})
	if err != nil {
		return nil, logOutput{}, toolError("failed to log social post", err)
	}
	return nil, logged(models.KindSocialPost, out), nil
}

func (s *Server) listHandler(c records.Collection) func(context.Context, *mcp.CallToolRequest, listInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input listInput) (*mcp.CallToolResult, any, error) {
		recs, err := c.ListRecords(ctx)
		if err != nil {
			return nil, nil, toolError("failed to list "+c.Kind().Name, err)
		}
		if len(recs) == 0 {
			return nil, map[string]any{"message": fmt.Sprintf("No %s records found.", c.Kind().Name)}, nil
		}
		return nil, map[string]any{"records": recs, "count": len(recs)}, nil
	}
}

func (s *Server) deleteHandler(c records.Collection) func(context.Context, *mcp.CallToolRequest, idInput) (*mcp.CallToolResult, simpleOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input idInput) (*mcp.CallToolResult, simpleOutput, error) {
		rec, err := c.DeleteRecord(ctx, input.ID)
		if err != nil {
			return nil, simpleOutput{}, toolError("failed to delete "+c.Kind().Name, err)
		}
		return nil, simpleOutput{
			Message: fmt.Sprintf("Deleted %s: %s", c.Kind().Name, input.ID),
			Record:  rec,
		}, nil
	}
}

func (s *Server) handleGetUser(ctx context.Context, req *mcp.CallToolRequest, input userInput) (*mcp.CallToolResult, any, error) {
	user, err := s.svc.Users.Get(ctx, input.UserID)
	if err != nil {
		return nil, nil, toolError("failed to get user", err)
	}
	return nil, user, nil
}

func (s *Server) handleListUserRecords(ctx context.Context, req *mcp.CallToolRequest, input userRecordsInput) (*mcp.CallToolResult, any, error) {
	c, ok := s.svc.ByName(input.Kind)
	if !ok || c.Kind().OwnerField == "" {
		return nil, nil, fmt.Errorf("unknown record kind: %q", input.Kind)
	}
	recs, err := c.ListOwnedRecords(ctx, input.UserID)
	if err != nil {
		return nil, nil, toolError("failed to list "+c.Kind().Name+" for user", err)
	}
	return nil, map[string]any{"records": recs, "count": len(recs)}, nil
}

func (s *Server) handleDeleteUser(ctx context.Context, req *mcp.CallToolRequest, input userInput) (*mcp.CallToolResult, simpleOutput, error) {
	user, err := s.svc.DeleteUser(ctx, input.UserID)
	if err != nil {
		var cerr *records.CascadeError
		if errors.As(err, &cerr) {
			return nil, simpleOutput{}, fmt.Errorf("user %s deleted but records remain in %s; run `fitlog reconcile`",
				input.UserID, strings.Join(cerr.Collections(), ", "))
		}
		return nil, simpleOutput{}, toolError("failed to delete user", err)
	}
	return nil, simpleOutput{
		Message: fmt.Sprintf("Deleted user %s and their records", input.UserID),
		Record:  user,
	}, nil
}
