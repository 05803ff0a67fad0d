// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Calls tool and resource handlers directly against an in-memory store.
package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/records"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// setupTestServer creates a server over an in-memory Badger store.
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := storage.OpenBadgerInMemory()
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	server, err := NewServer(records.New(store, nil), nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server
}

func registerUser(t *testing.T, s *Server, name string) string {
	t.Helper()
	_, out, err := s.handleLogUser(context.Background(), nil, logUserInput{
		Username: name, Email: name + "@example.com", Password: "pw",
	})
	if err != nil {
		t.Fatalf("handleLogUser failed: %v", err)
	}
	return out.ID
}

func TestNewServer(t *testing.T) {
	server := setupTestServer(t)

	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.svc == nil {
		t.Error("Expected non-nil services")
	}
}

func TestToolNames(t *testing.T) {
	tests := []struct {
		kind   models.Kind
		name   string
		plural string
	}{
		{models.KindWorkout, "workout", "workouts"},
		{models.KindNutrition, "nutrition", "nutrition"},
		{models.KindSocialPost, "social_post", "social_posts"},
		{models.KindUser, "user", "users"},
	}
	for _, tt := range tests {
		if got := toolName(tt.kind); got != tt.name {
			t.Errorf("toolName(%s) = %q, want %q", tt.kind.Name, got, tt.name)
		}
		if got := toolPlural(tt.kind); got != tt.plural {
			t.Errorf("toolPlural(%s) = %q, want %q", tt.kind.Name, got, tt.plural)
		}
	}
}

func TestHandleLogWorkout(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     logWorkoutInput
		wantID    string
		wantErr   bool
		errSubstr string
	}{
		{
			name:   "first workout",
			input:  logWorkoutInput{Duration: 30, Intensity: "high"},
			wantID: "workout1",
		},
		{
			name:   "with date and notes",
			input:  logWorkoutInput{Duration: 45, Intensity: "low", Notes: "easy", Date: "2024-02-03"},
			wantID: "workout2",
		},
		{
			name:      "missing intensity",
			input:     logWorkoutInput{Duration: 10},
			wantErr:   true,
			errSubstr: "intensity",
		},
		{
			name:      "bad date",
			input:     logWorkoutInput{Duration: 10, Intensity: "x", Date: "tomorrow"},
			wantErr:   true,
			errSubstr: "invalid date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := server.handleLogWorkout(ctx, nil, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("Error %q should contain %q", err.Error(), tt.errSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if out.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", out.ID, tt.wantID)
			}
		})
	}
}

func TestHandleLogOtherKinds(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()
	userID := registerUser(t, server, "ann")

	_, out, err := server.handleLogNutrition(ctx, nil, logNutritionInput{
		Foods:  []foodArg{{FoodName: "rice", Quantity: 1, Calories: 200}, {FoodName: "beans", Quantity: 1, Calories: 120}},
		Date:   "2024-01-01",
		UserID: userID,
	})
	if err != nil {
		t.Fatalf("handleLogNutrition failed: %v", err)
	}
	if n, ok := out.Record.(models.Nutrition); !ok || n.TotalCalories() != 320 {
		t.Errorf("unexpected nutrition record: %+v", out.Record)
	}

	if _, _, err := server.handleLogNutrition(ctx, nil, logNutritionInput{UserID: userID}); err == nil {
		t.Error("Expected error for nutrition without date or foods")
	}

	if _, out, err = server.handleLogAchievement(ctx, nil, logAchievementInput{AchievementName: "pr", UserID: userID}); err != nil || out.ID != "achievement1" {
		t.Errorf("handleLogAchievement = %q, %v", out.ID, err)
	}
	if _, out, err = server.handleLogMetric(ctx, nil, logMetricInput{MetricName: "weight", Value: 0, UserID: userID}); err != nil || out.ID != "metric1" {
		t.Errorf("handleLogMetric = %q, %v", out.ID, err)
	}
	if _, out, err = server.handleLogGoal(ctx, nil, logGoalInput{GoalName: "5k", TargetDate: "2024-12-31", UserID: userID}); err != nil || out.ID != "goal1" {
		t.Errorf("handleLogGoal = %q, %v", out.ID, err)
	}
	if _, out, err = server.handleLogSocialPost(ctx, nil, logSocialPostInput{PostText: "hi", AuthorID: userID}); err != nil || out.ID != "social1" {
		t.Errorf("handleLogSocialPost = %q, %v", out.ID, err)
	}
}

func TestHandleLogUserDuplicate(t *testing.T) {
	server := setupTestServer(t)
	registerUser(t, server, "ann")

	_, _, err := server.handleLogUser(context.Background(), nil, logUserInput{
		Username: "ann", Email: "new@example.com", Password: "pw",
	})
	if err == nil {
		t.Fatal("Expected duplicate username error")
	}
}

func TestListAndDeleteHandlers(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()
	list := server.listHandler(server.svc.Goals)
	del := server.deleteHandler(server.svc.Goals)

	_, res, err := list(ctx, nil, listInput{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if m := res.(map[string]any); !strings.Contains(m["message"].(string), "No goal") {
		t.Errorf("Expected empty message, got %v", m)
	}

	if _, _, err := server.handleLogGoal(ctx, nil, logGoalInput{GoalName: "g", UserID: "user1"}); err != nil {
		t.Fatal(err)
	}
	_, res, err = list(ctx, nil, listInput{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if m := res.(map[string]any); m["count"] != 1 {
		t.Errorf("count = %v, want 1", m["count"])
	}

	_, out, err := del(ctx, nil, idInput{ID: "goal1"})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(out.Message, "goal1") {
		t.Errorf("Message = %q", out.Message)
	}

	_, _, err = del(ctx, nil, idInput{ID: "goal1"})
	if err == nil || err.Error() != "Goal not found" {
		t.Errorf("Expected 'Goal not found', got %v", err)
	}
}

func TestHandleUserTools(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()
	userID := registerUser(t, server, "ann")

	if _, _, err := server.handleLogWorkout(ctx, nil, logWorkoutInput{Duration: 20, Intensity: "mid", UserID: userID}); err != nil {
		t.Fatal(err)
	}

	_, user, err := server.handleGetUser(ctx, nil, userInput{UserID: userID})
	if err != nil {
		t.Fatalf("handleGetUser failed: %v", err)
	}
	if user.(models.User).Username != "ann" {
		t.Errorf("unexpected user %+v", user)
	}

	_, res, err := server.handleListUserRecords(ctx, nil, userRecordsInput{UserID: userID, Kind: "workouts"})
	if err != nil {
		t.Fatalf("handleListUserRecords failed: %v", err)
	}
	if res.(map[string]any)["count"] != 1 {
		t.Errorf("Expected 1 workout, got %v", res)
	}

	if _, _, err := server.handleListUserRecords(ctx, nil, userRecordsInput{UserID: userID, Kind: "users"}); err == nil {
		t.Error("Expected error for users kind")
	}
	if _, _, err := server.handleListUserRecords(ctx, nil, userRecordsInput{UserID: "user9", Kind: "goals"}); err == nil || err.Error() != "User not found" {
		t.Errorf("Expected 'User not found', got %v", err)
	}

	_, out, err := server.handleDeleteUser(ctx, nil, userInput{UserID: userID})
	if err != nil {
		t.Fatalf("handleDeleteUser failed: %v", err)
	}
	if out.Record.(models.User).ID != userID {
		t.Errorf("unexpected deleted record %+v", out.Record)
	}

	workouts, err := server.svc.Workouts.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 0 {
		t.Errorf("Expected cascade to remove workouts, %d left", len(workouts))
	}
}

func TestUsersResource(t *testing.T) {
	server := setupTestServer(t)
	registerUser(t, server, "ann")

	result, err := server.handleUsersResource(context.Background(), &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handleUsersResource failed: %v", err)
	}
	if len(result.Contents) == 0 {
		t.Fatal("Expected non-empty contents")
	}
	if result.Contents[0].URI != usersURI {
		t.Errorf("URI = %s, want %s", result.Contents[0].URI, usersURI)
	}

	var users []models.User
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &users); err != nil {
		t.Fatalf("resource is not JSON: %v", err)
	}
	if len(users) != 1 || users[0].Username != "ann" {
		t.Errorf("unexpected users %+v", users)
	}
}

func TestSummaryResource(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()
	userID := registerUser(t, server, "ann")
	if _, _, err := server.handleLogMetric(ctx, nil, logMetricInput{MetricName: "hr", Value: 50, UserID: userID}); err != nil {
		t.Fatal(err)
	}

	result, err := server.handleSummaryResource(ctx, &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handleSummaryResource failed: %v", err)
	}
	if result.Contents[0].MIMEType != "application/json" {
		t.Errorf("MIMEType = %s, want application/json", result.Contents[0].MIMEType)
	}

	var summary struct {
		Collections     map[string]int `json:"collections"`
		PendingCascades int            `json:"pending_cascades"`
	}
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &summary); err != nil {
		t.Fatalf("resource is not JSON: %v", err)
	}
	if summary.Collections["Users"] != 1 || summary.Collections["Metrics"] != 1 || summary.Collections["Goals"] != 0 {
		t.Errorf("unexpected counts %v", summary.Collections)
	}
	if summary.PendingCascades != 0 {
		t.Errorf("PendingCascades = %d, want 0", summary.PendingCascades)
	}
}
