// ABOUTME: Tests for the generic record service.
// ABOUTME: Covers allocation, validation, not-found messages, and scoped reads.
package records

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAllocatesSequentialIDs(t *testing.T) {
	s, _ := setupTestServices(t)
	ctx := context.Background()

	wantIDs := []string{"workout1", "workout2", "workout3"}
	wantLast := []string{"", "workout1", "workout2"}
	for i := range wantIDs {
		out, err := s.Workouts.Log(ctx, models.WorkoutInput{Duration: ptr(20.0), Intensity: ptr("low")})
		require.NoError(t, err)
		assert.Equal(t, wantIDs[i], out.Record.ID)
		assert.Equal(t, wantLast[i], out.LastID)
		assert.True(t, out.Record.Date.Equal(fixedNow))
	}
}

func TestLogAfterDeleteSkipsGaps(t *testing.T) {
	s, _ := setupTestServices(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Goals.Log(ctx, models.GoalInput{GoalName: ptr("g"), UserID: ptr("user1")})
		require.NoError(t, err)
	}
	_, err := s.Goals.Delete(ctx, "goal2")
	require.NoError(t, err)

	out, err := s.Goals.Log(ctx, models.GoalInput{GoalName: ptr("g"), UserID: ptr("user1")})
	require.NoError(t, err)
	assert.Equal(t, "goal4", out.Record.ID)
}

func TestLogValidationError(t *testing.T) {
	s, _ := setupTestServices(t)

	_, err := s.Metrics.Log(context.Background(), models.MetricInput{UserID: ptr("user1")})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)

	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"metricName", "value"}, fields)

	list, err := s.Metrics.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegisterRejectsDuplicateUsernameAndEmail(t *testing.T) {
	s, _ := setupTestServices(t)
	ctx := context.Background()
	registerUser(t, s, "ann")

	tests := []struct {
		name string
		in   models.UserInput
	}{
		{"username", models.UserInput{Username: ptr("ann"), Email: ptr("other@example.com"), Password: ptr("x")}},
		{"email", models.UserInput{Username: ptr("bob"), Email: ptr("ann@example.com"), Password: ptr("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Users.Log(ctx, tt.in)
			var serr *StorageError
			require.True(t, errors.As(err, &serr), "got %v", err)
			assert.ErrorIs(t, err, storage.ErrDuplicateKey)
		})
	}

	users, err := s.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestGetAndDeleteNotFoundMessages(t *testing.T) {
	s, _ := setupTestServices(t)
	ctx := context.Background()

	tests := []struct {
		name string
		c    Collection
		want string
	}{
		{"workout", s.Workouts, "Workout not found"},
		{"nutrition", s.Nutrition, "Nutrition entry not found"},
		{"achievement", s.Achievements, "Achievement entry not found"},
		{"metric", s.Metrics, "Metric entry not found"},
		{"goal", s.Goals, "Goal not found"},
		{"social", s.SocialPosts, "Social post not found"},
		{"user", s.Users, "User not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.c.DeleteRecord(ctx, "missing1")
			var nf *NotFoundError
			require.True(t, errors.As(err, &nf), "got %v", err)
			assert.Equal(t, tt.want, nf.Message)

			_, err = tt.c.GetRecord(ctx, "missing1")
			require.True(t, errors.As(err, &nf))
		})
	}
}

func TestDeleteMissingAndRepeated(t *testing.T) {
	s, _ := setupTestServices(t)
	ctx := context.Background()
	seedOwned(t, s, registerUser(t, s, "ann"))
	registerUser(t, s, "bob")

	ids := func(t *testing.T, c Collection) []string {
		t.Helper()
		recs, err := c.ListRecords(ctx)
		require.NoError(t, err)
		out := make([]string, 0, len(recs))
		for _, r := range recs {
			out = append(out, r.RecordID())
		}
		return out
	}

	for _, c := range s.All() {
		t.Run(c.Kind().Name, func(t *testing.T) {
			before := ids(t, c)
			require.NotEmpty(t, before)

			_, err := c.DeleteRecord(ctx, "missing999")
			var nf *NotFoundError
			require.True(t, errors.As(err, &nf), "got %v", err)
			assert.Equal(t, before, ids(t, c))

			victim := before[len(before)-1]
			_, err = c.DeleteRecord(ctx, victim)
			require.NoError(t, err)
			for i := 0; i < 2; i++ {
				_, err = c.DeleteRecord(ctx, victim)
				assert.True(t, errors.As(err, &nf), "delete %d of %s: got %v", i+2, victim, err)
			}
			assert.Equal(t, before[:len(before)-1], ids(t, c))
		})
	}
}

func TestDeleteReturnsPriorContent(t *testing.T) {
	s, _ := setupTestServices(t)
	ctx := context.Background()

	logged, err := s.Metrics.Log(ctx, models.MetricInput{MetricName: ptr("weight"), Value: ptr(70.0), UserID: ptr("user1")})
	require.NoError(t, err)

	deleted, err := s.Metrics.Delete(ctx, logged.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, logged.Record.MetricName, deleted.MetricName)
	assert.Equal(t, 70.0, deleted.Value)

	_, err = s.Metrics.Get(ctx, logged.Record.ID)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestListIsNeverNil(t *testing.T) {
	s, _ := setupTestServices(t)
	workouts, err := s.Workouts.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, workouts)
	assert.Empty(t, workouts)
}

func TestListByOwnerRequiresUser(t *testing.T) {
	s, _ := setupTestServices(t)
	ctx := context.Background()

	_, err := s.Workouts.ListByOwner(ctx, "user404")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "User not found", nf.Message)

	userID := registerUser(t, s, "ann")
	workouts, err := s.Workouts.ListByOwner(ctx, userID)
	require.NoError(t, err)
	assert.NotNil(t, workouts)
	assert.Empty(t, workouts)
}

func TestListByOwnerFilters(t *testing.T) {
	s, _ := setupTestServices(t)
	ctx := context.Background()

	ann := registerUser(t, s, "ann")
	bob := registerUser(t, s, "bob")
	seedOwned(t, s, ann)
	seedOwned(t, s, bob)
	seedOwned(t, s, ann)

	goals, err := s.Goals.ListByOwner(ctx, ann)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	for _, g := range goals {
		assert.Equal(t, ann, g.UserID)
	}

	nutrition, err := s.Nutrition.ListByOwner(ctx, bob)
	require.NoError(t, err)
	require.Len(t, nutrition, 1)
	assert.Equal(t, 150.0, nutrition[0].TotalCalories())
}

func TestSocialPostsByAuthorSkipsUserCheck(t *testing.T) {
	s, _ := setupTestServices(t)
	ctx := context.Background()

	_, err := s.SocialPosts.ListByOwner(ctx, "ghost1")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "No social posts found for the user", nf.Message)

	_, err = s.SocialPosts.Log(ctx, models.SocialPostInput{PostText: ptr("boo"), AuthorID: ptr("ghost1")})
	require.NoError(t, err)

	posts, err := s.SocialPosts.ListByOwner(ctx, "ghost1")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "social1", posts[0].ID)
	assert.True(t, posts[0].DatePosted.Equal(fixedNow))
}

func TestUsersHaveNoOwner(t *testing.T) {
	s, _ := setupTestServices(t)
	_, err := s.Users.ListByOwner(context.Background(), "user1")
	assert.Error(t, err)
}

func TestConcurrentLogsNeverCollide(t *testing.T) {
	s, _ := setupTestServices(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[string]int{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := s.Workouts.Log(ctx, models.WorkoutInput{Duration: ptr(10.0), Intensity: ptr("mid")})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[out.Record.ID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for id, count := range seen {
		assert.Equal(t, 1, count, "id %s handed out twice", id)
	}
}

func TestServicesByName(t *testing.T) {
	s, _ := setupTestServices(t)

	tests := []struct {
		name string
		want string
	}{
		{"workouts", "Workouts"},
		{"social-posts", "Social"},
		{"Nutrition", "Nutrition"},
		{"user", "Users"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := s.ByName(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.want, c.Kind().Collection)
		})
	}

	_, ok := s.ByName("steps")
	assert.False(t, ok)
}

func TestCollectionsIncludeJournal(t *testing.T) {
	assert.Contains(t, Collections(), JournalCollection)
	assert.Len(t, Collections(), len(models.AllKinds)+1)
}
