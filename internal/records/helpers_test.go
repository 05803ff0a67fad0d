// ABOUTME: Shared fixtures for record service tests.
// ABOUTME: Builds services over an in-memory Badger store with a fixed clock.
package records

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func setupTestServices(t *testing.T) (*Services, storage.Store) {
	t.Helper()
	store, err := storage.OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return newServicesAt(store), store
}

func newServicesAt(store storage.Store) *Services {
	s := New(store, nil)
	clock := func() time.Time { return fixedNow }
	s.Users.now = clock
	s.Workouts.now = clock
	s.Nutrition.now = clock
	s.Achievements.now = clock
	s.Metrics.now = clock
	s.Goals.now = clock
	s.SocialPosts.now = clock
	return s
}

func registerUser(t *testing.T, s *Services, name string) string {
	t.Helper()
	out, err := s.Users.Log(context.Background(), models.UserInput{
		Username: ptr(name),
		Email:    ptr(name + "@example.com"),
		Password: ptr("secret"),
	})
	require.NoError(t, err)
	return out.Record.ID
}

// seedOwned logs one record of every dependent kind for userID.
func seedOwned(t *testing.T, s *Services, userID string) {
	t.Helper()
	ctx := context.Background()
	_, err := s.Workouts.Log(ctx, models.WorkoutInput{Duration: ptr(30.0), Intensity: ptr("high"), UserID: ptr(userID)})
	require.NoError(t, err)
	_, err = s.Nutrition.Log(ctx, models.NutritionInput{
		FoodsConsumed: []models.FoodInput{{FoodName: ptr("oats"), Quantity: ptr(1.0), Calories: ptr(150.0)}},
		Date:          &models.Date{Time: fixedNow},
		UserID:        ptr(userID),
	})
	require.NoError(t, err)
	_, err = s.Achievements.Log(ctx, models.AchievementInput{AchievementName: ptr("first 5k"), UserID: ptr(userID)})
	require.NoError(t, err)
	_, err = s.Metrics.Log(ctx, models.MetricInput{MetricName: ptr("weight"), Value: ptr(72.5), UserID: ptr(userID)})
	require.NoError(t, err)
	_, err = s.Goals.Log(ctx, models.GoalInput{GoalName: ptr("marathon"), UserID: ptr(userID)})
	require.NoError(t, err)
	_, err = s.SocialPosts.Log(ctx, models.SocialPostInput{PostText: ptr("hello"), AuthorID: ptr(userID)})
	require.NoError(t, err)
}

// faultStore fails DeleteMany for the configured collections.
type faultStore struct {
	storage.Store

	mu      sync.Mutex
	failing map[string]bool
}

func (f *faultStore) fail(collections ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = map[string]bool{}
	for _, c := range collections {
		f.failing[c] = true
	}
}

func (f *faultStore) DeleteMany(ctx context.Context, collection, field, value string) (int, error) {
	f.mu.Lock()
	failing := f.failing[collection]
	f.mu.Unlock()
	if failing {
		return 0, fmt.Errorf("delete many %s: %w", collection, errInjected)
	}
	return f.Store.DeleteMany(ctx, collection, field, value)
}

var errInjected = errors.New("injected failure")
