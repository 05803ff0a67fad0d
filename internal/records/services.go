// ABOUTME: Registry wiring one service per record kind over a shared store.
// ABOUTME: Also exposes a kind-agnostic view for the CLI and MCP resources.
package records

import (
	"context"
	"fmt"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
	"go.uber.org/zap"
)

// Services holds the record services and the cascade coordinator.
type Services struct {
	Users        *Service[models.User, models.UserInput]
	Workouts     *Service[models.Workout, models.WorkoutInput]
	Nutrition    *Service[models.Nutrition, models.NutritionInput]
	Achievements *Service[models.Achievement, models.AchievementInput]
	Metrics      *Service[models.Metric, models.MetricInput]
	Goals        *Service[models.Goal, models.GoalInput]
	SocialPosts  *Service[models.SocialPost, models.SocialPostInput]

	store storage.Store
	log   *zap.Logger
}

// New builds every service over store.
func New(store storage.Store, log *zap.Logger) *Services {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Services{
		Users:        NewService[models.User, models.UserInput](models.KindUser, store, log),
		Workouts:     NewService[models.Workout, models.WorkoutInput](models.KindWorkout, store, log),
		Nutrition:    NewService[models.Nutrition, models.NutritionInput](models.KindNutrition, store, log),
		Achievements: NewService[models.Achievement, models.AchievementInput](models.KindAchievement, store, log),
		Metrics:      NewService[models.Metric, models.MetricInput](models.KindMetric, store, log),
		Goals:        NewService[models.Goal, models.GoalInput](models.KindGoal, store, log),
		SocialPosts:  NewService[models.SocialPost, models.SocialPostInput](models.KindSocialPost, store, log),
		store:        store,
		log:          log,
	}
	s.Users.check = s.checkUserUnique
	return s
}

// Store returns the underlying store.
func (s *Services) Store() storage.Store { return s.store }

// checkUserUnique rejects a registration whose username or email is taken.
func (s *Services) checkUserUnique(ctx context.Context, u models.User) error {
	for _, f := range []struct{ field, value string }{
		{"username", u.Username},
		{"email", u.Email},
	} {
		docs, err := s.store.Find(ctx, models.KindUser.Collection, f.field, f.value)
		if err != nil {
			return &StorageError{Op: "check user " + f.field, Err: err}
		}
		if len(docs) > 0 {
			return &StorageError{
				Op:  "register user",
				Err: fmt.Errorf("%s %q already registered: %w", f.field, f.value, storage.ErrDuplicateKey),
			}
		}
	}
	return nil
}

// Collection is the kind-agnostic view of a record service.
type Collection interface {
	Kind() models.Kind
	ListRecords(ctx context.Context) ([]models.Record, error)
	GetRecord(ctx context.Context, id string) (models.Record, error)
	DeleteRecord(ctx context.Context, id string) (models.Record, error)
	ListOwnedRecords(ctx context.Context, ownerID string) ([]models.Record, error)
	Count(ctx context.Context) (int, error)
}

// ListRecords implements Collection.
func (s *Service[T, I]) ListRecords(ctx context.Context) ([]models.Record, error) {
	return asRecords(s.List(ctx))
}

// ListOwnedRecords implements Collection.
func (s *Service[T, I]) ListOwnedRecords(ctx context.Context, ownerID string) ([]models.Record, error) {
	return asRecords(s.ListByOwner(ctx, ownerID))
}

func asRecords[T models.Record](recs []T, err error) ([]models.Record, error) {
	if err != nil {
		return nil, err
	}
	out := make([]models.Record, len(recs))
	for i, r := range recs {
		out[i] = r
	}
	return out, nil
}

// GetRecord implements Collection.
func (s *Service[T, I]) GetRecord(ctx context.Context, id string) (models.Record, error) {
	return s.Get(ctx, id)
}

// DeleteRecord implements Collection.
func (s *Service[T, I]) DeleteRecord(ctx context.Context, id string) (models.Record, error) {
	return s.Delete(ctx, id)
}

// All returns every service in kind order, users first.
func (s *Services) All() []Collection {
	return []Collection{
		s.Users, s.Workouts, s.Nutrition, s.Achievements, s.Metrics, s.Goals, s.SocialPosts,
	}
}

// ByName resolves a kind name such as "workouts" or "social-post".
func (s *Services) ByName(name string) (Collection, bool) {
	kind, ok := models.KindByName(name)
	if !ok {
		return nil, false
	}
	for _, c := range s.All() {
		if c.Kind().Name == kind.Name {
			return c, true
		}
	}
	return nil, false
}

// Collections names every store collection fitlog writes, including the cascade journal.
func Collections() []string {
	names := make([]string, 0, len(models.AllKinds)+1)
	for _, k := range models.AllKinds {
		names = append(names, k.Collection)
	}
	return append(names, JournalCollection)
}
