// ABOUTME: Generic record service shared by every record kind.
// ABOUTME: Composes validation, sequential ID allocation, and the document store.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/fitlog/internal/idgen"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
	"go.uber.org/zap"
)

// Logged is the result of a successful Log.
type Logged[T models.Record] struct {
	Record T
	// LastID is the identifier that sorted last before this record was allocated.
	LastID string
}

// Service implements log, list, get, delete, and scoped reads for one kind.
type Service[T models.Record, I models.Input[T]] struct {
	kind  models.Kind
	label label
	store storage.Store
	log   *zap.Logger
	now   func() time.Time
	// check runs against the built record before allocation.
	check func(ctx context.Context, rec T) error
}

// NewService creates a service for kind over store.
func NewService[T models.Record, I models.Input[T]](kind models.Kind, store storage.Store, log *zap.Logger) *Service[T, I] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service[T, I]{
		kind:  kind,
		label: labelFor(kind),
		store: store,
		log:   log.With(zap.String("kind", kind.Name)),
		now:   time.Now,
	}
}

// Kind returns the record kind served.
func (s *Service[T, I]) Kind() models.Kind { return s.kind }

// Log validates in, allocates the next identifier, and stores the record.
func (s *Service[T, I]) Log(ctx context.Context, in I) (Logged[T], error) {
	if err := in.Validate(); err != nil {
		var fields models.FieldErrors
		if errors.As(err, &fields) {
			return Logged[T]{}, &ValidationError{Fields: fields}
		}
		return Logged[T]{}, err
	}

	if s.check != nil {
		if err := s.check(ctx, in.Build("", s.now())); err != nil {
			return Logged[T]{}, err
		}
	}

	out, err := s.insert(ctx, in)
	if errors.Is(err, storage.ErrDuplicateKey) {
		// Mongo has no transaction around allocate+insert; a concurrent
		// writer may have taken the identifier.
		s.log.Warn("identifier taken during allocation, retrying", zap.Error(err))
		out, err = s.insert(ctx, in)
	}
	if err != nil {
		return Logged[T]{}, &StorageError{Op: "log " + s.kind.Name, Err: err}
	}

	s.log.Debug("record logged", zap.String("id", out.Record.RecordID()))
	return out, nil
}

func (s *Service[T, I]) insert(ctx context.Context, in I) (Logged[T], error) {
	var out Logged[T]
	err := s.store.Update(ctx, s.kind.Collection, func(tx storage.Tx) error {
		alloc, err := idgen.Allocate(tx, s.kind.Prefix)
		if err != nil {
			return err
		}
		rec := in.Build(alloc.ID, s.now())
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode %s: %w", alloc.ID, err)
		}
		if err := tx.Insert(alloc.ID, data); err != nil {
			return err
		}
		out = Logged[T]{Record: rec, LastID: alloc.Last}
		return nil
	})
	return out, err
}

// List returns every record of the kind. The result is never nil.
func (s *Service[T, I]) List(ctx context.Context) ([]T, error) {
	docs, err := s.store.List(ctx, s.kind.Collection)
	if err != nil {
		return nil, &StorageError{Op: "list " + s.kind.Name, Err: err}
	}
	return s.decodeAll(docs)
}

// Get returns one record by identifier.
func (s *Service[T, I]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	doc, err := s.store.Get(ctx, s.kind.Collection, id)
	if errors.Is(err, storage.ErrNotFound) {
		return zero, s.notFound()
	}
	if err != nil {
		return zero, &StorageError{Op: "get " + s.kind.Name, Err: err}
	}
	return s.decode(doc)
}

// Delete removes one record and returns what it held.
func (s *Service[T, I]) Delete(ctx context.Context, id string) (T, error) {
	var zero T
	doc, err := s.store.Delete(ctx, s.kind.Collection, id)
	if errors.Is(err, storage.ErrNotFound) {
		return zero, s.notFound()
	}
	if err != nil {
		return zero, &StorageError{Op: "delete " + s.kind.Name, Err: err}
	}
	return s.decode(doc)
}

// ListByOwner returns the records referencing ownerID. Kinds keyed by
// userId first confirm the user exists; social posts skip that check and
// report not-found only when the author has no posts.
func (s *Service[T, I]) ListByOwner(ctx context.Context, ownerID string) ([]T, error) {
	if s.kind.OwnerField == "" {
		return nil, fmt.Errorf("%s records have no owner", s.kind.Name)
	}

	if s.kind.CheckOwner {
		_, err := s.store.Get(ctx, models.KindUser.Collection, ownerID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Message: labelFor(models.KindUser).notFound()}
		}
		if err != nil {
			return nil, &StorageError{Op: "get user", Err: err}
		}
	}

	docs, err := s.store.Find(ctx, s.kind.Collection, s.kind.OwnerField, ownerID)
	if err != nil {
		return nil, &StorageError{Op: "list " + s.kind.Name + " by owner", Err: err}
	}
	recs, err := s.decodeAll(docs)
	if err != nil {
		return nil, err
	}
	if !s.kind.CheckOwner && len(recs) == 0 {
		return nil, &NotFoundError{Message: "No " + s.label.plural + " found for the user"}
	}
	return recs, nil
}

// Count returns the number of stored records.
func (s *Service[T, I]) Count(ctx context.Context) (int, error) {
	docs, err := s.store.List(ctx, s.kind.Collection)
	if err != nil {
		return 0, &StorageError{Op: "count " + s.kind.Name, Err: err}
	}
	return len(docs), nil
}

func (s *Service[T, I]) notFound() error {
	return &NotFoundError{Message: s.label.notFound()}
}

func (s *Service[T, I]) decode(doc storage.Document) (T, error) {
	var rec T
	if err := json.Unmarshal(doc.Data, &rec); err != nil {
		return rec, &StorageError{Op: "decode " + doc.ID, Err: err}
	}
	return rec, nil
}

func (s *Service[T, I]) decodeAll(docs []storage.Document) ([]T, error) {
	recs := make([]T, 0, len(docs))
	for _, doc := range docs {
		rec, err := s.decode(doc)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// label is how a kind is named in user-facing messages.
type label struct {
	singular string
	plural   string
}

func (l label) notFound() string { return l.singular + " not found" }

var labels = map[string]label{
	models.KindUser.Name:        {"User", "users"},
	models.KindWorkout.Name:     {"Workout", "workouts"},
	models.KindNutrition.Name:   {"Nutrition entry", "nutrition entries"},
	models.KindAchievement.Name: {"Achievement entry", "achievements"},
	models.KindMetric.Name:      {"Metric entry", "metrics"},
	models.KindGoal.Name:        {"Goal", "goals"},
	models.KindSocialPost.Name:  {"Social post", "social posts"},
}

func labelFor(k models.Kind) label {
	if l, ok := labels[k.Name]; ok {
		return l
	}
	return label{singular: k.Name, plural: k.Name + "s"}
}
