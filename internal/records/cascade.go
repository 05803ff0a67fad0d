// ABOUTME: Cascading user deletion across dependent collections.
// ABOUTME: Pending cascades are journaled so an interrupted one can be replayed by Reconcile.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/oklog/ulid/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// JournalCollection holds one entry per cascade that has not completed.
const JournalCollection = "_cascades"

type journalEntry struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReconcileSummary reports the outcome of Reconcile.
type ReconcileSummary struct {
	Completed int
	Pending   int
	// Dropped counts entries whose user identifier was registered again.
	Dropped int
}

// DeleteUser removes a user and every record that references it. The
// dependent deletes run concurrently and are not cancelled with ctx; a
// failure in one collection does not stop the others. When any fails the
// user is still gone and a *CascadeError lists what remains.
func (s *Services) DeleteUser(ctx context.Context, userID string) (models.User, error) {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	entry, err := s.openJournal(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if _, err := s.Users.Delete(ctx, userID); err != nil {
		s.closeJournal(ctx, entry)
		return models.User{}, err
	}

	if err := s.cascade(context.WithoutCancel(ctx), userID); err != nil {
		s.log.Error("cascade delete incomplete",
			zap.String("user_id", userID),
			zap.String("journal_id", entry.ID),
			zap.Error(err))
		return user, err
	}

	s.closeJournal(ctx, entry)
	return user, nil
}

// cascade clears the dependent collections of userID.
func (s *Services) cascade(ctx context.Context, userID string) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures = map[string]error{}
		combined error
	)

	for _, kind := range models.DependentKinds {
		wg.Add(1)
		go func(kind models.Kind) {
			defer wg.Done()
			n, err := s.store.DeleteMany(ctx, kind.Collection, kind.OwnerField, userID)
			if err != nil {
				err = fmt.Errorf("%s: %w", kind.Collection, err)
				mu.Lock()
				failures[kind.Collection] = err
				combined = multierr.Append(combined, err)
				mu.Unlock()
				return
			}
			s.log.Debug("cascade cleared collection",
				zap.String("user_id", userID),
				zap.String("collection", kind.Collection),
				zap.Int("deleted", n))
		}(kind)
	}
	wg.Wait()

	if len(failures) > 0 {
		return &CascadeError{UserID: userID, Failures: failures, Err: combined}
	}
	return nil
}

func (s *Services) openJournal(ctx context.Context, userID string) (journalEntry, error) {
	entry := journalEntry{ID: ulid.Make().String(), UserID: userID, CreatedAt: time.Now().UTC()}
	data, err := json.Marshal(entry)
	if err != nil {
		return journalEntry{}, fmt.Errorf("encode journal entry: %w", err)
	}
	err = s.store.Update(ctx, JournalCollection, func(tx storage.Tx) error {
		return tx.Insert(entry.ID, data)
	})
	if err != nil {
		return journalEntry{}, &StorageError{Op: "journal cascade", Err: err}
	}
	return entry, nil
}

func (s *Services) closeJournal(ctx context.Context, entry journalEntry) {
	_, err := s.store.Delete(context.WithoutCancel(ctx), JournalCollection, entry.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn("could not remove cascade journal entry",
			zap.String("journal_id", entry.ID), zap.Error(err))
	}
}

// Reconcile replays every journaled cascade. Entries that complete are
// removed; failures stay journaled and are returned combined.
func (s *Services) Reconcile(ctx context.Context) (ReconcileSummary, error) {
	var summary ReconcileSummary

	docs, err := s.store.List(ctx, JournalCollection)
	if err != nil {
		return summary, &StorageError{Op: "list cascade journal", Err: err}
	}

	var errs error
	for _, doc := range docs {
		var entry journalEntry
		if err := json.Unmarshal(doc.Data, &entry); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("decode journal entry %s: %w", doc.ID, err))
			summary.Pending++
			continue
		}

		// An identifier can be handed out again once its user is gone;
		// the new owner's records must survive.
		_, err := s.store.Get(ctx, models.KindUser.Collection, entry.UserID)
		if err == nil {
			s.log.Warn("user exists again, dropping cascade",
				zap.String("user_id", entry.UserID), zap.String("journal_id", entry.ID))
			s.closeJournal(ctx, entry)
			summary.Dropped++
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			errs = multierr.Append(errs, fmt.Errorf("check user %s: %w", entry.UserID, err))
			summary.Pending++
			continue
		}

		if err := s.cascade(ctx, entry.UserID); err != nil {
			errs = multierr.Append(errs, err)
			summary.Pending++
			continue
		}
		s.closeJournal(ctx, entry)
		summary.Completed++
		s.log.Info("cascade reconciled", zap.String("user_id", entry.UserID))
	}
	return summary, errs
}

// PendingCascades returns the number of journaled cascades awaiting Reconcile.
func (s *Services) PendingCascades(ctx context.Context) (int, error) {
	docs, err := s.store.List(ctx, JournalCollection)
	if err != nil {
		return 0, &StorageError{Op: "list cascade journal", Err: err}
	}
	return len(docs), nil
}
