// ABOUTME: Badger-backed document store, the default embedded backend.
// ABOUTME: Allocation and insert share one transaction and retry on write conflicts.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
)

const (
	// maxConflictRetries bounds how often Update re-runs a conflicting transaction.
	maxConflictRetries = 16
	conflictBackoff    = 2 * time.Millisecond
)

// BadgerStore keeps every collection in one Badger database, keyed "<collection>/<id>".
// Updates to one collection are serialized in-process; conflicts with other
// writers (imports, deletes) are retried with jittered backoff.
type BadgerStore struct {
	db    *badger.DB
	locks sync.Map // collection -> *sync.Mutex
}

// Compile-time check that BadgerStore implements Store.
var _ Store = (*BadgerStore)(nil)

// OpenBadger opens or creates a Badger database in dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// OpenBadgerInMemory opens a Badger database that lives only in memory.
func OpenBadgerInMemory() (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is still open.
func (s *BadgerStore) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

// Update runs fn in a read-write transaction while holding the collection's
// lock, retrying on conflict.
func (s *BadgerStore) Update(ctx context.Context, collection string, fn func(tx Tx) error) error {
	mu := s.collectionLock(collection)
	mu.Lock()
	defer mu.Unlock()

	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if attempt > 0 {
			wait := conflictBackoff*time.Duration(attempt) + rand.N(conflictBackoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			return fn(&badgerTx{txn: txn, collection: collection})
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("update %s: %w", collection, err)
}

func (s *BadgerStore) collectionLock(collection string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(collection, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Get retrieves a document by identifier.
func (s *BadgerStore) Get(_ context.Context, collection, id string) (Document, error) {
	var doc Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(collectionKey(collection, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		doc = Document{ID: id, Data: data}
		return nil
	})
	return doc, err
}

// List returns every document in the collection in key order.
func (s *BadgerStore) List(_ context.Context, collection string) ([]Document, error) {
	docs := []Document{}
	err := s.scan(collection, func(id string, data []byte) error {
		docs = append(docs, Document{ID: id, Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

// Find returns documents whose field equals value.
func (s *BadgerStore) Find(_ context.Context, collection, field, value string) ([]Document, error) {
	docs := []Document{}
	err := s.scan(collection, func(id string, data []byte) error {
		ok, err := MatchField(data, field, value)
		if err != nil {
			return fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		if ok {
			docs = append(docs, Document{ID: id, Data: data})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	return docs, nil
}

// Delete removes a document and returns what it held.
func (s *BadgerStore) Delete(_ context.Context, collection, id string) (Document, error) {
	var doc Document
	err := s.db.Update(func(txn *badger.Txn) error {
		key := collectionKey(collection, id)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete %s/%s: %w", collection, id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		doc = Document{ID: id, Data: data}
		return txn.Delete(key)
	})
	return doc, err
}

// DeleteMany removes every document whose field equals value.
// Matching keys are collected first and removed through a write batch so
// large collections never exceed a single transaction.
func (s *BadgerStore) DeleteMany(_ context.Context, collection, field, value string) (int, error) {
	var keys [][]byte
	err := s.scan(collection, func(id string, data []byte) error {
		ok, err := MatchField(data, field, value)
		if err != nil {
			return fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		if ok {
			keys = append(keys, collectionKey(collection, id))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete many %s: %w", collection, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("delete many %s: %w", collection, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("delete many %s: %w", collection, err)
	}
	return len(keys), nil
}

// scan calls fn for every document in the collection.
func (s *BadgerStore) scan(collection string, fn func(id string, data []byte) error) error {
	prefix := collectionPrefix(collection)
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(idFromKey(item.Key(), collection), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// badgerTx implements Tx over a read-write Badger transaction.
type badgerTx struct {
	txn        *badger.Txn
	collection string
}

func (t *badgerTx) Last() (string, bool, error) {
	prefix := collectionPrefix(t.collection)
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := t.txn.NewIterator(opts)
	defer it.Close()

	// Reverse seeks land on the greatest key <= the seek key.
	it.Seek(append(collectionPrefix(t.collection), 0xFF))
	if !it.ValidForPrefix(prefix) {
		return "", false, nil
	}
	return idFromKey(it.Item().KeyCopy(nil), t.collection), true, nil
}

func (t *badgerTx) Exists(id string) (bool, error) {
	_, err := t.txn.Get(collectionKey(t.collection, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *badgerTx) Insert(id string, data []byte) error {
	exists, err := t.Exists(id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("insert %s/%s: %w", t.collection, id, ErrDuplicateKey)
	}
	return t.txn.Set(collectionKey(t.collection, id), data)
}
