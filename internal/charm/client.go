// ABOUTME: Charm KV document store with automatic cloud sync.
// ABOUTME: Keys are "<collection>:<id>"; writes are serialized by an in-process mutex.
package charm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/fitlog/internal/storage"
)

const (
	dbName           = "fitlog"
	defaultCharmHost = "charm.2389.dev"
)

var errReadOnly = errors.New("cannot write: database is locked by another process (MCP server?)")

// Client stores fitlog collections in a Charm KV database.
type Client struct {
	kv       *kv.KV
	autoSync bool
	mu       sync.RWMutex
}

// Compile-time check that Client implements storage.Store.
var _ storage.Store = (*Client)(nil)

// Open opens the named KV database against host, falling back to
// read-only mode when another process holds the lock.
func Open(name, host string) (*Client, error) {
	if name == "" {
		name = dbName
	}
	if host == "" {
		host = defaultCharmHost
	}
	if os.Getenv("CHARM_HOST") == "" {
		if err := os.Setenv("CHARM_HOST", host); err != nil {
			return nil, err
		}
	}

	db, err := kv.OpenWithDefaultsFallback(name)
	if err != nil {
		return nil, fmt.Errorf("open charm kv: %w", err)
	}

	c := &Client{kv: db, autoSync: true}

	// Pull remote data on startup (skip in read-only mode)
	if !db.IsReadOnly() {
		_ = db.Sync()
	}
	return c, nil
}

// Close closes the KV database connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		return c.kv.Close()
	}
	return nil
}

// Ping reports whether the database accepts writes.
func (c *Client) Ping(_ context.Context) error {
	if c.kv.IsReadOnly() {
		return errReadOnly
	}
	return nil
}

// IsReadOnly returns true if the database is open in read-only mode.
func (c *Client) IsReadOnly() bool {
	return c.kv.IsReadOnly()
}

// Sync synchronizes local state with Charm Cloud.
func (c *Client) Sync() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.kv.IsReadOnly() {
		return nil
	}
	return c.kv.Sync()
}

// SetAutoSync enables or disables automatic sync after writes.
func (c *Client) SetAutoSync(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoSync = enabled
}

// ID returns the Charm user ID for the current account.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("create charm client: %w", err)
	}
	return cc.ID()
}

func (c *Client) syncIfEnabled() {
	if c.autoSync && !c.kv.IsReadOnly() {
		_ = c.kv.Sync()
	}
}

// Update runs fn while holding the write lock, then syncs.
func (c *Client) Update(_ context.Context, collection string, fn func(tx storage.Tx) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv.IsReadOnly() {
		return errReadOnly
	}
	if err := fn(&kvTx{c: c, collection: collection}); err != nil {
		return err
	}
	c.syncIfEnabled()
	return nil
}

// Get retrieves a document by identifier.
func (c *Client) Get(_ context.Context, collection, id string) (storage.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := c.get(recordKey(collection, id))
	if err != nil {
		return storage.Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return storage.Document{ID: id, Data: data}, nil
}

// List returns every document in the collection in key order.
func (c *Client) List(_ context.Context, collection string) ([]storage.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs, err := c.listByPrefix(collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

// Find returns documents whose field equals value.
func (c *Client) Find(_ context.Context, collection, field, value string) ([]storage.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.filter(collection, field, value)
}

// Delete removes a document and returns what it held.
func (c *Client) Delete(_ context.Context, collection, id string) (storage.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv.IsReadOnly() {
		return storage.Document{}, errReadOnly
	}

	key := recordKey(collection, id)
	data, err := c.get(key)
	if err != nil {
		return storage.Document{}, fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if err := c.kv.Delete(key); err != nil {
		return storage.Document{}, fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	c.syncIfEnabled()
	return storage.Document{ID: id, Data: data}, nil
}

// DeleteMany removes every document whose field equals value.
func (c *Client) DeleteMany(_ context.Context, collection, field, value string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv.IsReadOnly() {
		return 0, errReadOnly
	}

	docs, err := c.filter(collection, field, value)
	if err != nil {
		return 0, err
	}
	for _, doc := range docs {
		if err := c.kv.Delete(recordKey(collection, doc.ID)); err != nil {
			return 0, fmt.Errorf("delete many %s: %w", collection, err)
		}
	}
	if len(docs) > 0 {
		c.syncIfEnabled()
	}
	return len(docs), nil
}

// get reads a key, translating a missing key into storage.ErrNotFound.
func (c *Client) get(key []byte) ([]byte, error) {
	data, err := c.kv.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	return data, err
}

// collectionKeys returns the sorted keys that belong to a collection.
func (c *Client) collectionKeys(collection string) ([][]byte, error) {
	keys, err := c.kv.Keys()
	if err != nil {
		return nil, err
	}
	prefix := []byte(keyPrefix(collection))
	var matched [][]byte
	for _, key := range keys {
		if bytes.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return bytes.Compare(matched[i], matched[j]) < 0 })
	return matched, nil
}

// listByPrefix returns all documents with keys in the collection.
func (c *Client) listByPrefix(collection string) ([]storage.Document, error) {
	keys, err := c.collectionKeys(collection)
	if err != nil {
		return nil, err
	}
	docs := make([]storage.Document, 0, len(keys))
	for _, key := range keys {
		val, err := c.kv.Get(key)
		if err != nil {
			return nil, err
		}
		docs = append(docs, storage.Document{ID: extractID(string(key), collection), Data: val})
	}
	return docs, nil
}

func (c *Client) filter(collection, field, value string) ([]storage.Document, error) {
	all, err := c.listByPrefix(collection)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	docs := []storage.Document{}
	for _, doc := range all {
		ok, err := storage.MatchField(doc.Data, field, value)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, doc.ID, err)
		}
		if ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// kvTx implements storage.Tx while the client's write lock is held.
type kvTx struct {
	c          *Client
	collection string
}

func (t *kvTx) Last() (string, bool, error) {
	keys, err := t.c.collectionKeys(t.collection)
	if err != nil {
		return "", false, err
	}
	if len(keys) == 0 {
		return "", false, nil
	}
	return extractID(string(keys[len(keys)-1]), t.collection), true, nil
}

func (t *kvTx) Exists(id string) (bool, error) {
	_, err := t.c.get(recordKey(t.collection, id))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *kvTx) Insert(id string, data []byte) error {
	exists, err := t.Exists(id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("insert %s/%s: %w", t.collection, id, storage.ErrDuplicateKey)
	}
	return t.c.kv.Set(recordKey(t.collection, id), data)
}

func keyPrefix(collection string) string {
	return collection + ":"
}

func recordKey(collection, id string) []byte {
	return []byte(keyPrefix(collection) + id)
}

// extractID extracts the ID portion from a prefixed key.
func extractID(key, collection string) string {
	return strings.TrimPrefix(key, keyPrefix(collection))
}
