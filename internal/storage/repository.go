// ABOUTME: Store interface for keyed document collections.
// ABOUTME: Defines the primitives every backend provides and the shared error sentinels.
package storage

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound is returned when no document has the requested identifier.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey is returned when inserting an identifier that already exists.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Document is a stored record: its identifier and JSON body.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Tx is a view on one collection used while allocating and inserting a document.
// Backends run every call made through a Tx as one unit where they can.
type Tx interface {
	// Last returns the identifier that sorts last in byte-wise descending order.
	Last() (id string, ok bool, err error)
	// Exists reports whether a document with the identifier is present.
	Exists(id string) (bool, error)
	// Insert stores data under id, failing with ErrDuplicateKey if it is taken.
	Insert(id string, data []byte) error
}

// Store is a set of keyed document collections.
// This interface allows swapping implementations (e.g., for testing).
type Store interface {
	// Update runs fn against collection. Badger and SQLite make it atomic,
	// Charm serializes it in-process, and Mongo runs the calls directly.
	Update(ctx context.Context, collection string, fn func(tx Tx) error) error

	Get(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	// Find returns documents whose top-level string field equals value.
	Find(ctx context.Context, collection, field, value string) ([]Document, error)
	// Delete removes a document and returns its prior content.
	Delete(ctx context.Context, collection, id string) (Document, error)
	// DeleteMany removes every document whose field equals value.
	DeleteMany(ctx context.Context, collection, field, value string) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

// MatchField reports whether the JSON object in data has field set to the string value.
func MatchField(data []byte, field, value string) (bool, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, err
	}
	s, ok := doc[field].(string)
	return ok && s == value, nil
}

// collectionKey builds the key used by the KV backends.
func collectionKey(collection, id string) []byte {
	return []byte(collection + "/" + id)
}

// collectionPrefix is the key prefix shared by every document in a collection.
func collectionPrefix(collection string) []byte {
	return []byte(collection + "/")
}

// idFromKey extracts the document identifier from a KV key.
func idFromKey(key []byte, collection string) string {
	return string(key[len(collection)+1:])
}
