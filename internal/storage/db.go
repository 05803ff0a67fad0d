// ABOUTME: SQLite-backed document store and its connection lifecycle.
// ABOUTME: Uses modernc.org/sqlite (pure Go, no CGO required).
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps every collection in a single documents table.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		_ = db.Close()
		return nil, fmt.Errorf("set database permissions: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

// DataDir returns the default data directory following XDG spec.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "fitlog")
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// dsn attaches pragmas to the path so every pooled connection gets them.
func dsn(dbPath string) string {
	pragmas := []string{
		"journal_mode(WAL)",
		"busy_timeout(5000)",
		"synchronous(NORMAL)",
	}
	return "file:" + dbPath + "?_pragma=" + strings.Join(pragmas, "&_pragma=")
}

// Update runs fn inside BEGIN IMMEDIATE so concurrent writers serialize
// before they read the last identifier.
func (s *SQLiteStore) Update(ctx context.Context, collection string, fn func(tx Tx) error) (err error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		}
	}()

	if err = fn(&sqliteTx{ctx: ctx, conn: conn, collection: collection}); err != nil {
		return err
	}
	if _, err = conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get retrieves a document by identifier.
func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return Document{ID: id, Data: []byte(data)}, nil
}

// List returns every document in the collection in insertion order.
func (s *SQLiteStore) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc FROM documents WHERE collection = ? ORDER BY rowid`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return scanDocuments(rows)
}

// Find returns documents whose field equals value, using json_extract.
func (s *SQLiteStore) Find(ctx context.Context, collection, field, value string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc FROM documents
		 WHERE collection = ? AND json_extract(doc, ?) = ?
		 ORDER BY rowid`, collection, jsonPath(field), value)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	return scanDocuments(rows)
}

// Delete removes a document and returns what it held.
func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) (Document, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ? RETURNING doc`, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("delete %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return Document{ID: id, Data: []byte(data)}, nil
}

// DeleteMany removes every document whose field equals value.
func (s *SQLiteStore) DeleteMany(ctx context.Context, collection, field, value string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND json_extract(doc, ?) = ?`,
		collection, jsonPath(field), value)
	if err != nil {
		return 0, fmt.Errorf("delete many %s: %w", collection, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete many %s: %w", collection, err)
	}
	return int(n), nil
}

func jsonPath(field string) string {
	return "$." + field
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, Document{ID: id, Data: []byte(data)})
	}
	return docs, rows.Err()
}

// sqliteTx implements Tx over a connection holding an immediate transaction.
type sqliteTx struct {
	ctx        context.Context
	conn       *sql.Conn
	collection string
}

func (t *sqliteTx) Last() (string, bool, error) {
	var id string
	err := t.conn.QueryRowContext(t.ctx,
		`SELECT id FROM documents WHERE collection = ? ORDER BY id DESC LIMIT 1`, t.collection).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("last %s: %w", t.collection, err)
	}
	return id, true, nil
}

func (t *sqliteTx) Exists(id string) (bool, error) {
	var n int
	err := t.conn.QueryRowContext(t.ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ? AND id = ?`, t.collection, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("exists %s/%s: %w", t.collection, id, err)
	}
	return n > 0, nil
}

func (t *sqliteTx) Insert(id string, data []byte) error {
	_, err := t.conn.ExecContext(t.ctx,
		`INSERT INTO documents (collection, id, doc) VALUES (?, ?, ?)`, t.collection, id, string(data))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("insert %s/%s: %w", t.collection, id, ErrDuplicateKey)
		}
		return fmt.Errorf("insert %s/%s: %w", t.collection, id, err)
	}
	return nil
}
