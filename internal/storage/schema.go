// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: One documents table keyed by collection and identifier, with owner indexes.
package storage

// initSchema creates or updates the database schema.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		doc TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_user
		ON documents(collection, json_extract(doc, '$.userId'));
	CREATE INDEX IF NOT EXISTS idx_documents_author
		ON documents(collection, json_extract(doc, '$.authorId'));
	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username
		ON documents(json_extract(doc, '$.username')) WHERE collection = 'Users';
	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email
		ON documents(json_extract(doc, '$.email')) WHERE collection = 'Users';
	`

	_, err := s.db.Exec(schema)
	return err
}
