// Package storage provides SQLite document storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/richinex/scribe/model"
)

// SQLiteStore implements Store using SQLite.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSQLite(path string) (*SQLiteStore, error) {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	return newSQLiteStore(db)
}

// NewSQLiteInMemory creates an in-memory database (useful for testing).
func NewSQLiteInMemory() (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// every connection would get its own empty :memory: database
	db.SetMaxOpenConns(1)

	return newSQLiteStore(db)
}

func newSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS versions (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_versions_document
		ON versions(document_id, created_at);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_messages_document
		ON messages(document_id, id);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateDocument stores a new document with its initial version.
func (s *SQLiteStore) CreateDocument(ctx context.Context, title, content string) (Document, error) {
	now := s.now()
	doc := Document{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO documents (id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		doc.ID, doc.Title, doc.Content, now.UnixNano(), now.UnixNano())
	if err != nil {
		return Document{}, fmt.Errorf("failed to insert document: %w", err)
	}

	if err := insertVersion(ctx, tx, doc.ID, content, now); err != nil {
		return Document{}, err
	}

	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return doc, nil
}

func insertVersion(ctx context.Context, tx *sql.Tx, docID, content string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO versions (id, document_id, content, created_at) VALUES (?, ?, ?, ?)",
		uuid.NewString(), docID, content, at.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert version: %w", err)
	}
	return nil
}

// GetDocument returns a document by ID.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, content, created_at, updated_at FROM documents WHERE id = ?", id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var doc Document
	var created, updated int64
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &created, &updated); err != nil {
		return Document{}, err
	}
	doc.CreatedAt = time.Unix(0, created)
	doc.UpdatedAt = time.Unix(0, updated)
	return doc, nil
}

// ListDocuments returns all documents in creation order.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, content, created_at, updated_at FROM documents ORDER BY created_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateDocument replaces the content and records a new version.
func (s *SQLiteStore) UpdateDocument(ctx context.Context, id, content string) (Document, error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE documents SET content = ?, updated_at = ? WHERE id = ?",
		content, now.UnixNano(), id)
	if err != nil {
		return Document{}, fmt.Errorf("failed to update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Document{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	if err := insertVersion(ctx, tx, id, content, now); err != nil {
		return Document{}, err
	}

	doc, err := scanDocument(tx.QueryRowContext(ctx,
		"SELECT id, title, content, created_at, updated_at FROM documents WHERE id = ?", id))
	if err != nil {
		return Document{}, fmt.Errorf("failed to reload document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return doc, nil
}

func (s *SQLiteStore) exists(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check document: %w", err)
	}
	return nil
}

// Versions returns all versions of a document, oldest first.
func (s *SQLiteStore) Versions(ctx context.Context, id string) ([]Version, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, document_id, content, created_at FROM versions WHERE document_id = ? ORDER BY created_at, rowid",
		id)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer rows.Close()

	versions := []Version{}
	for rows.Next() {
		var v Version
		var created int64
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		v.CreatedAt = time.Unix(0, created)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// AppendMessages adds chat messages in one transaction.
func (s *SQLiteStore) AppendMessages(ctx context.Context, id string, msgs ...Message) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, msg := range msgs {
		if msg.Timestamp.IsZero() {
			msg.Timestamp = s.now()
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO messages (document_id, role, content, created_at) VALUES (?, ?, ?, ?)",
			id, string(msg.Role), msg.Content, msg.Timestamp.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// History returns the chat messages of a document, oldest first.
func (s *SQLiteStore) History(ctx context.Context, id string) ([]Message, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content, created_at FROM messages WHERE document_id = ? ORDER BY id",
		id)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var role string
		var m Message
		var created int64
		if err := rows.Scan(&role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = model.Role(role)
		m.Timestamp = time.Unix(0, created)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Verify SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
