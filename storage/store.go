// Package storage provides document, version and chat storage.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Each storage implementation encapsulates its own data structures and protocols
//
// The suggestion pipeline never reads the store itself; the HTTP layer takes
// a snapshot of a document and its chat history and hands it over.

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/richinex/scribe/model"
)

// ErrNotFound is returned for an unknown document ID.
var ErrNotFound = errors.New("document not found")

// Document is the current state of an edited text.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Version is an immutable snapshot taken on every create or update.
type Version struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Message is one chat turn about a document.
type Message struct {
	Role      model.Role `json:"role"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
}

// Entry converts a stored message to a conversation entry.
func (m Message) Entry() model.Entry {
	return model.Entry{Role: m.Role, Content: m.Content}
}

// Entries converts stored messages to conversation entries.
func Entries(messages []Message) []model.Entry {
	entries := make([]model.Entry, len(messages))
	for i, m := range messages {
		entries[i] = m.Entry()
	}
	return entries
}

// Store defines document persistence. All methods return ErrNotFound
// (possibly wrapped) for an unknown document ID. Slices returned are never
// nil and are owned by the caller.
type Store interface {
	// CreateDocument stores a new document, its first version and an empty
	// chat history.
	CreateDocument(ctx context.Context, title, content string) (Document, error)

	// GetDocument returns the current state of a document.
	GetDocument(ctx context.Context, id string) (Document, error)

	// ListDocuments returns all documents in creation order.
	ListDocuments(ctx context.Context) ([]Document, error)

	// UpdateDocument replaces the content and appends a version.
	UpdateDocument(ctx context.Context, id, content string) (Document, error)

	// Versions returns all versions of a document, oldest first.
	Versions(ctx context.Context, id string) ([]Version, error)

	// AppendMessages adds chat messages in order, all or none. A zero
	// Timestamp is set to now.
	AppendMessages(ctx context.Context, id string, msgs ...Message) error

	// History returns the chat messages of a document, oldest first.
	History(ctx context.Context, id string) ([]Message, error)

	// Close releases resources held by the store.
	Close() error
}
