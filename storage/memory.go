// Package storage provides in-memory document storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store using in-memory maps.
// Data is lost when process terminates.
type MemoryStore struct {
	mu       sync.RWMutex
	order    []string
	docs     map[string]Document
	versions map[string][]Version
	chats    map[string][]Message
	now      func() time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]Document),
		versions: make(map[string][]Version),
		chats:    make(map[string][]Message),
		now:      time.Now,
	}
}

// CreateDocument stores a new document with its initial version.
func (s *MemoryStore) CreateDocument(ctx context.Context, title, content string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	doc := Document{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.docs[doc.ID] = doc
	s.order = append(s.order, doc.ID)
	s.versions[doc.ID] = []Version{{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Content:    content,
		CreatedAt:  now,
	}}
	s.chats[doc.ID] = []Message{}

	return doc, nil
}

// GetDocument returns a document by ID.
func (s *MemoryStore) GetDocument(ctx context.Context, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return doc, nil
}

// ListDocuments returns all documents in creation order.
func (s *MemoryStore) ListDocuments(ctx context.Context) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, len(s.order))
	for _, id := range s.order {
		docs = append(docs, s.docs[id])
	}
	return docs, nil
}

// UpdateDocument replaces the content and records a new version.
func (s *MemoryStore) UpdateDocument(ctx context.Context, id, content string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	now := s.now()
	doc.Content = content
	doc.UpdatedAt = now
	s.docs[id] = doc
	s.versions[id] = append(s.versions[id], Version{
		ID:         uuid.NewString(),
		DocumentID: id,
		Content:    content,
		CreatedAt:  now,
	})

	return doc, nil
}

// Versions returns a copy of the version list.
func (s *MemoryStore) Versions(ctx context.Context, id string) ([]Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.docs[id]; !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	// Return a copy to avoid external mutations
	versions := make([]Version, len(s.versions[id]))
	copy(versions, s.versions[id])
	return versions, nil
}

// AppendMessages adds chat messages under a single lock.
func (s *MemoryStore) AppendMessages(ctx context.Context, id string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	for _, msg := range msgs {
		if msg.Timestamp.IsZero() {
			msg.Timestamp = s.now()
		}
		s.chats[id] = append(s.chats[id], msg)
	}
	return nil
}

// History returns a copy of the chat history.
func (s *MemoryStore) History(ctx context.Context, id string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.docs[id]; !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	messages := make([]Message, len(s.chats[id]))
	copy(messages, s.chats[id])
	return messages, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// Verify MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
