package store

import (
	"context"
	"sync"
	"time"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/models"
)

// MemoryStore keeps chats for the lifetime of the process. Lookups are
// constant time; nothing survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	chats map[string]*models.ChatRecord
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats: make(map[string]*models.ChatRecord),
		now:   time.Now,
	}
}

// SaveChat stores a deep copy of the record.
func (s *MemoryStore) SaveChat(ctx context.Context, rec *models.ChatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[rec.Chat.ID] = rec.Clone()
	return nil
}

// LoadChat returns a copy of the record, refreshing its last-access time.
func (s *MemoryStore) LoadChat(ctx context.Context, id string) (*models.ChatRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.chats[id]
	if !ok {
		return nil, nil
	}
	rec.LastAccessTime = s.now()
	return rec.Clone(), nil
}

// ListChats returns summaries ordered by last activity descending.
func (s *MemoryStore) ListChats(ctx context.Context, opts ListOptions) ([]models.ChatSummary, error) {
	s.mu.RLock()
	records := make([]*models.ChatRecord, 0, len(s.chats))
	for _, rec := range s.chats {
		records = append(records, rec)
	}
	s.mu.RUnlock()
	return summarize(records, opts), nil
}

// DeleteChat removes the record; false when it was already absent.
func (s *MemoryStore) DeleteChat(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[id]; !ok {
		return false, nil
	}
	delete(s.chats, id)
	return true, nil
}

// CleanupExpired removes chats unread for longer than olderThan.
func (s *MemoryStore) CleanupExpired(ctx context.Context, olderThan time.Duration) (CleanupResult, error) {
	cutoff := s.now().Add(-olderThan)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result CleanupResult
	for id, rec := range s.chats {
		if rec.LastAccessTime.Before(cutoff) {
			delete(s.chats, id)
			result.Deleted++
		}
	}
	return result, nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
