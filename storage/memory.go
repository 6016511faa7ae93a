package storage

import (
	"context"
	"sync"
)

// MemorySessionStore держит сессии в памяти процесса; после перезапуска они теряются
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]string
}

// NewMemorySessionStore создаёт пустое хранилище в памяти
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[int64]string),
	}
}

// GetLanguage implements SessionStore.
func (s *MemorySessionStore) GetLanguage(ctx context.Context, userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sessions[userID], nil
}

// SetLanguage implements SessionStore.
func (s *MemorySessionStore) SetLanguage(ctx context.Context, userID int64, lang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = lang
	return nil
}

// Len — количество известных сессий
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Close implements SessionStore.
func (s *MemorySessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[int64]string)
	return nil
}
