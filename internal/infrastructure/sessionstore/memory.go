package sessionstore

import (
	"fmt"
	"sync"
	"time"

	"media-ingest/internal/domain/entities"
)

// MemoryStore id -> session haritası. Session içi mutasyonlar session'ın
// kendi kilidiyle korunur; burası sadece haritayı korur.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entities.UploadSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*entities.UploadSession)}
}

func (m *MemoryStore) Create(s *entities.UploadSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.ID]; exists {
		return fmt.Errorf("session zaten var: %s", s.ID)
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Get(id string) (*entities.UploadSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session bulunamadı: %s", id)
	}
	return s, nil
}

func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) ExpiredBefore(t time.Time) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0)
	for id, s := range m.sessions {
		if t.After(s.ExpiresAt) {
			ids = append(ids, id)
		}
	}
	return ids
}
