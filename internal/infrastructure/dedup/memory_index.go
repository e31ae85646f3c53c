package dedup

import (
	"context"
	"sync"

	"media-ingest/internal/domain/repositories"
)

// MemoryIndex testler ve tek süreçli kurulum için in-memory hash index.
type MemoryIndex struct {
	mu   sync.RWMutex
	data map[string]repositories.DedupRecord
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{data: make(map[string]repositories.DedupRecord)}
}

func (m *MemoryIndex) Lookup(ctx context.Context, hash string) (repositories.DedupRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.data[hash]
	return rec, ok, nil
}

func (m *MemoryIndex) Register(ctx context.Context, hash, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// İlk yazan kazanır; yarışan ikinci Register no-op
	if _, exists := m.data[hash]; !exists {
		m.data[hash] = repositories.DedupRecord{Key: key}
	}
	return nil
}

func (m *MemoryIndex) AttachArtifacts(ctx context.Context, hash, thumbnailPath, transcodePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, exists := m.data[hash]
	if !exists {
		return nil
	}
	// Alan bazında ilk yazan kazanır; boş parametre alana dokunmaz
	if thumbnailPath != "" && rec.ThumbnailPath == "" {
		rec.ThumbnailPath = thumbnailPath
	}
	if transcodePath != "" && rec.TranscodePath == "" {
		rec.TranscodePath = transcodePath
	}
	m.data[hash] = rec
	return nil
}
