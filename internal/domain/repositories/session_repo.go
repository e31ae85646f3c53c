package repositories

import (
	"time"

	"media-ingest/internal/domain/entities"
)

// SessionStore session kayıtlarını tutar. Core in-memory implementasyonla
// doğru çalışır; kalıcılık gerekiyorsa dışarıdan farklı bir implementasyon
// takılır.
type SessionStore interface {
	Create(s *entities.UploadSession) error
	Get(id string) (*entities.UploadSession, error)
	Delete(id string) error
	// ExpiredBefore, expiry'si verilen anın gerisinde kalan sessionların
	// id'lerini döner (janitor için).
	ExpiredBefore(t time.Time) []string
}
