package entities

import (
	"sync"
	"time"
)

// Chunk, büyük bir upload'ın bağımsız yüklenen parçası. Uploaded işaretlendikten
// sonra immutable kabul edilir; sadece doğrulanmış re-send'de ETag düzeltilebilir.
type Chunk struct {
	Index    int    `json:"index"`
	Size     int64  `json:"size"`
	Uploaded bool   `json:"uploaded"`
	ETag     string `json:"etag,omitempty"` // chunk içeriğinin sha256'sı
}

// UploadSession resumable chunked upload'ı temsil eder.
// Invariant: uploaded chunk size'larının toplamı == UploadedSize
type UploadSession struct {
	ID           string    `json:"id"`
	CallerID     string    `json:"caller_id"`
	Filename     string    `json:"filename"`
	TotalSize    int64     `json:"total_size"`
	ChunkSize    int64     `json:"chunk_size"`
	UploadedSize int64     `json:"uploaded_size"`
	Chunks       []Chunk   `json:"chunks"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at"`

	mu sync.Mutex
}

// Lock/Unlock: chunk kabulü ile finalize arasındaki yarışları session'ın
// kendi kilidi çözer; store sadece id -> session haritasını korur.
func (s *UploadSession) Lock()   { s.mu.Lock() }
func (s *UploadSession) Unlock() { s.mu.Unlock() }

// Expired, verilen ana göre session'ın süresinin dolup dolmadığını söyler.
func (s *UploadSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Touch son aktiviteyi günceller ve expiry penceresini kaydırır (sliding).
func (s *UploadSession) Touch(now time.Time, window time.Duration) {
	s.LastActivity = now
	s.ExpiresAt = now.Add(window)
}

// ChunkCount, TotalSize ve ChunkSize'dan beklenen chunk sayısını hesaplar.
func (s *UploadSession) ChunkCount() int {
	if s.ChunkSize <= 0 {
		return 0
	}
	n := s.TotalSize / s.ChunkSize
	if s.TotalSize%s.ChunkSize != 0 {
		n++
	}
	return int(n)
}

// ExpectedChunkSize verilen index için layout'a göre olması gereken boyut.
// Son chunk kısa kalabilir.
func (s *UploadSession) ExpectedChunkSize(index int) int64 {
	last := s.ChunkCount() - 1
	if index < last {
		return s.ChunkSize
	}
	rem := s.TotalSize - int64(last)*s.ChunkSize
	return rem
}

// MissingChunks yüklenmemiş chunk indexlerini döner.
func (s *UploadSession) MissingChunks() []int {
	missing := make([]int, 0)
	for i := range s.Chunks {
		if !s.Chunks[i].Uploaded {
			missing = append(missing, i)
		}
	}
	return missing
}
