package entities

import (
	"time"

	consts "media-ingest/pkg/constants"
)

// MediaKind batch dosyasının beyan edilen medya türü
type MediaKind string

const (
	KindImage    MediaKind = "image"
	KindVideo    MediaKind = "video"
	KindDocument MediaKind = "document"
	KindAudio    MediaKind = "audio"
)

// UploadFile bir batch içindeki tek dosya. Batch süresince sahibi
// orchestrator'dır; alan güncellemeleri orchestrator kilidi altında yapılır.
type UploadFile struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	Kind         MediaKind `json:"kind"`
	MimeType     string    `json:"mime_type"`
	SourcePath   string    `json:"-"` // staging alanındaki yerel kopya

	State      string `json:"state"`    // pending/uploading/paused/processing/completed/error/cancelled
	Priority   string `json:"priority"` // low/normal/high
	Progress   int    `json:"progress"` // 0-100
	RetryCount int    `json:"retry_count"`
	LastError  string `json:"last_error,omitempty"`

	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`

	ContentHash   string `json:"content_hash,omitempty"`
	StorageKey    string `json:"storage_key,omitempty"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	TranscodePath string `json:"transcode_path,omitempty"`
	IsDuplicate   bool   `json:"is_duplicate"`
}

// Terminal, dosyanın bir daha slot almayacağı state'te olup olmadığı.
// Error terminal değildir; manuel retry ile devam edebilir.
func (f *UploadFile) Terminal() bool {
	return f.State == consts.StateCompleted || f.State == consts.StateCancelled
}

// Settled, batch sonucuna sayılabilecek state'ler (worker elinde değil).
func (f *UploadFile) Settled() bool {
	return f.Terminal() || f.State == consts.StateError
}

// FileResult batch sonucunda dosya başına dönen özet.
type FileResult struct {
	FileID        string `json:"file_id"`
	Filename      string `json:"filename"`
	State         string `json:"state"`
	StorageKey    string `json:"storage_key,omitempty"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	TranscodePath string `json:"transcode_path,omitempty"`
	IsDuplicate   bool   `json:"is_duplicate"`
	Error         string `json:"error,omitempty"`
}

// BatchJob bir submit çağrısının tamamı.
// Invariant: terminal olduğunda SuccessCount + FailureCount == settle edilen
// dosya sayısı; cancelled dosyalar iki sayaca da girmez.
type BatchJob struct {
	ID          string        `json:"id"`
	Files       []*UploadFile `json:"files"`
	Concurrency int           `json:"concurrency"`
	Results     []FileResult  `json:"results,omitempty"`

	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// ProgressEvent orchestrator'ın yayınladığı gözlemlenebilirlik eventi.
// Teslimat best-effort'tur, worker asla bloklanmaz.
type ProgressEvent struct {
	BatchID   string    `json:"batch_id"`
	FileID    string    `json:"file_id"`
	Percent   int       `json:"percent"`
	Stage     string    `json:"stage"`
	Timestamp time.Time `json:"timestamp"`
}
