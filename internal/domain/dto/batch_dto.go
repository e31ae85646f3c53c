package dto

// SubmitBatchResponse batch kabul edildiğinde dönen özet; sonuçlar için
// batch status endpoint'i pollanır.
type SubmitBatchResponse struct {
	BatchID     string          `json:"batch_id"`
	Concurrency int             `json:"concurrency"`
	Files       []BatchFileInfo `json:"files"`
}

type BatchFileInfo struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	State    string `json:"state"`
	Priority string `json:"priority"`
}

type BatchStatusResponse struct {
	BatchID      string            `json:"batch_id"`
	SuccessCount int               `json:"success_count"`
	FailureCount int               `json:"failure_count"`
	Files        []BatchFileStatus `json:"files"`
}

type BatchFileStatus struct {
	FileID        string `json:"file_id"`
	Filename      string `json:"filename"`
	State         string `json:"state"`
	Progress      int    `json:"progress"`
	RetryCount    int    `json:"retry_count"`
	StorageKey    string `json:"storage_key,omitempty"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	TranscodePath string `json:"transcode_path,omitempty"`
	IsDuplicate   bool   `json:"is_duplicate"`
	LastError     string `json:"last_error,omitempty"`
}

type FileActionResponse struct {
	FileID string `json:"file_id"`
	Status string `json:"status"`
}
