package dto

// OpenSessionRequestDTO yeni chunked upload session isteği
type OpenSessionRequestDTO struct {
	CallerID  string `json:"caller_id"`
	Filename  string `json:"filename"`
	TotalSize int64  `json:"total_size"`
}

type OpenSessionResponse struct {
	SessionID   string `json:"session_id"`
	ChunkSize   int64  `json:"chunk_size"`
	TotalChunks int    `json:"total_chunks"`
	ExpiresAt   string `json:"expires_at"`
}

type UploadChunkResponse struct {
	SessionID       string `json:"session_id"`
	ChunkIndex      int    `json:"chunk_index"`
	ETag            string `json:"etag"`
	AlreadyUploaded bool   `json:"already_uploaded"`
	Progress        int    `json:"progress"`
}

type CompleteUploadResponse struct {
	StorageKey  string `json:"storage_key"`
	ContentHash string `json:"content_hash"`
	Size        int64  `json:"size"`
	IsDuplicate bool   `json:"is_duplicate"`
}

type UploadStatusResponse struct {
	SessionID      string `json:"session_id"`
	Filename       string `json:"filename"`
	TotalChunks    int    `json:"total_chunks"`
	UploadedChunks int    `json:"uploaded_chunks"`
	Progress       int    `json:"progress"`
	ExpiresAt      string `json:"expires_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
