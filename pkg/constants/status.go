package constants

// Dosya state'leri (batch orchestrator state machine)
const (
	StatePending    = "pending"
	StateUploading  = "uploading"
	StatePaused     = "paused"
	StateProcessing = "processing"
	StateCompleted  = "completed"
	StateError      = "error"
	StateCancelled  = "cancelled"
)

// Genel response statusleri
const (
	StatusOK        = "ok"
	StatusQueued    = "queued"
	StatusFailed    = "failed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Pipeline aşamaları (progress eventleri için)
const (
	StageHashing     = "hashing"
	StageUploading   = "uploading"
	StageProcessing  = "processing"
	StageThumbnail   = "thumbnail"
	StageTranscoding = "transcoding"
	StageDone        = "done"
)

// Öncelik seviyeleri
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)
