package errors

import (
	"errors"
	"fmt"
)

// Kind, hatanın hangi sınıfa ait olduğunu belirtir. Retry kararları ve
// HTTP status seçimi bu alana göre yapılır.
type Kind string

const (
	KindValidation Kind = "validation" // iş başlamadan reddedilir, retry edilmez
	KindSession    Kind = "session"    // yeni session açılarak kurtarılabilir
	KindTransient  Kind = "transient"  // retry executor ile tekrar denenir
	KindProcessing Kind = "processing" // otomatik retry edilmez
	KindResource   Kind = "resource"   // batch için fatal, yeni iş kabulü durur
	KindState      Kind = "state"      // kullanım hatası, anında surface edilir
)

type UploadError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// KindOf bilinmeyen hatalar için KindTransient döner; storage katmanından
// sarmalanmadan sızan hatalar network hatası kabul edilir.
func KindOf(err error) Kind {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindTransient
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func CodeOf(err error) string {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Code
	}
	return "internal_error"
}

var (
	// Validation
	ErrFileTooLarge = func(err error) *UploadError {
		return &UploadError{Kind: KindValidation, Code: "file_too_large", Message: "Dosya boyutu limiti aşıyor", Err: err}
	}
	ErrUnsafeFilename = func(err error) *UploadError {
		return &UploadError{Kind: KindValidation, Code: "unsafe_filename", Message: "Dosya adı güvenlik kontrolünden geçemedi", Err: err}
	}
	ErrDisallowedType = func(err error) *UploadError {
		return &UploadError{Kind: KindValidation, Code: "disallowed_type", Message: "Dosya tipi kabul edilmiyor", Err: err}
	}
	ErrInvalidOptions = func(err error) *UploadError {
		return &UploadError{Kind: KindValidation, Code: "invalid_options", Message: "Geçersiz işleme seçenekleri", Err: err}
	}

	// Session
	ErrSessionNotFound = func(err error) *UploadError {
		return &UploadError{Kind: KindSession, Code: "session_not_found", Message: "Upload session bulunamadı", Err: err}
	}
	ErrSessionExpired = func(err error) *UploadError {
		return &UploadError{Kind: KindSession, Code: "session_expired", Message: "Upload session süresi doldu", Err: err}
	}
	ErrChunkSizeMismatch = func(err error) *UploadError {
		return &UploadError{Kind: KindSession, Code: "chunk_size_mismatch", Message: "Chunk boyutu session layoutu ile uyuşmuyor", Err: err}
	}
	ErrChunkIntegrity = func(err error) *UploadError {
		return &UploadError{Kind: KindSession, Code: "chunk_integrity", Message: "Chunk içeriği daha önce yüklenenle uyuşmuyor", Err: err}
	}
	ErrIncompleteUpload = func(err error) *UploadError {
		return &UploadError{Kind: KindSession, Code: "incomplete_upload", Message: "Eksik chunk var, finalize edilemez", Err: err}
	}
	ErrInvalidChunk = func(err error) *UploadError {
		return &UploadError{Kind: KindSession, Code: "invalid_chunk", Message: "Geçersiz chunk index", Err: err}
	}

	// Transient
	ErrStorage = func(err error) *UploadError {
		return &UploadError{Kind: KindTransient, Code: "storage_error", Message: "Storage işlemi başarısız", Err: err}
	}

	// Processing
	ErrTranscodeFailed = func(err error) *UploadError {
		return &UploadError{Kind: KindProcessing, Code: "transcode_failed", Message: "Video dönüştürme başarısız, girdiyi kontrol edin", Err: err}
	}
	ErrThumbnailFailed = func(err error) *UploadError {
		return &UploadError{Kind: KindProcessing, Code: "thumbnail_failed", Message: "Thumbnail üretilemedi", Err: err}
	}
	ErrTranscodingTimeout = func(err error) *UploadError {
		return &UploadError{Kind: KindProcessing, Code: "transcoding_timeout", Message: "Video işleme zaman aşımına uğradı", Err: err}
	}

	// Resource
	ErrPipelineUnavailable = func(err error) *UploadError {
		return &UploadError{Kind: KindResource, Code: "pipeline_unavailable", Message: "Media engine erişilebilir değil", Err: err}
	}
	ErrInsufficientResources = func(err error) *UploadError {
		return &UploadError{Kind: KindResource, Code: "insufficient_resources", Message: "Yetersiz disk/bellek", Err: err}
	}

	// State
	ErrInvalidStateTransition = func(err error) *UploadError {
		return &UploadError{Kind: KindState, Code: "invalid_state_transition", Message: "Geçersiz state geçişi", Err: err}
	}
	ErrMaxRetriesExceeded = func(err error) *UploadError {
		return &UploadError{Kind: KindState, Code: "max_retries_exceeded", Message: "Retry limiti aşıldı", Err: err}
	}

	// Genel
	ErrNotFound = func(err error) *UploadError {
		return &UploadError{Kind: KindValidation, Code: "not_found", Message: "Kayıt bulunamadı", Err: err}
	}
	ErrInternal = func(err error) *UploadError {
		return &UploadError{Kind: KindTransient, Code: "internal_error", Message: "Sunucu hatası", Err: err}
	}
	ErrCannotStat = func(err error) *UploadError {
		return &UploadError{Kind: KindTransient, Code: "cannot_stat", Message: "Stat alınamadı", Err: err}
	}
	ErrCannotRemove = func(err error) *UploadError {
		return &UploadError{Kind: KindTransient, Code: "cannot_remove", Message: "Dosya kaldırılamadı", Err: err}
	}
)
