package usecases

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"media-ingest/internal/domain/entities"
	"media-ingest/internal/domain/repositories"
	"media-ingest/internal/pkg/config"
	"media-ingest/internal/pkg/fileutils"
	uperr "media-ingest/pkg/errors"
)

type SessionManager interface {
	OpenSession(callerID, filename string, totalSize int64) (*entities.UploadSession, error)
	AcceptChunk(sessionID string, index int, data []byte) (*ChunkAcceptResult, error)
	Finalize(ctx context.Context, sessionID string) (*FinalizeResult, error)
	Cancel(sessionID string) error
	Status(sessionID string) (*SessionStatus, error)
	SweepExpired(now time.Time) int
}

type ChunkAcceptResult struct {
	SessionID       string `json:"session_id"`
	Index           int    `json:"index"`
	ETag            string `json:"etag"`
	AlreadyUploaded bool   `json:"already_uploaded"` // idempotent re-send
	UploadedSize    int64  `json:"uploaded_size"`
	Progress        int    `json:"progress"` // 0-100
}

type FinalizeResult struct {
	StorageKey  string `json:"storage_key"`
	ContentHash string `json:"content_hash"`
	Size        int64  `json:"size"`
	IsDuplicate bool   `json:"is_duplicate"`
	StagedPath  string `json:"-"` // downstream processing için yerel kopya
}

type SessionStatus struct {
	SessionID      string    `json:"session_id"`
	Filename       string    `json:"filename"`
	TotalChunks    int       `json:"total_chunks"`
	UploadedChunks int       `json:"uploaded_chunks"`
	UploadedSize   int64     `json:"uploaded_size"`
	Progress       int       `json:"progress"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type sessionManager struct {
	store   repositories.SessionStore
	content *ContentStore
	cfg     config.UploadConfig
}

func NewSessionManager(store repositories.SessionStore, content *ContentStore, cfg config.UploadConfig) SessionManager {
	return &sessionManager{
		store:   store,
		content: content,
		cfg:     cfg,
	}
}

// OpenSession ilk chunk isteğinde session yaratır. totalSize limiti ve
// dosya adı güvenlik kontrolleri iş başlamadan reddedilir.
func (m *sessionManager) OpenSession(callerID, filename string, totalSize int64) (*entities.UploadSession, error) {
	if err := fileutils.ValidateFilename(filename); err != nil {
		return nil, uperr.ErrUnsafeFilename(err)
	}
	if totalSize <= 0 {
		return nil, uperr.ErrFileTooLarge(fmt.Errorf("geçersiz boyut: %d", totalSize))
	}
	if totalSize > m.cfg.MaxFileSize {
		return nil, uperr.ErrFileTooLarge(fmt.Errorf("%d > limit %d", totalSize, m.cfg.MaxFileSize))
	}
	if err := m.checkMimeAllowed(filename); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &entities.UploadSession{
		ID:           "upload-" + uuid.NewString(),
		CallerID:     callerID,
		Filename:     filename,
		TotalSize:    totalSize,
		ChunkSize:    m.cfg.ChunkSize,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(m.cfg.SessionExpiry),
	}
	session.Chunks = make([]entities.Chunk, session.ChunkCount())
	for i := range session.Chunks {
		session.Chunks[i] = entities.Chunk{Index: i, Size: session.ExpectedChunkSize(i)}
	}

	if err := m.store.Create(session); err != nil {
		return nil, uperr.ErrInternal(err)
	}

	log.Printf("Session açıldı: %s (%s, %d byte, %d chunk)", session.ID, filename, totalSize, len(session.Chunks))
	return session, nil
}

func (m *sessionManager) checkMimeAllowed(filename string) error {
	if len(m.cfg.AllowedMimeTypes) == 0 {
		return nil
	}
	mime := fileutils.GetMimeTypeFromExtension(filename)
	for _, allowed := range m.cfg.AllowedMimeTypes {
		if mime == allowed {
			return nil
		}
	}
	return uperr.ErrDisallowedType(fmt.Errorf("mime type kabul edilmiyor: %s", mime))
}

// AcceptChunk idempotenttir: aynı chunk aynı içerikle tekrar gelirse no-op
// success (etag karşılaştırması), farklı içerikle gelirse integrity hatası.
// Her kabul edilen chunk expiry penceresini kaydırır (sliding).
func (m *sessionManager) AcceptChunk(sessionID string, index int, data []byte) (*ChunkAcceptResult, error) {
	session, err := m.store.Get(sessionID)
	if err != nil {
		return nil, uperr.ErrSessionNotFound(err)
	}

	session.Lock()
	defer session.Unlock()

	now := time.Now()
	if session.Expired(now) {
		// süresi dolmuş session sessizce devam ettirilmez
		return nil, uperr.ErrSessionExpired(fmt.Errorf("session %s, expiry %s", sessionID, session.ExpiresAt.Format(time.RFC3339)))
	}
	if index < 0 || index >= len(session.Chunks) {
		return nil, uperr.ErrInvalidChunk(fmt.Errorf("index %d, beklenen 0-%d", index, len(session.Chunks)-1))
	}

	chunk := &session.Chunks[index]
	if int64(len(data)) != chunk.Size {
		return nil, uperr.ErrChunkSizeMismatch(fmt.Errorf("chunk %d: %d byte geldi, layout %d bekliyor", index, len(data), chunk.Size))
	}

	etag := fileutils.HashBytes(data)

	if chunk.Uploaded {
		if chunk.ETag == etag {
			// idempotent re-send
			session.Touch(now, m.cfg.SessionExpiry)
			return m.acceptResult(session, chunk, true), nil
		}
		return nil, uperr.ErrChunkIntegrity(fmt.Errorf("chunk %d: etag %s != %s", index, etag, chunk.ETag))
	}

	if err := m.writeChunk(session, index, data); err != nil {
		return nil, uperr.ErrStorage(err)
	}

	chunk.Uploaded = true
	chunk.ETag = etag
	session.UploadedSize += chunk.Size
	session.Touch(now, m.cfg.SessionExpiry)

	return m.acceptResult(session, chunk, false), nil
}

func (m *sessionManager) acceptResult(s *entities.UploadSession, c *entities.Chunk, resend bool) *ChunkAcceptResult {
	progress := 0
	if s.TotalSize > 0 {
		progress = int(s.UploadedSize * 100 / s.TotalSize)
	}
	return &ChunkAcceptResult{
		SessionID:       s.ID,
		Index:           c.Index,
		ETag:            c.ETag,
		AlreadyUploaded: resend,
		UploadedSize:    s.UploadedSize,
		Progress:        progress,
	}
}

// writeChunk önce geçici dosyaya yazar, sonra atomik rename; yarım yazılmış
// chunk asla uploaded görünmez.
func (m *sessionManager) writeChunk(session *entities.UploadSession, index int, data []byte) error {
	saveDir := filepath.Join(m.cfg.TempDir, session.ID)
	if err := os.MkdirAll(saveDir, os.ModePerm); err != nil {
		return fmt.Errorf("geçici klasör oluşturulamadı: %w", err)
	}

	finalPath := m.chunkPath(session, index)
	tmpPath := fmt.Sprintf("%s.tmp.%d", finalPath, time.Now().UnixNano())

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("chunk kaydedilemedi: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chunk yazılamadı: %w", err)
	}
	return nil
}

func (m *sessionManager) chunkPath(session *entities.UploadSession, index int) string {
	return filepath.Join(m.cfg.TempDir, session.ID, fmt.Sprintf("%s.part%d", session.Filename, index))
}

// Finalize eksik chunk varsa reddeder; chunkları staging dosyasında
// birleştirir, içeriği dedup üzerinden storage'a taşır ve session'ı yok eder.
func (m *sessionManager) Finalize(ctx context.Context, sessionID string) (*FinalizeResult, error) {
	session, err := m.store.Get(sessionID)
	if err != nil {
		return nil, uperr.ErrSessionNotFound(err)
	}

	session.Lock()
	defer session.Unlock()

	if session.Expired(time.Now()) {
		return nil, uperr.ErrSessionExpired(fmt.Errorf("session %s", sessionID))
	}
	if missing := session.MissingChunks(); len(missing) > 0 {
		return nil, uperr.ErrIncompleteUpload(fmt.Errorf("eksik chunk(lar): %v", missing))
	}

	stagedPath, err := m.assemble(session)
	if err != nil {
		return nil, err
	}

	stored, err := m.content.StoreFile(ctx, stagedPath, session.Filename, nil)
	if err != nil {
		return nil, err
	}

	// session ve temp chunklar finalize ile yok edilir
	if err := os.RemoveAll(filepath.Join(m.cfg.TempDir, session.ID)); err != nil {
		log.Printf("UYARI! Temp klasörü temizlenemedi: %v", err)
	}
	if err := m.store.Delete(session.ID); err != nil {
		log.Printf("UYARI! Session silinemedi: %v", err)
	}

	log.Printf("Session finalize edildi: %s -> %s (duplicate=%t)", session.ID, stored.Key, stored.Duplicate)
	return &FinalizeResult{
		StorageKey:  stored.Key,
		ContentHash: stored.Hash,
		Size:        stored.Size,
		IsDuplicate: stored.Duplicate,
		StagedPath:  stagedPath,
	}, nil
}

// assemble chunkları sırayla tek dosyada birleştirir.
func (m *sessionManager) assemble(session *entities.UploadSession) (string, error) {
	if err := os.MkdirAll(m.cfg.UploadsDir, os.ModePerm); err != nil {
		return "", uperr.ErrStorage(fmt.Errorf("uploads klasörü oluşturulamadı: %w", err))
	}

	finalPath := filepath.Join(m.cfg.UploadsDir, fmt.Sprintf("%s_%s", session.ID, session.Filename))
	outFile, err := os.Create(finalPath)
	if err != nil {
		return "", uperr.ErrStorage(fmt.Errorf("final dosya oluşturulamadı: %w", err))
	}
	defer outFile.Close()

	var written int64
	for i := range session.Chunks {
		partFile, err := os.Open(m.chunkPath(session, i))
		if err != nil {
			return "", uperr.ErrStorage(fmt.Errorf("chunk %d açılamadı: %w", i, err))
		}
		n, err := io.Copy(outFile, partFile)
		partFile.Close()
		if err != nil {
			return "", uperr.ErrStorage(fmt.Errorf("chunk %d kopyalanamadı: %w", i, err))
		}
		written += n
	}

	if written != session.TotalSize {
		return "", uperr.ErrIncompleteUpload(fmt.Errorf("birleşen boyut %d, beklenen %d", written, session.TotalSize))
	}
	return finalPath, nil
}

// Cancel session'ı ve temp chunklarını temizler.
func (m *sessionManager) Cancel(sessionID string) error {
	session, err := m.store.Get(sessionID)
	if err != nil {
		return uperr.ErrSessionNotFound(err)
	}

	session.Lock()
	defer session.Unlock()

	if err := os.RemoveAll(filepath.Join(m.cfg.TempDir, session.ID)); err != nil {
		return uperr.ErrCannotRemove(err)
	}
	return m.store.Delete(session.ID)
}

func (m *sessionManager) Status(sessionID string) (*SessionStatus, error) {
	session, err := m.store.Get(sessionID)
	if err != nil {
		return nil, uperr.ErrSessionNotFound(err)
	}

	session.Lock()
	defer session.Unlock()

	uploaded := 0
	for i := range session.Chunks {
		if session.Chunks[i].Uploaded {
			uploaded++
		}
	}
	progress := 0
	if session.TotalSize > 0 {
		progress = int(session.UploadedSize * 100 / session.TotalSize)
	}
	return &SessionStatus{
		SessionID:      session.ID,
		Filename:       session.Filename,
		TotalChunks:    len(session.Chunks),
		UploadedChunks: uploaded,
		UploadedSize:   session.UploadedSize,
		Progress:       progress,
		ExpiresAt:      session.ExpiresAt,
	}, nil
}

// SweepExpired janitor tarafından periyodik çağrılır; süresi dolan
// sessionların kaydını ve temp chunklarını kaldırır.
func (m *sessionManager) SweepExpired(now time.Time) int {
	removed := 0
	for _, id := range m.store.ExpiredBefore(now) {
		if err := os.RemoveAll(filepath.Join(m.cfg.TempDir, id)); err != nil {
			log.Printf("Expired session temp temizlenemedi %s: %v", id, err)
			continue
		}
		if err := m.store.Delete(id); err == nil {
			removed++
		}
	}
	if removed > 0 {
		log.Printf("%d expired session temizlendi", removed)
	}
	return removed
}
