package handlers

import (
	"io"
	"log"
	"strconv"
	"time"

	"media-ingest/internal/domain/dto"
	"media-ingest/internal/usecases"
	uperr "media-ingest/pkg/errors"

	"github.com/gofiber/fiber/v2"
)

type UploadHandler struct {
	sessions usecases.SessionManager
}

func NewUploadHandler(sessions usecases.SessionManager) *UploadHandler {
	return &UploadHandler{
		sessions: sessions,
	}
}

// OpenSession
//
// @Summary      Open Upload Session
// @Description  Creates a resumable chunked upload session for a file
// @Tags         Upload
// @Accept       json
// @Produce      json
// @Param        request  body      dto.OpenSessionRequestDTO true "Session request"
// @Success      200      {object}  dto.OpenSessionResponse
// @Failure      400      {object}  dto.ErrorResponse "Validation failed"
// @Router       /upload/session [post]
func (h *UploadHandler) OpenSession(c *fiber.Ctx) error {
	req := new(dto.OpenSessionRequestDTO)
	if err := c.BodyParser(req); err != nil {
		return c.Status(400).JSON(dto.ErrorResponse{Error: "invalid_body", Message: "İstek gövdesi çözümlenemedi"})
	}
	if req.Filename == "" || req.TotalSize <= 0 {
		return c.Status(400).JSON(dto.ErrorResponse{Error: "missing_parameter", Message: "filename ve total_size zorunlu"})
	}

	session, err := h.sessions.OpenSession(req.CallerID, req.Filename, req.TotalSize)
	if err != nil {
		return uperr.HandleError(c, err)
	}

	return c.JSON(dto.OpenSessionResponse{
		SessionID:   session.ID,
		ChunkSize:   session.ChunkSize,
		TotalChunks: len(session.Chunks),
		ExpiresAt:   session.ExpiresAt.Format(time.RFC3339),
	})
}

// UploadChunk
//
// @Summary      Upload Chunk
// @Description  Uploads a single chunk; re-sending an identical chunk is a no-op
// @Tags         Upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        session_id   formData  string true "Session ID"
// @Param        chunk_index  formData  string true "Chunk index"
// @Param        file         formData  file   true "Chunk bytes"
// @Success      200          {object}  dto.UploadChunkResponse
// @Failure      400          {object}  dto.ErrorResponse
// @Router       /upload/chunk [post]
func (h *UploadHandler) UploadChunk(c *fiber.Ctx) error {
	sessionID := c.FormValue("session_id")
	chunkIndex := c.FormValue("chunk_index")
	if sessionID == "" || chunkIndex == "" {
		return c.Status(400).JSON(dto.ErrorResponse{Error: "missing_parameter", Message: "session_id ve chunk_index zorunlu"})
	}
	index, err := strconv.Atoi(chunkIndex)
	if err != nil {
		return c.Status(400).JSON(dto.ErrorResponse{Error: "invalid_parameter", Message: "chunk_index sayı olmalı"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(dto.ErrorResponse{Error: "missing_file", Message: "Chunk dosyası bulunamadı"})
	}
	src, err := fileHeader.Open()
	if err != nil {
		return uperr.HandleError(c, uperr.ErrInternal(err))
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return uperr.HandleError(c, uperr.ErrInternal(err))
	}

	result, err := h.sessions.AcceptChunk(sessionID, index, data)
	if err != nil {
		return uperr.HandleError(c, err)
	}

	return c.JSON(dto.UploadChunkResponse{
		SessionID:       result.SessionID,
		ChunkIndex:      result.Index,
		ETag:            result.ETag,
		AlreadyUploaded: result.AlreadyUploaded,
		Progress:        result.Progress,
	})
}

// CompleteUpload
//
// @Summary      Complete Upload
// @Description  Assembles the chunks and moves the content into storage
// @Tags         Upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        session_id  formData  string true "Session ID"
// @Success      200         {object}  dto.CompleteUploadResponse
// @Failure      409         {object}  dto.ErrorResponse "Missing chunks"
// @Router       /upload/complete [post]
func (h *UploadHandler) CompleteUpload(c *fiber.Ctx) error {
	sessionID := c.FormValue("session_id")
	if sessionID == "" {
		return c.Status(400).JSON(dto.ErrorResponse{Error: "missing_parameter", Message: "session_id zorunlu"})
	}

	result, err := h.sessions.Finalize(c.Context(), sessionID)
	if err != nil {
		return uperr.HandleError(c, err)
	}
	log.Printf("Upload tamamlandı: %s -> %s", sessionID, result.StorageKey)

	return c.JSON(dto.CompleteUploadResponse{
		StorageKey:  result.StorageKey,
		ContentHash: result.ContentHash,
		Size:        result.Size,
		IsDuplicate: result.IsDuplicate,
	})
}

// CancelUpload
//
// @Summary      Cancel Upload
// @Description  Discards the session and its uploaded chunks
// @Tags         Upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        session_id  formData  string true "Session ID"
// @Success      200         {object}  map[string]string
// @Router       /upload/cancel [post]
func (h *UploadHandler) CancelUpload(c *fiber.Ctx) error {
	sessionID := c.FormValue("session_id")
	if sessionID == "" {
		return c.Status(400).JSON(dto.ErrorResponse{Error: "missing_parameter", Message: "session_id zorunlu"})
	}
	if err := h.sessions.Cancel(sessionID); err != nil {
		return uperr.HandleError(c, err)
	}
	return c.JSON(fiber.Map{"status": "cancelled"})
}

// UploadStatus
//
// @Summary      Get Upload Status
// @Description  Returns uploaded chunk count for resuming an interrupted upload
// @Tags         Upload
// @Produce      json
// @Param        session_id  query     string true "Session ID"
// @Success      200         {object}  dto.UploadStatusResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Router       /upload/status [get]
func (h *UploadHandler) UploadStatus(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(400).JSON(dto.ErrorResponse{Error: "missing_parameter", Message: "session_id zorunlu"})
	}

	status, err := h.sessions.Status(sessionID)
	if err != nil {
		return uperr.HandleError(c, err)
	}

	return c.JSON(dto.UploadStatusResponse{
		SessionID:      status.SessionID,
		Filename:       status.Filename,
		TotalChunks:    status.TotalChunks,
		UploadedChunks: status.UploadedChunks,
		Progress:       status.Progress,
		ExpiresAt:      status.ExpiresAt.Format(time.RFC3339),
	})
}
