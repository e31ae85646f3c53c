package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"media-ingest/internal/domain/dto"
	"media-ingest/internal/infrastructure/processor"
	"media-ingest/internal/usecases"
	uperr "media-ingest/pkg/errors"
)

type BatchHandler struct {
	orchestrator *usecases.Orchestrator
	pipeline     *processor.Pipeline
	stagingDir   string
}

func NewBatchHandler(orchestrator *usecases.Orchestrator, pipeline *processor.Pipeline, stagingDir string) *BatchHandler {
	return &BatchHandler{
		orchestrator: orchestrator,
		pipeline:     pipeline,
		stagingDir:   stagingDir,
	}
}

// SubmitBatch
//
// @Summary      Submit Batch
// @Description  Accepts multiple files and processes them with bounded concurrency
// @Tags         Batch
// @Accept       multipart/form-data
// @Produce      json
// @Param        files        formData  file   true  "Files to ingest"
// @Param        concurrency  formData  string false "Max parallel files"
// @Param        priority     formData  string false "low/normal/high"
// @Param        quality      formData  string false "Transcode quality: low/medium/high"
// @Success      202          {object}  dto.SubmitBatchResponse
// @Failure      400          {object}  dto.ErrorResponse
// @Failure      503          {object}  dto.ErrorResponse "Pipeline unavailable"
// @Router       /batch [post]
func (h *BatchHandler) SubmitBatch(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(400).JSON(dto.ErrorResponse{Error: "invalid_form", Message: "Multipart form çözümlenemedi"})
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return c.Status(400).JSON(dto.ErrorResponse{Error: "missing_file", Message: "En az bir dosya gerekli"})
	}

	concurrency := 0
	if v := c.FormValue("concurrency"); v != "" {
		concurrency, err = strconv.Atoi(v)
		if err != nil || concurrency < 0 {
			return c.Status(400).JSON(dto.ErrorResponse{Error: "invalid_parameter", Message: "concurrency pozitif sayı olmalı"})
		}
	}
	priority := c.FormValue("priority")

	// Dosyalar orchestrator'a verilmeden önce staging'e indirilir
	specs := make([]usecases.FileSpec, 0, len(headers))
	for _, fh := range headers {
		path, err := h.stage(fh)
		if err != nil {
			return uperr.HandleError(c, err)
		}
		specs = append(specs, usecases.FileSpec{
			Name:     fh.Filename,
			Path:     path,
			Size:     fh.Size,
			Priority: priority,
		})
	}

	job, err := h.orchestrator.SubmitBatch(specs, usecases.BatchOptions{
		Concurrency:      concurrency,
		TranscodeQuality: c.FormValue("quality"),
	})
	if err != nil {
		return uperr.HandleError(c, err)
	}

	resp := dto.SubmitBatchResponse{BatchID: job.ID, Concurrency: job.Concurrency}
	for _, f := range job.Files {
		resp.Files = append(resp.Files, dto.BatchFileInfo{
			FileID:   f.ID,
			Filename: f.OriginalName,
			State:    f.State,
			Priority: f.Priority,
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

func (h *BatchHandler) stage(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", uperr.ErrInternal(err)
	}
	defer src.Close()

	if err := os.MkdirAll(h.stagingDir, os.ModePerm); err != nil {
		return "", uperr.ErrStorage(err)
	}
	path := filepath.Join(h.stagingDir, fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(fh.Filename)))
	dst, err := os.Create(path)
	if err != nil {
		return "", uperr.ErrStorage(err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", uperr.ErrStorage(err)
	}
	return path, nil
}

// BatchStatus
//
// @Summary      Get Batch Status
// @Description  Returns per-file state and progress of a batch
// @Tags         Batch
// @Produce      json
// @Param        id   path      string true "Batch ID"
// @Success      200  {object}  dto.BatchStatusResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /batch/{id} [get]
func (h *BatchHandler) BatchStatus(c *fiber.Ctx) error {
	job, err := h.orchestrator.Batch(c.Params("id"))
	if err != nil {
		return uperr.HandleError(c, err)
	}

	resp := dto.BatchStatusResponse{
		BatchID:      job.ID,
		SuccessCount: job.SuccessCount,
		FailureCount: job.FailureCount,
	}
	for _, f := range job.Files {
		resp.Files = append(resp.Files, dto.BatchFileStatus{
			FileID:        f.ID,
			Filename:      f.OriginalName,
			State:         f.State,
			Progress:      f.Progress,
			RetryCount:    f.RetryCount,
			StorageKey:    f.StorageKey,
			ThumbnailPath: f.ThumbnailPath,
			TranscodePath: f.TranscodePath,
			IsDuplicate:   f.IsDuplicate,
			LastError:     f.LastError,
		})
	}
	return c.JSON(resp)
}

// PauseFile
//
// @Summary      Pause File
// @Tags         Batch
// @Produce      json
// @Param        id   path      string true "File ID"
// @Success      200  {object}  dto.FileActionResponse
// @Failure      409  {object}  dto.ErrorResponse "Invalid state"
// @Router       /batch/file/{id}/pause [post]
func (h *BatchHandler) PauseFile(c *fiber.Ctx) error {
	return h.fileAction(c, "paused", h.orchestrator.Pause)
}

// ResumeFile
//
// @Summary      Resume File
// @Tags         Batch
// @Produce      json
// @Param        id   path      string true "File ID"
// @Success      200  {object}  dto.FileActionResponse
// @Failure      409  {object}  dto.ErrorResponse "Invalid state"
// @Router       /batch/file/{id}/resume [post]
func (h *BatchHandler) ResumeFile(c *fiber.Ctx) error {
	return h.fileAction(c, "resumed", h.orchestrator.Resume)
}

// CancelFile
//
// @Summary      Cancel File
// @Tags         Batch
// @Produce      json
// @Param        id   path      string true "File ID"
// @Success      200  {object}  dto.FileActionResponse
// @Failure      409  {object}  dto.ErrorResponse "Invalid state"
// @Router       /batch/file/{id}/cancel [post]
func (h *BatchHandler) CancelFile(c *fiber.Ctx) error {
	return h.fileAction(c, "cancelled", h.orchestrator.Cancel)
}

// RetryFile
//
// @Summary      Retry File
// @Description  Re-admits a failed file; attempt counter carries over
// @Tags         Batch
// @Produce      json
// @Param        id   path      string true "File ID"
// @Success      200  {object}  dto.FileActionResponse
// @Failure      409  {object}  dto.ErrorResponse "Invalid state or retry limit"
// @Router       /batch/file/{id}/retry [post]
func (h *BatchHandler) RetryFile(c *fiber.Ctx) error {
	return h.fileAction(c, "retrying", h.orchestrator.Retry)
}

func (h *BatchHandler) fileAction(c *fiber.Ctx, status string, op func(string) error) error {
	fileID := c.Params("id")
	if err := op(fileID); err != nil {
		return uperr.HandleError(c, err)
	}
	return c.JSON(dto.FileActionResponse{FileID: fileID, Status: status})
}

// PipelineStats
//
// @Summary      Transcoding Stats
// @Description  Cumulative transcoding counters since process start or last reset
// @Tags         Pipeline
// @Produce      json
// @Success      200  {object}  entities.StatsSnapshot
// @Router       /pipeline/stats [get]
func (h *BatchHandler) PipelineStats(c *fiber.Ctx) error {
	return c.JSON(h.pipeline.Stats())
}

// ResetPipelineStats
//
// @Summary      Reset Transcoding Stats
// @Tags         Pipeline
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /pipeline/stats/reset [post]
func (h *BatchHandler) ResetPipelineStats(c *fiber.Ctx) error {
	h.pipeline.ResetStats()
	return c.JSON(fiber.Map{"status": "ok"})
}
