package routers

import (
	"github.com/gofiber/fiber/v2"

	"media-ingest/internal/delivery/http/handlers"
	"media-ingest/internal/infrastructure/processor"
	"media-ingest/internal/usecases"
)

func SetupBatchRoutes(app *fiber.App, orchestrator *usecases.Orchestrator, pipeline *processor.Pipeline, stagingDir string) {
	batchHandler := handlers.NewBatchHandler(orchestrator, pipeline, stagingDir)

	api := app.Group("/api/v1")
	api.Post("/batch", batchHandler.SubmitBatch)
	api.Get("/batch/:id", batchHandler.BatchStatus)

	api.Post("/batch/file/:id/pause", batchHandler.PauseFile)
	api.Post("/batch/file/:id/resume", batchHandler.ResumeFile)
	api.Post("/batch/file/:id/cancel", batchHandler.CancelFile)
	api.Post("/batch/file/:id/retry", batchHandler.RetryFile)

	api.Get("/pipeline/stats", batchHandler.PipelineStats)
	api.Post("/pipeline/stats/reset", batchHandler.ResetPipelineStats)
}
