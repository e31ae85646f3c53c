package routers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"

	"media-ingest/internal/delivery/http/handlers"
	"media-ingest/internal/usecases"
)

func SetupUploadRoutes(app *fiber.App, sessions usecases.SessionManager, cleanup usecases.CleanupService) {
	uploadHandler := handlers.NewUploadHandler(sessions)

	// Janitor: expired session sweep + sahipsiz temp/staging temizliği
	c := cron.New(cron.WithSeconds())
	c.AddFunc("0 */5 * * * *", func() {
		cleanup.SweepExpiredSessions()
	})
	c.AddFunc("0 0 * * * *", func() {
		if err := cleanup.CleanupOldTempFiles(24 * time.Hour); err != nil {
			log.Printf("Eski temp dosyaları temizlenirken hata: %v", err)
		}
		if err := cleanup.CleanupOldStagingFiles(24 * time.Hour); err != nil {
			log.Printf("Eski staging dosyaları temizlenirken hata: %v", err)
		}
	})
	c.Start()

	// Routes:
	api := app.Group("/api/v1")
	api.Post("/upload/session", uploadHandler.OpenSession)
	api.Post("/upload/chunk", uploadHandler.UploadChunk)
	api.Post("/upload/complete", uploadHandler.CompleteUpload)
	api.Post("/upload/cancel", uploadHandler.CancelUpload)
	api.Get("/upload/status", uploadHandler.UploadStatus)
}
