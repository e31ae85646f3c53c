package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"media-ingest/internal/delivery/http/routers"
	"media-ingest/internal/domain/repositories"
	"media-ingest/internal/infrastructure/dedup"
	"media-ingest/internal/infrastructure/processor"
	"media-ingest/internal/infrastructure/sessionstore"
	"media-ingest/internal/infrastructure/storage"
	"media-ingest/internal/pkg/config"
	"media-ingest/internal/usecases"
	consts "media-ingest/pkg/constants"
	"media-ingest/pkg/errors/i18n"
	"media-ingest/pkg/retry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg := config.LoadConfig()

	// Hata mesajları için locale (tr/en)
	locale := os.Getenv("APP_LOCALE")
	if locale == "" {
		locale = "tr"
	}
	if err := i18n.Load(locale); err != nil {
		log.Printf("i18n yüklenemedi (%s), varsayılan mesajlar kullanılacak: %v", locale, err)
	}

	// Dedup index: Redis varsa kalıcı, yoksa in-memory
	var index repositories.DedupIndex
	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Redis bağlantısı başarısız: %v", err)
		}
		index = dedup.NewRedisIndex(rdb)
		log.Printf("Dedup index: redis (%s:%s)", cfg.Redis.Host, cfg.Redis.Port)
	} else {
		index = dedup.NewMemoryIndex()
		log.Println("Dedup index: in-memory (REDIS_HOST tanımlı değil)")
	}

	// Blob store: S3 bucket tanımlıysa S3, değilse local disk
	var blob repositories.BlobStore
	if cfg.S3.Bucket != "" {
		s3Store, err := storage.NewS3Storage(context.Background(), cfg.S3.Bucket, cfg.S3.Region)
		if err != nil {
			log.Fatalf("S3 storage oluşturulamadı: %v", err)
		}
		blob = s3Store
		log.Printf("Blob store: s3://%s (%s)", cfg.S3.Bucket, cfg.S3.Region)
	} else {
		blob = storage.NewLocalStorage(cfg.Upload.UploadsDir)
		log.Printf("Blob store: local (%s)", cfg.Upload.UploadsDir)
	}

	retryPolicy := retry.Policy{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay,
		MaxDelay:      cfg.Retry.MaxDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
	}

	pipeline, err := processor.NewPipeline(cfg.Transcoding, cfg.Thumbnail, retryPolicy)
	if err != nil {
		log.Fatalf("Media pipeline oluşturulamadı: %v", err)
	}
	if err := pipeline.Health(); err != nil {
		// Başlangıçta unhealthy olabilir; batch submit zaten reddeder
		log.Printf("UYARI! Pipeline health: %v", err)
	}

	// Services
	content := usecases.NewContentStore(dedup.NewEngine(index), blob, retryPolicy)
	sessions := usecases.NewSessionManager(sessionstore.NewMemoryStore(), content, cfg.Upload)
	orchestrator := usecases.NewOrchestrator(content, pipeline, cfg.Upload, cfg.Retry, cfg.Transcoding.WorkDir)
	cleanup := usecases.NewCleanupService(sessions, cfg.Upload.TempDir, cfg.Upload.UploadsDir)

	// Progress event drain: kanal dolarsa eventler düşer, bu yüzden sürekli okunur
	go func() {
		for ev := range orchestrator.Events() {
			log.Printf("progress batch=%s file=%s stage=%s %d%%", ev.BatchID, ev.FileID, ev.Stage, ev.Percent)
		}
	}()

	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.Upload.MaxFileSize),
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Routes
	routers.SetupUploadRoutes(app, sessions, cleanup)
	routers.SetupBatchRoutes(app, orchestrator, pipeline, cfg.Upload.TempDir)

	// Health check: ffmpeg/ffprobe ve workdir erişimi
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pipeline.Health(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": consts.StatusFailed,
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": consts.StatusOK})
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)

	// Graceful shutdown
	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Server başlatılamadı: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Print("Shutdown sinyali alındı, server kapatılıyor...")

	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctxShut); err != nil {
		log.Fatalf("Server düzgün kapatılamadı: %v", err)
	}
	log.Println("Server düzgün bir şekilde kapatıldı")
}
