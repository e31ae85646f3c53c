package main // toplu transcode worker'ı

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"media-ingest/internal/domain/entities"
	"media-ingest/internal/infrastructure/processor"
	"media-ingest/internal/pkg/config"
	"media-ingest/internal/pkg/fileutils"
	"media-ingest/pkg/retry"
)

// Klasördeki videoları server'dan bağımsız, bounded pool ile transcode eder.
// Backfill ve yeniden encode senaryoları için.
func main() {
	inputDir := flag.String("input", "", "transcode edilecek videoların klasörü")
	quality := flag.String("quality", "medium", "low/medium/high")
	flag.Parse()

	if *inputDir == "" {
		fmt.Fprintln(os.Stderr, "kullanım: worker -input <klasör> [-quality low|medium|high]")
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg := config.LoadConfig()

	pipeline, err := processor.NewPipeline(cfg.Transcoding, cfg.Thumbnail, retry.Policy{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay,
		MaxDelay:      cfg.Retry.MaxDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
	})
	if err != nil {
		log.Fatalf("Pipeline oluşturulamadı: %v", err)
	}
	if err := pipeline.Health(); err != nil {
		log.Fatalf("Pipeline hazır değil: %v", err)
	}

	entries, err := os.ReadDir(*inputDir)
	if err != nil {
		log.Fatalf("Klasör okunamadı: %v", err)
	}

	var jobs []entities.TranscodingJob
	for _, entry := range entries {
		if entry.IsDir() || !fileutils.IsVideoFile(entry.Name()) {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		jobs = append(jobs, entities.TranscodingJob{
			InputPath:  filepath.Join(*inputDir, entry.Name()),
			OutputPath: filepath.Join(cfg.Transcoding.WorkDir, stem+"_transcoded.mp4"),
			Quality:    *quality,
		})
	}
	if len(jobs) == 0 {
		log.Println("Transcode edilecek video bulunamadı")
		return
	}

	log.Printf("%d video, en fazla %d paralel iş", len(jobs), cfg.Transcoding.MaxConcurrentJobs)
	results := pipeline.TranscodeBatch(context.Background(), jobs)

	for _, res := range results {
		if res.Success {
			log.Printf("OK   %s -> %s (%s)", res.InputPath, res.OutputPath, res.Duration)
		} else {
			log.Printf("FAIL %s: %s", res.InputPath, res.Error)
		}
	}

	stats := pipeline.Stats()
	log.Printf("Toplam %d iş: %d başarılı, %d başarısız, sıkıştırma %%%.1f",
		stats.TotalFiles, stats.Successes, stats.Failures, stats.CompressionRatio)
}
