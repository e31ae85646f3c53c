package processor

import (
	"context"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"media-ingest/internal/domain/entities"
	"media-ingest/internal/pkg/config"
	"media-ingest/pkg/retry"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(
		config.TranscodingConfig{
			MaxConcurrentJobs: 2,
			FFmpegPath:        "ffmpeg",
			FFprobePath:       "ffprobe",
			WorkDir:           t.TempDir(),
			Timeout:           time.Minute,
		},
		config.ThumbnailConfig{Width: 300, Height: 300, Quality: 85, Format: "jpg"},
		retry.DefaultPolicy(),
	)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

// writeTestImage diske bilinen boyutta bir jpeg yazar
func writeTestImage(t *testing.T, dir string, name string, w, h int) string {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 120, G: 40, B: 200, A: 255})
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("test resmi yazılamadı: %v", err)
	}
	return path
}

func TestGenerateThumbnailDownscalesPreservingAspect(t *testing.T) {
	p := testPipeline(t)
	dir := t.TempDir()
	src := writeTestImage(t, dir, "genis.jpg", 1200, 600) // 2:1

	file := &entities.UploadFile{
		ID: "f1", OriginalName: "genis.jpg",
		Kind: entities.KindImage, SourcePath: src,
	}

	res, err := p.GenerateThumbnail(context.Background(), file, p.ThumbnailDefaults())
	if err != nil {
		t.Fatalf("GenerateThumbnail: %v", err)
	}
	if res == nil {
		t.Fatal("image için thumbnail nil döndü")
	}
	if res.Width > 300 || res.Height > 300 {
		t.Errorf("thumbnail %dx%d, 300x300 sınırını aşıyor", res.Width, res.Height)
	}
	// 2:1 oran korunmalı: 300x150
	if res.Width != 300 || res.Height != 150 {
		t.Errorf("aspect ratio korunmadı: %dx%d", res.Width, res.Height)
	}
}

func TestGenerateThumbnailNeverUpscales(t *testing.T) {
	p := testPipeline(t)
	dir := t.TempDir()
	src := writeTestImage(t, dir, "kucuk.jpg", 80, 60)

	file := &entities.UploadFile{
		ID: "f1", OriginalName: "kucuk.jpg",
		Kind: entities.KindImage, SourcePath: src,
	}

	res, err := p.GenerateThumbnail(context.Background(), file, p.ThumbnailDefaults())
	if err != nil {
		t.Fatalf("GenerateThumbnail: %v", err)
	}
	if res.Width != 80 || res.Height != 60 {
		t.Errorf("küçük resim upscale edildi: %dx%d", res.Width, res.Height)
	}
}

func TestGenerateThumbnailUnsupportedKindIsNoop(t *testing.T) {
	p := testPipeline(t)

	file := &entities.UploadFile{
		ID: "f1", OriginalName: "rapor.pdf",
		Kind: entities.KindDocument, SourcePath: "/yok/rapor.pdf",
	}

	res, err := p.GenerateThumbnail(context.Background(), file, p.ThumbnailDefaults())
	if err != nil {
		t.Fatalf("desteklenmeyen tür hata döndü: %v", err)
	}
	if res != nil {
		t.Error("document için thumbnail üretildi")
	}
}

func TestNewThumbnailOptionsRejectsUnknown(t *testing.T) {
	if _, err := NewThumbnailOptions(300, 300, 85, "bmp"); err == nil {
		t.Error("tanınmayan format kabul edildi")
	}
	if _, err := NewThumbnailOptions(0, 300, 85, "jpg"); err == nil {
		t.Error("sıfır genişlik kabul edildi")
	}
	if _, err := NewThumbnailOptions(300, 300, 0, "jpg"); err == nil {
		t.Error("quality 0 kabul edildi")
	}
}

func TestCompressionRatioMath(t *testing.T) {
	stats := &entities.TranscodingStats{}
	stats.Record(&entities.TranscodingResult{
		Success:  true,
		Original: entities.MediaMetadata{Size: 1000},
		Derived:  entities.MediaMetadata{Size: 400},
		Duration: 2 * time.Second,
	})

	snap := stats.Snapshot()
	if snap.CompressionRatio != 40 {
		t.Errorf("CompressionRatio = %v, want 40", snap.CompressionRatio)
	}
	if snap.TotalFiles != 1 || snap.Successes != 1 {
		t.Errorf("sayaçlar hatalı: %+v", snap)
	}
}

func TestStatsCountsFailures(t *testing.T) {
	stats := &entities.TranscodingStats{}
	stats.Record(&entities.TranscodingResult{Success: false, Error: "kırık girdi", Duration: time.Second})
	stats.Record(&entities.TranscodingResult{
		Success:  true,
		Original: entities.MediaMetadata{Size: 500},
		Derived:  entities.MediaMetadata{Size: 250},
		Duration: 3 * time.Second,
	})

	snap := stats.Snapshot()
	if snap.TotalFiles != 2 || snap.Failures != 1 || snap.Successes != 1 {
		t.Errorf("sayaçlar hatalı: %+v", snap)
	}
	if snap.AvgProcessingTime != 2*time.Second {
		t.Errorf("ortalama süre %v, 2s bekleniyordu", snap.AvgProcessingTime)
	}
	// başarısız iş boyut toplamlarına girmez
	if snap.TotalSizeBefore != 500 || snap.TotalSizeAfter != 250 {
		t.Errorf("boyut toplamları hatalı: %+v", snap)
	}
}

func TestTranscodeVideoRejectsUnknownQuality(t *testing.T) {
	p := testPipeline(t)

	res := p.TranscodeVideo(context.Background(), entities.TranscodingJob{
		InputPath:  "/yok/girdi.mp4",
		OutputPath: filepath.Join(t.TempDir(), "cikti.mp4"),
		Quality:    "ultra-mega",
	})
	if res.Success {
		t.Fatal("tanınmayan quality ile başarı döndü")
	}
	if res.Error == "" {
		t.Error("hata mesajı boş")
	}
	// başarısızlık stats'a işlenmeli
	if p.Stats().Failures != 1 {
		t.Errorf("failure sayacı %d, 1 bekleniyordu", p.Stats().Failures)
	}
}
