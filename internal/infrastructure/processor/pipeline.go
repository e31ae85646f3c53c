package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"media-ingest/internal/domain/entities"
	"media-ingest/internal/pkg/config"
	uperr "media-ingest/pkg/errors"
	"media-ingest/pkg/retry"
)

// Pipeline thumbnail üretimi ve video transcodingin tamamı. Explicit
// construct edilir, kendi config'ini ve stats'ını taşır; test için birden
// fazla instance güvenle oluşturulabilir.
type Pipeline struct {
	ffmpegPath  string
	ffprobePath string
	workDir     string
	thumbDir    string
	maxJobs     int
	timeout     time.Duration

	thumbDefaults ThumbnailOptions
	retryPolicy   retry.Policy
	stats         *entities.TranscodingStats
}

func NewPipeline(cfg config.TranscodingConfig, thumbCfg config.ThumbnailConfig, retryPolicy retry.Policy) (*Pipeline, error) {
	defaults, err := NewThumbnailOptions(thumbCfg.Width, thumbCfg.Height, thumbCfg.Quality, thumbCfg.Format)
	if err != nil {
		return nil, err
	}

	maxJobs := cfg.MaxConcurrentJobs
	if maxJobs < 1 {
		maxJobs = 2
	}

	// Processing hataları otomatik retry edilmez; aynı bozuk girdiyi tekrar
	// encode etmek nadiren işe yarar. Retry sadece spawn/IO hataları için.
	retryPolicy.Retryable = func(err error) bool {
		var exitErr *exec.ExitError
		return !errors.As(err, &exitErr)
	}

	return &Pipeline{
		ffmpegPath:    cfg.FFmpegPath,
		ffprobePath:   cfg.FFprobePath,
		workDir:       cfg.WorkDir,
		thumbDir:      filepath.Join(cfg.WorkDir, "thumbnails"),
		maxJobs:       maxJobs,
		timeout:       cfg.Timeout,
		thumbDefaults: defaults,
		retryPolicy:   retryPolicy,
		stats:         &entities.TranscodingStats{},
	}, nil
}

// ThumbnailDefaults konfigüre edilen varsayılan seçenekler.
func (p *Pipeline) ThumbnailDefaults() ThumbnailOptions {
	return p.thumbDefaults
}

// Stats süreç genelindeki sayaçların anlık görünümü.
func (p *Pipeline) Stats() entities.StatsSnapshot {
	return p.stats.Snapshot()
}

// ResetStats sadece explicit operatör aksiyonu için.
func (p *Pipeline) ResetStats() {
	p.stats.Reset()
}

// Health media engine binary'leri çözülemiyorsa veya çalışma klasörü
// yazılamıyorsa hata döner; orchestrator unhealthy pipeline'a iş yollamaz.
func (p *Pipeline) Health() error {
	if _, err := exec.LookPath(p.ffmpegPath); err != nil {
		return uperr.ErrPipelineUnavailable(fmt.Errorf("ffmpeg bulunamadı: %w", err))
	}
	if _, err := exec.LookPath(p.ffprobePath); err != nil {
		return uperr.ErrPipelineUnavailable(fmt.Errorf("ffprobe bulunamadı: %w", err))
	}
	marker := filepath.Join(p.workDir, ".health")
	if err := os.WriteFile(marker, []byte("ok"), 0644); err != nil {
		return uperr.ErrPipelineUnavailable(fmt.Errorf("çalışma klasörü yazılamıyor: %w", err))
	}
	os.Remove(marker)
	return nil
}

// GenerateThumbnail: image için decode -> fit resize -> re-encode; video için
// önce kare yakalanır, sonra aynı resize yolu. Desteklenmeyen türler için
// nil döner, hata değildir.
func (p *Pipeline) GenerateThumbnail(ctx context.Context, file *entities.UploadFile, opts ThumbnailOptions) (*entities.ThumbnailResult, error) {
	outPath := thumbnailPath(p.thumbDir, file.OriginalName, opts.Format)

	switch file.Kind {
	case entities.KindImage:
		res, err := ResizeImage(file.SourcePath, outPath, opts)
		if err != nil {
			return nil, uperr.ErrThumbnailFailed(err)
		}
		return res, nil

	case entities.KindVideo:
		meta, err := p.probeMedia(ctx, file.SourcePath)
		if err != nil {
			return nil, uperr.ErrThumbnailFailed(err)
		}
		framePath := filepath.Join(p.thumbDir, filepath.Base(file.SourcePath)+".frame.jpg")
		if err := p.captureFrame(ctx, file.SourcePath, framePath, meta.Duration); err != nil {
			return nil, uperr.ErrThumbnailFailed(err)
		}
		defer os.Remove(framePath)

		res, err := ResizeImage(framePath, outPath, opts)
		if err != nil {
			return nil, uperr.ErrThumbnailFailed(err)
		}
		return res, nil

	default:
		// document/audio: thumbnail yok
		return nil, nil
	}
}

// TranscodeVideo external media engine'i çağırır, önce/sonra metadata ve
// süreyi kaydeder, stats'ı atomik günceller. Başarısızlık da stats'a işlenir.
func (p *Pipeline) TranscodeVideo(ctx context.Context, job entities.TranscodingJob) *entities.TranscodingResult {
	result := &entities.TranscodingResult{
		InputPath:  job.InputPath,
		OutputPath: job.OutputPath,
	}
	started := time.Now()

	finish := func() *entities.TranscodingResult {
		result.Duration = time.Since(started)
		p.stats.Record(result)
		return result
	}

	preset, err := presetFor(job.Quality)
	if err != nil {
		result.Error = err.Error()
		return finish()
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	orig, err := p.probeMedia(ctx, job.InputPath)
	if err != nil {
		result.Error = uperr.ErrTranscodeFailed(err).Error()
		return finish()
	}
	result.Original = entities.MediaMetadata{
		Width: orig.Width, Height: orig.Height, Duration: orig.Duration,
		Bitrate: orig.Bitrate, Codec: orig.Codec, Size: orig.Size,
	}

	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0755); err != nil {
		result.Error = err.Error()
		return finish()
	}

	args := transcodeArgs(job.InputPath, job.OutputPath, preset, job.Codec, job.MaxSeconds)
	err = retry.Do(ctx, p.retryPolicy, func(ctx context.Context) error {
		return exec.CommandContext(ctx, p.ffmpegPath, args...).Run()
	})
	if err != nil {
		os.Remove(job.OutputPath)
		if ctx.Err() == context.DeadlineExceeded {
			result.Error = uperr.ErrTranscodingTimeout(err).Error()
		} else {
			result.Error = uperr.ErrTranscodeFailed(err).Error()
		}
		return finish()
	}

	derived, err := p.probeMedia(ctx, job.OutputPath)
	if err != nil {
		result.Error = uperr.ErrTranscodeFailed(err).Error()
		return finish()
	}
	result.Derived = entities.MediaMetadata{
		Width: derived.Width, Height: derived.Height, Duration: derived.Duration,
		Bitrate: derived.Bitrate, Codec: derived.Codec, Size: derived.Size,
	}
	result.Success = true
	return finish()
}

// TranscodeBatch işleri bounded worker pool ile yürütür. Transcoding CPU/IO
// ağır olduğu için limit upload orchestrator'ınkinden bağımsız ve küçüktür.
// Sonuçlar girdi sırasıyla döner.
func (p *Pipeline) TranscodeBatch(ctx context.Context, jobs []entities.TranscodingJob) []*entities.TranscodingResult {
	results := make([]*entities.TranscodingResult, len(jobs))
	sem := make(chan struct{}, p.maxJobs)
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, job entities.TranscodingJob) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = p.TranscodeVideo(ctx, job)
			if !results[i].Success {
				log.Printf("Transcode başarısız: %s (%s)", job.InputPath, results[i].Error)
			}
		}(i, job)
	}

	wg.Wait()
	return results
}
