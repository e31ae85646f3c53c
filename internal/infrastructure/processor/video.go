package processor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// probeMedia ffprobe ile stream/format bilgilerini okur.
func (p *Pipeline) probeMedia(ctx context.Context, path string) (meta struct {
	Width, Height int64
	Duration      float64
	Bitrate       int64
	Codec         string
	Size          int64
}, err error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,codec_name",
		"-show_entries", "format=duration,bit_rate,size",
		"-of", "default=noprint_wrappers=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return meta, fmt.Errorf("ffprobe çalıştırılamadı: %w", err)
	}

	for _, line := range strings.Split(string(out), "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok || val == "N/A" {
			continue
		}
		switch key {
		case "width":
			meta.Width, _ = strconv.ParseInt(val, 10, 64)
		case "height":
			meta.Height, _ = strconv.ParseInt(val, 10, 64)
		case "codec_name":
			meta.Codec = val
		case "duration":
			meta.Duration, _ = strconv.ParseFloat(val, 64)
		case "bit_rate":
			meta.Bitrate, _ = strconv.ParseInt(val, 10, 64)
		case "size":
			meta.Size, _ = strconv.ParseInt(val, 10, 64)
		}
	}
	return meta, nil
}

// captureFrame videodan tek kare yakalar. Seek noktası:
// min(1s, sürenin %10'u) — intro'su siyah videolarda bile anlamlı kare.
func (p *Pipeline) captureFrame(ctx context.Context, videoPath, outputPath string, duration float64) error {
	seek := 1.0
	if tenth := duration * 0.10; tenth < seek {
		seek = tenth
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-ss", strconv.FormatFloat(seek, 'f', 2, 64),
		"-i", videoPath,
		"-vframes", "1",
		"-y",
		outputPath,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("kare yakalanamadı: %w", err)
	}
	return nil
}

// transcodeArgs kalite preset'ine göre ffmpeg argümanlarını kurar.
func transcodeArgs(inputPath, outputPath string, preset qualityPreset, codec string, maxSeconds float64) []string {
	args := []string{"-i", inputPath}
	if maxSeconds > 0 {
		args = append(args, "-t", strconv.FormatFloat(maxSeconds, 'f', 2, 64))
	}
	if codec == "" {
		codec = "libx264"
	}
	args = append(args,
		"-c:v", codec,
		"-crf", preset.crf,
		"-maxrate", preset.maxBitrate,
		"-bufsize", preset.maxBitrate,
		"-preset", preset.preset,
		"-c:a", "aac",
		"-movflags", "+faststart",
		"-y",
		outputPath,
	)
	return args
}
