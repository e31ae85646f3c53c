package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"media-ingest/internal/domain/entities"
)

// ResizeImage aspect ratio koruyarak küçültür; imaging.Fit asla upscale
// etmez (scale = min(maxW/origW, maxH/origH), 1'i geçmez).
func ResizeImage(inputPath, outputPath string, opts ThumbnailOptions) (*entities.ThumbnailResult, error) {
	img, err := imaging.Open(inputPath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("resim açılamadı: %w", err)
	}

	resized := imaging.Fit(img, opts.Width, opts.Height, imaging.Lanczos)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("thumbnail klasörü oluşturulamadı: %w", err)
	}

	if err := imaging.Save(resized, outputPath, imaging.JPEGQuality(opts.Quality)); err != nil {
		return nil, fmt.Errorf("dosya kaydedilemedi: %w", err)
	}

	stat, err := os.Stat(outputPath)
	if err != nil {
		return nil, err
	}

	bounds := resized.Bounds()
	return &entities.ThumbnailResult{
		Path:   outputPath,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Size:   stat.Size(),
	}, nil
}

// thumbnailPath orijinal isimden thumbnail dosya adını türetir.
func thumbnailPath(dir, originalName, format string) string {
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	if format == "jpeg" {
		format = "jpg"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_thumb.%s", base, format))
}
