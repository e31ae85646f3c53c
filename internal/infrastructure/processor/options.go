package processor

import (
	"fmt"
	"strings"

	uperr "media-ingest/pkg/errors"
)

// ThumbnailOptions explicit seçenek struct'ı; tanınmayan değerler
// construction'da reddedilir, sessizce yutulmaz.
type ThumbnailOptions struct {
	Width   int
	Height  int
	Quality int    // 1-100
	Format  string // jpg/jpeg/png
}

func NewThumbnailOptions(width, height, quality int, format string) (ThumbnailOptions, error) {
	o := ThumbnailOptions{Width: width, Height: height, Quality: quality, Format: strings.ToLower(format)}
	if o.Width <= 0 || o.Height <= 0 {
		return o, uperr.ErrInvalidOptions(fmt.Errorf("thumbnail boyutları pozitif olmalı: %dx%d", width, height))
	}
	if o.Quality < 1 || o.Quality > 100 {
		return o, uperr.ErrInvalidOptions(fmt.Errorf("quality 1-100 aralığında olmalı: %d", quality))
	}
	switch o.Format {
	case "jpg", "jpeg", "png":
	default:
		return o, uperr.ErrInvalidOptions(fmt.Errorf("tanınmayan thumbnail formatı: %q", format))
	}
	return o, nil
}

// Kalite tier'ları ffmpeg CRF + bitrate tavanına çevrilir
type qualityPreset struct {
	crf        string
	maxBitrate string
	preset     string
}

var qualityPresets = map[string]qualityPreset{
	"low":    {crf: "32", maxBitrate: "1000k", preset: "faster"},
	"medium": {crf: "26", maxBitrate: "2500k", preset: "medium"},
	"high":   {crf: "20", maxBitrate: "6000k", preset: "slow"},
}

func presetFor(quality string) (qualityPreset, error) {
	p, ok := qualityPresets[strings.ToLower(quality)]
	if !ok {
		return p, uperr.ErrInvalidOptions(fmt.Errorf("tanınmayan quality tier: %q", quality))
	}
	return p, nil
}
