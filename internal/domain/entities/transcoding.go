package entities

import (
	"sync/atomic"
	"time"
)

// MediaMetadata ffprobe'dan okunan akış bilgileri
type MediaMetadata struct {
	Width    int64   `json:"width,omitempty"`
	Height   int64   `json:"height,omitempty"`
	Duration float64 `json:"duration,omitempty"` // saniye
	Bitrate  int64   `json:"bitrate,omitempty"`
	Codec    string  `json:"codec,omitempty"`
	Size     int64   `json:"size,omitempty"` // byte
}

// TranscodingJob tek dönüştürme isteği
type TranscodingJob struct {
	InputPath  string  `json:"input_path"`
	OutputPath string  `json:"output_path"`
	Quality    string  `json:"quality"` // low/medium/high
	Codec      string  `json:"codec,omitempty"`
	MaxSeconds float64 `json:"max_seconds,omitempty"` // 0 = kesme yok
}

// TranscodingResult işin sonucu; başarısızsa Error dolu gelir.
type TranscodingResult struct {
	InputPath  string        `json:"input_path"`
	OutputPath string        `json:"output_path,omitempty"`
	Success    bool          `json:"success"`
	Original   MediaMetadata `json:"original"`
	Derived    MediaMetadata `json:"derived,omitempty"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// ThumbnailResult üretilen thumbnail bilgisi. Desteklenmeyen medya türleri
// için nil döner, hata değildir.
type ThumbnailResult struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

// TranscodingStats süreç genelinde paylaşılan sayaçlar. Her worker mutate
// ettiği için alanlar atomic tutulur; read-modify-write yarışı yok.
// Operatör Reset çağırmadıkça sıfırlanmaz.
type TranscodingStats struct {
	totalFiles        atomic.Int64
	successes         atomic.Int64
	failures          atomic.Int64
	totalProcessingMs atomic.Int64
	totalSizeBefore   atomic.Int64
	totalSizeAfter    atomic.Int64
}

// Record tamamlanan veya başarısız olan her iş sonrası çağrılır.
func (s *TranscodingStats) Record(res *TranscodingResult) {
	s.totalFiles.Add(1)
	s.totalProcessingMs.Add(res.Duration.Milliseconds())
	if res.Success {
		s.successes.Add(1)
		s.totalSizeBefore.Add(res.Original.Size)
		s.totalSizeAfter.Add(res.Derived.Size)
	} else {
		s.failures.Add(1)
	}
}

func (s *TranscodingStats) Reset() {
	s.totalFiles.Store(0)
	s.successes.Store(0)
	s.failures.Store(0)
	s.totalProcessingMs.Store(0)
	s.totalSizeBefore.Store(0)
	s.totalSizeAfter.Store(0)
}

// StatsSnapshot okuma anındaki tutarlı görünüm.
type StatsSnapshot struct {
	TotalFiles          int64         `json:"total_files"`
	Successes           int64         `json:"successes"`
	Failures            int64         `json:"failures"`
	TotalProcessingTime time.Duration `json:"total_processing_ms"`
	AvgProcessingTime   time.Duration `json:"avg_processing_ms"`
	TotalSizeBefore     int64         `json:"total_size_before"`
	TotalSizeAfter      int64         `json:"total_size_after"`
	CompressionRatio    float64       `json:"compression_ratio"` // after/before * 100
}

func (s *TranscodingStats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		TotalFiles:          s.totalFiles.Load(),
		Successes:           s.successes.Load(),
		Failures:            s.failures.Load(),
		TotalProcessingTime: time.Duration(s.totalProcessingMs.Load()) * time.Millisecond,
		TotalSizeBefore:     s.totalSizeBefore.Load(),
		TotalSizeAfter:      s.totalSizeAfter.Load(),
	}
	if snap.TotalFiles > 0 {
		snap.AvgProcessingTime = snap.TotalProcessingTime / time.Duration(snap.TotalFiles)
	}
	if snap.TotalSizeBefore > 0 {
		snap.CompressionRatio = float64(snap.TotalSizeAfter) / float64(snap.TotalSizeBefore) * 100
	}
	return snap
}
