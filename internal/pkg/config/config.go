package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Upload      UploadConfig
	Retry       RetryConfig
	Transcoding TranscodingConfig
	Thumbnail   ThumbnailConfig
	Redis       RedisConfig
	S3          S3Config
}

type ServerConfig struct {
	Port string
	Host string
}

type UploadConfig struct {
	TempDir              string
	UploadsDir           string
	MaxFileSize          int64 // bytes
	ChunkSize            int64 // bytes
	SessionExpiry        time.Duration
	MaxConcurrentUploads int
	AllowedMimeTypes     []string // boş liste = hepsi kabul
}

type RetryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

type TranscodingConfig struct {
	MaxConcurrentJobs int
	FFmpegPath        string
	FFprobePath       string
	WorkDir           string
	Timeout           time.Duration // processing'de takılan dosya için watchdog
}

type ThumbnailConfig struct {
	Width   int
	Height  int
	Quality int    // 1-100
	Format  string // jpg/png
}

type RedisConfig struct {
	Host string
	Port string
}

type S3Config struct {
	Bucket string
	Region string
}

func LoadConfig() *Config {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "3000"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Upload: UploadConfig{
			TempDir:              getEnv("UPLOAD_TEMP_DIR", "temp_uploads"),
			UploadsDir:           getEnv("UPLOAD_DIR", "uploads"),
			MaxFileSize:          getEnvAsInt64("UPLOAD_MAX_FILE_SIZE", 5*1024*1024*1024), // 5GB
			ChunkSize:            getEnvAsInt64("UPLOAD_CHUNK_SIZE", 10*1024*1024),        // 10MB
			SessionExpiry:        getEnvAsDurationMs("UPLOAD_SESSION_EXPIRY_MS", 30*time.Minute),
			MaxConcurrentUploads: getEnvAsInt("UPLOAD_MAX_CONCURRENT", 3),
			AllowedMimeTypes:     getEnvAsList("UPLOAD_ALLOWED_MIME_TYPES"),
		},
		Retry: RetryConfig{
			MaxAttempts:   getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:     getEnvAsDurationMs("RETRY_BASE_DELAY_MS", time.Second),
			MaxDelay:      getEnvAsDurationMs("RETRY_MAX_DELAY_MS", 10*time.Second),
			BackoffFactor: 2,
		},
		Transcoding: TranscodingConfig{
			MaxConcurrentJobs: getEnvAsInt("TRANSCODE_MAX_CONCURRENT", 2), // CPU/IO ağır, düşük tutulur
			FFmpegPath:        getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath:       getEnv("FFPROBE_PATH", "ffprobe"),
			WorkDir:           getEnv("TRANSCODE_WORK_DIR", "transcoded"),
			Timeout:           getEnvAsDurationMs("TRANSCODE_TIMEOUT_MS", 10*time.Minute),
		},
		Thumbnail: ThumbnailConfig{
			Width:   getEnvAsInt("THUMBNAIL_WIDTH", 300),
			Height:  getEnvAsInt("THUMBNAIL_HEIGHT", 300),
			Quality: getEnvAsInt("THUMBNAIL_QUALITY", 85),
			Format:  getEnv("THUMBNAIL_FORMAT", "jpg"),
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", ""),
			Port: getEnv("REDIS_PORT", "6379"),
		},
		S3: S3Config{
			Bucket: getEnv("S3_BUCKET", ""),
			Region: getEnv("S3_REGION", "eu-central-1"),
		},
	}

	// Klasörleri proje köküne göre oluşturmak için:
	projectRoot, err := findProjectRoot()
	if err != nil {
		panic(err)
	}

	config.Upload.TempDir = resolveDir(projectRoot, config.Upload.TempDir)
	config.Upload.UploadsDir = resolveDir(projectRoot, config.Upload.UploadsDir)
	config.Transcoding.WorkDir = resolveDir(projectRoot, config.Transcoding.WorkDir)

	for _, dir := range []string{config.Upload.TempDir, config.Upload.UploadsDir, config.Transcoding.WorkDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			panic(err)
		}
	}

	if err := config.validate(); err != nil {
		panic(err)
	}

	return config
}

// validate, açıkça tanınmayan/uyumsuz değerleri sessizce yutmak yerine
// başlangıçta reddeder.
func (c *Config) validate() error {
	if c.Upload.ChunkSize <= 0 || c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("chunk size ve max file size pozitif olmalı")
	}
	if c.Upload.ChunkSize > c.Upload.MaxFileSize {
		return fmt.Errorf("chunk size max file size'dan büyük olamaz")
	}
	if c.Upload.MaxConcurrentUploads < 1 || c.Transcoding.MaxConcurrentJobs < 1 {
		return fmt.Errorf("concurrency değerleri en az 1 olmalı")
	}
	if c.Thumbnail.Quality < 1 || c.Thumbnail.Quality > 100 {
		return fmt.Errorf("thumbnail quality 1-100 aralığında olmalı, %d verildi", c.Thumbnail.Quality)
	}
	switch strings.ToLower(c.Thumbnail.Format) {
	case "jpg", "jpeg", "png":
	default:
		return fmt.Errorf("tanınmayan thumbnail formatı: %q", c.Thumbnail.Format)
	}
	return nil
}

func resolveDir(projectRoot, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(projectRoot, dir)
}

func findProjectRoot() (string, error) {
	current, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Root'a ulaştık, go.mod bulunamadı
			return os.Getwd()
		}
		current = parent
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDurationMs(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return time.Duration(parsed) * time.Millisecond
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
