package usecases

import (
	"log"
	"os"
	"path/filepath"
	"time"

	uperr "media-ingest/pkg/errors"
)

type CleanupService interface {
	SweepExpiredSessions() int
	CleanupOldTempFiles(maxAge time.Duration) error
	CleanupOldStagingFiles(maxAge time.Duration) error
}

type cleanupService struct {
	sessions   SessionManager
	tempDir    string
	stagingDir string
}

func NewCleanupService(sessions SessionManager, tempDir, stagingDir string) CleanupService {
	return &cleanupService{
		sessions:   sessions,
		tempDir:    tempDir,
		stagingDir: stagingDir,
	}
}

// SweepExpiredSessions süresi dolan sessionları kayıtlarıyla birlikte siler.
func (s *cleanupService) SweepExpiredSessions() int {
	return s.sessions.SweepExpired(time.Now())
}

// CleanupOldTempFiles sahipsiz kalan chunk klasörlerini temizler; expired
// sweep'in kaçırdığı (örneğin crash sonrası kaydı olmayan) klasörler için.
func (s *cleanupService) CleanupOldTempFiles(maxAge time.Duration) error {
	return removeOlderThan(s.tempDir, maxAge, true)
}

// CleanupOldStagingFiles storage'a taşındıktan sonra silinemeyen assembled
// dosyaları temizler.
func (s *cleanupService) CleanupOldStagingFiles(maxAge time.Duration) error {
	return removeOlderThan(s.stagingDir, maxAge, false)
}

func removeOlderThan(dir string, maxAge time.Duration, dirsOnly bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	now := time.Now()
	for _, entry := range entries {
		if dirsOnly && !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			return uperr.ErrCannotStat(err)
		}
		if now.Sub(info.ModTime()) > maxAge {
			if err := os.RemoveAll(path); err != nil {
				return uperr.ErrCannotRemove(err)
			}
			log.Printf("Eski kalıntı temizlendi: %s", path)
		}
	}
	return nil
}
