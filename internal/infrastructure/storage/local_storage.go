package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	uperr "media-ingest/pkg/errors"
)

type LocalStorage struct {
	BasePath string
}

func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{BasePath: basePath}
}

func (l *LocalStorage) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	fullPath := filepath.Join(l.BasePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return fmt.Errorf("klasör oluşturulamadı: %w", err)
	}

	// Önce geçici dosyaya yaz, sonra atomik rename; yarım kalan yazımlar
	// asla final key altında görünmez
	tmpPath := fullPath + ".tmp"
	outFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("dosya oluşturulamadı: %w", err)
	}

	if _, err := copyWithContext(ctx, outFile, r); err != nil {
		outFile.Close()
		os.Remove(tmpPath)
		return classifyWriteErr(fmt.Errorf("dosya yazılamadı: %w", err))
	}
	if err := outFile.Sync(); err != nil {
		outFile.Close()
		os.Remove(tmpPath)
		return classifyWriteErr(err)
	}
	if err := outFile.Close(); err != nil {
		os.Remove(tmpPath)
		return classifyWriteErr(err)
	}

	return os.Rename(tmpPath, fullPath)
}

// classifyWriteErr disk doluluğunu resource hatası olarak işaretler;
// orchestrator bu sınıfta batch'e yeni iş kabulünü durdurur.
func classifyWriteErr(err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return uperr.ErrInsufficientResources(err)
	}
	return err
}

func (l *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(l.BasePath, filepath.FromSlash(key)))
}

func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	return os.Remove(filepath.Join(l.BasePath, filepath.FromSlash(key)))
}

func (l *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(l.BasePath, filepath.FromSlash(key)))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// copyWithContext kopyalamayı iptal edilebilir yapar; cancel edilen dosyanın
// worker slotu beklemeden boşalır.
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 256*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			wn, writeErr := dst.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
