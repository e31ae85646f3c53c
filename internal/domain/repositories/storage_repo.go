package repositories

import (
	"context"
	"io"
)

// BlobStore, core'un tükettiği ama implemente etmediği blob arayüzü.
// Local disk ve S3 implementasyonları infrastructure/storage altında.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
