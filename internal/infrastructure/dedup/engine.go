package dedup

import (
	"context"
	"io"

	"media-ingest/internal/domain/repositories"
	"media-ingest/internal/pkg/fileutils"
)

// Engine content-addressed deduplication: hash hesapla, index'te ara,
// ilk yazımdan sonra kaydet. Duplicate tespiti sadece içerik hash'i
// üzerindendir, dosya adından bağımsızdır.
type Engine struct {
	index repositories.DedupIndex
}

func NewEngine(index repositories.DedupIndex) *Engine {
	return &Engine{index: index}
}

// ComputeHash deterministik digest; stream edilir, içerik belleğe alınmaz.
func (e *Engine) ComputeHash(r io.Reader) (string, error) {
	return fileutils.HashReader(r)
}

// ComputeFileHash staging'deki dosya için kısayol.
func (e *Engine) ComputeFileHash(path string) (string, error) {
	return fileutils.HashFile(path)
}

// Lookup daha önce aynı içerikle yapılmış bir upload varsa kaydını döner;
// orchestrator bu durumda byte yazmayı ve artifact üretimini atlar.
func (e *Engine) Lookup(ctx context.Context, hash string) (repositories.DedupRecord, bool, error) {
	return e.index.Lookup(ctx, hash)
}

// Register başarılı ilk yazımdan sonra hash -> key eşlemesini kaydeder.
func (e *Engine) Register(ctx context.Context, hash, key string) error {
	return e.index.Register(ctx, hash, key)
}

// AttachArtifacts ilk yazımın processing aşaması bittikten sonra üretilen
// derived artifact referanslarını kayda iliştirir; sonraki duplicate'ler
// bunları yeniden üretmeden devralır.
func (e *Engine) AttachArtifacts(ctx context.Context, hash, thumbnailPath, transcodePath string) error {
	return e.index.AttachArtifacts(ctx, hash, thumbnailPath, transcodePath)
}
