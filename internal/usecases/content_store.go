package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"media-ingest/internal/domain/repositories"
	"media-ingest/internal/infrastructure/dedup"
	"media-ingest/internal/pkg/fileutils"
	uperr "media-ingest/pkg/errors"
	"media-ingest/pkg/retry"
)

// ContentStore staging'deki bir dosyayı content-addressed olarak blob
// store'a taşır: hash -> dedup lookup -> (gerekirse) put -> register.
// Session finalize ve batch orchestrator aynı yolu kullanır.
type ContentStore struct {
	dedup       *dedup.Engine
	blob        repositories.BlobStore
	retryPolicy retry.Policy
}

func NewContentStore(dedupEngine *dedup.Engine, blob repositories.BlobStore, retryPolicy retry.Policy) *ContentStore {
	if retryPolicy.Retryable == nil {
		// resource hataları (disk dolu) tekrar denemekle düzelmez
		retryPolicy.Retryable = func(err error) bool {
			return !uperr.IsKind(err, uperr.KindResource)
		}
	}
	return &ContentStore{
		dedup:       dedupEngine,
		blob:        blob,
		retryPolicy: retryPolicy,
	}
}

type StoreResult struct {
	Hash      string
	Key       string
	Size      int64
	Duplicate bool // true ise hiç byte yazılmadı, mevcut kayıt döndü

	// Duplicate ise ilk yazımda üretilmiş derived artifact referansları.
	ThumbnailPath string
	TranscodePath string
}

// StoreFile içeriği stream ederek hash'ler; aynı hash daha önce yazılmışsa
// byte yazımı atlanır ve mevcut storage key artifact referanslarıyla
// birlikte döner (önceden üretilen thumbnail/transcode yeniden üretilmez).
// onProgress nil olabilir.
func (cs *ContentStore) StoreFile(ctx context.Context, path, filename string, onProgress func(written, total int64)) (*StoreResult, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, uperr.ErrStorage(fmt.Errorf("staging dosyası okunamadı: %w", err))
	}
	size := stat.Size()

	hash, err := cs.dedup.ComputeFileHash(path)
	if err != nil {
		return nil, uperr.ErrStorage(err)
	}

	if rec, ok, err := cs.dedup.Lookup(ctx, hash); err != nil {
		return nil, uperr.ErrStorage(err)
	} else if ok {
		return &StoreResult{
			Hash:          hash,
			Key:           rec.Key,
			Size:          size,
			Duplicate:     true,
			ThumbnailPath: rec.ThumbnailPath,
			TranscodePath: rec.TranscodePath,
		}, nil
	}

	key := fileutils.MakeStorageKey(hash, filename)

	// Storage yazımı tek retry otoritesi üzerinden; her denemede dosya
	// baştan açılır
	err = retry.Do(ctx, cs.retryPolicy, func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		var r io.Reader = f
		if onProgress != nil {
			r = &progressReader{r: f, total: size, onProgress: onProgress}
		}
		return cs.blob.Put(ctx, key, r, size)
	})
	if err != nil {
		// Resource hataları (disk dolu) transient storage hatası olarak
		// maskelenmez; orchestrator bunlarda batch kabulünü durdurur
		var ue *uperr.UploadError
		if errors.As(err, &ue) && ue.Kind == uperr.KindResource {
			return nil, ue
		}
		return nil, uperr.ErrStorage(err)
	}

	if err := cs.dedup.Register(ctx, hash, key); err != nil {
		return nil, uperr.ErrStorage(err)
	}

	return &StoreResult{Hash: hash, Key: key, Size: size}, nil
}

// AttachArtifacts ilk yazımın processing çıktılarını hash kaydına iliştirir;
// aynı içerikle gelen sonraki upload'lar bunları üretmeden devralır.
func (cs *ContentStore) AttachArtifacts(ctx context.Context, hash, thumbnailPath, transcodePath string) error {
	return cs.dedup.AttachArtifacts(ctx, hash, thumbnailPath, transcodePath)
}

// progressReader Put sırasında yazılan byte'ları raporlar.
type progressReader struct {
	r          io.Reader
	total      int64
	written    int64
	onProgress func(written, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.written += int64(n)
		p.onProgress(p.written, p.total)
	}
	return n, err
}
