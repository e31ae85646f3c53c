package dedup

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"media-ingest/internal/domain/repositories"
)

const hashKeyPrefix = "dedup:hash:"

// Redis hash alan adları
const (
	fieldKey       = "key"
	fieldThumbnail = "thumbnail_path"
	fieldTranscode = "transcode_path"
)

// RedisIndex süreç yeniden başlasa da hash -> record eşlemesini koruyan
// index. Her content hash bir redis hash'inde tutulur; HSETNX sayesinde
// yarışan yazımlarda alan bazında ilk yazan kazanır.
type RedisIndex struct {
	rdb *redis.Client
}

func NewRedisIndex(rdb *redis.Client) *RedisIndex {
	return &RedisIndex{rdb: rdb}
}

func (r *RedisIndex) Lookup(ctx context.Context, hash string) (repositories.DedupRecord, bool, error) {
	fields, err := r.rdb.HGetAll(ctx, hashKeyPrefix+hash).Result()
	if err != nil {
		return repositories.DedupRecord{}, false, fmt.Errorf("dedup lookup başarısız: %w", err)
	}
	if len(fields) == 0 {
		return repositories.DedupRecord{}, false, nil
	}
	return repositories.DedupRecord{
		Key:           fields[fieldKey],
		ThumbnailPath: fields[fieldThumbnail],
		TranscodePath: fields[fieldTranscode],
	}, true, nil
}

func (r *RedisIndex) Register(ctx context.Context, hash, key string) error {
	// TTL yok; operatör temizlemedikçe kayıt kalır
	if err := r.rdb.HSetNX(ctx, hashKeyPrefix+hash, fieldKey, key).Err(); err != nil {
		return fmt.Errorf("dedup register başarısız: %w", err)
	}
	return nil
}

func (r *RedisIndex) AttachArtifacts(ctx context.Context, hash, thumbnailPath, transcodePath string) error {
	k := hashKeyPrefix + hash
	if thumbnailPath != "" {
		if err := r.rdb.HSetNX(ctx, k, fieldThumbnail, thumbnailPath).Err(); err != nil {
			return fmt.Errorf("dedup artifact kaydı başarısız: %w", err)
		}
	}
	if transcodePath != "" {
		if err := r.rdb.HSetNX(ctx, k, fieldTranscode, transcodePath).Err(); err != nil {
			return fmt.Errorf("dedup artifact kaydı başarısız: %w", err)
		}
	}
	return nil
}
