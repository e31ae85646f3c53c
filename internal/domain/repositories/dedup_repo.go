package repositories

import "context"

// DedupRecord bir content hash için saklanan kayıt: storage key ve ilk
// yazımda üretilen derived artifact referansları. Duplicate upload'lar
// thumbnail/transcode üretmek yerine bu referansları devralır.
type DedupRecord struct {
	Key           string `json:"key"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	TranscodePath string `json:"transcode_path,omitempty"`
}

// DedupIndex content hash -> kayıt eşlemesi. Çok worker'lı batchlerde
// eşzamanlı lookup/insert güvenli olmak zorunda.
type DedupIndex interface {
	// Lookup hash için kayıtlı record'u döner; yoksa ok=false.
	Lookup(ctx context.Context, hash string) (rec DedupRecord, ok bool, err error)
	// Register başarılı ilk yazımdan sonra hash -> key eşlemesini kaydeder.
	// Aynı hash için yarışan iki Register'dan ilki kazanır, ikincisi no-op'tur.
	Register(ctx context.Context, hash, key string) error
	// AttachArtifacts processing bittikten sonra derived artifact
	// referanslarını mevcut kayda iliştirir. Alan bazında ilk yazan kazanır;
	// boş parametre ilgili alana dokunmaz.
	AttachArtifacts(ctx context.Context, hash, thumbnailPath, transcodePath string) error
}
