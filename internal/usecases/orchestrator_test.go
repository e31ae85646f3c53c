package usecases

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"media-ingest/internal/domain/entities"
	"media-ingest/internal/infrastructure/dedup"
	"media-ingest/internal/infrastructure/processor"
	"media-ingest/internal/infrastructure/queue"
	"media-ingest/internal/pkg/config"
	consts "media-ingest/pkg/constants"
	uperr "media-ingest/pkg/errors"
	"media-ingest/pkg/retry"
)

// ---- test fakeleri ----

// countingBlobStore yazımları sayar ve anlık in-flight Put sayısını izler.
type countingBlobStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	puts     int
	order    []string // Put edilen içerikler, sırayla
	inFlight int
	maxSeen  int
	putDelay time.Duration
	failPut  error // nil değilse her Put bu hatayla döner
}

func newCountingBlobStore() *countingBlobStore {
	return &countingBlobStore{objects: make(map[string][]byte)}
}

func (s *countingBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if s.putDelay > 0 {
		select {
		case <-time.After(s.putDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != nil {
		return s.failPut
	}
	s.puts++
	s.objects[key] = b
	s.order = append(s.order, string(b))
	return nil
}

func (s *countingBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("key yok: %s", key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *countingBlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *countingBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

// stubPipeline gerçek ffmpeg/imaging çağırmadan processing aşamasını taklit eder.
type stubPipeline struct {
	mu            sync.Mutex
	healthErr     error
	transcodeFail string // boş değilse her transcode bu mesajla düşer
	thumbnails    int
	transcodes    int
}

func (p *stubPipeline) Health() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.healthErr
}

func (p *stubPipeline) ThumbnailDefaults() processor.ThumbnailOptions {
	return processor.ThumbnailOptions{Width: 300, Height: 300, Quality: 85, Format: "jpg"}
}

func (p *stubPipeline) GenerateThumbnail(ctx context.Context, file *entities.UploadFile, opts processor.ThumbnailOptions) (*entities.ThumbnailResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.thumbnails++
	return &entities.ThumbnailResult{Path: "/tmp/thumb_" + file.ID + ".jpg", Width: opts.Width, Height: opts.Height}, nil
}

func (p *stubPipeline) TranscodeVideo(ctx context.Context, job entities.TranscodingJob) *entities.TranscodingResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transcodes++
	if p.transcodeFail != "" {
		return &entities.TranscodingResult{InputPath: job.InputPath, Error: p.transcodeFail}
	}
	return &entities.TranscodingResult{InputPath: job.InputPath, OutputPath: job.OutputPath, Success: true}
}

// ---- yardımcılar ----

func writeSource(t *testing.T, dir, name, content string) FileSpec {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("test dosyası yazılamadı: %v", err)
	}
	return FileSpec{Name: name, Path: path, Size: int64(len(content))}
}

func fastRetry() config.RetryConfig {
	return config.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}
}

func testUploadCfg(t *testing.T) config.UploadConfig {
	return config.UploadConfig{
		TempDir:              t.TempDir(),
		UploadsDir:           t.TempDir(),
		MaxFileSize:          1 << 30,
		ChunkSize:            10,
		SessionExpiry:        time.Minute,
		MaxConcurrentUploads: 3,
	}
}

func newTestOrchestrator(t *testing.T, blob *countingBlobStore, pipe *stubPipeline, retryCfg config.RetryConfig) *Orchestrator {
	t.Helper()
	policy := retry.Policy{
		MaxAttempts:   retryCfg.MaxAttempts,
		BaseDelay:     retryCfg.BaseDelay,
		MaxDelay:      retryCfg.MaxDelay,
		BackoffFactor: retryCfg.BackoffFactor,
	}
	content := NewContentStore(dedup.NewEngine(dedup.NewMemoryIndex()), blob, policy)
	return NewOrchestrator(content, pipe, testUploadCfg(t), retryCfg, t.TempDir())
}

// dosya verilen state'e gelene kadar bekler
func waitForState(t *testing.T, o *Orchestrator, batchID, fileID, state string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := o.Batch(batchID)
		if err != nil {
			t.Fatalf("batch okunamadı: %v", err)
		}
		for _, f := range job.Files {
			if f.ID == fileID && f.State == state {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("dosya %s beklenen state'e gelmedi: %s", fileID, state)
}

// ---- testler ----

func TestBatchUctanUca(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	pipe := &stubPipeline{}
	o := newTestOrchestrator(t, blob, pipe, fastRetry())

	job, err := o.SubmitBatch([]FileSpec{
		writeSource(t, dir, "rapor.pdf", "pdf icerigi"),
		writeSource(t, dir, "foto.jpg", "jpeg byte'lari"),
		writeSource(t, dir, "notlar.txt", "duz metin"),
	}, BatchOptions{Concurrency: 2})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}

	result, err := o.Wait(job.ID)
	if err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}
	if result.SuccessCount != 3 || result.FailureCount != 0 {
		t.Fatalf("beklenen 3 başarı, 0 hata; gelen %d/%d", result.SuccessCount, result.FailureCount)
	}
	for _, f := range result.Files {
		if f.State != consts.StateCompleted {
			t.Errorf("%s completed değil: %s", f.OriginalName, f.State)
		}
		if f.StorageKey == "" || f.ContentHash == "" {
			t.Errorf("%s için storage key/hash boş", f.OriginalName)
		}
	}
	if blob.puts != 3 {
		t.Errorf("3 yazım bekleniyordu, %d oldu", blob.puts)
	}
	// sadece image için thumbnail üretilir
	if pipe.thumbnails != 1 {
		t.Errorf("1 thumbnail bekleniyordu, %d üretildi", pipe.thumbnails)
	}
}

func TestConcurrencySiniri(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	blob.putDelay = 20 * time.Millisecond
	o := newTestOrchestrator(t, blob, &stubPipeline{}, fastRetry())

	specs := make([]FileSpec, 10)
	for i := range specs {
		specs[i] = writeSource(t, dir, fmt.Sprintf("dosya%d.txt", i), fmt.Sprintf("icerik-%d", i))
	}

	job, err := o.SubmitBatch(specs, BatchOptions{Concurrency: 3})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}
	if _, err := o.Wait(job.ID); err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}

	if blob.maxSeen > 3 {
		t.Errorf("aynı anda en fazla 3 aktif dosya olabilir, %d görüldü", blob.maxSeen)
	}
	if blob.puts != 10 {
		t.Errorf("10 yazım bekleniyordu, %d oldu", blob.puts)
	}
}

func TestAyniIcerikTekYazim(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	o := newTestOrchestrator(t, blob, &stubPipeline{}, fastRetry())

	// concurrency 1: sıralı işlem, ikinci dosya kesin duplicate görür
	job, err := o.SubmitBatch([]FileSpec{
		writeSource(t, dir, "orijinal.txt", "ayni icerik"),
		writeSource(t, dir, "kopya.txt", "ayni icerik"),
	}, BatchOptions{Concurrency: 1})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}
	result, err := o.Wait(job.ID)
	if err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}

	if result.SuccessCount != 2 {
		t.Fatalf("iki dosya da tamamlanmalı: %d/%d", result.SuccessCount, result.FailureCount)
	}
	if blob.puts != 1 {
		t.Errorf("duplicate için ek yazım olmamalı: %d put", blob.puts)
	}
	if !result.Files[1].IsDuplicate {
		t.Error("ikinci dosya duplicate işaretlenmeliydi")
	}
	if result.Files[0].StorageKey != result.Files[1].StorageKey {
		t.Error("duplicate aynı storage key'i göstermeli")
	}
}

func TestGecersizDosyaKardesleriEtkilemez(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	o := newTestOrchestrator(t, blob, &stubPipeline{}, fastRetry())

	good := writeSource(t, dir, "temiz.txt", "sorunsuz")
	bad := FileSpec{Name: "../../etc/passwd", Path: filepath.Join(dir, "x"), Size: 4}

	job, err := o.SubmitBatch([]FileSpec{bad, good}, BatchOptions{Concurrency: 2})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}
	result, err := o.Wait(job.ID)
	if err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}

	if result.SuccessCount != 1 || result.FailureCount != 1 {
		t.Fatalf("beklenen 1 başarı 1 hata, gelen %d/%d", result.SuccessCount, result.FailureCount)
	}
	if result.Files[0].State != consts.StateError || result.Files[0].LastError == "" {
		t.Errorf("geçersiz dosya error state'inde olmalı: %s (%q)", result.Files[0].State, result.Files[0].LastError)
	}
	if result.Files[1].State != consts.StateCompleted {
		t.Errorf("temiz dosya tamamlanmalıydı: %s", result.Files[1].State)
	}
}

func TestOncelikSirasi(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	o := newTestOrchestrator(t, blob, &stubPipeline{}, fastRetry())

	low := writeSource(t, dir, "dusuk.txt", "low-icerik")
	low.Priority = consts.PriorityLow
	normal := writeSource(t, dir, "normal.txt", "normal-icerik")
	high := writeSource(t, dir, "yuksek.txt", "high-icerik")
	high.Priority = consts.PriorityHigh

	job, err := o.SubmitBatch([]FileSpec{low, normal, high}, BatchOptions{Concurrency: 1})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}
	if _, err := o.Wait(job.ID); err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}

	want := []string{"high-icerik", "normal-icerik", "low-icerik"}
	blob.mu.Lock()
	got := append([]string(nil), blob.order...)
	blob.mu.Unlock()
	if len(got) != len(want) {
		t.Fatalf("yazım sayısı uyuşmuyor: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("öncelik sırası bozuk: %v, beklenen %v", got, want)
		}
	}
}

func TestPauseResume(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	blob.putDelay = 100 * time.Millisecond
	o := newTestOrchestrator(t, blob, &stubPipeline{}, fastRetry())

	job, err := o.SubmitBatch([]FileSpec{
		writeSource(t, dir, "buyuk.bin", "yavas yazilan icerik"),
	}, BatchOptions{Concurrency: 1})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}
	fileID := job.Files[0].ID

	waitForState(t, o, job.ID, fileID, consts.StateUploading)
	if err := o.Pause(fileID); err != nil {
		t.Fatalf("Pause hata verdi: %v", err)
	}
	waitForState(t, o, job.ID, fileID, consts.StatePaused)

	// paused dosya pause edilemez
	if err := o.Pause(fileID); !uperr.IsKind(err, uperr.KindState) {
		t.Errorf("paused -> paused geçişi reddedilmeliydi: %v", err)
	}

	if err := o.Resume(fileID); err != nil {
		t.Fatalf("Resume hata verdi: %v", err)
	}
	result, err := o.Wait(job.ID)
	if err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}
	if result.SuccessCount != 1 {
		t.Fatalf("resume sonrası dosya tamamlanmalı: %d/%d", result.SuccessCount, result.FailureCount)
	}
}

func TestCancelSayaclaraGirmez(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	blob.putDelay = 100 * time.Millisecond
	o := newTestOrchestrator(t, blob, &stubPipeline{}, fastRetry())

	job, err := o.SubmitBatch([]FileSpec{
		writeSource(t, dir, "iptal.txt", "iptal edilecek"),
		writeSource(t, dir, "kalan.txt", "tamamlanacak"),
	}, BatchOptions{Concurrency: 2})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}
	cancelID := job.Files[0].ID

	waitForState(t, o, job.ID, cancelID, consts.StateUploading)
	if err := o.Cancel(cancelID); err != nil {
		t.Fatalf("Cancel hata verdi: %v", err)
	}

	result, err := o.Wait(job.ID)
	if err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}
	if result.Files[0].State != consts.StateCancelled {
		t.Errorf("dosya cancelled olmalı: %s", result.Files[0].State)
	}
	// cancelled ne başarı ne hata sayılır
	if result.SuccessCount != 1 || result.FailureCount != 0 {
		t.Errorf("cancelled sayaçlara girmemeli: %d/%d", result.SuccessCount, result.FailureCount)
	}

	// terminal state'ten cancel geçersiz
	if err := o.Cancel(cancelID); !uperr.IsKind(err, uperr.KindState) {
		t.Errorf("cancelled -> cancelled reddedilmeliydi: %v", err)
	}
}

func TestTerminalStatetenGecisYok(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	o := newTestOrchestrator(t, blob, &stubPipeline{}, fastRetry())

	job, err := o.SubmitBatch([]FileSpec{
		writeSource(t, dir, "bit.txt", "icerik"),
	}, BatchOptions{Concurrency: 1})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}
	result, err := o.Wait(job.ID)
	if err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}
	fileID := result.Files[0].ID

	for name, op := range map[string]func(string) error{
		"pause":  o.Pause,
		"resume": o.Resume,
		"cancel": o.Cancel,
		"retry":  o.Retry,
	} {
		if err := op(fileID); !uperr.IsKind(err, uperr.KindState) {
			t.Errorf("completed dosyada %s kabul edilmemeliydi: %v", name, err)
		}
	}

	// reddedilen operasyon state'i bozmamalı
	after, _ := o.Batch(job.ID)
	if after.Files[0].State != consts.StateCompleted {
		t.Errorf("state değişmemeliydi: %s", after.Files[0].State)
	}
}

func TestRetryLimiti(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	blob.failPut = errors.New("bağlantı koptu")
	retryCfg := config.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}
	o := newTestOrchestrator(t, blob, &stubPipeline{}, retryCfg)

	job, err := o.SubmitBatch([]FileSpec{
		writeSource(t, dir, "sansiz.txt", "hep düşen"),
	}, BatchOptions{Concurrency: 1})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}
	fileID := job.Files[0].ID

	if _, err := o.Wait(job.ID); err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}
	waitForState(t, o, job.ID, fileID, consts.StateError)

	// limit dolana kadar manuel retry kabul edilir
	for i := 0; i < retryCfg.MaxAttempts; i++ {
		if err := o.Retry(fileID); err != nil {
			t.Fatalf("retry %d kabul edilmeliydi: %v", i+1, err)
		}
		if _, err := o.Wait(job.ID); err != nil {
			t.Fatalf("Wait hata verdi: %v", err)
		}
		waitForState(t, o, job.ID, fileID, consts.StateError)
	}

	err = o.Retry(fileID)
	if uperr.CodeOf(err) != "max_retries_exceeded" {
		t.Fatalf("limit aşımında max_retries_exceeded bekleniyordu: %v", err)
	}

	// retry'lar arası sayaç sıfırlanmamış olmalı
	after, _ := o.Batch(job.ID)
	if after.Files[0].RetryCount != retryCfg.MaxAttempts {
		t.Errorf("retry sayacı %d olmalıydı: %d", retryCfg.MaxAttempts, after.Files[0].RetryCount)
	}
}

func TestProcessingHatasiRetryEdilmez(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	pipe := &stubPipeline{transcodeFail: "transcode_failed: bozuk girdi"}
	o := newTestOrchestrator(t, blob, pipe, fastRetry())

	job, err := o.SubmitBatch([]FileSpec{
		writeSource(t, dir, "klip.mp4", "video byte'lari"),
	}, BatchOptions{Concurrency: 1})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}
	result, err := o.Wait(job.ID)
	if err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}
	if result.FailureCount != 1 {
		t.Fatalf("transcode hatası error state'ine düşürmeli: %d/%d", result.SuccessCount, result.FailureCount)
	}
	// upload tamamlandı, sadece processing düştü
	if blob.puts != 1 {
		t.Errorf("orijinal içerik storage'a yazılmış olmalı: %d put", blob.puts)
	}

	if err := o.Retry(result.Files[0].ID); !uperr.IsKind(err, uperr.KindState) {
		t.Errorf("processing hatası manuel retry kabul etmemeli: %v", err)
	}
}

func TestUnhealthyPipelineSubmitReddi(t *testing.T) {
	blob := newCountingBlobStore()
	pipe := &stubPipeline{healthErr: uperr.ErrPipelineUnavailable(errors.New("ffmpeg bulunamadı"))}
	o := newTestOrchestrator(t, blob, pipe, fastRetry())

	_, err := o.SubmitBatch([]FileSpec{{Name: "x.txt", Path: "/tmp/x", Size: 1}}, BatchOptions{})
	if !uperr.IsKind(err, uperr.KindResource) {
		t.Fatalf("unhealthy pipeline'da submit resource hatasıyla reddedilmeli: %v", err)
	}
}

func TestProgressEventleriYayinlanir(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	o := newTestOrchestrator(t, blob, &stubPipeline{}, fastRetry())

	var events []entities.ProgressEvent
	var evMu sync.Mutex
	go func() {
		for ev := range o.Events() {
			evMu.Lock()
			events = append(events, ev)
			evMu.Unlock()
		}
	}()

	job, err := o.SubmitBatch([]FileSpec{
		writeSource(t, dir, "izlenen.txt", "progress eventli icerik"),
	}, BatchOptions{Concurrency: 1})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}
	if _, err := o.Wait(job.ID); err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	evMu.Lock()
	defer evMu.Unlock()
	if len(events) == 0 {
		t.Fatal("hiç progress eventi yayınlanmadı")
	}
	last := events[len(events)-1]
	if last.Stage != consts.StageDone || last.Percent != 100 {
		t.Errorf("son event done/100 olmalı: %s/%d", last.Stage, last.Percent)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Percent < events[i-1].Percent {
			t.Errorf("progress geriye gitti: %d -> %d", events[i-1].Percent, events[i].Percent)
		}
	}
}

func TestDuplicateArtifactReferanslariniDevralir(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	pipe := &stubPipeline{}
	o := newTestOrchestrator(t, blob, pipe, fastRetry())

	// concurrency 1: ikinci dosya kesin duplicate görür
	job, err := o.SubmitBatch([]FileSpec{
		writeSource(t, dir, "kapak.jpg", "ayni jpeg byte'lari"),
		writeSource(t, dir, "kapak_kopya.jpg", "ayni jpeg byte'lari"),
	}, BatchOptions{Concurrency: 1})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}
	result, err := o.Wait(job.ID)
	if err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}

	if result.SuccessCount != 2 {
		t.Fatalf("iki dosya da tamamlanmalı: %d/%d", result.SuccessCount, result.FailureCount)
	}
	first, second := result.Files[0], result.Files[1]
	if !second.IsDuplicate {
		t.Fatal("ikinci dosya duplicate işaretlenmeliydi")
	}
	if first.ThumbnailPath == "" {
		t.Fatal("ilk dosya için thumbnail üretilmeliydi")
	}
	// duplicate artifact üretmez ama ilk yazımın referanslarını devralır
	if second.ThumbnailPath != first.ThumbnailPath {
		t.Errorf("duplicate thumbnail referansını devralmalı: %q != %q", second.ThumbnailPath, first.ThumbnailPath)
	}
	if pipe.thumbnails != 1 {
		t.Errorf("thumbnail bir kez üretilmeli, %d kez üretildi", pipe.thumbnails)
	}
	if blob.puts != 1 {
		t.Errorf("duplicate için ek yazım olmamalı: %d put", blob.puts)
	}
}

func TestDuplicateVideoTranscodeReferansiniDevralir(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	pipe := &stubPipeline{}
	o := newTestOrchestrator(t, blob, pipe, fastRetry())

	job, err := o.SubmitBatch([]FileSpec{
		writeSource(t, dir, "tanitim.mp4", "ayni video byte'lari"),
		writeSource(t, dir, "tanitim_kopya.mp4", "ayni video byte'lari"),
	}, BatchOptions{Concurrency: 1})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}
	result, err := o.Wait(job.ID)
	if err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}

	if result.SuccessCount != 2 {
		t.Fatalf("iki dosya da tamamlanmalı: %d/%d", result.SuccessCount, result.FailureCount)
	}
	first, second := result.Files[0], result.Files[1]
	if first.TranscodePath == "" {
		t.Fatal("ilk video için transcode çıktısı kaydedilmeliydi")
	}
	if second.TranscodePath != first.TranscodePath {
		t.Errorf("duplicate transcode referansını devralmalı: %q != %q", second.TranscodePath, first.TranscodePath)
	}
	if pipe.transcodes != 1 {
		t.Errorf("transcode bir kez çalışmalı, %d kez çalıştı", pipe.transcodes)
	}
}

func TestPauseGecisYarisiDosyayiKitlemez(t *testing.T) {
	o := newTestOrchestrator(t, newCountingBlobStore(), &stubPipeline{}, fastRetry())

	// upload'ı bitmiş, processing geçişinin hemen öncesinde duran bir dosya
	f := &entities.UploadFile{
		ID:           "file-yaris",
		OriginalName: "video.mp4",
		State:        consts.StateUploading,
		Priority:     consts.PriorityNormal,
	}
	bs := &batchState{
		job:     &entities.BatchJob{ID: "batch-yaris", Files: []*entities.UploadFile{f}},
		pending: queue.NewPendingQueue(),
	}
	bs.done = sync.NewCond(&o.mu)
	ctx, cancel := context.WithCancel(context.Background())
	fc := &fileControl{file: f, batch: bs, ctx: ctx, cancel: cancel}
	o.mu.Lock()
	o.batches[bs.job.ID] = bs
	o.files[f.ID] = fc
	o.mu.Unlock()

	// pause tam bu pencereye denk gelir
	if err := o.Pause(f.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	advanced := make(chan bool, 1)
	go func() { advanced <- o.advanceToProcessing(fc) }()

	select {
	case <-advanced:
		t.Fatal("paused dosya processing'e ilerlememeli")
	case <-time.After(50 * time.Millisecond):
	}

	if err := o.Resume(f.ID); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	select {
	case ok := <-advanced:
		if !ok {
			t.Fatal("resume edilen dosya iptal gibi raporlandı")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("resume sonrası dosya processing'e ilerlemedi")
	}
	if f.State != consts.StateProcessing {
		t.Errorf("beklenen processing, gelen %s", f.State)
	}
}

func TestDiskDolulugundaKabulDurur(t *testing.T) {
	dir := t.TempDir()
	blob := newCountingBlobStore()
	blob.failPut = uperr.ErrInsufficientResources(errors.New("cihazda yer yok"))
	o := newTestOrchestrator(t, blob, &stubPipeline{}, fastRetry())

	job, err := o.SubmitBatch([]FileSpec{
		writeSource(t, dir, "buyuk1.bin", "icerik bir"),
		writeSource(t, dir, "buyuk2.bin", "icerik iki"),
		writeSource(t, dir, "buyuk3.bin", "icerik uc"),
	}, BatchOptions{Concurrency: 1})
	if err != nil {
		t.Fatalf("SubmitBatch hata verdi: %v", err)
	}
	result, err := o.Wait(job.ID)
	if err != nil {
		t.Fatalf("Wait hata verdi: %v", err)
	}

	if result.FailureCount != 1 {
		t.Fatalf("sadece ilk dosya error'a düşmeli: %d hata", result.FailureCount)
	}
	// resource hatası sonrası kuyruktakiler tek tek denenmez, iptal edilir
	for _, f := range result.Files[1:] {
		if f.State != consts.StateCancelled {
			t.Errorf("bekleyen dosya %s iptal edilmeliydi: %s", f.OriginalName, f.State)
		}
		if f.LastError == "" {
			t.Errorf("iptal nedeni kaydedilmeliydi: %s", f.OriginalName)
		}
	}
}
