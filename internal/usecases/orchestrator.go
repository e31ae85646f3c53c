package usecases

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-ingest/internal/domain/entities"
	"media-ingest/internal/infrastructure/processor"
	"media-ingest/internal/infrastructure/queue"
	"media-ingest/internal/pkg/config"
	"media-ingest/internal/pkg/fileutils"
	consts "media-ingest/pkg/constants"
	uperr "media-ingest/pkg/errors"
)

// MediaPipeline orchestrator'ın ihtiyaç duyduğu pipeline yüzeyi; testlerde
// stub ile değiştirilir.
type MediaPipeline interface {
	Health() error
	ThumbnailDefaults() processor.ThumbnailOptions
	GenerateThumbnail(ctx context.Context, file *entities.UploadFile, opts processor.ThumbnailOptions) (*entities.ThumbnailResult, error)
	TranscodeVideo(ctx context.Context, job entities.TranscodingJob) *entities.TranscodingResult
}

// FileSpec submit edilen tek dosyanın tanımı.
type FileSpec struct {
	Name     string
	Path     string // staging'deki yerel kopya
	Size     int64
	Priority string // low/normal/high, boş = normal
}

type BatchOptions struct {
	Concurrency      int    // 0 = config'deki maxConcurrentUploads
	TranscodeQuality string // boş = medium
}

// Orchestrator batch'leri bounded worker pool üzerinden yürütür. Her
// dosyanın state geçişleri orchestrator kilidi altında yapılır; pause ile
// eşzamanlı completion arasındaki yarışın tek senkronizasyon noktası budur.
type Orchestrator struct {
	content  *ContentStore
	pipeline MediaPipeline
	events   *queue.EventPublisher

	uploadCfg    config.UploadConfig
	maxRetries   int
	transcodeDir string

	mu      sync.Mutex
	batches map[string]*batchState
	files   map[string]*fileControl
}

type batchState struct {
	job     *entities.BatchJob
	pending *queue.PendingQueue
	opts    BatchOptions
	settled int
	done    *sync.Cond
	halted  bool // resource hatası sonrası yeni iş kabulü durdu
}

type fileControl struct {
	file  *entities.UploadFile
	batch *batchState

	ctx    context.Context
	cancel context.CancelFunc

	paused   bool
	resumeCh chan struct{}

	counted     bool   // settle sayacına girdi mi
	failedStage string // error state'ine hangi aşamadan düşüldü
	lastPercent int
	lastStage   string
}

func NewOrchestrator(content *ContentStore, pipeline MediaPipeline, uploadCfg config.UploadConfig, retryCfg config.RetryConfig, transcodeDir string) *Orchestrator {
	return &Orchestrator{
		content:      content,
		pipeline:     pipeline,
		events:       queue.NewEventPublisher(256),
		uploadCfg:    uploadCfg,
		maxRetries:   retryCfg.MaxAttempts,
		transcodeDir: transcodeDir,
		batches:      make(map[string]*batchState),
		files:        make(map[string]*fileControl),
	}
}

// Events progress eventlerinin drain edileceği kanal.
func (o *Orchestrator) Events() <-chan entities.ProgressEvent {
	return o.events.Events()
}

// SubmitBatch dosyaları en fazla `concurrency` worker'a dağıtır. Slot'a
// kabul sırası submission FIFO'sudur, priority kuyruğu yeniden sıralar.
// Validation hataları dosyayı iş başlamadan düşürür ama kardeş dosyaları
// etkilemez.
func (o *Orchestrator) SubmitBatch(specs []FileSpec, opts BatchOptions) (*entities.BatchJob, error) {
	if len(specs) == 0 {
		return nil, uperr.ErrNotFound(fmt.Errorf("boş batch"))
	}

	// Unhealthy pipeline'a iş kuyruklamak yerine baştan reddet
	if err := o.pipeline.Health(); err != nil {
		return nil, err
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = o.uploadCfg.MaxConcurrentUploads
	}
	if opts.TranscodeQuality == "" {
		opts.TranscodeQuality = "medium"
	}

	job := &entities.BatchJob{
		ID:          "batch-" + uuid.NewString(),
		Concurrency: opts.Concurrency,
		StartedAt:   time.Now(),
	}
	bs := &batchState{
		job:     job,
		pending: queue.NewPendingQueue(),
		opts:    opts,
	}
	bs.done = sync.NewCond(&o.mu)

	o.mu.Lock()
	o.batches[job.ID] = bs
	for _, spec := range specs {
		f := &entities.UploadFile{
			ID:           "file-" + uuid.NewString(),
			OriginalName: spec.Name,
			Size:         spec.Size,
			SourcePath:   spec.Path,
			Kind:         mediaKindOf(spec.Name),
			MimeType:     fileutils.GetMimeTypeFromExtension(spec.Name),
			State:        consts.StatePending,
			Priority:     normalizePriority(spec.Priority),
		}
		job.Files = append(job.Files, f)

		ctx, cancel := context.WithCancel(context.Background())
		fc := &fileControl{file: f, batch: bs, ctx: ctx, cancel: cancel}
		o.files[f.ID] = fc

		if err := o.validateSpec(spec); err != nil {
			// state machine'e hiç girmeden reddedilir
			f.State = consts.StateError
			f.LastError = err.Error()
			fc.failedStage = "validation"
			o.settleLocked(fc)
			continue
		}
		bs.pending.Push(f)
	}
	o.mu.Unlock()

	workers := opts.Concurrency
	if workers > len(specs) {
		workers = len(specs)
	}
	for i := 0; i < workers; i++ {
		go o.worker(bs)
	}

	log.Printf("Batch submit edildi: %s (%d dosya, concurrency %d)", job.ID, len(specs), opts.Concurrency)
	return job, nil
}

func (o *Orchestrator) validateSpec(spec FileSpec) error {
	if err := fileutils.ValidateFilename(spec.Name); err != nil {
		return uperr.ErrUnsafeFilename(err)
	}
	if spec.Size > o.uploadCfg.MaxFileSize {
		return uperr.ErrFileTooLarge(fmt.Errorf("%d > limit %d", spec.Size, o.uploadCfg.MaxFileSize))
	}
	if len(o.uploadCfg.AllowedMimeTypes) > 0 {
		mime := fileutils.GetMimeTypeFromExtension(spec.Name)
		allowed := false
		for _, a := range o.uploadCfg.AllowedMimeTypes {
			if a == mime {
				allowed = true
				break
			}
		}
		if !allowed {
			return uperr.ErrDisallowedType(fmt.Errorf("mime type kabul edilmiyor: %s", mime))
		}
	}
	return nil
}

func mediaKindOf(name string) entities.MediaKind {
	switch {
	case fileutils.IsImageFile(name):
		return entities.KindImage
	case fileutils.IsVideoFile(name):
		return entities.KindVideo
	case fileutils.IsAudioFile(name):
		return entities.KindAudio
	default:
		return entities.KindDocument
	}
}

func normalizePriority(p string) string {
	switch strings.ToLower(p) {
	case consts.PriorityHigh:
		return consts.PriorityHigh
	case consts.PriorityLow:
		return consts.PriorityLow
	default:
		return consts.PriorityNormal
	}
}

// worker slot boşaldıkça sıradaki pending dosyayı çeker.
func (o *Orchestrator) worker(bs *batchState) {
	for {
		f := bs.pending.Pop()
		if f == nil {
			return
		}
		o.mu.Lock()
		fc := o.files[f.ID]
		o.mu.Unlock()
		if fc != nil {
			o.runFile(fc)
		}
	}
}

// runFile tek dosyayı state machine üzerinden uçtan uca yürütür.
func (o *Orchestrator) runFile(fc *fileControl) {
	f := fc.file

	o.mu.Lock()
	switch f.State {
	case consts.StatePending:
		if err := queue.Transition(f, consts.StateUploading); err != nil {
			o.mu.Unlock()
			return
		}
	case consts.StateUploading:
		// manuel retry ile yeniden kabul edilen dosya
	default:
		// kuyruktayken cancel edilmiş
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()
	o.progress(fc, 0, consts.StageUploading)

	if !o.gate(fc) {
		return
	}

	stored, err := o.content.StoreFile(fc.ctx, f.SourcePath, f.OriginalName, func(written, total int64) {
		if total > 0 {
			o.progress(fc, int(5+written*55/total), consts.StageUploading)
		}
	})
	if err != nil {
		o.fail(fc, consts.StageUploading, err)
		return
	}

	o.mu.Lock()
	f.ContentHash = stored.Hash
	f.StorageKey = stored.Key
	f.IsDuplicate = stored.Duplicate
	if stored.Duplicate {
		// derived artifact'ler ilk yazımda üretildi, referansları devralınır
		f.ThumbnailPath = stored.ThumbnailPath
		f.TranscodePath = stored.TranscodePath
	}
	o.mu.Unlock()

	if !o.advanceToProcessing(fc) {
		return
	}
	o.progress(fc, 65, consts.StageProcessing)

	if !stored.Duplicate {
		if err := o.process(fc); err != nil {
			o.fail(fc, consts.StageProcessing, err)
			return
		}
		o.registerArtifacts(fc, stored.Hash)
	}

	o.mu.Lock()
	if err := queue.Transition(f, consts.StateCompleted); err != nil {
		o.mu.Unlock()
		return
	}
	f.Progress = 100
	o.settleLocked(fc)
	o.mu.Unlock()
	o.progress(fc, 100, consts.StageDone)
}

// advanceToProcessing upload biten dosyayı processing'e geçirir. Pause,
// gate'in açılmasıyla kilidin alınması arasına girebilir; o durumda geçiş
// paused'dan denenmiş olur ve reddedilir. Bırakıp dönmek dosyayı resume
// sonrası kimsenin almayacağı şekilde askıda bırakacağından gate'e geri
// dönülür. false dönerse dosya iptal edilmiştir.
func (o *Orchestrator) advanceToProcessing(fc *fileControl) bool {
	for {
		if !o.gate(fc) {
			return false
		}
		o.mu.Lock()
		if fc.paused {
			o.mu.Unlock()
			continue
		}
		err := queue.Transition(fc.file, consts.StateProcessing)
		o.mu.Unlock()
		return err == nil
	}
}

// registerArtifacts processing çıktılarının referanslarını dedup kaydına
// yazar; başarısızlık dosyayı düşürmez, sadece sonraki duplicate'ler
// artifact devralamaz.
func (o *Orchestrator) registerArtifacts(fc *fileControl, hash string) {
	o.mu.Lock()
	thumb, transcode := fc.file.ThumbnailPath, fc.file.TranscodePath
	o.mu.Unlock()
	if thumb == "" && transcode == "" {
		return
	}
	if err := o.content.AttachArtifacts(fc.ctx, hash, thumb, transcode); err != nil {
		log.Printf("Dosya %s: artifact referansları kaydedilemedi: %v", fc.file.ID, err)
	}
}

// process eligible medya türleri için derived artifact'leri üretir.
func (o *Orchestrator) process(fc *fileControl) error {
	f := fc.file

	// resource durumu her processing girişinde yeniden kontrol edilir
	if err := o.pipeline.Health(); err != nil {
		o.haltAdmission(fc.batch, err)
		return err
	}

	switch f.Kind {
	case entities.KindImage:
		thumb, err := o.pipeline.GenerateThumbnail(fc.ctx, f, o.pipeline.ThumbnailDefaults())
		if err != nil {
			return err
		}
		if thumb != nil {
			o.mu.Lock()
			f.ThumbnailPath = thumb.Path
			o.mu.Unlock()
		}
		o.progress(fc, 85, consts.StageThumbnail)

	case entities.KindVideo:
		thumb, err := o.pipeline.GenerateThumbnail(fc.ctx, f, o.pipeline.ThumbnailDefaults())
		if err != nil {
			return err
		}
		if thumb != nil {
			o.mu.Lock()
			f.ThumbnailPath = thumb.Path
			o.mu.Unlock()
		}
		o.progress(fc, 80, consts.StageThumbnail)

		stem := strings.TrimSuffix(filepath.Base(f.OriginalName), filepath.Ext(f.OriginalName))
		res := o.pipeline.TranscodeVideo(fc.ctx, entities.TranscodingJob{
			InputPath:  f.SourcePath,
			OutputPath: filepath.Join(o.transcodeDir, stem+"_transcoded.mp4"),
			Quality:    fc.batch.opts.TranscodeQuality,
		})
		if !res.Success {
			return errors.New(res.Error)
		}
		o.mu.Lock()
		f.TranscodePath = res.OutputPath
		o.mu.Unlock()
		o.progress(fc, 95, consts.StageTranscoding)

	default:
		// document/audio: derived artifact yok
	}
	return nil
}

// gate pause edilmiş worker'ı resume ya da cancel'a kadar bekletir.
// false dönerse dosya iptal edilmiştir, worker slotu bırakır.
func (o *Orchestrator) gate(fc *fileControl) bool {
	o.mu.Lock()
	for fc.paused {
		ch := fc.resumeCh
		o.mu.Unlock()
		select {
		case <-ch:
		case <-fc.ctx.Done():
			return false
		}
		o.mu.Lock()
	}
	o.mu.Unlock()
	return fc.ctx.Err() == nil
}

// fail dosyayı error state'ine düşürür; cancel yarışını kaybettiyse dokunmaz.
func (o *Orchestrator) fail(fc *fileControl, stage string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	f := fc.file
	if f.State == consts.StateCancelled || f.State == consts.StateCompleted {
		return
	}
	// in-flight iş paused iken düşebilir; error'a uploading üzerinden gidilir
	if f.State == consts.StatePaused {
		if terr := queue.Transition(f, consts.StateUploading); terr != nil {
			return
		}
		fc.paused = false
	}
	if terr := queue.Transition(f, consts.StateError); terr != nil {
		return
	}
	f.LastError = err.Error()
	fc.failedStage = stage
	o.settleLocked(fc)

	log.Printf("Dosya %s (%s) %s aşamasında düştü: %v", f.ID, f.OriginalName, stage, err)
	o.events.Publish(fc.batch.job.ID, f.ID, f.Progress, stage)

	// resource hataları (disk dolu vb.) batch için fataldir
	if uperr.IsKind(err, uperr.KindResource) {
		o.haltAdmissionLocked(fc.batch, err)
	}
}

// haltAdmission resource hatasında bekleyen dosyaları tek tek düşürmek
// yerine kabulü kapatır.
func (o *Orchestrator) haltAdmission(bs *batchState, cause error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.haltAdmissionLocked(bs, cause)
}

func (o *Orchestrator) haltAdmissionLocked(bs *batchState, cause error) {
	if bs.halted {
		return
	}
	bs.halted = true

	for _, f := range bs.pending.Close() {
		fc := o.files[f.ID]
		if fc == nil || f.State != consts.StatePending {
			continue
		}
		if err := queue.Transition(f, consts.StateCancelled); err != nil {
			continue
		}
		f.LastError = cause.Error()
		o.settleLocked(fc)
	}
	log.Printf("Batch %s: resource hatası, yeni iş kabulü durdu: %v", bs.job.ID, cause)
}

// progress eşiği ≥1 puan veya stage değişimi; teslimat best-effort.
func (o *Orchestrator) progress(fc *fileControl, percent int, stage string) {
	o.mu.Lock()
	if percent < fc.lastPercent {
		percent = fc.lastPercent
	}
	changed := percent-fc.lastPercent >= 1 || stage != fc.lastStage
	if changed {
		fc.lastPercent = percent
		fc.lastStage = stage
		fc.file.Progress = percent
	}
	batchID := fc.batch.job.ID
	fileID := fc.file.ID
	o.mu.Unlock()

	if changed {
		o.events.Publish(batchID, fileID, percent, stage)
	}
}

// settleLocked (o.mu tutulurken) dosyayı batch sonucuna sayar ve batch
// biterse bekleyenleri uyandırır.
func (o *Orchestrator) settleLocked(fc *fileControl) {
	if fc.counted || !fc.file.Settled() {
		return
	}
	fc.counted = true
	bs := fc.batch
	bs.settled++
	if bs.settled == len(bs.job.Files) {
		o.finalizeLocked(bs)
		bs.done.Broadcast()
	}
}

func (o *Orchestrator) finalizeLocked(bs *batchState) {
	job := bs.job
	job.CompletedAt = time.Now()
	job.SuccessCount, job.FailureCount = 0, 0
	job.Results = job.Results[:0]
	for _, f := range job.Files {
		switch f.State {
		case consts.StateCompleted:
			job.SuccessCount++
		case consts.StateError:
			job.FailureCount++
		}
		// cancelled dosyalar iki sayaca da girmez
		job.Results = append(job.Results, entities.FileResult{
			FileID:        f.ID,
			Filename:      f.OriginalName,
			State:         f.State,
			StorageKey:    f.StorageKey,
			ThumbnailPath: f.ThumbnailPath,
			TranscodePath: f.TranscodePath,
			IsDuplicate:   f.IsDuplicate,
			Error:         f.LastError,
		})
	}
}

// Pause sadece uploading'den geçerlidir; diğer state'lerde
// InvalidStateTransitionError döner.
func (o *Orchestrator) Pause(fileID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	fc, ok := o.files[fileID]
	if !ok {
		return uperr.ErrNotFound(fmt.Errorf("dosya %s", fileID))
	}
	if err := queue.Transition(fc.file, consts.StatePaused); err != nil {
		return err
	}
	fc.paused = true
	fc.resumeCh = make(chan struct{})
	o.events.Publish(fc.batch.job.ID, fileID, fc.file.Progress, consts.StatePaused)
	return nil
}

// Resume sadece paused'dan geçerlidir.
func (o *Orchestrator) Resume(fileID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	fc, ok := o.files[fileID]
	if !ok {
		return uperr.ErrNotFound(fmt.Errorf("dosya %s", fileID))
	}
	if err := queue.Transition(fc.file, consts.StateUploading); err != nil {
		return err
	}
	fc.paused = false
	close(fc.resumeCh)
	o.events.Publish(fc.batch.job.ID, fileID, fc.file.Progress, consts.StageUploading)
	return nil
}

// Cancel terminal olmayan her state'den geçerlidir; in-flight çağrılar
// context üzerinden kesilir, slot hemen boşalır.
func (o *Orchestrator) Cancel(fileID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	fc, ok := o.files[fileID]
	if !ok {
		return uperr.ErrNotFound(fmt.Errorf("dosya %s", fileID))
	}
	if err := queue.Transition(fc.file, consts.StateCancelled); err != nil {
		return err
	}
	fc.cancel()
	fc.paused = false
	o.settleLocked(fc)
	o.events.Publish(fc.batch.job.ID, fileID, fc.file.Progress, consts.StatusCancelled)
	return nil
}

// Retry sadece error state'inden geçerlidir; attempt sayacı sıfırlanmaz,
// kaldığı yerden devam eder. Processing hataları otomatik tekrar
// denenmez (aynı bozuk girdiyi yeniden encode etmek işe yaramaz).
func (o *Orchestrator) Retry(fileID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	fc, ok := o.files[fileID]
	if !ok {
		return uperr.ErrNotFound(fmt.Errorf("dosya %s", fileID))
	}
	f := fc.file
	if f.State != consts.StateError {
		return uperr.ErrInvalidStateTransition(fmt.Errorf("retry sadece error state'inden: %s", f.State))
	}
	if fc.failedStage == consts.StageProcessing {
		return uperr.ErrInvalidStateTransition(fmt.Errorf("processing hatası retry edilmez"))
	}
	if f.RetryCount >= o.maxRetries {
		return uperr.ErrMaxRetriesExceeded(fmt.Errorf("dosya %s: %d deneme", fileID, f.RetryCount))
	}

	if err := queue.Transition(f, consts.StateUploading); err != nil {
		return err
	}
	f.RetryCount++
	f.LastError = ""
	fc.counted = false
	fc.batch.settled--
	fc.ctx, fc.cancel = context.WithCancel(context.Background())

	bs := fc.batch
	bs.pending.Push(f)
	go o.worker(bs)
	return nil
}

// Wait batch'teki her dosya settle olana kadar bloklar ve sonucu döner.
func (o *Orchestrator) Wait(batchID string) (*entities.BatchJob, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	bs, ok := o.batches[batchID]
	if !ok {
		return nil, uperr.ErrNotFound(fmt.Errorf("batch %s", batchID))
	}
	for bs.settled < len(bs.job.Files) {
		bs.done.Wait()
	}
	return o.snapshotLocked(bs), nil
}

// Batch anlık batch görünümü (bloklamaz).
func (o *Orchestrator) Batch(batchID string) (*entities.BatchJob, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	bs, ok := o.batches[batchID]
	if !ok {
		return nil, uperr.ErrNotFound(fmt.Errorf("batch %s", batchID))
	}
	return o.snapshotLocked(bs), nil
}

func (o *Orchestrator) snapshotLocked(bs *batchState) *entities.BatchJob {
	src := bs.job
	cp := &entities.BatchJob{
		ID:           src.ID,
		Concurrency:  src.Concurrency,
		SuccessCount: src.SuccessCount,
		FailureCount: src.FailureCount,
		StartedAt:    src.StartedAt,
		CompletedAt:  src.CompletedAt,
	}
	for _, f := range src.Files {
		fcopy := *f
		cp.Files = append(cp.Files, &fcopy)
	}
	cp.Results = append(cp.Results, src.Results...)
	return cp
}
