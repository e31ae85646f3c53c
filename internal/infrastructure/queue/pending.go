package queue

import (
	"sync"

	"media-ingest/internal/domain/entities"
	consts "media-ingest/pkg/constants"
)

// PendingQueue slot bekleyen dosyaların kuyruğu. Aynı öncelik içinde FIFO;
// high her zaman normal/low'dan önce çekilir.
type PendingQueue struct {
	mu     sync.Mutex
	high   []*entities.UploadFile
	normal []*entities.UploadFile
	low    []*entities.UploadFile
	closed bool
	// boş kuyrukta bekleyen worker yok; orchestrator sinyali ayrıca verir
}

func NewPendingQueue() *PendingQueue {
	return &PendingQueue{}
}

func (q *PendingQueue) Push(f *entities.UploadFile) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	switch f.Priority {
	case consts.PriorityHigh:
		q.high = append(q.high, f)
	case consts.PriorityLow:
		q.low = append(q.low, f)
	default:
		q.normal = append(q.normal, f)
	}
}

// Pop sıradaki dosyayı döner; kuyruk boşsa nil.
func (q *PendingQueue) Pop() *entities.UploadFile {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.high) > 0 {
		f := q.high[0]
		q.high = q.high[1:]
		return f
	}
	if len(q.normal) > 0 {
		f := q.normal[0]
		q.normal = q.normal[1:]
		return f
	}
	if len(q.low) > 0 {
		f := q.low[0]
		q.low = q.low[1:]
		return f
	}
	return nil
}

func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.high) + len(q.normal) + len(q.low)
}

// Close yeni iş kabulünü durdurur ve bekleyenleri boşaltıp döner
// (resource hatasında admission halt için).
func (q *PendingQueue) Close() []*entities.UploadFile {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	remaining := make([]*entities.UploadFile, 0, len(q.high)+len(q.normal)+len(q.low))
	remaining = append(remaining, q.high...)
	remaining = append(remaining, q.normal...)
	remaining = append(remaining, q.low...)
	q.high, q.normal, q.low = nil, nil, nil
	return remaining
}
