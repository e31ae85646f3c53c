package queue

import (
	"time"

	"media-ingest/internal/domain/entities"
)

// EventPublisher progress eventlerini buffered channel üzerinden yayınlar.
// Teslimat best-effort: kanal doluysa event düşer, worker asla bloklanmaz.
type EventPublisher struct {
	ch chan entities.ProgressEvent
}

func NewEventPublisher(buffer int) *EventPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &EventPublisher{ch: make(chan entities.ProgressEvent, buffer)}
}

func (p *EventPublisher) Publish(batchID, fileID string, percent int, stage string) {
	ev := entities.ProgressEvent{
		BatchID:   batchID,
		FileID:    fileID,
		Percent:   percent,
		Stage:     stage,
		Timestamp: time.Now(),
	}
	select {
	case p.ch <- ev:
	default:
		// kanal dolu, event düşürülür
	}
}

// Events çağıranın drain edeceği kanal.
func (p *EventPublisher) Events() <-chan entities.ProgressEvent {
	return p.ch
}
