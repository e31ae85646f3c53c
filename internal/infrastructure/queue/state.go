package queue

import (
	"fmt"
	"time"

	"media-ingest/internal/domain/entities"
	consts "media-ingest/pkg/constants"
	uperr "media-ingest/pkg/errors"
)

// Dosya başına state machine:
//
//	pending -> uploading -> processing -> completed
//	uploading -> paused -> uploading
//	uploading -> error -> uploading (retry) | cancelled
//	processing -> error -> cancelled
//	terminal olmayan her state -> cancelled
var transitions = map[string][]string{
	consts.StatePending:    {consts.StateUploading, consts.StateCancelled},
	consts.StateUploading:  {consts.StateProcessing, consts.StatePaused, consts.StateError, consts.StateCancelled},
	consts.StatePaused:     {consts.StateUploading, consts.StateCancelled},
	consts.StateProcessing: {consts.StateCompleted, consts.StateError, consts.StateCancelled},
	consts.StateError:      {consts.StateUploading, consts.StateCancelled},
	consts.StateCompleted:  {},
	consts.StateCancelled:  {},
}

func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition illegal geçişleri sessizce yutmak yerine
// InvalidStateTransitionError ile reddeder; state değişmeden kalır.
func Transition(f *entities.UploadFile, to string) error {
	if !CanTransition(f.State, to) {
		return uperr.ErrInvalidStateTransition(
			fmt.Errorf("dosya %s: %s -> %s geçişi tanımlı değil", f.ID, f.State, to))
	}

	f.State = to
	switch to {
	case consts.StateUploading:
		if f.StartedAt.IsZero() {
			f.StartedAt = time.Now()
		}
	case consts.StateCompleted, consts.StateCancelled:
		f.CompletedAt = time.Now()
	}
	return nil
}
