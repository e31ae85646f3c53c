package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Policy, exponential backoff parametrelerini taşır. Storage ve transcoding
// çağrılarının tek retry otoritesi burasıdır; başka yerde ad hoc retry
// döngüsü yazılmaz.
type Policy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64

	// Retryable nil ise her hata tekrar denenir. Transient olmayan
	// hataları elemek için set edilir.
	Retryable func(error) bool
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		BaseDelay:     1 * time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}
}

// DelayFor n. denemeden (1 tabanlı) sonra beklenecek süreyi döner:
// min(baseDelay * backoffFactor^(n-1), maxDelay)
func (p Policy) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.BackoffFactor, float64(attempt-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// ExhaustedError tüm denemeler tükendiğinde döner; orijinal hatayı ve
// deneme sayısını taşır.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%d deneme sonunda başarısız: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do operasyonu policy'ye göre çalıştırır. Context iptal edilirse bekleme
// kesilir ve ctx.Err() döner.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}

		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-time.After(p.DelayFor(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return &ExhaustedError{Attempts: p.MaxAttempts, Err: lastErr}
}
