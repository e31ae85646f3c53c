package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDelayForSequence(t *testing.T) {
	p := Policy{
		MaxAttempts:   5,
		BaseDelay:     1000 * time.Millisecond,
		MaxDelay:      10000 * time.Millisecond,
		BackoffFactor: 2,
	}

	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		10000 * time.Millisecond, // cap
	}

	for i, w := range want {
		got := p.DelayFor(i + 1)
		if got != w {
			t.Errorf("DelayFor(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	p := Policy{MaxAttempts: 4, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}

	calls := 0
	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("network hiccup")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("op %d kez çağrıldı, 3 bekleniyordu", calls)
	}
}

func TestDoExhaustionWrapsCause(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, BackoffFactor: 2}

	cause := errors.New("disk yanıt vermiyor")
	err := Do(context.Background(), p, func(ctx context.Context) error {
		return cause
	})

	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("ExhaustedError bekleniyordu, %T geldi", err)
	}
	if ex.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", ex.Attempts)
	}
	if !errors.Is(err, cause) {
		t.Error("orijinal hata unwrap edilemiyor")
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	perm := errors.New("bad input")
	p := Policy{
		MaxAttempts:   5,
		BaseDelay:     time.Millisecond,
		BackoffFactor: 2,
		Retryable:     func(err error) bool { return !errors.Is(err, perm) },
	}

	calls := 0
	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		return perm
	})
	if !errors.Is(err, perm) {
		t.Fatalf("perm hatası bekleniyordu: %v", err)
	}
	if calls != 1 {
		t.Errorf("non-retryable hata %d kez denendi", calls)
	}
}

func TestDoRespectsContextCancel(t *testing.T) {
	p := Policy{MaxAttempts: 10, BaseDelay: time.Hour, BackoffFactor: 2}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, p, func(ctx context.Context) error {
			return errors.New("fail")
		})
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("context.Canceled bekleniyordu: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do iptal edilen context ile bloke kaldı")
	}
}
