package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsFirstTry(t *testing.T) {
	t.Parallel()

	calls := 0
	p := Policy{MaxAttempts: 3}
	err := p.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoExhaustsBudget(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	calls := 0
	p := Policy{MaxAttempts: 3}
	err := p.Do(context.Background(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	permanent := errors.New("origin 404")
	calls := 0
	p := Policy{
		MaxAttempts: 5,
		Retryable:   func(err error) bool { return !errors.Is(err, permanent) },
	}
	err := p.Do(context.Background(), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retry on permanent error, got %d calls", calls)
	}
}

func TestDoHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{
		MaxAttempts: 3,
		Backoff:     func(int) time.Duration { return time.Hour },
	}
	err := p.Do(ctx, func() error { return errors.New("transient") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestJitteredBounds(t *testing.T) {
	t.Parallel()

	backoff := Jittered(400*time.Millisecond, 400*time.Millisecond)
	for attempt := 1; attempt <= 3; attempt++ {
		d := backoff(attempt)
		lo := time.Duration(attempt) * 400 * time.Millisecond
		hi := lo + 400*time.Millisecond
		if d < lo || d > hi {
			t.Fatalf("attempt %d backoff %v outside [%v, %v]", attempt, d, lo, hi)
		}
	}
}
