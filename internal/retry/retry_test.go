package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3}, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAndReturnsLastError(t *testing.T) {
	calls := 0
	last := errors.New("still broken")
	err := Do(context.Background(), Policy{MaxAttempts: 3}, func() error {
		calls++
		return last
	})
	if calls != 3 {
		t.Fatalf("expected exactly 3 calls, got %d", calls)
	}
	if !errors.Is(err, last) {
		t.Fatalf("expected last error to surface, got %v", err)
	}
}

func TestDo_PermanentShortCircuits(t *testing.T) {
	calls := 0
	fatal := errors.New("auth rejected")
	err := Do(context.Background(), Policy{MaxAttempts: 5}, func() error {
		calls++
		return Permanent(fatal)
	})
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
	if !errors.Is(err, fatal) {
		t.Fatalf("expected unwrapped permanent error, got %v", err)
	}
}

func TestDo_ContextCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- Do(ctx, Policy{MaxAttempts: 3, Delay: time.Hour}, func() error {
			calls++
			return errors.New("transient")
		})
	}()
	// Give the first attempt a moment to run, then cancel during the wait.
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	if calls != 1 {
		t.Fatalf("expected a single call before cancellation, got %d", calls)
	}
}

func TestDo_ZeroAttemptsStillRunsOnce(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), Policy{}, func() error {
		calls++
		return errors.New("x")
	})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
