package util

import (
	"context"
	"errors"
	"testing"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	result, err := Retry(3, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if result != 42 || calls != 3 {
		t.Fatalf("Retry() = %d after %d calls, want 42 after 3", result, calls)
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	wantErr := errors.New("persistent")
	calls := 0
	_, err := Retry(2, func() (int, error) {
		calls++
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Retry() error = %v, want %v", err, wantErr)
	}
	if calls != 2 {
		t.Fatalf("Retry() calls = %d, want 2", calls)
	}
}

func TestRetryWithContextStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := RetryWithContext(ctx, 5, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("should not retry")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RetryWithContext() error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Fatalf("RetryWithContext() calls = %d, want 0", calls)
	}
}

func TestRetryErrDefaultsToSingleAttempt(t *testing.T) {
	calls := 0
	err := RetryErr(0, func() error {
		calls++
		return errors.New("fail")
	})
	if err == nil || calls != 1 {
		t.Fatalf("RetryErr() err=%v calls=%d, want one failing attempt", err, calls)
	}
}
