package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{Attempts: 3}, func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{Attempts: 3, Delay: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoWrapsLastError(t *testing.T) {
	sentinel := errors.New("node down")
	err := Do(context.Background(), Config{Attempts: 2, Delay: time.Millisecond}, func(context.Context) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("error should carry attempt count: %v", err)
	}
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Config{Attempts: 5, Delay: time.Millisecond}, func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	Do(context.Background(), Config{}, func(context.Context) error {
		calls++
		return errors.New("x")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoPerAttemptTimeout(t *testing.T) {
	err := Do(context.Background(), Config{Attempts: 2, PerAttempt: 10 * time.Millisecond}, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestValueRejectedValueRetries(t *testing.T) {
	calls := 0
	v, err := Value(context.Background(), Config{Attempts: 3, Delay: time.Millisecond}, func(context.Context) (string, bool, error) {
		calls++
		if calls < 2 {
			return "Loading...", false, nil
		}
		return "bc1qaddr", true, nil
	})
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != "bc1qaddr" {
		t.Errorf("value = %q", v)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestValueExhaustedWithoutError(t *testing.T) {
	v, err := Value(context.Background(), Config{Attempts: 2, Delay: time.Millisecond}, func(context.Context) (string, bool, error) {
		return "Loading...", false, nil
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if v != "Loading..." {
		t.Errorf("last rejected value should be returned: %q", v)
	}
}

func TestValueExhaustedWithError(t *testing.T) {
	sentinel := errors.New("rpc refused")
	_, err := Value(context.Background(), Config{Attempts: 2, Delay: time.Millisecond}, func(context.Context) (string, bool, error) {
		return "", false, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}
