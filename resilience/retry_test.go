package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	callCount := 0
	result, err := Retry(context.Background(), RetryConfig{}, func(attempt int) (string, error) {
		callCount++
		return "success", nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}
	var seen []int
	result, err := Retry(context.Background(), cfg, func(attempt int) (string, error) {
		seen = append(seen, attempt)
		if attempt < 3 {
			return "partial", errors.New("temporary error")
		}
		return "success", nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Errorf("expected attempts 1..3, got %v", seen)
	}
}

func TestRetry_ExhaustedReturnsLastValue(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}
	testErr := errors.New("persistent error")
	result, err := Retry(context.Background(), cfg, func(attempt int) (int, error) {
		return attempt * 10, testErr
	})
	if !errors.Is(err, testErr) {
		t.Errorf("expected testErr, got %v", err)
	}
	if result != 30 {
		t.Errorf("expected last attempt's value 30, got %d", result)
	}
}

func TestRetry_RetryIfStopsEarly(t *testing.T) {
	fatal := errors.New("fatal")
	cfg := RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
		RetryIf:        func(err error) bool { return !errors.Is(err, fatal) },
	}
	calls := 0
	_, err := Retry(context.Background(), cfg, func(attempt int) (struct{}, error) {
		calls++
		return struct{}{}, fatal
	})
	if !errors.Is(err, fatal) {
		t.Errorf("expected fatal error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
}

func TestRetry_OnRetryReportsNextAttemptAndBackoff(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond}
	type call struct {
		next    int
		backoff time.Duration
	}
	var calls []call
	cfg.OnRetry = func(next int, err error, backoff time.Duration) {
		calls = append(calls, call{next, backoff})
	}
	_, _ = Retry(context.Background(), cfg, func(attempt int) (struct{}, error) { return struct{}{}, errors.New("x") })

	want := []call{{2, time.Millisecond}, {3, 2 * time.Millisecond}}
	if len(calls) != len(want) {
		t.Fatalf("expected %d OnRetry calls, got %d", len(want), len(calls))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %+v, got %+v", i, want[i], calls[i])
		}
	}
}

func TestRetry_ContextCanceledDuringBackoff(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 10, InitialBackoff: time.Hour, MaxBackoff: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan struct{})
	var result int
	var err error
	go func() {
		defer close(done)
		result, err = Retry(ctx, cfg, func(attempt int) (int, error) {
			calls++
			return 7, errors.New("fail")
		})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Retry did not return after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 || result != 7 {
		t.Errorf("expected 1 call with last value 7, got calls=%d result=%d", calls, result)
	}
}

func TestRetry_CanceledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := Retry(ctx, RetryConfig{}, func(attempt int) (int, error) {
		calls++
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Errorf("expected no call and Canceled, got calls=%d err=%v", calls, err)
	}
}

func TestBackoffSchedule(t *testing.T) {
	cfg := RetryConfig{}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 0},
		{2, time.Second},
		{3, 2 * time.Second},
		{4, 4 * time.Second},
		{6, 16 * time.Second},
		{7, 30 * time.Second},
		{20, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := cfg.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffCapBelowInitial(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 2 * time.Second, MaxBackoff: time.Second}
	if got := cfg.Backoff(2); got != 2*time.Second {
		t.Errorf("expected cap raised to initial backoff, got %v", got)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected Canceled, got %v", err)
	}
}
