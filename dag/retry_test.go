package dag_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/taskflow/dag"
	"github.com/kbukum/taskflow/dag/testutil"
	"github.com/kbukum/taskflow/logger"
)

func TestRunWithRetries_Outcomes(t *testing.T) {
	tests := []struct {
		name         string
		exec         *testutil.FakeExecutor
		maxRetries   int
		wantStatus   dag.Status
		wantAttempts int
		wantCalls    int
	}{
		{
			name:         "success first try",
			exec:         testutil.NewFakeExecutor().Succeed("t", "hello"),
			maxRetries:   2,
			wantStatus:   dag.StatusSuccess,
			wantAttempts: 1,
			wantCalls:    1,
		},
		{
			name:         "two failures then success",
			exec:         testutil.NewFakeExecutor().FailTimes("t", 2),
			maxRetries:   2,
			wantStatus:   dag.StatusSuccess,
			wantAttempts: 3,
			wantCalls:    3,
		},
		{
			name:         "one failure then success",
			exec:         testutil.NewFakeExecutor().FailTimes("t", 1),
			maxRetries:   5,
			wantStatus:   dag.StatusSuccess,
			wantAttempts: 2,
			wantCalls:    2,
		},
		{
			name:         "never succeeds",
			exec:         testutil.NewFakeExecutor().AlwaysFail("t", "boom"),
			maxRetries:   2,
			wantStatus:   dag.StatusFailed,
			wantAttempts: 3,
			wantCalls:    3,
		},
		{
			name:         "no retries",
			exec:         testutil.NewFakeExecutor().AlwaysFail("t", "boom"),
			maxRetries:   0,
			wantStatus:   dag.StatusFailed,
			wantAttempts: 1,
			wantCalls:    1,
		},
		{
			name:         "executor error is a fault",
			exec:         testutil.NewFakeExecutor().Fault("t", errors.New("spawn failed")),
			maxRetries:   2,
			wantStatus:   dag.StatusError,
			wantAttempts: 1,
			wantCalls:    1,
		},
		{
			name:         "panic is a fault",
			exec:         testutil.NewFakeExecutor().Panic("t", "kaboom"),
			maxRetries:   2,
			wantStatus:   dag.StatusError,
			wantAttempts: 1,
			wantCalls:    1,
		},
		{
			name:         "not found",
			exec:         testutil.NewFakeExecutor().NotFound("t"),
			maxRetries:   2,
			wantStatus:   dag.StatusNotFound,
			wantAttempts: 0,
			wantCalls:    1,
		},
		{
			name:         "unsupported",
			exec:         testutil.NewFakeExecutor().Unsupported("t"),
			maxRetries:   2,
			wantStatus:   dag.StatusUnsupported,
			wantAttempts: 1,
			wantCalls:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := dag.RunWithRetries(context.Background(), "t", tt.exec, testutil.FastRetries(tt.maxRetries))

			if r.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s (error %q)", r.Status, tt.wantStatus, r.Error)
			}
			if r.Attempts != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", r.Attempts, tt.wantAttempts)
			}
			if got := tt.exec.Calls("t"); got != tt.wantCalls {
				t.Errorf("executor calls = %d, want %d", got, tt.wantCalls)
			}
			if r.Name != "t" {
				t.Errorf("name = %q", r.Name)
			}
		})
	}
}

func TestRunWithRetries_PanicKeepsStackOutOfResult(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.GetGlobalLogger()
	logger.SetGlobalLogger(logger.NewWriter(&buf, "debug", "dag-test"))
	t.Cleanup(func() { logger.SetGlobalLogger(prev) })

	exec := dag.ExecutorFunc(func(context.Context, string) (dag.Outcome, error) {
		panic("boom")
	})
	r := dag.RunWithRetries(context.Background(), "t", exec, testutil.FastRetries(2))

	if r.Status != dag.StatusError || r.Attempts != 1 {
		t.Fatalf("got status %s after %d attempts", r.Status, r.Attempts)
	}
	if strings.Contains(r.Error, "\n") || strings.Contains(r.Error, "goroutine") {
		t.Errorf("error carries a stack trace: %q", r.Error)
	}
	if !strings.Contains(r.Error, "panic: boom") {
		t.Errorf("error = %q, want the panic value", r.Error)
	}

	logged := buf.String()
	for _, want := range []string{"task panicked", `"panic":"boom"`, `"task":"t"`, "goroutine"} {
		if !strings.Contains(logged, want) {
			t.Errorf("log missing %s:\n%s", want, logged)
		}
	}
}

func TestRunWithRetries_FinalAttemptOutput(t *testing.T) {
	calls := 0
	exec := dag.ExecutorFunc(func(context.Context, string) (dag.Outcome, error) {
		calls++
		if calls < 3 {
			return dag.Outcome{Status: dag.OutcomeFailure, Stderr: "attempt failed"}, nil
		}
		time.Sleep(5 * time.Millisecond)
		return dag.Outcome{Status: dag.OutcomeSuccess, Stdout: "third time"}, nil
	})

	r := dag.RunWithRetries(context.Background(), "t", exec, testutil.FastRetries(2))

	if r.Stdout != "third time" || r.Stderr != "" {
		t.Errorf("output = %q / %q, want final attempt only", r.Stdout, r.Stderr)
	}
	if r.Duration < 5*time.Millisecond {
		t.Errorf("duration = %v, want final attempt's wall clock", r.Duration)
	}
	if !r.StartedAt.Before(r.FinishedAt) {
		t.Errorf("StartedAt %v not before FinishedAt %v", r.StartedAt, r.FinishedAt)
	}
	if r.FinishedAt.Sub(r.StartedAt) < r.Duration {
		t.Error("StartedAt should be the first attempt's start")
	}
}

func TestRunWithRetries_FaultMessage(t *testing.T) {
	exec := testutil.NewFakeExecutor().Fault("t", errors.New("permission denied"))
	r := dag.RunWithRetries(context.Background(), "t", exec, testutil.FastRetries(1))
	if !strings.Contains(r.Error, "permission denied") {
		t.Errorf("error = %q, want cause included", r.Error)
	}
}

func TestRunWithRetries_AttemptInContext(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	exec := dag.ExecutorFunc(func(ctx context.Context, _ string) (dag.Outcome, error) {
		mu.Lock()
		seen = append(seen, dag.AttemptFromContext(ctx))
		mu.Unlock()
		return dag.Outcome{Status: dag.OutcomeFailure}, nil
	})

	dag.RunWithRetries(context.Background(), "t", exec, testutil.FastRetries(2))

	if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 3 {
		t.Errorf("attempt numbers = %v, want [1 2 3]", seen)
	}
}

func TestRunWithRetries_OnRetryBackoff(t *testing.T) {
	var got []time.Duration
	policy := dag.RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     3 * time.Millisecond,
		OnRetry: func(task string, next int, backoff time.Duration) {
			got = append(got, backoff)
		},
	}

	dag.RunWithRetries(context.Background(), "t", testutil.NewFakeExecutor().AlwaysFail("t", ""), policy)

	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond}
	if len(got) != len(want) {
		t.Fatalf("backoffs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("backoff %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := dag.DefaultRetryPolicy()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 0},
		{2, time.Second},
		{3, 2 * time.Second},
		{4, 4 * time.Second},
		{7, 30 * time.Second},
		{20, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
	if p.MaxRetries != 2 {
		t.Errorf("default MaxRetries = %d, want 2", p.MaxRetries)
	}
}

func TestRunWithRetries_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := testutil.NewFakeExecutor()

	r := dag.RunWithRetries(ctx, "t", exec, testutil.FastRetries(2))

	if r.Status != dag.StatusSkipped {
		t.Errorf("status = %s, want skipped", r.Status)
	}
	if exec.Calls("t") != 0 {
		t.Errorf("executor called %d times", exec.Calls("t"))
	}
}

func TestRunWithRetries_CanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exec := testutil.NewFakeExecutor().AlwaysFail("t", "nope")
	policy := dag.RetryPolicy{
		MaxRetries:     5,
		InitialBackoff: time.Hour,
		MaxBackoff:     time.Hour,
		OnRetry:        func(string, int, time.Duration) { cancel() },
	}

	r := dag.RunWithRetries(ctx, "t", exec, policy)

	if r.Status != dag.StatusFailed || r.Attempts != 1 {
		t.Errorf("got %s after %d attempts, want failed after 1", r.Status, r.Attempts)
	}
	if r.Stderr != "nope" {
		t.Errorf("stderr = %q", r.Stderr)
	}
}

func TestRunWithRetries_AttemptSurvivesCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := dag.ExecutorFunc(func(ctx context.Context, _ string) (dag.Outcome, error) {
		cancel()
		if ctx.Err() != nil {
			return dag.Outcome{Status: dag.OutcomeFailure}, nil
		}
		return dag.Outcome{Status: dag.OutcomeSuccess}, nil
	})

	r := dag.RunWithRetries(ctx, "t", exec, testutil.FastRetries(0))
	if r.Status != dag.StatusSuccess {
		t.Errorf("status = %s, want started attempt to finish unaffected", r.Status)
	}
}
