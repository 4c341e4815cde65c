package dag

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/kbukum/taskflow/errors"
	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/resilience"
)

// RetryPolicy bounds how often a failing task is re-attempted and how long
// to wait in between. The wait before attempt n+1 is
// min(InitialBackoff * 2^(n-1), MaxBackoff).
type RetryPolicy struct {
	// MaxRetries is the number of re-attempts after the first; total attempts
	// are at most MaxRetries+1. Negative values count as zero.
	MaxRetries int
	// InitialBackoff is the wait before the second attempt. Zero selects
	// resilience.DefaultInitialBackoff.
	InitialBackoff time.Duration
	// MaxBackoff caps every wait. Zero selects resilience.DefaultMaxBackoff.
	MaxBackoff time.Duration
	// OnRetry is called before waiting ahead of attempt next.
	OnRetry func(task string, next int, backoff time.Duration)
}

// DefaultRetryPolicy returns two retries on the 1s/30s schedule.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     2,
		InitialBackoff: resilience.DefaultInitialBackoff,
		MaxBackoff:     resilience.DefaultMaxBackoff,
	}
}

// Backoff returns the wait before the given 1-based attempt; zero for the first.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.config().Backoff(attempt)
}

func (p RetryPolicy) config() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    max(p.MaxRetries, 0) + 1,
		InitialBackoff: p.InitialBackoff,
		MaxBackoff:     p.MaxBackoff,
		BackoffFactor:  resilience.DefaultBackoffFactor,
		RetryIf: func(err error) bool {
			return errors.Is(err, errors.ErrTaskFailure)
		},
	}
}

// RunWithRetries runs task through exec until it reaches a terminal outcome.
//
// Only OutcomeFailure is retried. Success, not-found, unsupported and faults
// end the task at once; an executor error or panic is a fault. An attempt
// that has started always runs to completion: ctx only stops further
// attempts and backoff waits, in which case the last attempt's result is
// returned. If ctx is done before the first attempt the task is skipped.
func RunWithRetries(ctx context.Context, task string, exec Executor, policy RetryPolicy) TaskResult {
	cfg := policy.config()
	cfg.OnRetry = func(next int, _ error, backoff time.Duration) {
		if policy.OnRetry != nil {
			policy.OnRetry(task, next, backoff)
		}
	}

	attemptCtx := context.WithoutCancel(ctx)
	var firstStart time.Time

	result, _ := resilience.Retry(ctx, cfg, func(attempt int) (TaskResult, error) {
		r := runAttempt(ContextWithAttempt(attemptCtx, attempt), task, exec, attempt)
		if attempt == 1 {
			firstStart = r.StartedAt
		}
		switch r.Status {
		case StatusSuccess:
			return r, nil
		case StatusFailed:
			return r, errors.TaskFailure(task, attempt)
		default:
			return r, errTerminal
		}
	})

	if firstStart.IsZero() {
		return TaskResult{Name: task, Status: StatusSkipped, Error: "run canceled before start"}
	}
	result.StartedAt = firstStart
	return result
}

var errTerminal = errors.New(errors.ErrCodeInternal, "terminal outcome", 0)

// runAttempt calls the executor once and maps its outcome to a TaskResult.
func runAttempt(ctx context.Context, task string, exec Executor, attempt int) TaskResult {
	var (
		out     Outcome
		execErr error
		catcher panics.Catcher
	)
	start := time.Now()
	catcher.Try(func() {
		out, execErr = exec.Execute(ctx, task)
	})
	end := time.Now()

	r := TaskResult{
		Name:       task,
		Stdout:     out.Stdout,
		Stderr:     out.Stderr,
		Attempts:   attempt,
		StartedAt:  start,
		FinishedAt: end,
		Duration:   end.Sub(start),
	}

	if rec := catcher.Recovered(); rec != nil {
		logger.Error("task panicked", logger.Fields(
			logger.FieldTask, task,
			logger.FieldAttempt, attempt,
			"panic", fmt.Sprint(rec.Value),
			"stack", string(rec.Stack),
		))
		r.Status = StatusError
		r.Error = errors.TaskFault(task, fmt.Errorf("panic: %v", rec.Value)).Error()
		return r
	}
	if execErr != nil {
		r.Status = StatusError
		r.Error = errors.TaskFault(task, execErr).Error()
		return r
	}

	switch out.Status {
	case OutcomeSuccess:
		r.Status = StatusSuccess
	case OutcomeFailure:
		r.Status = StatusFailed
		r.Error = errorText(out.Err)
	case OutcomeNotFound:
		r.Status = StatusNotFound
		r.Attempts = 0
		r.Error = errors.TaskNotFound(task).Error()
	case OutcomeUnsupported:
		r.Status = StatusUnsupported
		r.Error = errors.UnsupportedTask(task, "").Error()
		if out.Err != nil {
			r.Error = out.Err.Error()
		}
	case OutcomeFault:
		r.Status = StatusError
		r.Error = errors.TaskFault(task, out.Err).Error()
	default:
		r.Status = StatusError
		r.Error = errors.TaskFault(task, fmt.Errorf("unknown outcome status %q", out.Status)).Error()
	}
	return r
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
