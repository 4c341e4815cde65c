package dag

import (
	"context"
	"time"
)

// OutcomeStatus is the terminal status of one attempt as reported by an Executor.
type OutcomeStatus string

const (
	// OutcomeSuccess ends the task successfully.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeFailure is an ordinary failed completion and is retried.
	OutcomeFailure OutcomeStatus = "failure"
	// OutcomeFault is an unexpected error. It ends the task with StatusError.
	OutcomeFault OutcomeStatus = "fault"
	// OutcomeNotFound means the task's runnable target does not exist.
	OutcomeNotFound OutcomeStatus = "not_found"
	// OutcomeUnsupported means the executor does not know how to run the target.
	OutcomeUnsupported OutcomeStatus = "unsupported"
)

// Outcome is what an Executor reports for one attempt.
type Outcome struct {
	Status   OutcomeStatus
	Stdout   string
	Stderr   string
	Duration time.Duration
	// Err optionally explains a non-success outcome.
	Err error
}

// Executor performs the actual work of a task. It is called once per
// attempt. Returning a non-nil error, or panicking, is treated as a fault.
type Executor interface {
	Execute(ctx context.Context, task string) (Outcome, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, task string) (Outcome, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, task string) (Outcome, error) {
	return f(ctx, task)
}

type attemptKey struct{}

// ContextWithAttempt returns ctx carrying the 1-based attempt number.
func ContextWithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey{}, attempt)
}

// AttemptFromContext returns the attempt number set by the retry policy, or 0.
func AttemptFromContext(ctx context.Context) int {
	if n, ok := ctx.Value(attemptKey{}).(int); ok {
		return n
	}
	return 0
}
