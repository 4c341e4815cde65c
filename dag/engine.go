package dag

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/kbukum/taskflow/errors"
	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/resilience"
)

// FailurePolicy decides what happens to the dependents of a task that did
// not succeed.
type FailurePolicy string

const (
	// FailureContinue unlocks dependents on any completion.
	FailureContinue FailurePolicy = "continue"
	// FailureSkipDependents marks every transitive dependent skipped.
	FailureSkipDependents FailurePolicy = "skip-dependents"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConcurrency bounds the number of tasks running at once. Zero or a
// negative value means unbounded.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) { s.concurrency = n }
}

// WithRetryPolicy sets the per-task retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Scheduler) { s.retry = p }
}

// WithFailurePolicy sets the failure policy. The default is FailureContinue.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(s *Scheduler) {
		if p != "" {
			s.failure = p
		}
	}
}

// WithUnknownDependencies sets the unknown-dependency policy used when the
// graph is validated. The default is UnknownPermissive.
func WithUnknownDependencies(p UnknownPolicy) Option {
	return func(s *Scheduler) {
		if p != "" {
			s.unknown = p
		}
	}
}

// WithLogger sets the scheduler's logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// OnStateChange registers a hook for task state transitions.
func OnStateChange(fn StateHook) Option {
	return func(s *Scheduler) { s.onState = fn }
}

// OnResult registers a hook called from the coordinator for every recorded
// result, including skipped ones. Hooks accumulate.
func OnResult(fn func(runID string, r TaskResult)) Option {
	return func(s *Scheduler) { s.onResult = append(s.onResult, fn) }
}

// OnWorker registers hooks for worker slot acquisition and release. Hooks
// accumulate.
func OnWorker(acquire, release func()) Option {
	return func(s *Scheduler) {
		s.onAcquire = append(s.onAcquire, acquire)
		s.onRelease = append(s.onRelease, release)
	}
}

// Scheduler runs a Graph: every task starts as soon as all of its known
// dependencies are done, subject to the concurrency bound. A Scheduler
// holds configuration only; each run gets its own ExecutionState, so one
// Scheduler may serve concurrent runs.
type Scheduler struct {
	concurrency int
	retry       RetryPolicy
	failure     FailurePolicy
	unknown     UnknownPolicy
	log         *logger.Logger

	onState   StateHook
	onResult  []func(runID string, r TaskResult)
	onAcquire []func()
	onRelease []func()
}

// NewScheduler creates a scheduler with the default retry policy, unbounded
// concurrency and the continue failure policy.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		retry:   DefaultRetryPolicy(),
		failure: FailureContinue,
		unknown: UnknownPermissive,
		log:     logger.WithComponent("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes every task of g under a fresh run ID.
func (s *Scheduler) Run(ctx context.Context, g Graph, exec Executor) (*Summary, error) {
	return s.RunWithID(ctx, uuid.NewString(), g, exec)
}

// RunTarget executes target and everything it transitively depends on.
// A target that is not part of g runs on its own, leaving the executor to
// report whether it exists.
func (s *Scheduler) RunTarget(ctx context.Context, g Graph, exec Executor, target string) (*Summary, error) {
	sub, err := g.Subgraph(target)
	if errors.Is(err, errors.ErrTaskNotFound) {
		sub = Graph{target: nil}
	} else if err != nil {
		return nil, err
	}
	return s.Run(ctx, sub, exec)
}

type completion struct {
	task    string
	result  TaskResult
	started bool
}

// RunWithID executes every task of g and returns the run summary.
//
// The graph is validated first; a *CycleError or *UnknownDependencyError is
// returned with a nil summary and nothing is dispatched. Task outcomes never
// produce an error. When ctx ends, dispatch stops, running tasks finish, and
// every task without a result is reported skipped; the partial summary is
// returned together with a CANCELED error.
func (s *Scheduler) RunWithID(ctx context.Context, runID string, g Graph, exec Executor) (*Summary, error) {
	log := s.log.WithRun(runID)

	if err := Validate(g, WithUnknownPolicy(s.unknown)); err != nil {
		log.Error("graph rejected", logger.Fields(logger.FieldError, err.Error()))
		return nil, err
	}

	unknown := g.UnknownDependencies()
	for _, task := range slices.Sorted(maps.Keys(unknown)) {
		for _, dep := range unknown[task] {
			log.Warn("unknown dependency treated as satisfied", logger.Fields(
				logger.FieldTask, task,
				"dependency", dep,
			))
		}
	}

	start := time.Now()
	log.Info("run started", logger.Fields("tasks", len(g), "concurrency", s.concurrency))

	state := newExecutionState(g, s.onState)
	bulkhead := resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "scheduler",
		MaxConcurrent: s.concurrency,
		OnAcquire: func(string) {
			for _, fn := range s.onAcquire {
				fn()
			}
		},
		OnRelease: func(string) {
			for _, fn := range s.onRelease {
				fn()
			}
		},
	})

	done := make(chan completion, len(g))
	var wg conc.WaitGroup
	skipDependents := s.failure == FailureSkipDependents

	for {
		if ctx.Err() == nil {
			for _, task := range state.dispatch() {
				wg.Go(func() {
					done <- s.work(ctx, task, exec, state, bulkhead)
				})
			}
		}
		if !state.busy() {
			break
		}

		c := <-done
		if !c.started {
			state.abandon(c.task)
			continue
		}
		for _, r := range state.complete(c.result, skipDependents) {
			s.report(log, runID, r)
		}
	}
	wg.Wait()

	results := state.finish("run canceled")
	summary := Summarize(results)
	summary.RunID = runID
	summary.StartedAt = start
	if summary.FinishedAt.IsZero() {
		summary.FinishedAt = start
	}
	summary.Duration = summary.FinishedAt.Sub(start)

	fields := logger.Fields(
		"scheduled", summary.Scheduled,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	if err := ctx.Err(); err != nil {
		log.Warn("run canceled", fields)
		return &summary, errors.Canceled(err)
	}
	log.Info("run finished", logger.MergeWithDuration(fields, summary.Duration))
	return &summary, nil
}

// work runs one task inside a worker slot.
func (s *Scheduler) work(ctx context.Context, task string, exec Executor, state *ExecutionState, bh *resilience.Bulkhead) completion {
	if err := bh.Acquire(ctx); err != nil {
		return completion{task: task}
	}
	defer bh.Release()

	state.markRunning(task)
	policy := s.retry
	if policy.OnRetry == nil {
		policy.OnRetry = func(task string, next int, backoff time.Duration) {
			s.log.Warn("task failed, retrying", logger.Fields(
				logger.FieldTask, task,
				logger.FieldAttempt, next,
				logger.FieldBackoff, backoff.String(),
			))
		}
	}

	r := RunWithRetries(ctx, task, exec, policy)
	return completion{task: task, result: r, started: r.Status != StatusSkipped}
}

func (s *Scheduler) report(log *logger.Logger, runID string, r TaskResult) {
	fields := logger.Fields(
		logger.FieldTask, r.Name,
		logger.FieldStatus, string(r.Status),
		logger.FieldAttempt, r.Attempts,
	)
	switch r.Status {
	case StatusSuccess:
		log.Info("task finished", logger.MergeWithDuration(fields, r.Duration))
	case StatusSkipped:
		log.Warn("task skipped", logger.Fields(logger.FieldTask, r.Name, "reason", r.Error))
	default:
		fields[logger.FieldError] = r.Error
		log.Error("task did not succeed", logger.MergeWithDuration(fields, r.Duration))
	}
	for _, fn := range s.onResult {
		fn(runID, r)
	}
}
