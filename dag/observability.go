package dag

import (
	"context"
	"time"

	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/observability"
)

// WithTracing wraps an Executor with OpenTelemetry span creation.
// Each attempt creates a span named "{prefix}.{task}".
func WithTracing(exec Executor, prefix string) Executor {
	return ExecutorFunc(func(ctx context.Context, task string) (Outcome, error) {
		ctx, span := observability.StartSpan(ctx, prefix+"."+task)
		defer span.End()

		observability.SetSpanAttribute(ctx, observability.AttrTask, task)
		observability.SetSpanAttribute(ctx, observability.AttrAttempt, AttemptFromContext(ctx))

		out, err := exec.Execute(ctx, task)
		observability.SetSpanAttribute(ctx, observability.AttrOutcome, outcomeLabel(out, err))
		switch {
		case err != nil:
			observability.SetSpanError(ctx, err)
		case out.Err != nil:
			observability.SetSpanError(ctx, out.Err)
		}
		return out, err
	})
}

// WithMetrics wraps an Executor with per-attempt metric recording.
func WithMetrics(exec Executor, metrics *observability.Metrics) Executor {
	return ExecutorFunc(func(ctx context.Context, task string) (Outcome, error) {
		start := time.Now()
		out, err := exec.Execute(ctx, task)
		metrics.RecordAttempt(ctx, task, outcomeLabel(out, err), time.Since(start))
		return out, err
	})
}

// WithLogging wraps an Executor with per-attempt logging. Task output is
// logged at info level for stdout and error level for stderr.
func WithLogging(exec Executor, log *logger.Logger) Executor {
	return ExecutorFunc(func(ctx context.Context, task string) (Outcome, error) {
		fields := logger.TaskFields(task, AttemptFromContext(ctx))
		log.Info("running task", fields)

		start := time.Now()
		out, err := exec.Execute(ctx, task)
		duration := time.Since(start)

		if out.Stdout != "" {
			log.Info("task output", logger.Fields(logger.FieldTask, task, "stdout", out.Stdout))
		}
		if out.Stderr != "" {
			log.Error("task error output", logger.Fields(logger.FieldTask, task, "stderr", out.Stderr))
		}

		done := logger.MergeWithDuration(logger.TaskFields(task, AttemptFromContext(ctx)), duration)
		done[logger.FieldStatus] = outcomeLabel(out, err)
		switch {
		case err != nil:
			log.Error("task attempt faulted", logger.MergeWithError(done, err))
		case out.Status == OutcomeSuccess:
			log.Debug("task attempt completed", done)
		default:
			if out.Err != nil {
				done = logger.MergeWithError(done, out.Err)
			}
			log.Warn("task attempt did not succeed", done)
		}
		return out, err
	})
}

func outcomeLabel(out Outcome, err error) string {
	if err != nil {
		return string(OutcomeFault)
	}
	if out.Status == "" {
		return "unknown"
	}
	return string(out.Status)
}

// ObserveRuns returns scheduler options that feed run-level metrics: final
// task statuses and active workers.
func ObserveRuns(ctx context.Context, metrics *observability.Metrics) []Option {
	return []Option{
		OnResult(func(_ string, r TaskResult) {
			metrics.RecordTask(ctx, r.Name, string(r.Status))
		}),
		OnWorker(
			func() { metrics.WorkerAcquired(ctx) },
			func() { metrics.WorkerReleased(ctx) },
		),
	}
}

// RecordRun records the outcome of a finished run.
func RecordRun(ctx context.Context, metrics *observability.Metrics, summary *Summary, runErr error) {
	if summary == nil {
		return
	}
	result := "success"
	switch {
	case runErr != nil:
		result = "canceled"
	case !summary.AllSucceeded():
		result = "failure"
	}
	metrics.RecordRun(ctx, result, summary.Duration)
}
