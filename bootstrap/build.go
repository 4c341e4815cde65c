package bootstrap

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/kbukum/taskflow/dag"
	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/observability"
	"github.com/kbukum/taskflow/report"
	"github.com/kbukum/taskflow/runner"
)

// SpanPrefix prefixes the span name of every task attempt.
const SpanPrefix = "taskflow.task"

// Graph loads the configured build file. A missing or malformed file is
// logged and yields an empty graph.
func (a *App) Graph() dag.Graph {
	return dag.LoadBuildFileOrEmpty(a.Cfg.Orchestrator.BuildFile, logger.Get(LoggerScheduler))
}

// Executor returns the script executor wrapped with logging, metrics and
// tracing.
func (a *App) Executor() dag.Executor {
	var exec dag.Executor = runner.New(a.Cfg.Orchestrator.Runner())
	exec = dag.WithLogging(exec, logger.Get(LoggerRunner))
	if m := a.Metrics(); m != nil {
		exec = dag.WithMetrics(exec, m)
	}
	return dag.WithTracing(exec, SpanPrefix)
}

// Scheduler returns a scheduler configured from the orchestrator section,
// feeding run metrics when telemetry is up.
func (a *App) Scheduler(ctx context.Context, extra ...dag.Option) *dag.Scheduler {
	opts := a.Cfg.Orchestrator.SchedulerOptions(logger.Get(LoggerScheduler))
	if m := a.Metrics(); m != nil {
		opts = append(opts, dag.ObserveRuns(ctx, m)...)
	}
	return dag.NewScheduler(append(opts, extra...)...)
}

// Build runs target and its transitive dependencies, or every task when
// target is empty, and writes the summary to the dashboard file. A target
// missing from the build file is a TASK_NOT_FOUND error. An empty runID
// gets a fresh one. opts are added to the configured scheduler options.
func (a *App) Build(ctx context.Context, runID, target string, opts ...dag.Option) (*dag.Summary, error) {
	g := a.Graph()
	if target != "" {
		sub, err := g.Subgraph(target)
		if err != nil {
			return nil, err
		}
		g = sub
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	summary, err := a.Scheduler(ctx, opts...).RunWithID(ctx, runID, g, a.Executor())
	if m := a.Metrics(); m != nil {
		dag.RecordRun(ctx, m, summary, err)
	}
	if summary == nil {
		return nil, err
	}

	if exportErr := report.ExportJSON(a.Cfg.Orchestrator.DashboardFile, summary); exportErr != nil {
		a.Logger.Error("unable to write dashboard", logger.Fields(
			"path", a.Cfg.Orchestrator.DashboardFile,
			logger.FieldError, exportErr.Error(),
		))
	}
	return summary, err
}

// BuildFileCheck reports the build file down when it cannot be loaded or
// does not validate under the configured unknown-dependency policy.
func (a *App) BuildFileCheck() observability.HealthChecker {
	return observability.HealthCheckFunc(func(context.Context) observability.Health {
		h := observability.Health{Name: "build_file", Status: observability.HealthStatusUp}
		path := a.Cfg.Orchestrator.BuildFile
		g, err := dag.LoadBuildFile(path)
		if err == nil {
			policy := dag.UnknownPolicy(a.Cfg.Orchestrator.UnknownDependencies)
			err = dag.Validate(g, dag.WithUnknownPolicy(policy))
		}
		if err != nil {
			h.Status = observability.HealthStatusDown
			h.Message = err.Error()
			return h
		}
		h.Details = map[string]string{"path": path, "tasks": strconv.Itoa(len(g))}
		return h
	})
}
