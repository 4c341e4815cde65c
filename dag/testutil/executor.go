package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kbukum/taskflow/dag"
)

// step is one scripted attempt.
type step struct {
	outcome dag.Outcome
	err     error
	panic   any
}

// FakeExecutor is a scripted dag.Executor. Each task replays its steps in
// order; the last step repeats once the script runs out. Unscripted tasks
// succeed. It records calls, start order and peak concurrency.
type FakeExecutor struct {
	mu       sync.Mutex
	scripts  map[string][]step
	delays   map[string]time.Duration
	calls    map[string]int
	started  []string
	finished []string
	inFlight int
	peak     int
	onStart  func(task string)
}

var _ dag.Executor = (*FakeExecutor)(nil)

// NewFakeExecutor creates an executor where every task succeeds.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{
		scripts: make(map[string][]step),
		delays:  make(map[string]time.Duration),
		calls:   make(map[string]int),
	}
}

func (f *FakeExecutor) script(task string, steps ...step) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[task] = append(f.scripts[task], steps...)
	return f
}

// Succeed scripts a successful attempt with the given stdout.
func (f *FakeExecutor) Succeed(task, stdout string) *FakeExecutor {
	return f.script(task, step{outcome: dag.Outcome{Status: dag.OutcomeSuccess, Stdout: stdout}})
}

// FailTimes scripts n failed attempts followed by a success.
func (f *FakeExecutor) FailTimes(task string, n int) *FakeExecutor {
	for i := 0; i < n; i++ {
		f.script(task, step{outcome: dag.Outcome{Status: dag.OutcomeFailure, Stderr: "failed"}})
	}
	return f.Succeed(task, "")
}

// AlwaysFail scripts a task that never succeeds.
func (f *FakeExecutor) AlwaysFail(task, stderr string) *FakeExecutor {
	return f.script(task, step{outcome: dag.Outcome{Status: dag.OutcomeFailure, Stderr: stderr}})
}

// NotFound scripts a task whose target does not exist.
func (f *FakeExecutor) NotFound(task string) *FakeExecutor {
	return f.script(task, step{outcome: dag.Outcome{Status: dag.OutcomeNotFound}})
}

// Unsupported scripts a task the executor cannot run.
func (f *FakeExecutor) Unsupported(task string) *FakeExecutor {
	return f.script(task, step{outcome: dag.Outcome{Status: dag.OutcomeUnsupported}})
}

// Fault scripts an executor error.
func (f *FakeExecutor) Fault(task string, err error) *FakeExecutor {
	if err == nil {
		err = errors.New("executor fault")
	}
	return f.script(task, step{err: err})
}

// Panic scripts an executor panic.
func (f *FakeExecutor) Panic(task string, v any) *FakeExecutor {
	return f.script(task, step{panic: v})
}

// Delay makes every attempt of task take at least d.
func (f *FakeExecutor) Delay(task string, d time.Duration) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[task] = d
	return f
}

// OnStart registers a callback run at the start of every attempt, before
// any delay.
func (f *FakeExecutor) OnStart(fn func(task string)) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onStart = fn
	return f
}

// Execute implements dag.Executor.
func (f *FakeExecutor) Execute(_ context.Context, task string) (dag.Outcome, error) {
	f.mu.Lock()
	n := f.calls[task]
	f.calls[task] = n + 1
	f.started = append(f.started, task)
	f.inFlight++
	f.peak = max(f.peak, f.inFlight)
	delay := f.delays[task]
	onStart := f.onStart
	s := step{outcome: dag.Outcome{Status: dag.OutcomeSuccess}}
	if steps := f.scripts[task]; len(steps) > 0 {
		s = steps[min(n, len(steps)-1)]
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.finished = append(f.finished, task)
		f.mu.Unlock()
	}()

	if onStart != nil {
		onStart(task)
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if s.panic != nil {
		panic(s.panic)
	}
	return s.outcome, s.err
}

// Calls returns how many times task was executed.
func (f *FakeExecutor) Calls(task string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[task]
}

// TotalCalls returns the number of executor calls across all tasks.
func (f *FakeExecutor) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Started returns task names in the order their attempts started.
func (f *FakeExecutor) Started() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.started...)
}

// Finished returns task names in the order their attempts finished.
func (f *FakeExecutor) Finished() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.finished...)
}

// PeakConcurrency returns the highest number of simultaneous attempts seen.
func (f *FakeExecutor) PeakConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}
