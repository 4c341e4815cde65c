package dag

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// TaskState is the scheduling state of a task within one run.
type TaskState int

const (
	// StatePending waits for at least one known dependency.
	StatePending TaskState = iota
	// StateReady has all known dependencies done and waits for a worker.
	StateReady
	// StateRunning holds a worker slot.
	StateRunning
	// StateDone has a recorded result.
	StateDone
	// StateSkipped never ran.
	StateSkipped
)

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("TaskState(%d)", int(s))
	}
}

// StateHook observes state transitions. It is called with the run state
// locked, in transition order, and must not call back into the scheduler.
type StateHook func(task string, state TaskState)

// ExecutionState is the mutable bookkeeping of one run: remaining in-degrees,
// task states, the ready queue and recorded results. A single mutex guards
// all of it, so a completion and the readiness it unlocks are observed
// together.
type ExecutionState struct {
	mu sync.Mutex

	dependents map[string][]string
	remaining  map[string]int
	states     map[string]TaskState
	results    map[string]TaskResult
	blocked    map[string]string
	ready      []string
	inFlight   int

	onChange StateHook
}

func newExecutionState(g Graph, onChange StateHook) *ExecutionState {
	es := &ExecutionState{
		dependents: g.Dependents(),
		remaining:  make(map[string]int, len(g)),
		states:     make(map[string]TaskState, len(g)),
		results:    make(map[string]TaskResult, len(g)),
		blocked:    make(map[string]string),
		onChange:   onChange,
	}

	es.mu.Lock()
	defer es.mu.Unlock()
	for _, name := range g.Tasks() {
		n := len(g.KnownDependencies(name))
		es.remaining[name] = n
		if n == 0 {
			es.ready = append(es.ready, name)
			es.transition(name, StateReady)
		} else {
			es.transition(name, StatePending)
		}
	}
	return es
}

func (es *ExecutionState) transition(task string, s TaskState) {
	es.states[task] = s
	if es.onChange != nil {
		es.onChange(task, s)
	}
}

// dispatch drains the ready queue. Each returned task counts as in flight
// until complete or abandon is called for it.
func (es *ExecutionState) dispatch() []string {
	es.mu.Lock()
	defer es.mu.Unlock()
	out := es.ready
	es.ready = nil
	es.inFlight += len(out)
	return out
}

// markRunning records that task holds a worker slot.
func (es *ExecutionState) markRunning(task string) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.transition(task, StateRunning)
}

// complete records r and releases its dependents. Under skipDependents a
// non-successful result marks every transitive dependent as skipped as soon
// as its in-degree drops to zero. It returns the results it recorded, r
// first, then any cascaded skips.
func (es *ExecutionState) complete(r TaskResult, skipDependents bool) []TaskResult {
	es.mu.Lock()
	defer es.mu.Unlock()

	es.inFlight--
	recorded := []TaskResult{r}
	es.record(r)

	queue := []TaskResult{r}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range es.dependents[cur.Name] {
			if skipDependents && !cur.Succeeded() {
				if _, ok := es.blocked[dep]; !ok {
					es.blocked[dep] = cur.Name
				}
			}
			es.remaining[dep]--
			if es.remaining[dep] > 0 {
				continue
			}
			if cause, ok := es.blocked[dep]; ok {
				skipped := TaskResult{
					Name:   dep,
					Status: StatusSkipped,
					Error:  fmt.Sprintf("dependency %q did not succeed", cause),
				}
				es.record(skipped)
				recorded = append(recorded, skipped)
				queue = append(queue, skipped)
				continue
			}
			es.ready = append(es.ready, dep)
			es.transition(dep, StateReady)
		}
	}
	return recorded
}

// abandon releases a dispatched task that never started.
func (es *ExecutionState) abandon(task string) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.inFlight--
}

func (es *ExecutionState) record(r TaskResult) {
	es.results[r.Name] = r
	if r.Status == StatusSkipped {
		es.transition(r.Name, StateSkipped)
	} else {
		es.transition(r.Name, StateDone)
	}
}

// busy reports whether any dispatched task has not completed yet.
func (es *ExecutionState) busy() bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.inFlight > 0
}

// finish records a skipped result for every task without one and returns a
// copy of all results.
func (es *ExecutionState) finish(reason string) map[string]TaskResult {
	es.mu.Lock()
	defer es.mu.Unlock()
	for _, name := range slices.Sorted(maps.Keys(es.states)) {
		if _, ok := es.results[name]; ok {
			continue
		}
		es.record(TaskResult{Name: name, Status: StatusSkipped, Error: reason})
	}
	return maps.Clone(es.results)
}
