package testutil

import (
	"sync"
	"time"

	"github.com/kbukum/taskflow/dag"
)

// Transition is one recorded state change.
type Transition struct {
	Task  string
	State dag.TaskState
}

// Recorder collects scheduler state transitions in order.
type Recorder struct {
	mu     sync.Mutex
	events []Transition
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Option returns the scheduler option that feeds the recorder.
func (r *Recorder) Option() dag.Option {
	return dag.OnStateChange(r.Hook)
}

// Hook is a dag.StateHook.
func (r *Recorder) Hook(task string, state dag.TaskState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Transition{Task: task, State: state})
}

// Events returns a copy of all transitions.
func (r *Recorder) Events() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Transition(nil), r.events...)
}

// Index returns the position of the first transition of task into state,
// or -1.
func (r *Recorder) Index(task string, state dag.TaskState) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.events {
		if e.Task == task && e.State == state {
			return i
		}
	}
	return -1
}

// States returns the sequence of states task went through.
func (r *Recorder) States(task string) []dag.TaskState {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []dag.TaskState
	for _, e := range r.events {
		if e.Task == task {
			out = append(out, e.State)
		}
	}
	return out
}

// FastRetries is a retry policy with millisecond backoff for tests.
func FastRetries(maxRetries int) dag.RetryPolicy {
	return dag.RetryPolicy{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}
