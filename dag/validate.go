package dag

import (
	"fmt"
	"strings"

	"github.com/kbukum/taskflow/errors"
)

// UnknownPolicy decides how Validate treats a dependency that is not a known task.
type UnknownPolicy string

const (
	// UnknownPermissive treats unknown dependencies as already-satisfied leaves.
	UnknownPermissive UnknownPolicy = "permissive"
	// UnknownStrict rejects the graph with an *UnknownDependencyError.
	UnknownStrict UnknownPolicy = "strict"
)

// CycleError reports a dependency cycle. Path walks the cycle along
// "depends on" edges and ends where it started, e.g. [A B A].
type CycleError struct {
	Node string
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dag: cycle detected at %q: %s", e.Node, strings.Join(e.Path, " -> "))
}

// Unwrap exposes the CYCLE_DETECTED AppError so errors.Is matches
// errors.ErrCycleDetected.
func (e *CycleError) Unwrap() error {
	return errors.CycleDetected(e.Node, e.Path)
}

// UnknownDependencyError reports a dependency outside the task universe
// under UnknownStrict.
type UnknownDependencyError struct {
	Task       string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("dag: task %q depends on unknown task %q", e.Task, e.Dependency)
}

func (e *UnknownDependencyError) Unwrap() error {
	return errors.UnknownDependency(e.Task, e.Dependency)
}

// ValidateOption configures Validate.
type ValidateOption func(*validateOptions)

type validateOptions struct {
	unknown UnknownPolicy
}

// WithUnknownPolicy selects the unknown-dependency policy. The default is
// UnknownPermissive.
func WithUnknownPolicy(p UnknownPolicy) ValidateOption {
	return func(o *validateOptions) {
		if p != "" {
			o.unknown = p
		}
	}
}

// Validate checks g before anything runs. It returns a *CycleError when
// any task can reach itself (a self-dependency included) and, under
// UnknownStrict, an *UnknownDependencyError for the first unknown
// dependency in sorted order. It has no side effects.
func Validate(g Graph, opts ...ValidateOption) error {
	o := validateOptions{unknown: UnknownPermissive}
	for _, opt := range opts {
		opt(&o)
	}

	if cycle := findCycle(g); cycle != nil {
		return cycle
	}

	if o.unknown == UnknownStrict {
		for _, name := range g.Tasks() {
			for _, d := range g.Dependencies(name) {
				if !g.Has(d) {
					return &UnknownDependencyError{Task: name, Dependency: d}
				}
			}
		}
	}
	return nil
}

// cycleFinder is a depth-first walk over "depends on" edges. onStack holds
// the current path, visited the tasks whose dependencies are fully explored.
type cycleFinder struct {
	g       Graph
	visited map[string]bool
	onStack map[string]bool
	stack   []string
}

func findCycle(g Graph) *CycleError {
	f := &cycleFinder{
		g:       g,
		visited: make(map[string]bool, len(g)),
		onStack: make(map[string]bool),
	}
	for _, name := range g.Tasks() {
		if f.visited[name] {
			continue
		}
		if err := f.visit(name); err != nil {
			return err
		}
	}
	return nil
}

func (f *cycleFinder) visit(name string) *CycleError {
	f.onStack[name] = true
	f.stack = append(f.stack, name)

	for _, dep := range f.g.KnownDependencies(name) {
		if f.onStack[dep] {
			return f.cycleAt(dep)
		}
		if f.visited[dep] {
			continue
		}
		if err := f.visit(dep); err != nil {
			return err
		}
	}

	f.stack = f.stack[:len(f.stack)-1]
	delete(f.onStack, name)
	f.visited[name] = true
	return nil
}

func (f *cycleFinder) cycleAt(node string) *CycleError {
	start := 0
	for i, n := range f.stack {
		if n == node {
			start = i
			break
		}
	}
	path := make([]string, 0, len(f.stack)-start+1)
	path = append(path, f.stack[start:]...)
	path = append(path, node)
	return &CycleError{Node: node, Path: path}
}
