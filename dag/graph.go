package dag

import (
	"maps"
	"slices"
	"sort"

	"github.com/kbukum/taskflow/errors"
)

// Graph maps each task name to the names of the tasks it depends on.
// The keys are the universe of known tasks. Dependency lists are sets:
// order is irrelevant and duplicates collapse. A dependency that is not a
// key is an unknown dependency; see UnknownPolicy.
//
// A Graph is read-only once handed to a Scheduler.
type Graph map[string][]string

// Tasks returns the known task names in sorted order.
func (g Graph) Tasks() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is a known task.
func (g Graph) Has(name string) bool {
	_, ok := g[name]
	return ok
}

// Dependencies returns the deduplicated, sorted dependencies of name,
// including unknown ones.
func (g Graph) Dependencies(name string) []string {
	deps := slices.Clone(g[name])
	sort.Strings(deps)
	return slices.Compact(deps)
}

// KnownDependencies returns the deduplicated, sorted dependencies of name
// that are themselves known tasks. Its length is the task's in-degree.
func (g Graph) KnownDependencies(name string) []string {
	deps := g.Dependencies(name)
	known := deps[:0]
	for _, d := range deps {
		if g.Has(d) {
			known = append(known, d)
		}
	}
	return known
}

// UnknownDependencies returns, per task, the dependencies that are not known
// tasks. Tasks without unknown dependencies are omitted.
func (g Graph) UnknownDependencies() map[string][]string {
	out := make(map[string][]string)
	for name := range g {
		for _, d := range g.Dependencies(name) {
			if !g.Has(d) {
				out[name] = append(out[name], d)
			}
		}
	}
	return out
}

// Dependents returns the reverse adjacency over known tasks: for every task,
// the sorted list of tasks that declare it as a dependency.
func (g Graph) Dependents() map[string][]string {
	out := make(map[string][]string, len(g))
	for _, name := range g.Tasks() {
		for _, d := range g.KnownDependencies(name) {
			out[d] = append(out[d], name)
		}
	}
	return out
}

// Subgraph returns the targets together with every known task they depend
// on, directly or transitively. Unknown dependencies stay in the dependency
// lists. An unknown target yields a TASK_NOT_FOUND error.
func (g Graph) Subgraph(targets ...string) (Graph, error) {
	out := make(Graph)
	var walk func(name string)
	walk = func(name string) {
		if out.Has(name) {
			return
		}
		out[name] = slices.Clone(g[name])
		for _, d := range g.KnownDependencies(name) {
			walk(d)
		}
	}
	for _, t := range targets {
		if !g.Has(t) {
			return nil, errors.TaskNotFound(t)
		}
		walk(t)
	}
	return out, nil
}

// TopologicalOrder returns the tasks in an order where every task follows
// its known dependencies. Ties are broken alphabetically so the order is
// stable. A cyclic graph yields the *CycleError Validate would report.
func (g Graph) TopologicalOrder() ([]string, error) {
	if err := Validate(g); err != nil {
		return nil, err
	}

	remaining := make(map[string]int, len(g))
	for name := range g {
		remaining[name] = len(g.KnownDependencies(name))
	}
	dependents := g.Dependents()

	var ready []string
	for name, n := range remaining {
		if n == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		var next []string
		for _, d := range dependents[name] {
			remaining[d]--
			if remaining[d] == 0 {
				next = append(next, d)
			}
		}
		ready = append(ready, next...)
		sort.Strings(ready)
	}
	return order, nil
}

// Levels groups tasks by dependency depth: level 0 holds tasks without known
// dependencies, level n tasks whose deepest dependency sits on level n-1.
// Used for plan output; the scheduler itself does not wait for whole levels.
func (g Graph) Levels() ([][]string, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	depth := make(map[string]int, len(g))
	maxDepth := -1
	for _, name := range order {
		d := 0
		for _, dep := range g.KnownDependencies(name) {
			d = max(d, depth[dep]+1)
		}
		depth[name] = d
		maxDepth = max(maxDepth, d)
	}
	levels := make([][]string, maxDepth+1)
	for _, name := range slices.Sorted(maps.Keys(depth)) {
		levels[depth[name]] = append(levels[depth[name]], name)
	}
	return levels, nil
}
