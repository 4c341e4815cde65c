package report

import (
	"slices"
	"sync"

	"github.com/kbukum/taskflow/dag"
	"github.com/kbukum/taskflow/errors"
)

// Store keeps the most recent run summaries in memory, newest last.
type Store struct {
	mu    sync.RWMutex
	limit int
	runs  []*dag.Summary
}

// NewStore creates a store that keeps up to limit runs. A limit below one
// keeps a single run.
func NewStore(limit int) *Store {
	return &Store{limit: max(limit, 1)}
}

// Add records s, evicting the oldest run once the limit is reached. A run
// already stored under the same ID is replaced.
func (st *Store) Add(s *dag.Summary) {
	if s == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	if i := st.index(s.RunID); i >= 0 {
		st.runs = slices.Delete(st.runs, i, i+1)
	}
	st.runs = append(st.runs, s)
	if over := len(st.runs) - st.limit; over > 0 {
		st.runs = slices.Delete(st.runs, 0, over)
	}
}

// Latest returns the newest run.
func (st *Store) Latest() (*dag.Summary, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if len(st.runs) == 0 {
		return nil, errors.NotFound("run", "latest")
	}
	return st.runs[len(st.runs)-1], nil
}

// Get returns the run with the given ID.
func (st *Store) Get(runID string) (*dag.Summary, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if i := st.index(runID); i >= 0 {
		return st.runs[i], nil
	}
	return nil, errors.NotFound("run", runID)
}

// List returns the stored runs, newest first.
func (st *Store) List() []*dag.Summary {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := slices.Clone(st.runs)
	slices.Reverse(out)
	return out
}

// Len returns the number of stored runs.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.runs)
}

func (st *Store) index(runID string) int {
	return slices.IndexFunc(st.runs, func(s *dag.Summary) bool { return s.RunID == runID })
}
