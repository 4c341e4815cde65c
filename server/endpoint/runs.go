package endpoint

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/kbukum/taskflow/dag"
	"github.com/kbukum/taskflow/errors"
	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/report"
	"github.com/kbukum/taskflow/sse"
	"github.com/kbukum/taskflow/validation"
)

// Trigger runs target, or every task when target is empty, under runID and
// returns when the run is over. opts are extra scheduler options for this
// run.
type Trigger func(ctx context.Context, runID, target string, opts ...dag.Option) (*dag.Summary, error)

// RunOverview is the list form of a run summary.
type RunOverview struct {
	RunID        string    `json:"run_id"`
	Scheduled    int       `json:"scheduled"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	NotFound     int       `json:"not_found"`
	Unsupported  int       `json:"unsupported"`
	Errored      int       `json:"errored"`
	Skipped      int       `json:"skipped"`
	AllSucceeded bool      `json:"all_succeeded"`
	StartedAt    time.Time `json:"started_at,omitzero"`
	DurationSec  float64   `json:"duration_sec"`
}

// Overview condenses s for listing.
func Overview(s *dag.Summary) RunOverview {
	return RunOverview{
		RunID:        s.RunID,
		Scheduled:    s.Scheduled,
		Succeeded:    s.Succeeded,
		Failed:       s.Failed,
		NotFound:     s.NotFound,
		Unsupported:  s.Unsupported,
		Errored:      s.Errored,
		Skipped:      s.Skipped,
		AllSucceeded: s.AllSucceeded(),
		StartedAt:    s.StartedAt,
		DurationSec:  s.Duration.Seconds(),
	}
}

// Runs serves stored run summaries and, with a trigger, starts new runs.
// At most one triggered run is active at a time.
type Runs struct {
	store   *report.Store
	log     *logger.Logger
	ctx     context.Context
	trigger Trigger
	events  sse.Publisher

	mu     sync.Mutex
	active string
	wg     conc.WaitGroup
}

// NewRuns creates the run endpoints over store.
func NewRuns(store *report.Store, log *logger.Logger) *Runs {
	return &Runs{store: store, log: log, ctx: context.Background()}
}

// WithTrigger enables POST /runs. Triggered runs use ctx, so canceling it
// cancels them.
func (r *Runs) WithTrigger(ctx context.Context, t Trigger) *Runs {
	r.ctx = ctx
	r.trigger = t
	return r
}

// WithEvents publishes the progress of triggered runs to p.
func (r *Runs) WithEvents(p sse.Publisher) *Runs {
	r.events = p
	return r
}

// Register mounts the endpoints on g:
//
//	GET  /runs                    newest first
//	GET  /runs/:id                "latest" or a run ID
//	GET  /runs/:id/tasks/*name
//	POST /runs                    {"target": "..."}; only with a trigger
func (r *Runs) Register(g gin.IRouter) {
	g.GET("/runs", r.list)
	g.GET("/runs/:id", r.get)
	g.GET("/runs/:id/tasks/*name", r.task)
	if r.trigger != nil {
		g.POST("/runs", r.start)
	}
}

// Wait blocks until triggered runs have finished.
func (r *Runs) Wait() {
	r.wg.Wait()
}

func (r *Runs) list(c *gin.Context) {
	runs := r.store.List()
	out := make([]RunOverview, 0, len(runs))
	for _, s := range runs {
		out = append(out, Overview(s))
	}
	RespondList(c, out)
}

func (r *Runs) get(c *gin.Context) {
	s, err := r.resolve(c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, s)
}

func (r *Runs) task(c *gin.Context) {
	s, err := r.resolve(c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	name := strings.TrimPrefix(c.Param("name"), "/")
	result, ok := s.Results[name]
	if !ok {
		RespondWithError(c, errors.NotFound("task", name))
		return
	}
	RespondOK(c, result)
}

func (r *Runs) resolve(id string) (*dag.Summary, error) {
	if id == "latest" {
		return r.store.Latest()
	}
	if _, err := validation.ValidateUUID("id", id); err != nil {
		return nil, err
	}
	return r.store.Get(id)
}

type startRequest struct {
	Target string `json:"target"`
}

func (r *Runs) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	if req.Target != "" {
		if err := validation.New().TaskName("target", req.Target).Validate(); err != nil {
			RespondWithError(c, err)
			return
		}
	}

	runID := uuid.NewString()
	r.mu.Lock()
	if r.active != "" {
		active := r.active
		r.mu.Unlock()
		RespondWithError(c, errors.RunInProgress(active))
		return
	}
	r.active = runID
	r.mu.Unlock()

	r.wg.Go(func() {
		defer func() {
			r.mu.Lock()
			r.active = ""
			r.mu.Unlock()
		}()
		r.publish(sse.Event{Type: sse.EventRunStarted, RunID: runID, Data: gin.H{"target": req.Target}})
		s, err := r.trigger(r.ctx, runID, req.Target, dag.OnResult(func(runID string, res dag.TaskResult) {
			r.publish(sse.Event{Type: sse.EventTaskFinished, RunID: runID, Data: res})
		}))
		if s != nil {
			r.store.Add(s)
		}
		finished := gin.H{"target": req.Target}
		if s != nil {
			finished["summary"] = Overview(s)
		}
		if err != nil {
			finished["error"] = err.Error()
		}
		r.publish(sse.Event{Type: sse.EventRunFinished, RunID: runID, Data: finished})
		if err != nil {
			r.log.Error("triggered run ended with error", logger.Fields(
				logger.FieldRunID, runID,
				logger.FieldError, err.Error(),
			))
		}
	})

	RespondAccepted(c, gin.H{"run_id": runID, "target": req.Target})
}

func (r *Runs) publish(ev sse.Event) {
	if r.events != nil {
		r.events.Publish(ev)
	}
}
