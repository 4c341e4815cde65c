package dag

import (
	"encoding/json"
	"maps"
	"math"
	"slices"
	"time"
)

// Status is the final status of a task in a run.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusFailed      Status = "failed"
	StatusNotFound    Status = "not_found"
	StatusUnsupported Status = "unsupported"
	StatusError       Status = "error"
	StatusSkipped     Status = "skipped"
)

// TaskResult is the final record for one task.
//
// Stdout, Stderr and Duration describe the final attempt. Attempts counts
// executor calls; a task whose target was not found reports zero.
type TaskResult struct {
	Name       string        `json:"name"`
	Status     Status        `json:"status"`
	Stdout     string        `json:"stdout"`
	Stderr     string        `json:"stderr"`
	Duration   time.Duration `json:"-"`
	Attempts   int           `json:"attempts"`
	StartedAt  time.Time     `json:"started_at,omitzero"`
	FinishedAt time.Time     `json:"finished_at,omitzero"`
	Error      string        `json:"error,omitempty"`
}

// Succeeded reports whether the task finished with StatusSuccess.
func (r TaskResult) Succeeded() bool { return r.Status == StatusSuccess }

type taskResultFields TaskResult

type taskResultJSON struct {
	taskResultFields
	DurationSec float64 `json:"duration_sec"`
}

// MarshalJSON writes Duration as fractional seconds under duration_sec.
func (r TaskResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskResultJSON{
		taskResultFields: taskResultFields(r),
		DurationSec:      r.Duration.Seconds(),
	})
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (r *TaskResult) UnmarshalJSON(data []byte) error {
	var v taskResultJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = TaskResult(v.taskResultFields)
	r.Duration = secondsToDuration(v.DurationSec)
	return nil
}

// Summary aggregates the results of one run.
type Summary struct {
	RunID       string                `json:"run_id"`
	Scheduled   int                   `json:"scheduled"`
	Succeeded   int                   `json:"succeeded"`
	Failed      int                   `json:"failed"`
	NotFound    int                   `json:"not_found"`
	Unsupported int                   `json:"unsupported"`
	Errored     int                   `json:"errored"`
	Skipped     int                   `json:"skipped"`
	StartedAt   time.Time             `json:"started_at,omitzero"`
	FinishedAt  time.Time             `json:"finished_at,omitzero"`
	Duration    time.Duration         `json:"-"`
	Results     map[string]TaskResult `json:"results"`
}

// Summarize builds a Summary from per-task results. It does not modify its
// input. Failed counts only StatusFailed; the other non-success statuses have
// their own counters. StartedAt and FinishedAt span the attempted tasks.
func Summarize(results map[string]TaskResult) Summary {
	s := Summary{
		Scheduled: len(results),
		Results:   maps.Clone(results),
	}
	if s.Results == nil {
		s.Results = map[string]TaskResult{}
	}

	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			s.Succeeded++
		case StatusFailed:
			s.Failed++
		case StatusNotFound:
			s.NotFound++
		case StatusUnsupported:
			s.Unsupported++
		case StatusError:
			s.Errored++
		case StatusSkipped:
			s.Skipped++
		}

		if !r.StartedAt.IsZero() && (s.StartedAt.IsZero() || r.StartedAt.Before(s.StartedAt)) {
			s.StartedAt = r.StartedAt
		}
		if r.FinishedAt.After(s.FinishedAt) {
			s.FinishedAt = r.FinishedAt
		}
	}
	if !s.StartedAt.IsZero() && !s.FinishedAt.IsZero() {
		s.Duration = s.FinishedAt.Sub(s.StartedAt)
	}
	return s
}

// AllSucceeded reports whether every scheduled task succeeded. An empty run
// counts as successful.
func (s Summary) AllSucceeded() bool {
	return s.Succeeded == s.Scheduled
}

// Tasks returns the task names in sorted order.
func (s Summary) Tasks() []string {
	return slices.Sorted(maps.Keys(s.Results))
}

// Unsuccessful returns the sorted names of tasks that did not succeed.
func (s Summary) Unsuccessful() []string {
	var out []string
	for _, name := range s.Tasks() {
		if !s.Results[name].Succeeded() {
			out = append(out, name)
		}
	}
	return out
}

type summaryFields Summary

type summaryJSON struct {
	summaryFields
	DurationSec float64 `json:"duration_sec"`
}

// MarshalJSON writes Duration as fractional seconds under duration_sec.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON{
		summaryFields: summaryFields(s),
		DurationSec:   s.Duration.Seconds(),
	})
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var v summaryJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Summary(v.summaryFields)
	s.Duration = secondsToDuration(v.DurationSec)
	return nil
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(math.Round(sec * float64(time.Second)))
}
