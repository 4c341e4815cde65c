package sse

import (
	"encoding/json"
	"fmt"
)

// Event types.
const (
	EventConnected    = "connected"
	EventRunStarted   = "run.started"
	EventTaskFinished = "task.finished"
	EventRunFinished  = "run.finished"
)

// TopicAll matches every run topic.
const TopicAll = "run:*"

// RunTopic returns the topic of one run's events.
func RunTopic(runID string) string {
	return "run:" + runID
}

// Event is the payload of one frame.
type Event struct {
	Type  string `json:"type"`
	RunID string `json:"run_id,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Frame encodes ev in the text/event-stream format.
func (ev Event) Frame() ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", ev.Type, data), nil
}

// Publisher accepts run events.
type Publisher interface {
	Publish(ev Event)
}

// Publish broadcasts ev on its run's topic. Events that cannot be encoded
// are logged and dropped.
func (h *Hub) Publish(ev Event) {
	frame, err := ev.Frame()
	if err != nil {
		logEncodeError(ev, err)
		return
	}
	h.Broadcast(RunTopic(ev.RunID), frame)
}

var _ Publisher = (*Hub)(nil)
