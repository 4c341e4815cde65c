package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case frame := <-c.Events():
		return string(frame)
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.ID())
		return ""
	}
}

func TestClient_Send(t *testing.T) {
	client := NewClient("c1", TopicAll)
	if !client.Send([]byte("frame")) {
		t.Fatal("expected send to succeed")
	}
	if got := receive(t, client); got != "frame" {
		t.Errorf("got %q, want frame", got)
	}
}

func TestClient_SendDropsWhenFull(t *testing.T) {
	client := NewClient("c1", TopicAll)
	for range clientBuffer {
		client.Send([]byte("x"))
	}
	if client.Send([]byte("overflow")) {
		t.Error("expected send to fail when the buffer is full")
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := NewClient("c1", TopicAll)
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	if _, open := <-client.Events(); open {
		t.Error("expected unregistered client to be closed")
	}
}

func TestHub_PublishFilters(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	all := NewClient("all", TopicAll)
	one := NewClient("one", RunTopic("run-1"))
	other := NewClient("other", RunTopic("run-2"))
	for _, c := range []*Client{all, one, other} {
		hub.Register(c)
	}
	waitFor(t, func() bool { return hub.ClientCount() == 3 })

	hub.Publish(Event{Type: EventRunStarted, RunID: "run-1"})

	for _, c := range []*Client{all, one} {
		frame := receive(t, c)
		if !strings.HasPrefix(frame, "event: run.started\n") {
			t.Errorf("%s: frame = %q", c.ID(), frame)
		}
		if !strings.Contains(frame, `"run_id":"run-1"`) {
			t.Errorf("%s: frame lacks run id: %q", c.ID(), frame)
		}
	}
	select {
	case frame := <-other.Events():
		t.Errorf("run-2 subscriber got %q", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	client := NewClient("c1", TopicAll)
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Stop()
	hub.Stop()
	<-done

	if _, open := <-client.Events(); open {
		t.Error("expected client to be closed on stop")
	}

	// Calls after stop must not block.
	late := NewClient("late", TopicAll)
	hub.Register(late)
	hub.Unregister(late)
	hub.Publish(Event{Type: EventRunFinished, RunID: "run-1"})
}

func TestEventFrame(t *testing.T) {
	frame, err := Event{Type: EventTaskFinished, RunID: "r", Data: map[string]string{"task": "a.sh"}}.Frame()
	if err != nil {
		t.Fatal(err)
	}
	want := "event: task.finished\ndata: {\"type\":\"task.finished\",\"run_id\":\"r\",\"data\":{\"task\":\"a.sh\"}}\n\n"
	if string(frame) != want {
		t.Errorf("frame = %q, want %q", frame, want)
	}
}

func TestServeSSE(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(hub, w, r, NewClient("c1", RunTopic("run-1")))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		if !lines.Scan() {
			t.Fatalf("stream ended: %v", lines.Err())
		}
		return lines.Text()
	}

	if got := next(); got != "event: connected" {
		t.Fatalf("first line = %q", got)
	}
	next() // data
	next() // blank

	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	hub.Publish(Event{Type: EventRunFinished, RunID: "run-1"})

	if got := next(); got != "event: run.finished" {
		t.Errorf("line = %q, want run.finished event", got)
	}
}
