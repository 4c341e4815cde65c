// Package sse streams run events to HTTP clients as Server-Sent Events.
//
// A Hub fans frames out to connected clients; each client carries a topic
// filter, so a dashboard can follow every run (TopicAll) or a single one
// (RunTopic(id)).
//
//	hub := sse.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	hub.Publish(sse.Event{Type: sse.EventRunStarted, RunID: id})
package sse
