// Package errors provides the structured error type shared by the
// orchestrator: machine-readable codes for graph, task and input errors,
// HTTP status mapping for the report server, and retryable detection.
package errors
