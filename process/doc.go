// Package process runs task interpreters as subprocesses with captured
// output, process-group cancellation and an optional per-run timeout.
package process
