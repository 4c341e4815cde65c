// Package report presents run summaries: a console table, a JSON dashboard
// file and an in-memory store of recent runs for the report server.
package report
