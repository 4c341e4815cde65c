// Package logger wraps zerolog with the structured logging conventions used
// across the orchestrator: a service-tagged console or JSON sink, an optional
// JSON build-log file, component loggers, and map-based fields.
//
//	log := logger.New(&logger.Config{Level: "debug", File: "logs/build.log"}, "taskflow")
//	defer log.Close()
//	log.WithComponent("scheduler").Info("run started", logger.Fields("tasks", 4))
package logger
