// Package config loads the taskflow configuration.
//
// Values come from, in increasing precedence: built-in defaults, a YAML
// file (taskflow.yml, cmd/taskflow/config.yml, config/config.yml or
// config.yml), and TASKFLOW_ environment variables, optionally seeded from
// a .env file:
//
//	cfg, err := config.Load(config.WithConfigFile("taskflow.yml"))
//
// Nested keys map to underscore-separated variables, so
// TASKFLOW_ORCHESTRATOR_MAX_RETRIES overrides orchestrator.max_retries.
package config
