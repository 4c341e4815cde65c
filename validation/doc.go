// Package validation provides struct tag validation for configuration and
// programmatic validation for command-line and HTTP input.
//
// # Struct Tag Validation
//
//	type OrchestratorConfig struct {
//	    MaxRetries    int    `mapstructure:"max_retries" validate:"gte=0"`
//	    FailurePolicy string `mapstructure:"failure_policy" validate:"oneof=continue skip-dependents"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.TaskName("script", name).Min("concurrency", n, 0)
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
