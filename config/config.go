package config

import (
	"time"

	"github.com/kbukum/taskflow/dag"
	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/observability"
	"github.com/kbukum/taskflow/resilience"
	"github.com/kbukum/taskflow/runner"
	"github.com/kbukum/taskflow/server"
	"github.com/kbukum/taskflow/validation"
)

// DefaultServiceName names the service when the config file does not.
const DefaultServiceName = "taskflow"

// Config is the complete taskflow configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Orchestrator  OrchestratorConfig   `yaml:"orchestrator" mapstructure:"orchestrator"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
}

// OrchestratorConfig controls how build files are found and run.
type OrchestratorConfig struct {
	BuildFile     string `yaml:"build_file" mapstructure:"build_file" validate:"required"`
	ScriptDir     string `yaml:"script_dir" mapstructure:"script_dir" validate:"required"`
	WorkDir       string `yaml:"work_dir" mapstructure:"work_dir"`
	LogDir        string `yaml:"log_dir" mapstructure:"log_dir" validate:"required"`
	DashboardFile string `yaml:"dashboard_file" mapstructure:"dashboard_file" validate:"required"`

	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff" validate:"gte=0"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff" validate:"gte=0"`
	TaskTimeout    time.Duration `yaml:"task_timeout" mapstructure:"task_timeout" validate:"gte=0"`

	// Concurrency bounds parallel tasks; zero means unbounded.
	Concurrency         int    `yaml:"concurrency" mapstructure:"concurrency" validate:"gte=0"`
	FailurePolicy       string `yaml:"failure_policy" mapstructure:"failure_policy" validate:"oneof=continue skip-dependents"`
	UnknownDependencies string `yaml:"unknown_dependencies" mapstructure:"unknown_dependencies" validate:"oneof=permissive strict"`

	// History is how many run summaries the server keeps in memory.
	History int `yaml:"history" mapstructure:"history" validate:"gte=1"`
}

// ApplyDefaults fills unset fields.
func (c *OrchestratorConfig) ApplyDefaults() {
	if c.BuildFile == "" {
		c.BuildFile = "build.yaml"
	}
	if c.ScriptDir == "" {
		c.ScriptDir = "scripts"
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
	if c.DashboardFile == "" {
		c.DashboardFile = "logs/dashboard.json"
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = resilience.DefaultInitialBackoff
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = resilience.DefaultMaxBackoff
	}
	if c.FailurePolicy == "" {
		c.FailurePolicy = string(dag.FailureContinue)
	}
	if c.UnknownDependencies == "" {
		c.UnknownDependencies = string(dag.UnknownPermissive)
	}
	if c.History == 0 {
		c.History = 20
	}
}

// RetryPolicy returns the per-task retry policy.
func (c *OrchestratorConfig) RetryPolicy() dag.RetryPolicy {
	return dag.RetryPolicy{
		MaxRetries:     c.MaxRetries,
		InitialBackoff: c.InitialBackoff,
		MaxBackoff:     c.MaxBackoff,
	}
}

// SchedulerOptions returns the scheduler options this section describes.
func (c *OrchestratorConfig) SchedulerOptions(log *logger.Logger) []dag.Option {
	return []dag.Option{
		dag.WithConcurrency(c.Concurrency),
		dag.WithRetryPolicy(c.RetryPolicy()),
		dag.WithFailurePolicy(dag.FailurePolicy(c.FailurePolicy)),
		dag.WithUnknownDependencies(dag.UnknownPolicy(c.UnknownDependencies)),
		dag.WithLogger(log),
	}
}

// Runner returns the script executor configuration.
func (c *OrchestratorConfig) Runner() runner.Config {
	return runner.Config{
		ScriptDir: c.ScriptDir,
		WorkDir:   c.WorkDir,
		Timeout:   c.TaskTimeout,
	}
}

// ApplyDefaults fills unset fields in every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Orchestrator.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Server.ApplyDefaults()
}

// Validate checks every section: struct tags first, then the cross-field
// and service rules.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	err := validation.New().
		Custom(c.Orchestrator.MaxBackoff >= c.Orchestrator.InitialBackoff,
			"orchestrator.max_backoff", "must be at least initial_backoff").
		Validate()
	if err != nil {
		return err
	}
	return c.ServiceConfig.Validate()
}

// defaults registers every key with viper so environment overrides apply
// even when the config file omits the key.
func defaults() map[string]any {
	var c Config
	c.ApplyDefaults()
	return map[string]any{
		"name":                              c.Name,
		"environment":                       c.Environment,
		"version":                           c.Version,
		"debug":                             c.Debug,
		"logging.level":                     "",
		"logging.format":                    c.Logging.Format,
		"logging.output":                    c.Logging.Output,
		"logging.no_color":                  c.Logging.NoColor,
		"logging.file":                      c.Logging.File,
		"orchestrator.build_file":           c.Orchestrator.BuildFile,
		"orchestrator.script_dir":           c.Orchestrator.ScriptDir,
		"orchestrator.work_dir":             c.Orchestrator.WorkDir,
		"orchestrator.log_dir":              c.Orchestrator.LogDir,
		"orchestrator.dashboard_file":       c.Orchestrator.DashboardFile,
		"orchestrator.max_retries":          dag.DefaultRetryPolicy().MaxRetries,
		"orchestrator.initial_backoff":      c.Orchestrator.InitialBackoff,
		"orchestrator.max_backoff":          c.Orchestrator.MaxBackoff,
		"orchestrator.task_timeout":         c.Orchestrator.TaskTimeout,
		"orchestrator.concurrency":          c.Orchestrator.Concurrency,
		"orchestrator.failure_policy":       c.Orchestrator.FailurePolicy,
		"orchestrator.unknown_dependencies": c.Orchestrator.UnknownDependencies,
		"orchestrator.history":              c.Orchestrator.History,
		"observability.enabled":             c.Observability.Enabled,
		"observability.endpoint":            c.Observability.Endpoint,
		"observability.insecure":            c.Observability.Insecure,
		"observability.sample_rate":         c.Observability.SampleRate,
		"observability.metrics_interval":    c.Observability.MetricsInterval,
		"server.host":                       c.Server.Host,
		"server.port":                       c.Server.Port,
		"server.read_timeout":               c.Server.ReadTimeout,
		"server.write_timeout":              c.Server.WriteTimeout,
		"server.idle_timeout":               c.Server.IdleTimeout,
		"server.max_body_size":              c.Server.MaxBodySize,
	}
}

// Load reads the taskflow configuration, applies defaults and validates it.
func Load(opts ...LoaderOption) (*Config, error) {
	var cfg Config
	opts = append([]LoaderOption{WithDefaults(defaults())}, opts...)
	if err := LoadConfig(DefaultServiceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
