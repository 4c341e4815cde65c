package observability

import (
	"context"
	"errors"
	"time"
)

// Config is the observability section of the application config.
type Config struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint        string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure        bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate      float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricsInterval time.Duration `yaml:"metrics_interval" mapstructure:"metrics_interval" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 && c.Enabled {
		c.SampleRate = 1.0
	}
	if c.MetricsInterval == 0 {
		c.MetricsInterval = 15 * time.Second
	}
}

// Provider bundles the installed providers and the orchestrator instruments.
type Provider struct {
	Metrics   *Metrics
	shutdowns []func(context.Context) error
}

// Setup installs tracing and metrics per cfg. When cfg is disabled the global
// no-op providers stay in place and the returned Metrics record nothing.
func Setup(ctx context.Context, cfg Config, service, version, environment string) (*Provider, error) {
	p := &Provider{}

	if cfg.Enabled {
		tp, err := InitTracer(ctx, &TracerConfig{
			ServiceName:    service,
			ServiceVersion: version,
			Environment:    environment,
			Endpoint:       cfg.Endpoint,
			Insecure:       cfg.Insecure,
			SampleRate:     cfg.SampleRate,
		})
		if err != nil {
			return nil, err
		}
		p.shutdowns = append(p.shutdowns, tp.Shutdown)

		mp, err := InitMeter(ctx, &MeterConfig{
			ServiceName:    service,
			ServiceVersion: version,
			Environment:    environment,
			Endpoint:       cfg.Endpoint,
			Insecure:       cfg.Insecure,
			Interval:       cfg.MetricsInterval,
		})
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
		p.shutdowns = append(p.shutdowns, mp.Shutdown)
	}

	m, err := NewMetrics(Meter(service))
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	p.Metrics = m
	return p, nil
}

// Shutdown flushes and stops the installed providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(p.shutdowns) - 1; i >= 0; i-- {
		if err := p.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.shutdowns = nil
	return errors.Join(errs...)
}
