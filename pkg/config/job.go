package config

import (
	"fmt"

	"github.com/ajitpratap0/databuilder/pkg/logger"
)

// JobSpec names the components a job wires together.
type JobSpec struct {
	Name         string        `mapstructure:"name" yaml:"name"`
	Extractor    string        `mapstructure:"extractor" yaml:"extractor"`
	Transformers []string      `mapstructure:"transformers" yaml:"transformers"`
	Loader       string        `mapstructure:"loader" yaml:"loader"`
	Publisher    string        `mapstructure:"publisher" yaml:"publisher"`
	Log          logger.Config `mapstructure:"log" yaml:"log"`
	Metrics      MetricsSpec   `mapstructure:"metrics" yaml:"metrics"`
	Tracing      TracingSpec   `mapstructure:"tracing" yaml:"tracing"`
}

// MetricsSpec controls the Prometheus endpoint.
type MetricsSpec struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// TracingSpec controls OpenTelemetry tracing.
type TracingSpec struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// Job decodes and validates the `job` section.
func (c *Config) Job() (*JobSpec, error) {
	spec := &JobSpec{
		Name:    "databuilder",
		Log:     logger.Config{Level: "info", Encoding: "json"},
		Metrics: MetricsSpec{Addr: ":9102"},
		Tracing: TracingSpec{SampleRate: 1.0},
	}
	if err := c.Scope("job").Unmarshal(spec); err != nil {
		return nil, fmt.Errorf("decode job section: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Validate checks the mandatory components are named.
func (s *JobSpec) Validate() error {
	if s.Extractor == "" {
		return fmt.Errorf("job.extractor is required")
	}
	if s.Loader == "" {
		return fmt.Errorf("job.loader is required")
	}
	return nil
}
