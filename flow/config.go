package flow

import (
	"github.com/kbukum/flowkit/validation"
)

// Config carries coordinator settings for services that load them from
// configuration files. Service-level logging and observability live in
// config.ServiceConfig; this block holds only flow tuning.
type Config struct {
	// MaxConcurrency caps step executors per run; zero means unlimited.
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// ApplyDefaults applies default values to flow configuration.
func (c *Config) ApplyDefaults() {
	if c.MaxConcurrency < 0 {
		c.MaxConcurrency = 0
	}
}

// Validate validates flow configuration.
func (c *Config) Validate() error {
	v := validation.New()
	v.Min("max_concurrency", c.MaxConcurrency, 0)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Options translates the config into coordinator options.
func (c *Config) Options() []Option {
	var opts []Option
	if c.MaxConcurrency > 0 {
		opts = append(opts, WithMaxConcurrency(c.MaxConcurrency))
	}
	return opts
}
