package config

import (
	"fmt"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

// ServiceConfig is the ambient block service configs embed: the service
// identity plus logging and observability settings. Embedding it gives
// the outer struct the promoted methods bootstrap needs.
//
// Example:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Flow flow.Config `yaml:"flow" mapstructure:"flow"`
//	}
type ServiceConfig struct {
	BaseConfig `yaml:",inline" mapstructure:",squash"`

	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// GetServiceConfig returns the embedded service block. Promoted through
// embedding, it is how bootstrap reaches the ambient configuration of
// any service config type.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults fills identity, logging, and observability defaults.
// The observability identity inherits the service identity when unset.
// Embedding structs that override this should call it first.
func (c *ServiceConfig) ApplyDefaults() {
	c.BaseConfig.ApplyDefaults()
	c.Logging.ApplyDefaults()

	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()
}

// Validate validates the identity block and both ambient blocks.
// Embedding structs that override this should call it first.
func (c *ServiceConfig) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return c.Observability.Validate()
}
