package config

import (
	"fmt"

	"github.com/kbukum/flowkit/version"
)

// Environments recognized by Validate.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// BaseConfig is the identity block every service config carries.
type BaseConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// ApplyDefaults fills the environment, version, and debug flag. The
// version falls back to the build-time version when the config leaves
// it empty.
func (c *BaseConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	if c.Environment == EnvDevelopment {
		c.Debug = true
	}
	if c.Version == "" {
		c.Version = version.Version
	}
}

// Validate validates the identity block.
func (c *BaseConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch c.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
		return nil
	default:
		return fmt.Errorf("environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
}
