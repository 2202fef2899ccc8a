package bootstrap

import (
	"github.com/kbukum/flowkit/config"
)

// Config is the interface constraint for application configuration types.
// Any struct that embeds config.ServiceConfig (value embedding) automatically
// satisfies this interface via promoted methods.
//
// Example:
//
//	type FlowdConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Source source.RedisConfig `yaml:"source" mapstructure:"source"`
//	}
//
//	// FlowdConfig automatically satisfies Config via promoted methods.
//	app, err := bootstrap.NewApp(&cfg)
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
