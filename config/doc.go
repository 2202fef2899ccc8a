// Package config loads service configuration from YAML files, dotenv
// files, and prefixed environment variables.
//
// Services declare a struct embedding ServiceConfig, then call Load:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Flow flow.Config `yaml:"flow" mapstructure:"flow"`
//	}
//
//	var cfg Config
//	err := config.Load("flowd", &cfg)
//
// Values resolve in ascending precedence: WithDefaults seeds, the first
// flowd.yaml or config.yaml found on the search path, then FLOWD_*
// environment variables (FLOWD_LOGGING_LEVEL overrides logging.level).
package config
