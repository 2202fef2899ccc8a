// Package bootstrap assembles flowkit services: typed configuration,
// logger, observability providers, component registry, and a flow
// coordinator, with lifecycle hooks and graceful shutdown.
//
// # Quick Start
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Source source.RedisConfig `yaml:"source" mapstructure:"source"`
//	}
//
//	app, err := bootstrap.NewApp(&cfg,
//	    bootstrap.WithSteps(fetch, parse, store),
//	    bootstrap.WithComponents(redisSource),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// NewApp validates the config, builds the logger and observability
// providers, and registers the given steps with a coordinator. Run
// starts components in registration order, blocks until a signal or
// context cancellation, and stops everything in reverse order.
package bootstrap
