// Package provider implements a generic provider framework using Go generics
// for swappable backends with runtime switching capabilities.
//
// It provides a registry for managing multiple provider implementations with
// factory-based instantiation, availability checking, and runtime selection.
// The source package instantiates it for payload sources: a service declares
// its transports in config (kafka, redis, http) and the registry builds the
// right source from each config block at startup.
//
// Selection strategies:
//   - PrioritySelector: first available provider in a fixed order
//   - RoundRobinSelector: spreads calls across available providers
//   - HealthCheckSelector: first provider reporting IsAvailable
//
// # Usage
//
//	reg := provider.NewRegistry[MySource]()
//	reg.RegisterFactory("kafka", kafkaFactory)
//	mgr := provider.NewManager(reg, &provider.HealthCheckSelector[MySource]{})
//	mgr.Initialize("kafka", cfg)
//	p, _ := mgr.Get(ctx)
package provider
