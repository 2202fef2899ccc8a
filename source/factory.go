package source

import (
	"context"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/provider"
)

// ManagedSource is a source that participates in lifecycle management
// and provider selection: it produces payloads, starts and stops with
// the component registry, and reports availability so a selector can
// fall back between transports.
type ManagedSource interface {
	Source
	component.Component
	IsAvailable(ctx context.Context) bool
}

var (
	_ ManagedSource = (*KafkaSource)(nil)
	_ ManagedSource = (*RedisSource)(nil)
	_ ManagedSource = (*HTTPSource)(nil)
)

// NewProviderRegistry returns a provider registry with the built-in
// transports registered under "kafka", "redis", and "http". Each factory
// decodes a raw config block into the transport's typed config and
// builds the source with the shared codec and logger, so services can
// declare their transports in config:
//
//	sources:
//	  redis:
//	    addr: localhost:6379
//	    key: jobs
func NewProviderRegistry(codec Codec, log *logger.Logger) *provider.Registry[ManagedSource] {
	reg := provider.NewRegistry[ManagedSource]()

	reg.RegisterFactory("kafka", func(raw map[string]any) (ManagedSource, error) {
		var cfg KafkaConfig
		if err := decodeConfig("kafka", raw, &cfg); err != nil {
			return nil, err
		}
		s, err := NewKafkaSource(cfg, codec, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	})

	reg.RegisterFactory("redis", func(raw map[string]any) (ManagedSource, error) {
		var cfg RedisConfig
		if err := decodeConfig("redis", raw, &cfg); err != nil {
			return nil, err
		}
		s, err := NewRedisSource(cfg, codec, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	})

	reg.RegisterFactory("http", func(raw map[string]any) (ManagedSource, error) {
		var cfg HTTPConfig
		if err := decodeConfig("http", raw, &cfg); err != nil {
			return nil, err
		}
		s, err := NewHTTPSource(cfg, codec, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	})

	return reg
}

// decodeConfig maps a raw config block onto a typed transport config.
// Weak typing lets env-sourced strings fill numeric fields.
func decodeConfig(transport string, raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.InvalidConfig("source."+transport, err.Error()).WithCause(err)
	}
	if err := dec.Decode(raw); err != nil {
		return errors.InvalidConfig("source."+transport, err.Error()).WithCause(err)
	}
	return nil
}
