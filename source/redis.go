package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/stream"
)

// RedisConfig holds connection and consume settings for a RedisSource.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string `yaml:"addr" mapstructure:"addr"`

	// Password is the Redis server password.
	Password string `yaml:"password" mapstructure:"password"`

	// DB is the Redis database number.
	DB int `yaml:"db" mapstructure:"db"`

	// Key is the list payloads are popped from.
	Key string `yaml:"key" mapstructure:"key"`

	// PoolSize is the maximum number of socket connections.
	PoolSize int `yaml:"pool_size" mapstructure:"pool_size"`

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`

	// MaxRetries is the maximum number of command retries.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`

	// PollTimeout bounds each blocking pop so Close takes effect within
	// one poll interval (duration string).
	PollTimeout string `yaml:"poll_timeout" mapstructure:"poll_timeout"`

	DialTimeout  string `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  string `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout" mapstructure:"write_timeout"`

	// StrictDecode fails the stream on the first undecodable payload.
	// When false, undecodable payloads are logged and skipped.
	StrictDecode bool `yaml:"strict_decode" mapstructure:"strict_decode"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *RedisConfig) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.Key == "" {
		c.Key = "flowkit:payloads"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns <= 0 {
		c.MinIdleConns = 2
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.PollTimeout == "" {
		c.PollTimeout = "2s"
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "5s"
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "3s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "3s"
	}
}

// Validate checks that required fields are present and parseable.
func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	if c.Key == "" {
		return fmt.Errorf("redis key is required")
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be > 0")
	}
	poll, err := time.ParseDuration(c.PollTimeout)
	if err != nil {
		return fmt.Errorf("invalid poll_timeout %q: %w", c.PollTimeout, err)
	}
	// A zero poll timeout would block pops forever and defeat Close.
	if poll <= 0 {
		return fmt.Errorf("poll_timeout must be > 0")
	}
	for _, d := range []struct {
		name, val string
	}{
		{"dial_timeout", c.DialTimeout},
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
	} {
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.val, err)
		}
	}
	return nil
}

func (c *RedisConfig) options() *goredis.Options {
	return &goredis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		MaxRetries:   c.MaxRetries,
		DialTimeout:  parseDuration(c.DialTimeout),
		ReadTimeout:  parseDuration(c.ReadTimeout),
		WriteTimeout: parseDuration(c.WriteTimeout),
	}
}

// RedisSource pops payloads from a Redis list with blocking left pops.
// Iterators opened from the same source share the client; each payload
// is delivered to exactly one of them. Command retries are handled by
// go-redis itself via MaxRetries.
type RedisSource struct {
	cfg   RedisConfig
	codec Codec
	log   *logger.Logger
	poll  time.Duration

	mu      sync.Mutex
	client  *goredis.Client
	iters   []*redisIter
	started bool
}

var (
	_ Source              = (*RedisSource)(nil)
	_ component.Component = (*RedisSource)(nil)
)

// NewRedisSource creates a Redis-backed source. A nil codec decodes
// list values as JSON.
func NewRedisSource(cfg RedisConfig, codec Codec, log *logger.Logger) (*RedisSource, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.InvalidConfig("source.redis", err.Error()).WithCause(err)
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &RedisSource{
		cfg:   cfg,
		codec: codec,
		log:   log.WithComponent("redis-source"),
		poll:  parseDuration(cfg.PollTimeout),
	}, nil
}

// ensureClient creates the go-redis client on first use. The client is
// recreated after Stop so a stopped source can be started again.
func (s *RedisSource) ensureClient() *goredis.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		s.client = goredis.NewClient(s.cfg.options())
	}
	return s.client
}

// Open returns an iterator popping decoded payloads from the list.
func (s *RedisSource) Open(_ context.Context) (stream.Iterator[Payload], error) {
	it := &redisIter{
		src:  s,
		done: make(chan struct{}),
	}

	s.ensureClient()
	s.mu.Lock()
	s.iters = append(s.iters, it)
	s.mu.Unlock()

	s.log.Info("Redis source opened", map[string]interface{}{
		"addr": s.cfg.Addr,
		"key":  s.cfg.Key,
	})
	return it, nil
}

// Name returns the component name.
func (s *RedisSource) Name() string { return "redis-source" }

// Start verifies connectivity with a ping.
func (s *RedisSource) Start(ctx context.Context) error {
	if err := s.ping(ctx); err != nil {
		return fmt.Errorf("redis source start: %w", err)
	}

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	s.log.Info("Redis source started", map[string]interface{}{
		"addr": s.cfg.Addr,
		"key":  s.cfg.Key,
	})
	return nil
}

// Stop closes open iterators and the underlying client.
func (s *RedisSource) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil && !s.started {
		return nil
	}

	s.log.Info("Redis source stopping", map[string]interface{}{
		"addr": s.cfg.Addr,
	})
	for _, it := range s.iters {
		_ = it.Close()
	}
	s.iters = nil

	if s.client != nil {
		_ = s.client.Close()
		s.client = nil
	}
	s.started = false
	return nil
}

// Health reports the connection state via a ping.
func (s *RedisSource) Health(ctx context.Context) component.Health {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if !started {
		return component.Health{
			Name:    s.Name(),
			Status:  component.StatusUnhealthy,
			Message: "redis source not started",
		}
	}

	if err := s.ping(ctx); err != nil {
		return component.Health{
			Name:    s.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}

	return component.Health{
		Name:   s.Name(),
		Status: component.StatusHealthy,
	}
}

// IsAvailable reports whether the source is started and the server
// answering pings. Used by provider selectors for transport fallback.
func (s *RedisSource) IsAvailable(ctx context.Context) bool {
	return s.Health(ctx).Status == component.StatusHealthy
}

// Describe returns infrastructure summary info for the bootstrap display.
func (s *RedisSource) Describe() component.Description {
	return component.Description{
		Name:    "Redis Source",
		Type:    "redis",
		Details: fmt.Sprintf("%s db=%d key=%s", s.cfg.Addr, s.cfg.DB, s.cfg.Key),
	}
}

func (s *RedisSource) ping(ctx context.Context) error {
	pong, err := s.ensureClient().Ping(ctx).Result()
	if err != nil {
		return err
	}
	if pong != "PONG" {
		return fmt.Errorf("unexpected ping response: %s", pong)
	}
	return nil
}

type redisIter struct {
	src       *RedisSource
	closeOnce sync.Once
	done      chan struct{}
}

// Next blocks until a payload is popped, the iterator is closed, or ctx
// ends. Pops are bounded by the poll timeout so a Close is noticed
// within one interval.
func (it *redisIter) Next(ctx context.Context) (Payload, bool, error) {
	for {
		select {
		case <-it.done:
			return nil, false, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		default:
		}

		res, err := it.src.ensureClient().BLPop(ctx, it.src.poll, it.src.cfg.Key).Result()
		if err != nil {
			if err == goredis.Nil {
				// Poll timeout with an empty list.
				continue
			}
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			if it.closed() {
				return nil, false, nil
			}
			return nil, false, errors.SourceFailure("redis", err)
		}

		payload, err := it.src.codec.Decode([]byte(res[1]))
		if err != nil {
			if it.src.cfg.StrictDecode {
				return nil, false, errors.SourceFailure("redis", err)
			}
			it.src.log.Warn("Skipping undecodable payload", map[string]interface{}{
				"error": err.Error(),
				"key":   it.src.cfg.Key,
			})
			continue
		}
		return payload, true, nil
	}
}

func (it *redisIter) closed() bool {
	select {
	case <-it.done:
		return true
	default:
		return false
	}
}

// Close ends the iteration. The shared client stays open for other
// iterators; Stop closes it.
func (it *redisIter) Close() error {
	it.closeOnce.Do(func() { close(it.done) })
	return nil
}
