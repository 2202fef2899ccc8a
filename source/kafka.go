package source

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/security"
	"github.com/kbukum/flowkit/stream"
)

// KafkaConfig holds connection and consume settings for a KafkaSource.
type KafkaConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`

	// Topic is the topic payloads are consumed from.
	Topic string `yaml:"topic" mapstructure:"topic"`

	// GroupID is the consumer group identifier.
	GroupID string `yaml:"group_id" mapstructure:"group_id"`

	// TLS configures transport security for broker connections.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// SASL
	EnableSASL    bool   `yaml:"enable_sasl" mapstructure:"enable_sasl"`
	SASLMechanism string `yaml:"sasl_mechanism" mapstructure:"sasl_mechanism"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	Username      string `yaml:"username" mapstructure:"username"`
	Password      string `yaml:"password" mapstructure:"password"`

	// Fetch settings
	MinBytes int `yaml:"min_bytes" mapstructure:"min_bytes"`
	MaxBytes int `yaml:"max_bytes" mapstructure:"max_bytes"`

	// Consumer group timings (duration strings)
	SessionTimeout    string `yaml:"session_timeout" mapstructure:"session_timeout"`
	HeartbeatInterval string `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`
	RebalanceTimeout  string `yaml:"rebalance_timeout" mapstructure:"rebalance_timeout"`
	DialTimeout       string `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// StrictDecode fails the stream on the first undecodable message.
	// When false, undecodable messages are committed, logged, and skipped.
	StrictDecode bool `yaml:"strict_decode" mapstructure:"strict_decode"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *KafkaConfig) ApplyDefaults() {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.GroupID == "" {
		c.GroupID = "flowkit"
	}
	if c.MinBytes <= 0 {
		c.MinBytes = 1
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10e6
	}
	if c.SessionTimeout == "" {
		c.SessionTimeout = "30s"
	}
	if c.HeartbeatInterval == "" {
		c.HeartbeatInterval = "3s"
	}
	if c.RebalanceTimeout == "" {
		c.RebalanceTimeout = "30s"
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "10s"
	}
	if c.SASLMechanism == "" && c.EnableSASL {
		c.SASLMechanism = "PLAIN"
	}
}

// Validate checks that required fields are present and parseable.
func (c *KafkaConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required")
	}
	if c.Topic == "" {
		return fmt.Errorf("kafka topic is required")
	}
	for _, d := range []struct {
		name, val string
	}{
		{"session_timeout", c.SessionTimeout},
		{"heartbeat_interval", c.HeartbeatInterval},
		{"rebalance_timeout", c.RebalanceTimeout},
		{"dial_timeout", c.DialTimeout},
	} {
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.val, err)
		}
	}
	if c.EnableSASL {
		switch c.SASLMechanism {
		case "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
		default:
			return fmt.Errorf("unsupported SASL mechanism: %s", c.SASLMechanism)
		}
		if c.Username == "" {
			return fmt.Errorf("SASL username is required")
		}
	}
	if err := c.TLS.Validate(); err != nil {
		return err
	}
	return nil
}

// dialer builds a kafka.Dialer with optional TLS/SASL.
func (c *KafkaConfig) dialer() (*kafkago.Dialer, error) {
	d := &kafkago.Dialer{
		Timeout:   parseDuration(c.DialTimeout),
		DualStack: true,
	}

	tc, err := c.TLS.Build()
	if err != nil {
		return nil, fmt.Errorf("TLS config: %w", err)
	}
	d.TLS = tc

	if c.EnableSASL {
		m, err := c.saslMechanism()
		if err != nil {
			return nil, fmt.Errorf("SASL config: %w", err)
		}
		d.SASLMechanism = m
	}

	return d, nil
}

func (c *KafkaConfig) saslMechanism() (sasl.Mechanism, error) {
	switch c.SASLMechanism {
	case "PLAIN":
		return plain.Mechanism{
			Username: c.Username,
			Password: c.Password,
		}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, c.Username, c.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, c.Username, c.Password)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", c.SASLMechanism)
	}
}

// parseDuration parses a duration string, returning zero on empty input.
func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// kafkaReader is the slice of kafka-go's Reader the source drives.
// Tests substitute an in-memory implementation.
type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaSource consumes payloads from a Kafka topic. Each Open starts an
// independent reader in the configured consumer group; messages are
// committed once decoded, so a payload is delivered at most once across
// iterators sharing the group.
type KafkaSource struct {
	cfg   KafkaConfig
	codec Codec
	log   *logger.Logger

	mu      sync.Mutex
	iters   []*kafkaIter
	started bool

	newReader func() (kafkaReader, error)
}

var (
	_ Source              = (*KafkaSource)(nil)
	_ component.Component = (*KafkaSource)(nil)
)

// NewKafkaSource creates a Kafka-backed source. A nil codec decodes
// message values as JSON.
func NewKafkaSource(cfg KafkaConfig, codec Codec, log *logger.Logger) (*KafkaSource, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.InvalidConfig("source.kafka", err.Error()).WithCause(err)
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	s := &KafkaSource{
		cfg:   cfg,
		codec: codec,
		log:   log.WithComponent("kafka-source"),
	}
	s.newReader = s.openReader
	return s, nil
}

func (s *KafkaSource) openReader() (kafkaReader, error) {
	dialer, err := s.cfg.dialer()
	if err != nil {
		return nil, err
	}

	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:           s.cfg.Brokers,
		Topic:             s.cfg.Topic,
		GroupID:           s.cfg.GroupID,
		Dialer:            dialer,
		StartOffset:       kafkago.FirstOffset,
		MinBytes:          s.cfg.MinBytes,
		MaxBytes:          s.cfg.MaxBytes,
		SessionTimeout:    parseDuration(s.cfg.SessionTimeout),
		HeartbeatInterval: parseDuration(s.cfg.HeartbeatInterval),
		RebalanceTimeout:  parseDuration(s.cfg.RebalanceTimeout),
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			s.log.Error("reader: "+msg, map[string]interface{}{
				"args":    fmt.Sprintf("%v", args),
				"topic":   s.cfg.Topic,
				"groupID": s.cfg.GroupID,
			})
		}),
	}), nil
}

// Open connects a reader and returns an iterator over decoded payloads.
func (s *KafkaSource) Open(_ context.Context) (stream.Iterator[Payload], error) {
	reader, err := s.newReader()
	if err != nil {
		return nil, errors.SourceFailure("kafka", err)
	}

	it := &kafkaIter{
		src:    s,
		reader: reader,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.iters = append(s.iters, it)
	s.mu.Unlock()

	s.log.Info("Kafka source opened", map[string]interface{}{
		"brokers": s.cfg.Brokers,
		"topic":   s.cfg.Topic,
		"groupID": s.cfg.GroupID,
	})
	return it, nil
}

// Name returns the component name.
func (s *KafkaSource) Name() string { return "kafka-source" }

// Start marks the source as running. Readers are opened lazily by Open,
// so there is nothing to connect up front.
func (s *KafkaSource) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.started = true
	s.log.Info("Kafka source started", map[string]interface{}{
		"brokers": s.cfg.Brokers,
		"topic":   s.cfg.Topic,
	})
	return nil
}

// Stop closes every iterator opened through this source.
func (s *KafkaSource) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started && len(s.iters) == 0 {
		return nil
	}

	s.log.Info("Kafka source stopping", map[string]interface{}{
		"topic": s.cfg.Topic,
	})
	for _, it := range s.iters {
		_ = it.Close()
	}
	s.iters = nil
	s.started = false
	return nil
}

// Health checks broker connectivity by dialling the first broker.
func (s *KafkaSource) Health(ctx context.Context) component.Health {
	s.mu.Lock()
	started := s.started
	cfg := s.cfg
	s.mu.Unlock()

	if !started {
		return component.Health{
			Name:    s.Name(),
			Status:  component.StatusUnhealthy,
			Message: "kafka source not started",
		}
	}

	dialer, err := cfg.dialer()
	if err != nil {
		return component.Health{
			Name:    s.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("dialer: %v", err),
		}
	}

	conn, err := dialer.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return component.Health{
			Name:    s.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("broker unreachable: %v", err),
		}
	}
	defer conn.Close()

	if _, err := conn.Brokers(); err != nil {
		return component.Health{
			Name:    s.Name(),
			Status:  component.StatusDegraded,
			Message: fmt.Sprintf("broker metadata: %v", err),
		}
	}

	return component.Health{
		Name:   s.Name(),
		Status: component.StatusHealthy,
	}
}

// IsAvailable reports whether the source is started and its broker
// reachable. Used by provider selectors for transport fallback.
func (s *KafkaSource) IsAvailable(ctx context.Context) bool {
	return s.Health(ctx).Status == component.StatusHealthy
}

// Describe returns infrastructure summary info for the bootstrap display.
func (s *KafkaSource) Describe() component.Description {
	return component.Description{
		Name:    "Kafka Source",
		Type:    "kafka",
		Details: fmt.Sprintf("brokers=%v topic=%s group=%s", s.cfg.Brokers, s.cfg.Topic, s.cfg.GroupID),
	}
}

type kafkaIter struct {
	src    *KafkaSource
	reader kafkaReader

	closeOnce sync.Once
	done      chan struct{}
	failures  int
}

// Next fetches the next message, decodes it, and commits the offset.
// Fetch failures are retried with backoff; decode failures are skipped
// unless StrictDecode is set.
func (it *kafkaIter) Next(ctx context.Context) (Payload, bool, error) {
	for {
		select {
		case <-it.done:
			return nil, false, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		default:
		}

		msg, err := it.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			// A closed reader reports EOF; treat it as end of stream.
			if it.closed() || err == io.EOF {
				return nil, false, nil
			}
			if retryErr := it.handleFailure(ctx, err); retryErr != nil {
				return nil, false, retryErr
			}
			continue
		}
		it.failures = 0

		payload, err := it.src.codec.Decode(msg.Value)
		if err != nil {
			if it.src.cfg.StrictDecode {
				return nil, false, errors.SourceFailure("kafka", err)
			}
			it.src.log.Warn("Skipping undecodable message", map[string]interface{}{
				"error":     err.Error(),
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			})
			if err := it.commit(ctx, msg); err != nil {
				return nil, false, err
			}
			continue
		}

		if err := it.commit(ctx, msg); err != nil {
			return nil, false, err
		}
		return payload, true, nil
	}
}

func (it *kafkaIter) commit(ctx context.Context, msg kafkago.Message) error {
	if err := it.reader.CommitMessages(ctx, msg); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.SourceFailure("kafka", err)
	}
	return nil
}

func (it *kafkaIter) handleFailure(ctx context.Context, err error) error {
	it.failures++
	if it.failures <= 3 {
		it.src.log.Error("Kafka fetch error", map[string]interface{}{
			"error":    err.Error(),
			"failures": it.failures,
			"topic":    it.src.cfg.Topic,
			"groupID":  it.src.cfg.GroupID,
		})
	}

	backoff := time.Duration(it.failures) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-it.done:
		return nil
	case <-time.After(backoff):
		return nil
	}
}

func (it *kafkaIter) closed() bool {
	select {
	case <-it.done:
		return true
	default:
		return false
	}
}

// Close shuts down the iterator's reader. Safe to call more than once.
func (it *kafkaIter) Close() error {
	var err error
	it.closeOnce.Do(func() {
		close(it.done)
		err = it.reader.Close()
	})
	return err
}
