package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/resilience"
	"github.com/kbukum/flowkit/stream"
)

// HTTPConfig holds listen and ingest settings for an HTTPSource.
type HTTPConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`

	// Path is the ingest route payloads are posted to.
	Path string `yaml:"path" mapstructure:"path"`

	// BufferSize caps payloads queued ahead of the iterator. Posts
	// arriving at a full buffer are rejected with 429.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`

	// MaxBodyBytes caps the accepted request body size.
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`

	// AuthSecret enables HMAC bearer token auth when non-empty.
	AuthSecret string `yaml:"auth_secret" mapstructure:"auth_secret"`

	// RateLimit caps accepted posts per second when > 0, with bursts up
	// to twice the rate. Posts over the limit are rejected with 429.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`

	ReadTimeout  int `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *HTTPConfig) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Path == "" {
		c.Path = "/v1/payloads"
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 256
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
}

// Validate checks the configuration for invalid values.
func (c *HTTPConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path must start with / (got: %q)", c.Path)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer_size must be > 0")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be non-negative")
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	return nil
}

// HTTPSource accepts payloads over HTTP. Posts to the ingest route are
// decoded and queued into a bounded buffer that iterators drain; the
// route answers 202 on accept, 429 when the buffer is full, and 401
// when bearer auth is enabled and fails.
type HTTPSource struct {
	cfg     HTTPConfig
	codec   Codec
	log     *logger.Logger
	engine  *gin.Engine
	buf     chan Payload
	limiter *resilience.RateLimiter

	stopOnce sync.Once
	stopped  chan struct{}

	mu      sync.Mutex
	server  *http.Server
	addr    string
	started bool
}

var (
	_ Source                  = (*HTTPSource)(nil)
	_ component.Component     = (*HTTPSource)(nil)
	_ component.RouteProvider = (*HTTPSource)(nil)
)

// NewHTTPSource creates an HTTP ingest source. A nil codec decodes
// request bodies as JSON. The route is live on Engine immediately;
// Start binds the listener.
func NewHTTPSource(cfg HTTPConfig, codec Codec, log *logger.Logger) (*HTTPSource, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.InvalidConfig("source.http", err.Error()).WithCause(err)
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	// Gin mode follows the global log level.
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &HTTPSource{
		cfg:     cfg,
		codec:   codec,
		log:     log.WithComponent("http-source"),
		engine:  gin.New(),
		buf:     make(chan Payload, cfg.BufferSize),
		stopped: make(chan struct{}),
	}
	if cfg.RateLimit > 0 {
		s.limiter = resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name:  "http-ingest",
			Rate:  cfg.RateLimit,
			Burst: int(2 * cfg.RateLimit),
		})
	}

	s.engine.Use(gin.Recovery())
	handlers := make([]gin.HandlerFunc, 0, 2)
	if cfg.AuthSecret != "" {
		handlers = append(handlers, bearerAuth(cfg.AuthSecret))
	}
	handlers = append(handlers, s.ingest)
	s.engine.POST(cfg.Path, handlers...)

	return s, nil
}

// Engine returns the underlying Gin engine, for tests and for mounting
// the ingest route on an existing server.
func (s *HTTPSource) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the bound listen address once Start has succeeded.
func (s *HTTPSource) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *HTTPSource) ingest(c *gin.Context) {
	if s.limiter != nil && !s.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty payload"})
		return
	}

	payload, err := s.codec.Decode(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid payload: %v", err)})
		return
	}

	select {
	case s.buf <- payload:
		id := uuid.NewString()
		s.log.Debug("Payload accepted", map[string]interface{}{
			"id":    id,
			"bytes": len(body),
		})
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "id": id})
	default:
		s.log.Warn("Ingest buffer full", map[string]interface{}{
			"capacity": cap(s.buf),
		})
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "ingest buffer full"})
	}
}

// bearerAuth validates HMAC-signed bearer tokens on the ingest route.
func bearerAuth(secret string) gin.HandlerFunc {
	keyFunc := func(token *gojwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return []byte(secret), nil
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			return
		}

		if _, err := gojwt.Parse(parts[1], keyFunc, gojwt.WithValidMethods([]string{"HS256"})); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}
		c.Next()
	}
}

// Open returns an iterator draining the ingest buffer. Iterators share
// the buffer; each payload is delivered to exactly one of them.
func (s *HTTPSource) Open(_ context.Context) (stream.Iterator[Payload], error) {
	return &httpIter{src: s, done: make(chan struct{})}, nil
}

// Name returns the component name.
func (s *HTTPSource) Name() string { return "http-source" }

// Start binds the listener and begins serving the ingest route. It
// returns once the port is bound; serving continues in a goroutine.
func (s *HTTPSource) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	h2s := &http2.Server{
		IdleTimeout: time.Duration(s.cfg.IdleTimeout) * time.Second,
	}
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      h2c.NewHandler(s.engine, h2s),
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeout) * time.Second,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("http source failed to bind %s: %w", server.Addr, err)
	}

	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.log.Error("HTTP source server error", map[string]interface{}{
				"error": serveErr.Error(),
			})
		}
	}()

	s.server = server
	s.addr = listener.Addr().String()
	s.started = true
	s.log.Info("HTTP source started", map[string]interface{}{
		"addr": s.addr,
		"path": s.cfg.Path,
	})
	return nil
}

// Stop shuts the server down and ends all iterators. Shutdown waits
// out in-flight ingest handlers first, so every payload they accept is
// in the buffer before iterators see end of stream; Next keeps
// draining until the buffer is empty.
func (s *HTTPSource) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		server := s.server
		s.server = nil
		s.started = false
		s.mu.Unlock()

		if server != nil {
			s.log.Info("HTTP source stopping")
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if serr := server.Shutdown(shutdownCtx); serr != nil {
				err = fmt.Errorf("http source shutdown: %w", serr)
			}
		}
		close(s.stopped)
	})
	return err
}

// Health reports serving state and ingest buffer pressure.
func (s *HTTPSource) Health(_ context.Context) component.Health {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if !started {
		return component.Health{
			Name:    s.Name(),
			Status:  component.StatusUnhealthy,
			Message: "http source not started",
		}
	}
	if len(s.buf) == cap(s.buf) {
		return component.Health{
			Name:    s.Name(),
			Status:  component.StatusDegraded,
			Message: "ingest buffer full",
		}
	}
	return component.Health{
		Name:   s.Name(),
		Status: component.StatusHealthy,
	}
}

// IsAvailable reports whether the source is serving with buffer
// headroom. Used by provider selectors for transport fallback.
func (s *HTTPSource) IsAvailable(ctx context.Context) bool {
	return s.Health(ctx).Status == component.StatusHealthy
}

// Describe returns infrastructure summary info for the bootstrap display.
func (s *HTTPSource) Describe() component.Description {
	auth := "none"
	if s.cfg.AuthSecret != "" {
		auth = "bearer"
	}
	return component.Description{
		Name:    "HTTP Ingest",
		Type:    "server",
		Details: fmt.Sprintf("%s:%d %s buffer=%d auth=%s", s.cfg.Host, s.cfg.Port, s.cfg.Path, s.cfg.BufferSize, auth),
		Port:    s.cfg.Port,
	}
}

// Routes reports the ingest route for the startup summary.
func (s *HTTPSource) Routes() []component.Route {
	return []component.Route{
		{Method: http.MethodPost, Path: s.cfg.Path, Handler: "ingest"},
	}
}

type httpIter struct {
	src       *HTTPSource
	closeOnce sync.Once
	done      chan struct{}
}

// Next blocks until a payload is posted, the iterator is closed, the
// source stops, or ctx ends. Buffered payloads are drained before a
// stop is honored.
func (it *httpIter) Next(ctx context.Context) (Payload, bool, error) {
	select {
	case p := <-it.src.buf:
		return p, true, nil
	default:
	}

	select {
	case p := <-it.src.buf:
		return p, true, nil
	case <-it.done:
		return nil, false, nil
	case <-it.src.stopped:
		// A payload may have landed in the same instant the stop did.
		select {
		case p := <-it.src.buf:
			return p, true, nil
		default:
		}
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Close ends the iteration. The buffer stays open for other iterators.
func (it *httpIter) Close() error {
	it.closeOnce.Do(func() { close(it.done) })
	return nil
}
