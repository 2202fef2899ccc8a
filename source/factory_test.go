package source

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/provider"
)

// --- provider registry tests ---

func TestNewProviderRegistry_ListsTransports(t *testing.T) {
	reg := NewProviderRegistry(nil, testLogger())

	names := reg.List()
	want := []string{"http", "kafka", "redis"}
	if len(names) != len(want) {
		t.Fatalf("expected %d transports, got %v", len(want), names)
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("expected %q at %d, got %q", n, i, names[i])
		}
	}
}

func TestProviderRegistry_CreateRedis(t *testing.T) {
	reg := NewProviderRegistry(nil, testLogger())

	src, err := reg.Create("redis", map[string]any{
		"addr": "localhost:6379",
		"key":  "jobs",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rs, ok := src.(*RedisSource)
	if !ok {
		t.Fatalf("expected *RedisSource, got %T", src)
	}
	if rs.cfg.Addr != "localhost:6379" || rs.cfg.Key != "jobs" {
		t.Errorf("config not decoded: %+v", rs.cfg)
	}
	if src.Name() != "redis-source" {
		t.Errorf("expected redis-source, got %q", src.Name())
	}
}

func TestProviderRegistry_CreateKafka(t *testing.T) {
	reg := NewProviderRegistry(nil, testLogger())

	src, err := reg.Create("kafka", map[string]any{
		"brokers":  []any{"broker-1:9092", "broker-2:9092"},
		"topic":    "payloads",
		"group_id": "workers",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ks, ok := src.(*KafkaSource)
	if !ok {
		t.Fatalf("expected *KafkaSource, got %T", src)
	}
	if len(ks.cfg.Brokers) != 2 || ks.cfg.Topic != "payloads" || ks.cfg.GroupID != "workers" {
		t.Errorf("config not decoded: %+v", ks.cfg)
	}
}

func TestProviderRegistry_CreateHTTP(t *testing.T) {
	reg := NewProviderRegistry(nil, testLogger())

	src, err := reg.Create("http", map[string]any{
		"port": 9090,
		"path": "/hooks",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hs, ok := src.(*HTTPSource)
	if !ok {
		t.Fatalf("expected *HTTPSource, got %T", src)
	}
	if hs.cfg.Port != 9090 || hs.cfg.Path != "/hooks" {
		t.Errorf("config not decoded: %+v", hs.cfg)
	}
}

func TestProviderRegistry_WeaklyTypedDecode(t *testing.T) {
	reg := NewProviderRegistry(nil, testLogger())

	// Env-sourced values arrive as strings; weak decoding fills ints.
	src, err := reg.Create("http", map[string]any{
		"port":        "9191",
		"buffer_size": "16",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hs := src.(*HTTPSource)
	if hs.cfg.Port != 9191 || hs.cfg.BufferSize != 16 {
		t.Errorf("expected weakly typed decode, got %+v", hs.cfg)
	}
}

func TestProviderRegistry_CreateInvalidConfig(t *testing.T) {
	reg := NewProviderRegistry(nil, testLogger())

	_, err := reg.Create("redis", map[string]any{
		"addr":         "localhost:6379",
		"poll_timeout": "not-a-duration",
	})
	if err == nil {
		t.Fatal("expected error for invalid poll_timeout")
	}
	if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestProviderRegistry_UnknownTransport(t *testing.T) {
	reg := NewProviderRegistry(nil, testLogger())

	_, err := reg.Create("nats", map[string]any{})
	if err == nil {
		t.Error("expected error for unregistered transport")
	}
}

// --- availability and manager tests ---

func TestRedisSource_IsAvailable(t *testing.T) {
	src, _ := newMiniRedisSource(t, nil, false)
	ctx := context.Background()

	if src.IsAvailable(ctx) {
		t.Error("expected unavailable before Start")
	}

	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !src.IsAvailable(ctx) {
		t.Error("expected available after Start")
	}

	if err := src.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if src.IsAvailable(ctx) {
		t.Error("expected unavailable after Stop")
	}
}

func TestManagedSource_ManagerSelectsAvailable(t *testing.T) {
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() { mini.Close() })

	reg := NewProviderRegistry(nil, testLogger())
	mgr := provider.NewManager(reg, &provider.PrioritySelector[ManagedSource]{
		Priority: []string{"kafka", "redis"},
	})

	if err := mgr.Initialize("redis", map[string]any{
		"addr": mini.Addr(),
		"key":  "jobs",
	}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	ctx := context.Background()
	src, err := mgr.GetByName("redis")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = src.Stop(ctx) })

	// Kafka was never initialized, so the selector lands on redis.
	picked, err := mgr.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if picked.Name() != "redis-source" {
		t.Errorf("expected redis-source, got %q", picked.Name())
	}
}
