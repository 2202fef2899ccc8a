package source

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/errors"
)

const testKey = "test:payloads"

// newMiniRedisSource creates a RedisSource backed by miniredis plus a
// plain client for seeding the list.
func newMiniRedisSource(t *testing.T, codec Codec, strict bool) (*RedisSource, *goredis.Client) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() { mini.Close() })

	cfg := RedisConfig{Addr: mini.Addr(), Key: testKey, StrictDecode: strict}
	src, err := NewRedisSource(cfg, codec, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = src.Stop(context.Background()) })

	push := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = push.Close() })
	return src, push
}

func seed(t *testing.T, push *goredis.Client, values ...string) {
	t.Helper()
	for _, v := range values {
		if err := push.RPush(context.Background(), testKey, v).Err(); err != nil {
			t.Fatalf("failed to seed list: %v", err)
		}
	}
}

// --- Redis config tests ---

func TestRedisConfig_ApplyDefaults(t *testing.T) {
	cfg := RedisConfig{}
	cfg.ApplyDefaults()

	if cfg.Addr != "localhost:6379" {
		t.Errorf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.Key != "flowkit:payloads" {
		t.Errorf("expected default key, got %q", cfg.Key)
	}
	if cfg.PollTimeout != "2s" || cfg.PoolSize != 10 {
		t.Errorf("expected default poll/pool, got %q/%d", cfg.PollTimeout, cfg.PoolSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestRedisConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  RedisConfig
	}{
		{"bad poll timeout", RedisConfig{PollTimeout: "soon"}},
		{"zero poll timeout", RedisConfig{PollTimeout: "0s"}},
		{"bad dial timeout", RedisConfig{DialTimeout: "never"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			if err := tt.cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestNewRedisSource_InvalidConfig(t *testing.T) {
	_, err := NewRedisSource(RedisConfig{PollTimeout: "soon"}, nil, testLogger())
	if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

// --- Redis source tests ---

func TestRedisSource_PopsInOrder(t *testing.T) {
	src, push := newMiniRedisSource(t, nil, false)
	seed(t, push, `{"n":1}`, `{"n":2}`, `{"n":3}`)

	it, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer it.Close()

	for i := 1; i <= 3; i++ {
		p, ok, err := it.Next(context.Background())
		if err != nil || !ok {
			t.Fatalf("expected payload %d, got ok=%v err=%v", i, ok, err)
		}
		if p.(map[string]any)["n"] != float64(i) {
			t.Fatalf("expected n=%d, got %v", i, p)
		}
	}
}

func TestRedisSource_BlocksUntilPush(t *testing.T) {
	src, push := newMiniRedisSource(t, nil, false)

	it, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer it.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = push.RPush(context.Background(), testKey, `{"n":7}`).Err()
	}()

	p, ok, err := it.Next(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected payload, got ok=%v err=%v", ok, err)
	}
	if p.(map[string]any)["n"] != float64(7) {
		t.Fatalf("expected n=7, got %v", p)
	}
}

func TestRedisSource_SkipsPoisonPayloads(t *testing.T) {
	src, push := newMiniRedisSource(t, nil, false)
	seed(t, push, `{"n":1}`, `{oops`, `{"n":3}`)

	it, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer it.Close()

	var seen []float64
	for range 2 {
		p, ok, err := it.Next(context.Background())
		if err != nil || !ok {
			t.Fatalf("expected payload, got ok=%v err=%v", ok, err)
		}
		seen = append(seen, p.(map[string]any)["n"].(float64))
	}
	if seen[0] != 1 || seen[1] != 3 {
		t.Fatalf("expected payloads 1 and 3, got %v", seen)
	}
}

func TestRedisSource_StrictDecodeFails(t *testing.T) {
	src, push := newMiniRedisSource(t, nil, true)
	seed(t, push, `{oops`)

	it, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer it.Close()

	_, _, err = it.Next(context.Background())
	if !errors.IsCode(err, errors.ErrCodeSourceFailure) {
		t.Fatalf("expected SOURCE_FAILURE, got %v", err)
	}
}

func TestRedisSource_BytesCodec(t *testing.T) {
	src, push := newMiniRedisSource(t, BytesCodec{}, false)
	seed(t, push, "raw-payload")

	it, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer it.Close()

	p, ok, err := it.Next(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected payload, got ok=%v err=%v", ok, err)
	}
	if string(p.([]byte)) != "raw-payload" {
		t.Fatalf("expected raw bytes, got %v", p)
	}
}

func TestRedisSource_SharedQueueAcrossIterators(t *testing.T) {
	src, push := newMiniRedisSource(t, nil, false)
	seed(t, push, `{"n":1}`, `{"n":2}`)

	a, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()
	b, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer b.Close()

	pa, _, err := a.Next(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pb, _, err := b.Next(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pa.(map[string]any)["n"] != float64(1) || pb.(map[string]any)["n"] != float64(2) {
		t.Fatalf("expected each payload delivered once, got %v and %v", pa, pb)
	}
}

func TestRedisSource_CloseEndsIteration(t *testing.T) {
	src, push := newMiniRedisSource(t, nil, false)
	seed(t, push, `{"n":1}`)

	it, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, err := it.Next(context.Background()); !ok || err != nil {
		t.Fatalf("expected payload, got ok=%v err=%v", ok, err)
	}

	if err := it.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, err := it.Next(context.Background()); ok || err != nil {
		t.Fatalf("expected clean end, got ok=%v err=%v", ok, err)
	}
}

func TestRedisSource_NextHonorsContext(t *testing.T) {
	src, _ := newMiniRedisSource(t, nil, false)

	it, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer it.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, ok, err := it.Next(ctx)
	if ok || err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got ok=%v err=%v", ok, err)
	}
}

// --- Redis component tests ---

func TestRedisSource_StartStop(t *testing.T) {
	src, push := newMiniRedisSource(t, nil, false)
	ctx := context.Background()

	if err := src.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h := src.Health(ctx); h.Status != component.StatusHealthy {
		t.Fatalf("expected healthy, got %q: %s", h.Status, h.Message)
	}

	it, err := src.Open(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := src.Stop(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, err := it.Next(ctx); ok || err != nil {
		t.Fatalf("expected closed iterator, got ok=%v err=%v", ok, err)
	}

	// A stopped source can be opened again on a fresh client.
	seed(t, push, `{"n":9}`)
	it, err = src.Open(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer it.Close()
	p, ok, err := it.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("expected payload after reopen, got ok=%v err=%v", ok, err)
	}
	if p.(map[string]any)["n"] != float64(9) {
		t.Fatalf("expected n=9, got %v", p)
	}
}

func TestRedisSource_HealthNotStarted(t *testing.T) {
	src, _ := newMiniRedisSource(t, nil, false)

	health := src.Health(context.Background())
	if health.Status != component.StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %q", health.Status)
	}
}

func TestRedisSource_Describe(t *testing.T) {
	src, _ := newMiniRedisSource(t, nil, false)

	desc := src.Describe()
	if desc.Type != "redis" {
		t.Errorf("expected type redis, got %q", desc.Type)
	}
	if desc.Details == "" {
		t.Error("expected non-empty details")
	}
}
