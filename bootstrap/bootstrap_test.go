package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/events"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/step"
)

// testConfig is a minimal config for testing that satisfies the Config interface.
type testConfig struct {
	config.ServiceConfig
}

// mockComponent implements component.Component for testing.
type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	started  bool
	stopped  bool
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	m.started = true
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped = true
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) component.Health {
	return m.health
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			BaseConfig: config.BaseConfig{
				Name:        name,
				Version:     version,
				Environment: config.EnvDevelopment,
			},
		},
	}
}

func mustStep(t *testing.T, name string) *step.Step {
	t.Helper()
	s, err := step.New(name, func(ctx context.Context, args step.Args) (any, error) {
		return name, nil
	})
	if err != nil {
		t.Fatalf("step %s: %v", name, err)
	}
	return s
}

func TestNewApp(t *testing.T) {
	cfg := newTestConfig("test-svc", "1.0.0")
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app == nil {
		t.Fatal("expected non-nil app")
	}
	if app.Name != "test-svc" {
		t.Errorf("expected name 'test-svc', got %q", app.Name)
	}
	if app.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", app.Version)
	}
	if app.Components == nil {
		t.Error("expected non-nil components registry")
	}
	if app.Coordinator == nil {
		t.Error("expected non-nil coordinator")
	}
	if app.Logger == nil {
		t.Error("expected non-nil logger")
	}
	if app.Providers == nil {
		t.Error("expected non-nil providers")
	}
	// Config is typed
	if app.Cfg.Name != "test-svc" {
		t.Errorf("expected cfg.Name 'test-svc', got %q", app.Cfg.Name)
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := &testConfig{
		ServiceConfig: config.ServiceConfig{
			BaseConfig: config.BaseConfig{
				// Name is empty, should fail validation
				Environment: config.EnvDevelopment,
			},
		},
	}
	_, err := NewApp(cfg)
	if err == nil {
		t.Error("expected error for missing name")
	}
}

func TestNewAppObservabilityDisabled(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Metrics != nil {
		t.Error("expected nil metrics when observability is disabled")
	}
	if app.Components.Get("observability") != nil {
		t.Error("expected no observability component when disabled")
	}
}

func TestWithSteps(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, err := NewApp(cfg, WithSteps(mustStep(t, "fetch"), mustStep(t, "store")))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Coordinator.Len() != 2 {
		t.Errorf("expected 2 steps, got %d", app.Coordinator.Len())
	}
	if !app.Coordinator.Has("fetch") || !app.Coordinator.Has("store") {
		t.Errorf("expected fetch and store registered, got %v", app.Coordinator.Steps())
	}
}

func TestWithStepsInvalid(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	_, err := NewApp(cfg, WithSteps(42))
	if err == nil {
		t.Error("expected error for invalid step value")
	}
}

func TestWithStepsSpec(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	spec := step.Spec{
		Name: "parse",
		Executor: func(ctx context.Context, args step.Args) (any, error) {
			return nil, nil
		},
	}
	app, err := NewApp(cfg, WithSteps(spec))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if !app.Coordinator.Has("parse") {
		t.Error("expected spec-built step registered")
	}
}

func TestWithComponents(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	db := &mockComponent{name: "db", health: component.Health{Name: "db", Status: component.StatusHealthy}}
	cache := &mockComponent{name: "cache", health: component.Health{Name: "cache", Status: component.StatusHealthy}}

	app, err := NewApp(cfg, WithComponents(db, cache))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Components.Get("db") == nil || app.Components.Get("cache") == nil {
		t.Error("expected components registered")
	}
}

func TestWithFlowFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ingest.yaml")
	doc := `flow: ingest
steps:
  - name: fetch
    executor: fetch
    returns: string
  - name: store
    executor: store
    params:
      payload: string
    depends_on:
      - step: fetch
        arg: payload
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write flow file: %v", err)
	}

	reg := flow.NewExecutorRegistry()
	reg.Register("fetch", func(ctx context.Context, args step.Args) (any, error) {
		return "data", nil
	})
	reg.Register("store", func(ctx context.Context, args step.Args) (any, error) {
		return nil, nil
	})

	cfg := newTestConfig("test", "1.0")
	app, err := NewApp(cfg, WithFlowFile(path), WithExecutors(reg))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Coordinator.Len() != 2 {
		t.Errorf("expected 2 steps from flow file, got %d", app.Coordinator.Len())
	}
	if len(app.Summary.flows) != 1 || app.Summary.flows[0].Name != "ingest" {
		t.Errorf("expected flow 'ingest' tracked, got %+v", app.Summary.flows)
	}
}

func TestWithFlowFileMissing(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	_, err := NewApp(cfg, WithFlowFile("/nonexistent/flow.yaml"))
	if err == nil {
		t.Error("expected error for missing flow file")
	}
}

func TestWithCoordinatorOptions(t *testing.T) {
	hub := events.NewHub()
	defer hub.Close()
	sub := hub.Subscribe("test", 16)

	cfg := newTestConfig("test", "1.0")
	app, err := NewApp(cfg,
		WithSteps(mustStep(t, "fetch")),
		WithCoordinatorOptions(flow.WithEventSink(hub)),
	)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	out, err := app.Coordinator.Run(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out["fetch"] != "fetch" {
		t.Errorf("expected fetch result, got %v", out)
	}

	var got []events.EventType
drain:
	for {
		select {
		case e := <-sub.Events():
			got = append(got, e.Type)
		default:
			break drain
		}
	}
	if len(got) == 0 || got[0] != events.RunStarted {
		t.Errorf("expected run.started first, got %v", got)
	}
	if got[len(got)-1] != events.RunCompleted {
		t.Errorf("expected run.completed last, got %v", got)
	}
}

func TestNewAppWithOptions(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, err := NewApp(cfg, WithGracefulTimeout(30*time.Second))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", app.gracefulTimeout)
	}
}

func TestRegisterComponent(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	c := &mockComponent{
		name:   "db",
		health: component.Health{Name: "db", Status: component.StatusHealthy},
	}

	if err := app.RegisterComponent(c); err != nil {
		t.Fatalf("RegisterComponent failed: %v", err)
	}

	got := app.Components.Get("db")
	if got == nil {
		t.Error("expected component to be registered")
	}
}

func TestRegisterComponentDuplicate(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	c := &mockComponent{name: "db"}
	app.RegisterComponent(c)

	err := app.RegisterComponent(&mockComponent{name: "db"})
	if err == nil {
		t.Error("expected error for duplicate component registration")
	}
}

func TestOnStartHook(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	called := false
	app.OnStart(func(ctx context.Context) error {
		called = true
		return nil
	})

	if len(app.onStart) != 1 {
		t.Errorf("expected 1 onStart hook, got %d", len(app.onStart))
	}

	err := runHooks(context.Background(), app.onStart)
	if err != nil {
		t.Fatalf("hook failed: %v", err)
	}
	if !called {
		t.Error("expected onStart hook to be called")
	}
}

func TestOnReadyHook(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	called := false
	app.OnReady(func(ctx context.Context) error {
		called = true
		return nil
	})

	err := runHooks(context.Background(), app.onReady)
	if err != nil {
		t.Fatalf("hook failed: %v", err)
	}
	if !called {
		t.Error("expected onReady hook to be called")
	}
}

func TestOnStopHook(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	called := false
	app.OnStop(func(ctx context.Context) error {
		called = true
		return nil
	})

	err := runHooks(context.Background(), app.onStop)
	if err != nil {
		t.Fatalf("hook failed: %v", err)
	}
	if !called {
		t.Error("expected onStop hook to be called")
	}
}

func TestMultipleHooks(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	order := []string{}
	app.OnStart(
		func(ctx context.Context) error { order = append(order, "first"); return nil },
		func(ctx context.Context) error { order = append(order, "second"); return nil },
	)

	runHooks(context.Background(), app.onStart)
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("expected [first, second], got %v", order)
	}
}

func TestHookError(t *testing.T) {
	hooks := []Hook{
		func(ctx context.Context) error { return fmt.Errorf("hook failed") },
	}
	err := runHooks(context.Background(), hooks)
	if err == nil {
		t.Error("expected error from failing hook")
	}
}

func TestHookErrorStopsExecution(t *testing.T) {
	secondCalled := false
	hooks := []Hook{
		func(ctx context.Context) error { return fmt.Errorf("fail") },
		func(ctx context.Context) error { secondCalled = true; return nil },
	}
	runHooks(context.Background(), hooks)
	if secondCalled {
		t.Error("expected second hook not to be called after first fails")
	}
}

func TestReadyCheckAllHealthy(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	app.RegisterComponent(&mockComponent{
		name:   "db",
		health: component.Health{Name: "db", Status: component.StatusHealthy},
	})
	app.RegisterComponent(&mockComponent{
		name:   "cache",
		health: component.Health{Name: "cache", Status: component.StatusHealthy},
	})

	err := app.ReadyCheck(context.Background())
	if err != nil {
		t.Errorf("expected no error for all healthy, got %v", err)
	}
}

func TestReadyCheckUnhealthy(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	app.RegisterComponent(&mockComponent{
		name:   "db",
		health: component.Health{Name: "db", Status: component.StatusHealthy},
	})
	app.RegisterComponent(&mockComponent{
		name:   "cache",
		health: component.Health{Name: "cache", Status: component.StatusUnhealthy, Message: "timeout"},
	})

	err := app.ReadyCheck(context.Background())
	if err == nil {
		t.Error("expected error for unhealthy component")
	}
}

func TestReadyCheckDegraded(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	app.RegisterComponent(&mockComponent{
		name:   "svc",
		health: component.Health{Name: "svc", Status: component.StatusDegraded, Message: "slow"},
	})

	err := app.ReadyCheck(context.Background())
	if err == nil {
		t.Error("expected error for degraded component")
	}
}

func TestReadyCheckEmpty(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	err := app.ReadyCheck(context.Background())
	if err != nil {
		t.Errorf("expected no error for empty registry, got %v", err)
	}
}

func TestAppHealthAggregatesComponents(t *testing.T) {
	cfg := newTestConfig("test-svc", "1.2.0")
	app, _ := NewApp(cfg)
	app.RegisterComponent(&mockComponent{
		name:   "db",
		health: component.Health{Name: "db", Status: component.StatusHealthy},
	})
	app.RegisterComponent(&mockComponent{
		name:   "cache",
		health: component.Health{Name: "cache", Status: component.StatusDegraded, Message: "slow"},
	})

	sh := app.Health(context.Background())
	if sh.Service != "test-svc" || sh.Version != "1.2.0" {
		t.Errorf("expected service identity carried, got %s/%s", sh.Service, sh.Version)
	}
	if sh.Status != observability.HealthStatusDegraded {
		t.Errorf("expected degraded aggregate, got %s", sh.Status)
	}
	if len(sh.Components) != 2 {
		t.Fatalf("expected 2 component entries, got %d", len(sh.Components))
	}
	if sh.Components[0].Status != observability.HealthStatusUp {
		t.Errorf("expected db mapped to up, got %s", sh.Components[0].Status)
	}
	if sh.Components[1].Status != observability.HealthStatusDegraded || sh.Components[1].Message != "slow" {
		t.Errorf("expected degraded cache with message, got %+v", sh.Components[1])
	}
}

func TestAppHealthDownComponent(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	app.RegisterComponent(&mockComponent{
		name:   "source",
		health: component.Health{Name: "source", Status: component.StatusUnhealthy, Message: "connection refused"},
	})

	sh := app.Health(context.Background())
	if sh.Status != observability.HealthStatusDown {
		t.Errorf("expected down aggregate, got %s", sh.Status)
	}
}

func TestAppHealthEmpty(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)

	sh := app.Health(context.Background())
	if sh.Status != observability.HealthStatusUp {
		t.Errorf("expected up with no components, got %s", sh.Status)
	}
	if len(sh.Components) != 0 {
		t.Errorf("expected no component entries, got %d", len(sh.Components))
	}
}

func TestOnConfigure(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	configured := false
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		configured = true
		if a.Name != "test" {
			t.Errorf("expected app name 'test' in configure callback, got %q", a.Name)
		}
		// Type-safe config access
		if a.Cfg.Name != "test" {
			t.Errorf("expected cfg.Name 'test', got %q", a.Cfg.Name)
		}
		return nil
	})

	if len(app.onConfigure) != 1 {
		t.Errorf("expected 1 configure callback, got %d", len(app.onConfigure))
	}

	for _, fn := range app.onConfigure {
		if err := fn(context.Background(), app); err != nil {
			t.Fatalf("configure failed: %v", err)
		}
	}
	if !configured {
		t.Error("expected configure callback to run")
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg, WithGracefulTimeout(5*time.Second))
	if app.gracefulTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", app.gracefulTimeout)
	}
}

func TestDefaultGracefulTimeout(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("expected default 15s, got %v", app.gracefulTimeout)
	}
}

func TestRunTaskSuccess(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	executed := false
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		executed = true
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if !executed {
		t.Error("expected task to be executed")
	}
}

func TestRunTaskError(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return fmt.Errorf("task error")
	})
	if err == nil {
		t.Error("expected error from failing task")
	}
	if err.Error() != "task error" {
		t.Errorf("expected 'task error', got %q", err.Error())
	}
}

func TestRunTaskCancellation(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	err := app.RunTask(ctx, func(taskCtx context.Context) error {
		cancel() // simulate signal
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if err == nil {
		t.Error("expected error from canceled task")
	}
}

func TestRunTaskWithHooks(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)

	order := []string{}
	app.OnStart(func(ctx context.Context) error {
		order = append(order, "start")
		return nil
	})
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		order = append(order, "configure")
		return nil
	})
	app.OnReady(func(ctx context.Context) error {
		order = append(order, "ready")
		return nil
	})
	app.OnStop(func(ctx context.Context) error {
		order = append(order, "stop")
		return nil
	})

	app.RunTask(context.Background(), func(ctx context.Context) error {
		order = append(order, "task")
		return nil
	})

	expected := []string{"start", "configure", "ready", "task", "stop"}
	if len(order) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, order)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("order[%d] = %q, expected %q", i, order[i], v)
		}
	}
}

func TestRunTaskWithComponents(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	comp := &mockComponent{
		name:   "db",
		health: component.Health{Name: "db", Status: component.StatusHealthy},
	}
	app.RegisterComponent(comp)

	app.RunTask(context.Background(), func(ctx context.Context) error {
		return nil
	})

	if !comp.started {
		t.Error("expected component to be started")
	}
	if !comp.stopped {
		t.Error("expected component to be stopped after task")
	}
}

func TestRunTaskRunsFlow(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, err := NewApp(cfg, WithSteps(mustStep(t, "fetch")))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	var out map[string]any
	err = app.RunTask(context.Background(), func(ctx context.Context) error {
		var runErr error
		out, runErr = app.Coordinator.Run(ctx, nil, nil)
		return runErr
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if out["fetch"] != "fetch" {
		t.Errorf("expected fetch result, got %v", out)
	}
}

func TestShutdown(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	comp := &mockComponent{
		name:   "db",
		health: component.Health{Name: "db", Status: component.StatusHealthy},
	}
	app.RegisterComponent(comp)

	app.RunTask(context.Background(), func(ctx context.Context) error {
		return nil
	})

	// Shutdown should work after RunTask
	err := app.Shutdown(context.Background())
	if err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestWaitForSignalContextCancellation(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	sig := app.WaitForSignal(ctx)
	if sig != nil {
		t.Errorf("expected nil signal for context cancellation, got %v", sig)
	}
}

func TestWithLogger(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	customLogger := logger.NewDefault("custom-logger")

	app, err := NewApp(cfg, WithLogger(customLogger))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Logger != customLogger {
		t.Error("expected custom logger to be set")
	}
}

func TestRunTaskWithStartHookError(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	app.OnStart(func(ctx context.Context) error {
		return fmt.Errorf("start hook failed")
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err == nil {
		t.Error("expected error from failing start hook")
	}
}

func TestRunTaskWithConfigureError(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		return fmt.Errorf("configure failed")
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err == nil {
		t.Error("expected error from failing configure callback")
	}
}

func TestRunTaskWithReadyHookError(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	app.OnReady(func(ctx context.Context) error {
		return fmt.Errorf("ready hook failed")
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err == nil {
		t.Error("expected error from failing ready hook")
	}
}

func TestRunTaskWithStopHookError(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	app.OnStop(func(ctx context.Context) error {
		return fmt.Errorf("stop hook failed")
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err == nil {
		t.Error("expected error from failing stop hook")
	}
}

func TestRunTaskComponentStartError(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	app.RegisterComponent(&mockComponent{
		name:     "bad",
		startErr: fmt.Errorf("start failed"),
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err == nil {
		t.Error("expected error from component start failure")
	}
}

func TestRunTaskWithComponentStopError(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	app, _ := NewApp(cfg)
	comp := &mockComponent{
		name:    "db",
		stopErr: fmt.Errorf("stop failed"),
		health:  component.Health{Name: "db", Status: component.StatusHealthy},
	}
	app.RegisterComponent(comp)

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err == nil {
		t.Error("expected error from component stop failure")
	}
}

func TestNewSummary(t *testing.T) {
	s := NewSummary("my-service", "2.0.0")
	if s == nil {
		t.Fatal("expected non-nil summary")
	}
	if s.serviceName != "my-service" {
		t.Errorf("expected 'my-service', got %q", s.serviceName)
	}
	if s.version != "2.0.0" {
		t.Errorf("expected '2.0.0', got %q", s.version)
	}
}

func TestSummaryTrackComponent(t *testing.T) {
	s := NewSummary("svc", "1.0")
	s.TrackComponent("db", "active", true)
	s.TrackComponent("cache", "error", false)

	if len(s.components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(s.components))
	}
	if s.components[0].Name != "db" || !s.components[0].Healthy {
		t.Error("expected healthy db component")
	}
	if s.components[1].Healthy {
		t.Error("expected unhealthy cache component")
	}
}

func TestSummaryTrackInfrastructure(t *testing.T) {
	s := NewSummary("svc", "1.0")
	s.TrackInfrastructure("Redis Source", "redis", "active", "localhost:6379 queue=payloads", 6379, true)

	if len(s.infrastructure) != 1 {
		t.Fatalf("expected 1 infrastructure, got %d", len(s.infrastructure))
	}
	inf := s.infrastructure[0]
	if inf.Name != "Redis Source" || inf.Port != 6379 {
		t.Errorf("unexpected infrastructure: %+v", inf)
	}
}

func TestSummaryTrackFlow(t *testing.T) {
	s := NewSummary("svc", "1.0")
	s.TrackFlow("ingest", []string{"fetch", "parse", "store"})

	if len(s.flows) != 1 {
		t.Fatalf("expected 1 flow, got %d", len(s.flows))
	}
	if s.flows[0].Name != "ingest" || len(s.flows[0].Steps) != 3 {
		t.Errorf("unexpected flow: %+v", s.flows[0])
	}
}

func TestSummaryTrackRoute(t *testing.T) {
	s := NewSummary("svc", "1.0")
	s.TrackRoute("GET", "/healthz", "Health")
	s.TrackRoute("POST", "/ingest", "Ingest")

	if len(s.routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(s.routes))
	}
}

func TestSummarySetStartupDuration(t *testing.T) {
	s := NewSummary("svc", "1.0")
	s.SetStartupDuration(500 * time.Millisecond)

	if s.startupDuration != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", s.startupDuration)
	}
}

func TestSummaryDisplaySummary(t *testing.T) {
	s := NewSummary("test-svc", "1.0.0")
	s.SetStartupDuration(100 * time.Millisecond)
	s.TrackInfrastructure("Redis Source", "redis", "active", "localhost:6379", 6379, true)
	s.TrackFlow("ingest", []string{"fetch", "store"})
	s.TrackRoute("POST", "/ingest", "Ingest")

	// DisplaySummary should not panic
	s.DisplaySummary(component.NewRegistry())
}

func TestSummaryDisplayNilRegistry(t *testing.T) {
	s := NewSummary("test-svc", "1.0.0")
	s.SetStartupDuration(100 * time.Millisecond)

	// Should not panic without a registry
	s.DisplaySummary(nil)
}

func TestTreePrefix(t *testing.T) {
	// Last item should use └──
	if p := treePrefix(2, 3); p != "└──" {
		t.Errorf("expected '└──' for last item, got %q", p)
	}
	// Non-last item should use ├──
	if p := treePrefix(0, 3); p != "├──" {
		t.Errorf("expected '├──' for non-last item, got %q", p)
	}
}

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		status  string
		healthy bool
		icon    string
	}{
		{"active", true, "✅"},
		{"degraded", true, "⚠️"},
		{"inactive", true, "⏸️"},
		{"error", true, "❌"},
		{"unknown", true, "⚠️"},
		{"active", false, "❌"},
	}

	for _, tc := range tests {
		got := statusIcon(tc.status, tc.healthy)
		if got != tc.icon {
			t.Errorf("statusIcon(%q, %v) = %q, expected %q", tc.status, tc.healthy, got, tc.icon)
		}
	}
}

func TestHealthStatusIcon(t *testing.T) {
	tests := []struct {
		status observability.HealthStatus
		icon   string
	}{
		{observability.HealthStatusUp, "✅"},
		{observability.HealthStatusDegraded, "⚠️"},
		{observability.HealthStatusDown, "❌"},
		{"unknown", "❓"},
	}

	for _, tc := range tests {
		got := healthStatusIcon(tc.status)
		if got != tc.icon {
			t.Errorf("healthStatusIcon(%q) = %q, expected %q", tc.status, got, tc.icon)
		}
	}
}

func TestMethodColor(t *testing.T) {
	tests := []string{"GET", "POST", "PUT", "PATCH", "DELETE", "CONNECT", "OPTIONS"}
	for _, m := range tests {
		got := methodColor(m)
		if got == "" {
			t.Errorf("expected non-empty color for %s", m)
		}
	}
}

// mockDescribableComponent implements Component + Describable + RouteProvider.
type mockDescribableComponent struct {
	mockComponent
	desc   component.Description
	routes []component.Route
}

func (m *mockDescribableComponent) Describe() component.Description { return m.desc }
func (m *mockDescribableComponent) Routes() []component.Route       { return m.routes }

func TestSummaryCollectFromRegistry(t *testing.T) {
	s := NewSummary("test-svc", "1.0.0")
	s.SetStartupDuration(100 * time.Millisecond)

	registry := component.NewRegistry()
	registry.Register(&mockDescribableComponent{
		mockComponent: mockComponent{
			name:   "http-source",
			health: component.Health{Name: "http-source", Status: component.StatusHealthy},
		},
		desc: component.Description{
			Name:    "HTTP Source",
			Type:    "server",
			Details: "localhost:8080",
			Port:    8080,
		},
		routes: []component.Route{
			{Method: "POST", Path: "/ingest", Handler: "Ingest"},
			{Method: "GET", Path: "/healthz", Handler: "Health"},
		},
	})
	registry.Register(&mockComponent{
		name:   "worker",
		health: component.Health{Name: "worker", Status: component.StatusHealthy},
	})

	s.DisplaySummary(registry)

	if len(s.infrastructure) != 1 {
		t.Errorf("expected 1 infrastructure from auto-discovery, got %d", len(s.infrastructure))
	}
	if len(s.routes) != 2 {
		t.Errorf("expected 2 routes from auto-discovery, got %d", len(s.routes))
	}
	if len(s.components) != 1 || s.components[0].Name != "worker" {
		t.Errorf("expected plain component 'worker', got %+v", s.components)
	}

	// A second display must not duplicate discovered entries.
	s.DisplaySummary(registry)
	if len(s.infrastructure) != 1 || len(s.routes) != 2 || len(s.components) != 1 {
		t.Errorf("expected no duplicates on repeat display, got %d/%d/%d",
			len(s.infrastructure), len(s.routes), len(s.components))
	}
}

func TestSummaryDisplayWithUnhealthyComponents(t *testing.T) {
	s := NewSummary("test-svc", "1.0.0")
	s.SetStartupDuration(100 * time.Millisecond)

	registry := component.NewRegistry()
	registry.Register(&mockComponent{
		name:   "db",
		health: component.Health{Name: "db", Status: component.StatusUnhealthy, Message: "connection refused"},
	})

	// Should not panic and should show health issues
	s.DisplaySummary(registry)
}
