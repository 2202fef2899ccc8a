package component

import (
	"context"
	"sync"
)

// FuncComponent assembles a Component from closures, for infrastructure
// that does not warrant a dedicated type: shutting down an
// observability provider, flushing a cache, closing an event hub. Nil
// closures are no-ops, and health defaults to healthy once started.
type FuncComponent struct {
	ComponentName string
	OnStart       func(ctx context.Context) error
	OnStop        func(ctx context.Context) error
	OnHealth      func(ctx context.Context) Health

	mu      sync.Mutex
	started bool
}

var _ Component = (*FuncComponent)(nil)

// Name returns the component name.
func (f *FuncComponent) Name() string { return f.ComponentName }

// Start runs OnStart once. Further calls are no-ops until Stop.
func (f *FuncComponent) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.started {
		return nil
	}
	if f.OnStart != nil {
		if err := f.OnStart(ctx); err != nil {
			return err
		}
	}
	f.started = true
	return nil
}

// Stop runs OnStop if the component was started.
func (f *FuncComponent) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.started {
		return nil
	}
	f.started = false
	if f.OnStop != nil {
		return f.OnStop(ctx)
	}
	return nil
}

// Health reports unhealthy before Start, then delegates to OnHealth.
func (f *FuncComponent) Health(ctx context.Context) Health {
	f.mu.Lock()
	started := f.started
	f.mu.Unlock()

	if !started {
		return Health{Name: f.ComponentName, Status: StatusUnhealthy, Message: "not started"}
	}
	if f.OnHealth != nil {
		return f.OnHealth(ctx)
	}
	return Health{Name: f.ComponentName, Status: StatusHealthy}
}
