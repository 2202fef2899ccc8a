package component

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/flowkit/logger"
)

// stopTimeout bounds how long one component may take to stop before the
// registry moves on to the next.
const stopTimeout = 10 * time.Second

type entry struct {
	component Component
	started   bool
}

// Registry manages component lifecycle with deterministic ordering:
// StartAll runs in registration order, StopAll in reverse, so later
// components can depend on earlier ones being up.
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
	lookup  map[string]*entry
	log     *logger.Logger
}

// NewRegistry creates an empty component registry.
func NewRegistry() *Registry {
	return &Registry{
		lookup: make(map[string]*entry),
		log:    logger.Get("component"),
	}
}

// Register adds a component. Registration order is start order, so
// register dependencies first. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.lookup[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}

	e := &entry{component: c}
	r.entries = append(r.entries, e)
	r.lookup[name] = e

	r.log.Debug("Component registered", map[string]interface{}{"component": name})
	return nil
}

// StartAll starts every component in registration order. The first
// failure stops the sweep; components already started stay started so
// StopAll can unwind them.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("Starting components", map[string]interface{}{"count": len(r.entries)})

	for _, e := range r.entries {
		name := e.component.Name()
		if err := e.component.Start(ctx); err != nil {
			r.log.Error("Component start failed", map[string]interface{}{
				"component": name,
				"error":     err.Error(),
			})
			return fmt.Errorf("start %s: %w", name, err)
		}
		e.started = true
		r.log.Debug("Component started", map[string]interface{}{"component": name})
	}
	return nil
}

// StopAll stops started components in reverse registration order. Every
// component gets a stop attempt even when an earlier one fails; errors
// are collected and returned together.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !e.started {
			continue
		}
		name := e.component.Name()

		stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
		err := e.component.Stop(stopCtx)
		cancel()

		if err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
			r.log.Error("Component stop failed", map[string]interface{}{
				"component": name,
				"error":     err.Error(),
			})
		} else {
			r.log.Debug("Component stopped", map[string]interface{}{"component": name})
		}
		e.started = false
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// Get returns a registered component by name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.lookup[name]; ok {
		return e.component
	}
	return nil
}

// All returns the registered components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Component, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.component)
	}
	return out
}
