package flow

import (
	"sort"
	"sync"

	"github.com/kbukum/flowkit/step"
)

// ExecutorRegistry provides named executor lookup for flow documents
// loaded with Parse or LoadFile.
type ExecutorRegistry struct {
	mu        sync.RWMutex
	executors map[string]step.ExecutorFunc
}

// NewExecutorRegistry creates a new empty ExecutorRegistry.
func NewExecutorRegistry() *ExecutorRegistry {
	return &ExecutorRegistry{executors: make(map[string]step.ExecutorFunc)}
}

// Register adds an executor to the registry, replacing any previous
// entry under the same name.
func (r *ExecutorRegistry) Register(name string, fn step.ExecutorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[name] = fn
}

// Resolve retrieves an executor by name.
func (r *ExecutorRegistry) Resolve(name string) (step.ExecutorFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.executors[name]
	return fn, ok
}

// List returns sorted names of all registered executors.
func (r *ExecutorRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.executors))
	for name := range r.executors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
