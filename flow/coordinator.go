package flow

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/events"
	"github.com/kbukum/flowkit/graph"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/step"
)

// inputNode is the graph node standing in for the run's input payload.
// The "@" sits outside the step name alphabet, so no registered step
// can collide with it.
const inputNode = "@input"

// Sink receives run lifecycle events. *events.Hub satisfies it.
type Sink interface {
	Publish(e events.Event)
}

// Coordinator owns a registry of steps and the dependency graph between
// them. Registration is chainable and records the first failure for
// Err; Verify validates the definition; Run and Poll execute it. A
// Coordinator is safe for concurrent use, including overlapping runs.
type Coordinator struct {
	mu       sync.Mutex
	steps    map[string]*step.Step
	order    []string
	graph    *graph.Graph
	verified bool
	err      *errors.AppError

	log            *logger.Logger
	sink           Sink
	maxConcurrency int
	middleware     []Middleware
	runner         StepRunner
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger. The default is the global
// logger tagged with a "flow" component field.
func WithLogger(log *logger.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithMaxConcurrency caps how many step executors run at once within a
// single run. Zero or negative means unlimited.
func WithMaxConcurrency(n int) Option {
	return func(c *Coordinator) { c.maxConcurrency = n }
}

// WithEventSink publishes run lifecycle events to sink.
func WithEventSink(sink Sink) Option {
	return func(c *Coordinator) { c.sink = sink }
}

// WithMiddleware wraps step execution. The first middleware listed runs
// outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Coordinator) { c.middleware = append(c.middleware, mw...) }
}

// New creates an empty Coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		steps: make(map[string]*step.Step),
		graph: graph.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.GetGlobalLogger().WithComponent("flow")
	}
	c.runner = chain(c.middleware)
	return c
}

// Add registers a step. It accepts a *step.Step, a step.Step value, or
// a step.Spec (pointer or value) to build. Add is chainable; the first
// failure is recorded and surfaced by Err, Verify, Run, and Poll, and
// later registrations are ignored once a failure is recorded.
func (c *Coordinator) Add(v any) *Coordinator {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c
	}

	s, appErr := coerceStep(v)
	if appErr != nil {
		c.err = appErr
		return c
	}
	if _, exists := c.steps[s.Name()]; exists {
		c.err = errors.StepNameConflict(s.Name())
		return c
	}

	c.steps[s.Name()] = s
	c.order = append(c.order, s.Name())
	for _, dep := range sortedNames(s.Dependencies()) {
		c.graph.Add(dep, s.Name())
	}
	if s.InputArg() != "" {
		c.graph.Add(inputNode, s.Name())
	}
	c.verified = false
	return c
}

// Remove deregisters a step. It accepts the same forms as Add plus a
// plain string name; removing an unknown name is a no-op. Steps that
// still declare a dependency on the removed name fail the next Verify
// as undefined.
func (c *Coordinator) Remove(v any) *Coordinator {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c
	}

	name, appErr := stepName(v)
	if appErr != nil {
		c.err = appErr
		return c
	}
	_, registered := c.steps[name]
	if !registered && !c.graph.Has(name) {
		return c
	}

	delete(c.steps, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.graph.Remove(name)
	c.verified = false
	return c
}

// Err returns the first failure recorded by Add or Remove, or nil.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return nil
}

// Has reports whether a step with the given name is registered.
func (c *Coordinator) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.steps[name]
	return ok
}

// Step returns the registered step with the given name.
func (c *Coordinator) Step(name string) (*step.Step, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.steps[name]
	return s, ok
}

// Steps returns the registered step names in registration order.
func (c *Coordinator) Steps() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// Len returns the number of registered steps.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.steps)
}

// Graph returns a copy of the dependency graph, including the input
// node when any step consumes the run input.
func (c *Coordinator) Graph() *graph.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := graph.New()
	for _, n := range c.graph.Nodes() {
		g.AddNode(n)
	}
	for _, n := range c.graph.Nodes() {
		for _, succ := range c.graph.Successors(n) {
			g.Add(n, succ)
		}
	}
	return g
}

// String renders the coordinator as Coordinator(name1,name2,...).
func (c *Coordinator) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return "Coordinator(" + strings.Join(c.order, ",") + ")"
}

// Verify validates the registered definition together with the run
// parameters. Definition checks are cached until the registry is
// mutated; the parameter collision check runs on every call. Run and
// Poll verify automatically, so calling Verify first is optional.
//
// It reports, in order: a failure recorded during registration,
// dependencies naming unregistered steps, a dependency cycle, and a
// run parameter key colliding with a registered step name.
func (c *Coordinator) Verify(runParams map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verifyLocked(runParams)
}

func (c *Coordinator) verifyLocked(runParams map[string]any) error {
	if c.err != nil {
		return c.err
	}
	if !c.verified {
		if err := c.checkDefinition(); err != nil {
			return err
		}
		c.verified = true
	}
	if err := c.checkParams(runParams); err != nil {
		return err
	}
	return nil
}

func (c *Coordinator) checkDefinition() *errors.AppError {
	var missing []string
	seen := make(map[string]bool)
	for _, name := range c.order {
		for dep := range c.steps[name].Dependencies() {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			if _, ok := c.steps[dep]; !ok {
				missing = append(missing, dep)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.UndefinedDependency(missing...)
	}

	// A self-dependency is a one-node cycle the component count cannot
	// see.
	for _, name := range c.order {
		if c.steps[name].DependsOn(name) {
			return errors.CyclicGraph([]string{name, name})
		}
	}
	if c.graph.IsCyclic() {
		for _, comp := range c.graph.Components() {
			if len(comp) > 1 {
				return errors.CyclicGraph(c.graph.Path(comp[0], comp[0]))
			}
		}
		return errors.CyclicGraph(nil)
	}
	return nil
}

func (c *Coordinator) checkParams(runParams map[string]any) *errors.AppError {
	var ambiguous []string
	for k := range runParams {
		if _, ok := c.steps[k]; ok {
			ambiguous = append(ambiguous, k)
		}
	}
	if len(ambiguous) == 0 {
		return nil
	}
	sort.Strings(ambiguous)
	appErr := errors.AmbiguousParameter(ambiguous[0])
	if len(ambiguous) > 1 {
		appErr = appErr.WithDetail("parameters", ambiguous)
	}
	return appErr
}

// emit publishes a lifecycle event when a sink is configured.
func (c *Coordinator) emit(t events.EventType, runID, stepName string, result any, err error) {
	if c.sink == nil {
		return
	}
	e := events.Event{Type: t, RunID: runID, Step: stepName, At: time.Now(), Result: result}
	if err != nil {
		e.Err = err.Error()
	}
	c.sink.Publish(e)
}

func coerceStep(v any) (*step.Step, *errors.AppError) {
	switch t := v.(type) {
	case *step.Step:
		if t == nil {
			return nil, errors.InvalidStepType(v)
		}
		return t, nil
	case step.Step:
		return &t, nil
	case step.Spec:
		s, err := t.Build()
		if err != nil {
			return nil, errors.Wrap(err)
		}
		return s, nil
	case *step.Spec:
		if t == nil {
			return nil, errors.InvalidStepType(v)
		}
		s, err := t.Build()
		if err != nil {
			return nil, errors.Wrap(err)
		}
		return s, nil
	default:
		return nil, errors.InvalidStepType(v)
	}
}

func stepName(v any) (string, *errors.AppError) {
	switch t := v.(type) {
	case string:
		return t, nil
	case *step.Step:
		if t == nil {
			return "", errors.InvalidStepType(v)
		}
		return t.Name(), nil
	case step.Step:
		return t.Name(), nil
	case step.Spec:
		return t.Name, nil
	case *step.Spec:
		if t == nil {
			return "", errors.InvalidStepType(v)
		}
		return t.Name, nil
	default:
		return "", errors.InvalidStepType(v)
	}
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
