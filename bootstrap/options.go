package bootstrap

import (
	"time"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/logger"
)

// Option configures the App during creation.
// Options are non-generic so they can be used with any config type.
type Option func(*appOptions)

// appOptions collects all option values before applying to App.
type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	steps           []any
	components      []component.Component
	flowFile        string
	executors       *flow.ExecutorRegistry
	coordOpts       []flow.Option
}

// resolveOptions applies all options and returns the collected values.
func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is built from the config's Logging section and
// installed as the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithSteps registers steps with the application's coordinator. Each
// value may be a *step.Step, step.Step, step.Spec, or *step.Spec.
func WithSteps(steps ...any) Option {
	return func(o *appOptions) {
		o.steps = append(o.steps, steps...)
	}
}

// WithComponents registers components with the application's registry
// in the given order. StartAll starts them in that order; StopAll stops
// them in reverse.
func WithComponents(comps ...component.Component) Option {
	return func(o *appOptions) {
		o.components = append(o.components, comps...)
	}
}

// WithFlowFile loads a flow document from a YAML file and registers its
// steps with the coordinator. Includes resolve relative to the file's
// directory. Executor names resolve through the registry given with
// WithExecutors.
func WithFlowFile(path string) Option {
	return func(o *appOptions) {
		o.flowFile = path
	}
}

// WithExecutors sets the executor registry used to resolve executor
// names when loading flow files.
func WithExecutors(reg *flow.ExecutorRegistry) Option {
	return func(o *appOptions) {
		o.executors = reg
	}
}

// WithCoordinatorOptions appends options for the coordinator built by
// NewApp. They apply after the bootstrap defaults, so they can override
// the coordinator's logger or concurrency settings.
func WithCoordinatorOptions(opts ...flow.Option) Option {
	return func(o *appOptions) {
		o.coordOpts = append(o.coordOpts, opts...)
	}
}
