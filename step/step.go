package step

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/kbukum/flowkit/errors"
)

// ExecutorFunc is the callable a Step wraps. It receives the validated,
// merged arguments and returns the step's result; nil is a legitimate
// result value.
type ExecutorFunc func(ctx context.Context, args Args) (any, error)

// nameRE bounds step and dependency names to something safe for logs,
// graphs, and flow files.
var nameRE = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

// ValidName reports whether name is usable as a step name.
func ValidName(name string) bool { return nameRE.MatchString(name) }

// Step is a named, typed unit of execution. Build one with New or
// Spec.Build; a built Step is immutable and safe for concurrent use.
type Step struct {
	name        string
	fn          ExecutorFunc
	params      map[string]ParamType
	returns     ParamType
	deps        map[string]Binding
	inputArg    string
	description string
	defaults    map[string]any
}

// Option configures a Step under construction.
type Option func(*Step)

// WithParams declares executor parameters and their types. May be given
// multiple times; entries merge.
func WithParams(params map[string]ParamType) Option {
	return func(s *Step) {
		for k, v := range params {
			s.params[k] = v
		}
	}
}

// WithParam declares a single executor parameter.
func WithParam(name string, t ParamType) Option {
	return func(s *Step) { s.params[name] = t }
}

// WithReturns declares the executor's result type. Informational: results
// are not checked at runtime, but the declaration feeds diagnostics and
// flow documents.
func WithReturns(t ParamType) Option {
	return func(s *Step) { s.returns = t }
}

// WithDependency declares that the step waits for the named upstream step,
// binding its result per b.
func WithDependency(stepName string, b Binding) Option {
	return func(s *Step) { s.deps[stepName] = b }
}

// WithDependencies declares several dependencies at once; entries merge.
func WithDependencies(deps map[string]Binding) Option {
	return func(s *Step) {
		for k, v := range deps {
			s.deps[k] = v
		}
	}
}

// WithInput binds the run's external input payload to the named executor
// argument.
func WithInput(argName string) Option {
	return func(s *Step) { s.inputArg = argName }
}

// WithDescription attaches a human-readable description.
func WithDescription(text string) Option {
	return func(s *Step) { s.description = text }
}

// WithDefaults sets per-step default argument values, used when neither a
// binding nor a run parameter supplies the argument.
func WithDefaults(defaults map[string]any) Option {
	return func(s *Step) {
		if s.defaults == nil {
			s.defaults = make(map[string]any, len(defaults))
		}
		for k, v := range defaults {
			s.defaults[k] = v
		}
	}
}

// New builds a Step and checks its definition: the name must match
// [A-Za-z0-9_.:-]+, the executor must be non-nil, every bound argument and
// default must refer to a declared parameter, no argument may be bound
// twice, and default values must match their declared types.
func New(name string, fn ExecutorFunc, opts ...Option) (*Step, error) {
	s := &Step{
		name:   name,
		fn:     fn,
		params: make(map[string]ParamType),
		deps:   make(map[string]Binding),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

// definitionError reports a malformed step definition.
func definitionError(format string, args ...any) *errors.AppError {
	return errors.New(errors.ErrCodeInvalidStepType, fmt.Sprintf(format, args...), http.StatusBadRequest)
}

func (s *Step) check() error {
	if !nameRE.MatchString(s.name) {
		return definitionError("Step name %q is empty or contains characters outside [A-Za-z0-9_.:-].", s.name)
	}
	if s.fn == nil {
		return definitionError("Step %q has no executor.", s.name)
	}

	boundBy := make(map[string]string)
	for _, dep := range sortedKeys(s.deps) {
		if !nameRE.MatchString(dep) {
			return definitionError("Step %q declares a dependency with invalid name %q.", s.name, dep)
		}
		b := s.deps[dep]
		if b.IsGate() {
			continue
		}
		arg := b.Arg()
		if _, declared := s.params[arg]; !declared {
			return errors.InvalidArgument(s.name, arg)
		}
		if prev, dup := boundBy[arg]; dup {
			return definitionError("Step %q binds argument %q from both %q and %q.", s.name, arg, prev, dep)
		}
		boundBy[arg] = dep
	}
	if s.inputArg != "" {
		if _, declared := s.params[s.inputArg]; !declared {
			return errors.InvalidArgument(s.name, s.inputArg)
		}
		if prev, dup := boundBy[s.inputArg]; dup {
			return definitionError("Step %q binds argument %q from both %q and the run input.", s.name, s.inputArg, prev)
		}
	}
	for _, k := range sortedKeys(s.defaults) {
		pt, declared := s.params[k]
		if !declared {
			return errors.InvalidArgument(s.name, k)
		}
		if v := s.defaults[k]; !pt.Matches(v) {
			return errors.TypeMismatch(s.name, k, pt.String(), typeName(v))
		}
	}
	return nil
}

// Name returns the step's unique name.
func (s *Step) Name() string { return s.name }

// Description returns the optional human-readable description.
func (s *Step) Description() string { return s.description }

// InputArg returns the executor argument the run's input payload binds to,
// or "" when the step does not consume the input.
func (s *Step) InputArg() string { return s.inputArg }

// Dependencies returns a copy of the dependency map, upstream step name to
// binding.
func (s *Step) Dependencies() map[string]Binding {
	out := make(map[string]Binding, len(s.deps))
	for k, v := range s.deps {
		out[k] = v
	}
	return out
}

// DependsOn reports whether the step declares a dependency on name.
func (s *Step) DependsOn(name string) bool {
	_, ok := s.deps[name]
	return ok
}

// Consumes returns a copy of the declared parameter map.
func (s *Step) Consumes() map[string]ParamType {
	out := make(map[string]ParamType, len(s.params))
	for k, v := range s.params {
		out[k] = v
	}
	return out
}

// Produces returns the declared result type, Unspecified when undeclared.
func (s *Step) Produces() ParamType { return s.returns }

// Defaults returns a copy of the per-step default argument values.
func (s *Step) Defaults() map[string]any {
	if s.defaults == nil {
		return nil
	}
	out := make(map[string]any, len(s.defaults))
	for k, v := range s.defaults {
		out[k] = v
	}
	return out
}

// String renders the step as name(dep1,dep2,...).
func (s *Step) String() string {
	if len(s.deps) == 0 {
		return s.name
	}
	return fmt.Sprintf("%s(%s)", s.name, strings.Join(sortedKeys(s.deps), ","))
}

// Execute validates the merged arguments and invokes the executor.
//
// bound holds values the scheduler resolved from dependencies and the run
// input. Declared parameters left unbound are filled from runParams, then
// from the step's defaults; a bound value is never overridden. After the
// merge, an undeclared argument fails InvalidArgument, a wrong-typed value
// fails TypeMismatch, and an absent required parameter fails
// MissingArgument. An executor error comes back wrapped as ExecutorFailure
// with the original error as its cause.
func (s *Step) Execute(ctx context.Context, bound Args, runParams map[string]any) (any, error) {
	args := make(Args, len(bound)+len(runParams)+len(s.defaults))
	for k, v := range bound {
		args[k] = v
	}
	// Run parameters apply only to declared parameters; unknown keys are
	// someone else's business.
	for k, v := range runParams {
		if _, declared := s.params[k]; !declared {
			continue
		}
		if _, present := args[k]; present {
			continue
		}
		args[k] = v
	}
	for k, v := range s.defaults {
		if _, present := args[k]; present {
			continue
		}
		args[k] = v
	}

	for _, k := range sortedKeys(args) {
		pt, declared := s.params[k]
		if !declared {
			return nil, errors.InvalidArgument(s.name, k)
		}
		if v := args[k]; !pt.Matches(v) {
			return nil, errors.TypeMismatch(s.name, k, pt.String(), typeName(v))
		}
	}
	for _, k := range sortedKeys(s.params) {
		if _, present := args[k]; present {
			continue
		}
		if !s.params[k].AllowsAbsent() {
			return nil, errors.MissingArgument(s.name, k)
		}
	}

	out, err := s.fn(ctx, args)
	if err != nil {
		return nil, errors.ExecutorFailure(s.name, err)
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
