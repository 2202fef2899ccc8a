package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/step"
	"github.com/kbukum/flowkit/validation"
)

// Document is the YAML shape of a flow definition.
type Document struct {
	Flow    string    `yaml:"flow"`
	Include []string  `yaml:"include,omitempty"`
	Steps   []StepDef `yaml:"steps"`
}

// StepDef is one step entry in a flow document. Params map argument
// names to type names: int, float, string, bool, bytes, or any, with
// "|" for unions and a "?" suffix for optional.
type StepDef struct {
	Name        string            `yaml:"name"`
	Executor    string            `yaml:"executor"`
	Description string            `yaml:"description,omitempty"`
	Params      map[string]string `yaml:"params,omitempty"`
	Returns     string            `yaml:"returns,omitempty"`
	Input       string            `yaml:"input,omitempty"`
	DependsOn   []DependencyDef   `yaml:"depends_on,omitempty"`
	Defaults    map[string]any    `yaml:"defaults,omitempty"`
}

// DependencyDef is one dependency entry: either arg names the executor
// argument the upstream result binds to, or gate marks an order-only
// dependency.
type DependencyDef struct {
	Step string `yaml:"step"`
	Arg  string `yaml:"arg,omitempty"`
	Gate bool   `yaml:"gate,omitempty"`
}

// Flow is a resolved flow definition: a name and its built steps.
type Flow struct {
	Name  string
	Steps []*step.Step
}

// Coordinator builds a Coordinator registered with the flow's steps.
func (f *Flow) Coordinator(opts ...Option) (*Coordinator, error) {
	c := New(opts...)
	for _, s := range f.Steps {
		c.Add(s)
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes a single flow document. The flow name is required, and
// the document must carry at least one step or include.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.InvalidFlowFile("not valid YAML").WithCause(err)
	}

	v := validation.New()
	v.Required("flow", doc.Flow)
	v.Custom(len(doc.Steps) > 0 || len(doc.Include) > 0, "steps", "must contain at least one step or include")
	if appErr := v.Validate(); appErr != nil {
		return nil, invalidFlow(appErr)
	}
	return &doc, nil
}

// LoadFile reads and parses one flow document from disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidFlowFile(fmt.Sprintf("cannot read %s", path)).WithCause(err)
	}
	return Parse(data)
}

// DocumentLoader loads flow documents by name, for include resolution.
type DocumentLoader interface {
	Load(name string) (*Document, error)
}

// FileDocumentLoader loads flow documents from YAML files on disk.
type FileDocumentLoader struct {
	dirs []string
}

// NewFileDocumentLoader creates a loader that searches the given
// directories for flow YAML files.
func NewFileDocumentLoader(dirs ...string) DocumentLoader {
	return &FileDocumentLoader{dirs: dirs}
}

// Load searches for a flow YAML file by name across configured
// directories. It tries {name}.yaml and {name}.yml in each directory
// and one level of subdirectories.
func (l *FileDocumentLoader) Load(name string) (*Document, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if doc, err := LoadFile(path); err == nil {
				return doc, nil
			}

			matches, _ := filepath.Glob(filepath.Join(dir, "*", name+ext))
			for _, match := range matches {
				if doc, err := LoadFile(match); err == nil {
					return doc, nil
				}
			}
		}
	}
	return nil, errors.InvalidFlowFile(fmt.Sprintf("flow %q not found in %v", name, l.dirs))
}

// Resolve converts a Document into a built Flow. Includes are resolved
// recursively through loader, merging their steps first; a step name
// already present is skipped, so diamond includes stay harmless.
// Executor names resolve through reg.
func Resolve(doc *Document, reg *ExecutorRegistry, loader DocumentLoader) (*Flow, error) {
	stack := make(map[string]bool)
	resolved := make(map[string]bool)
	return resolve(doc, reg, loader, stack, resolved)
}

func resolve(doc *Document, reg *ExecutorRegistry, loader DocumentLoader, stack, resolved map[string]bool) (*Flow, error) {
	if stack[doc.Flow] {
		return nil, errors.InvalidFlowFile(fmt.Sprintf("circular include of flow %q", doc.Flow))
	}
	stack[doc.Flow] = true
	defer delete(stack, doc.Flow)

	f := &Flow{Name: doc.Flow}
	have := make(map[string]bool)

	for _, includeName := range doc.Include {
		if resolved[includeName] {
			continue
		}
		if loader == nil {
			return nil, errors.InvalidFlowFile(fmt.Sprintf("flow %q has includes but no loader was given", doc.Flow))
		}

		sub, err := loader.Load(includeName)
		if err != nil {
			return nil, errors.InvalidFlowFile(fmt.Sprintf("loading include %q", includeName)).WithCause(err)
		}
		subFlow, err := resolve(sub, reg, loader, stack, resolved)
		if err != nil {
			return nil, err
		}

		for _, s := range subFlow.Steps {
			if have[s.Name()] {
				continue
			}
			have[s.Name()] = true
			f.Steps = append(f.Steps, s)
		}
	}

	for i, sd := range doc.Steps {
		if have[sd.Name] {
			continue
		}
		s, err := buildStep(sd, i, reg)
		if err != nil {
			return nil, err
		}
		have[s.Name()] = true
		f.Steps = append(f.Steps, s)
	}

	resolved[doc.Flow] = true
	return f, nil
}

func buildStep(sd StepDef, index int, reg *ExecutorRegistry) (*step.Step, error) {
	field := func(name string) string { return fmt.Sprintf("steps[%d].%s", index, name) }

	v := validation.New()
	v.Required(field("name"), sd.Name)
	v.Custom(sd.Name == "" || step.ValidName(sd.Name), field("name"), "contains characters outside [A-Za-z0-9_.:-]")
	v.Required(field("executor"), sd.Executor)

	var exec step.ExecutorFunc
	if sd.Executor != "" {
		fn, ok := reg.Resolve(sd.Executor)
		if !ok {
			v.AddError(field("executor"), fmt.Sprintf("unknown executor %q", sd.Executor))
		}
		exec = fn
	}

	opts := make([]step.Option, 0, 8)
	for _, name := range sortedNames(sd.Params) {
		pt, ok := parseParamType(sd.Params[name])
		if !ok {
			v.AddError(field("params."+name), fmt.Sprintf("unknown type %q", sd.Params[name]))
			continue
		}
		opts = append(opts, step.WithParam(name, pt))
	}
	if sd.Returns != "" {
		if pt, ok := parseParamType(sd.Returns); ok {
			opts = append(opts, step.WithReturns(pt))
		} else {
			v.AddError(field("returns"), fmt.Sprintf("unknown type %q", sd.Returns))
		}
	}
	for j, dep := range sd.DependsOn {
		depField := fmt.Sprintf("steps[%d].depends_on[%d]", index, j)
		v.Required(depField+".step", dep.Step)
		switch {
		case dep.Gate && dep.Arg != "":
			v.AddError(depField, "cannot both bind an arg and gate")
		case dep.Gate:
			opts = append(opts, step.WithDependency(dep.Step, step.Gate()))
		case dep.Arg != "":
			opts = append(opts, step.WithDependency(dep.Step, step.Bind(dep.Arg)))
		default:
			v.AddError(depField, "needs either arg or gate: true")
		}
	}
	if sd.Input != "" {
		opts = append(opts, step.WithInput(sd.Input))
	}
	if sd.Description != "" {
		opts = append(opts, step.WithDescription(sd.Description))
	}
	if len(sd.Defaults) > 0 {
		opts = append(opts, step.WithDefaults(sd.Defaults))
	}

	if appErr := v.Validate(); appErr != nil {
		return nil, invalidFlow(appErr)
	}

	s, err := step.New(sd.Name, exec, opts...)
	if err != nil {
		return nil, errors.InvalidFlowFile(fmt.Sprintf("step %q: %s", sd.Name, errMessage(err))).WithCause(err)
	}
	return s, nil
}

// parseParamType maps a document type name to a parameter descriptor.
func parseParamType(spec string) (step.ParamType, bool) {
	optional := false
	if len(spec) > 0 && spec[len(spec)-1] == '?' {
		optional = true
		spec = spec[:len(spec)-1]
	}

	members := make([]step.ParamType, 0, 2)
	for _, part := range strings.Split(spec, "|") {
		var t step.ParamType
		switch strings.TrimSpace(part) {
		case "int":
			t = step.T[int]()
		case "float":
			t = step.T[float64]()
		case "string":
			t = step.T[string]()
		case "bool":
			t = step.T[bool]()
		case "bytes", "[]byte":
			t = step.T[[]byte]()
		case "any":
			t = step.Any
		default:
			return step.ParamType{}, false
		}
		members = append(members, t)
	}

	t := members[0]
	if len(members) > 1 {
		t = step.Union(members...)
	}
	if optional {
		t = step.Optional(t)
	}
	return t, true
}

// invalidFlow rewraps field validation errors as an invalid flow file
// error, keeping the per-field details.
func invalidFlow(appErr *errors.AppError) *errors.AppError {
	out := errors.InvalidFlowFile(appErr.Message)
	out.Details = appErr.Details
	return out
}

func errMessage(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
