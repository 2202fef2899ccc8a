package step

import (
	"net/http"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/validation"
)

// Spec is the declarative form of a step, convenient when steps come from
// loaded flow documents or literal structs rather than chained options.
// Zero-value fields are simply omitted from the built step.
type Spec struct {
	Name         string               `json:"name" validate:"required"`
	Executor     ExecutorFunc         `json:"-" validate:"required"`
	Params       map[string]ParamType `json:"params,omitempty"`
	Returns      ParamType            `json:"returns,omitempty"`
	Dependencies map[string]Binding   `json:"depends_on,omitempty"`
	Input        string               `json:"input,omitempty"`
	Description  string               `json:"description,omitempty"`
	Defaults     map[string]any       `json:"defaults,omitempty"`
}

// Build materializes the spec into a Step, running struct validation first
// and then the same definition checks New applies.
func (sp Spec) Build() (*Step, error) {
	if err := validation.Validate(sp); err != nil {
		msg := "Step spec is invalid."
		if ae, ok := errors.AsAppError(err); ok {
			msg = "Step spec is invalid: " + ae.Message
		}
		return nil, errors.New(errors.ErrCodeInvalidStepType, msg, http.StatusBadRequest).WithCause(err)
	}

	opts := make([]Option, 0, 6)
	if len(sp.Params) > 0 {
		opts = append(opts, WithParams(sp.Params))
	}
	if !sp.Returns.IsUnspecified() {
		opts = append(opts, WithReturns(sp.Returns))
	}
	if len(sp.Dependencies) > 0 {
		opts = append(opts, WithDependencies(sp.Dependencies))
	}
	if sp.Input != "" {
		opts = append(opts, WithInput(sp.Input))
	}
	if sp.Description != "" {
		opts = append(opts, WithDescription(sp.Description))
	}
	if len(sp.Defaults) > 0 {
		opts = append(opts, WithDefaults(sp.Defaults))
	}
	return New(sp.Name, sp.Executor, opts...)
}
