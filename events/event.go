package events

import "time"

// EventType identifies a run lifecycle transition.
type EventType string

const (
	// RunStarted is published once when a run begins.
	RunStarted EventType = "run.started"

	// RunCompleted is published when every step of a run finished.
	RunCompleted EventType = "run.completed"

	// RunFailed is published when a run aborts on a step failure.
	RunFailed EventType = "run.failed"

	// StepStarted is published when a step's dependencies are satisfied
	// and its executor is invoked.
	StepStarted EventType = "step.started"

	// StepCompleted is published when a step's executor returned.
	StepCompleted EventType = "step.completed"

	// StepFailed is published when a step's executor failed.
	StepFailed EventType = "step.failed"
)

// Event is one observation from a coordinator run. Step is empty on
// run-level events; Err is set on the failure types.
type Event struct {
	Type   EventType `json:"type"`
	RunID  string    `json:"run_id"`
	Step   string    `json:"step,omitempty"`
	Err    string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
	Result any       `json:"result,omitempty"`
}
