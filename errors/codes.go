package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Registration errors
const (
	// ErrCodeStepNameConflict indicates a step with the same name is already registered.
	ErrCodeStepNameConflict ErrorCode = "STEP_NAME_CONFLICT"
	// ErrCodeInvalidStepType indicates a value passed to add/remove is not a step form.
	ErrCodeInvalidStepType ErrorCode = "INVALID_STEP_TYPE"
)

// Verification errors
const (
	// ErrCodeUndefinedDependency indicates a dependency name that is not a registered step.
	ErrCodeUndefinedDependency ErrorCode = "UNDEFINED_DEPENDENCY"
	// ErrCodeCyclicGraph indicates the dependency graph contains a cycle.
	ErrCodeCyclicGraph ErrorCode = "CYCLIC_GRAPH"
	// ErrCodeAmbiguousParameter indicates a run parameter name collides with a step name.
	ErrCodeAmbiguousParameter ErrorCode = "AMBIGUOUS_PARAMETER"
)

// Execution-time argument errors
const (
	// ErrCodeInvalidArgument indicates an argument that no declared parameter accepts.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeTypeMismatch indicates an argument whose runtime type does not match its declaration.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// ErrCodeMissingArgument indicates a required parameter left without a value.
	ErrCodeMissingArgument ErrorCode = "MISSING_ARGUMENT"
	// ErrCodeExecutorFailure indicates the wrapped executor itself failed.
	ErrCodeExecutorFailure ErrorCode = "EXECUTOR_FAILURE"
)

// Surrounding-layer errors
const (
	// ErrCodeSourceFailure indicates a payload source failed to produce.
	ErrCodeSourceFailure ErrorCode = "SOURCE_FAILURE"
	// ErrCodeInvalidFlowFile indicates a flow definition file could not be loaded.
	ErrCodeInvalidFlowFile ErrorCode = "INVALID_FLOW_FILE"
	// ErrCodeInvalidConfig indicates a configuration value failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeSourceFailure: true,
	ErrCodeInternal:      false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
