package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Registration Errors ---

// StepNameConflict creates a new AppError for a step name that is already registered.
func StepNameConflict(name string) *AppError {
	return &AppError{
		Code: ErrCodeStepNameConflict, Message: fmt.Sprintf("A step named %q is already registered.", name),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"step": name},
	}
}

// InvalidStepType creates a new AppError for a value that is not a recognized step form.
func InvalidStepType(value any) *AppError {
	return &AppError{
		Code: ErrCodeInvalidStepType, Message: fmt.Sprintf("Cannot register or remove a value of type %T.", value),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"type": fmt.Sprintf("%T", value)},
	}
}

// --- Verification Errors ---

// UndefinedDependency creates a new AppError for dependency names that are not registered steps.
func UndefinedDependency(names ...string) *AppError {
	return &AppError{
		Code: ErrCodeUndefinedDependency, Message: fmt.Sprintf("Dependencies reference unregistered steps: %s.", strings.Join(names, ", ")),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"missing": names},
	}
}

// CyclicGraph creates a new AppError for a dependency graph containing a cycle.
func CyclicGraph(cycle []string) *AppError {
	err := &AppError{
		Code: ErrCodeCyclicGraph, Message: "The dependency graph contains a cycle.",
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
	if len(cycle) > 0 {
		err.Details = map[string]any{"cycle": cycle}
	}
	return err
}

// AmbiguousParameter creates a new AppError for a run parameter that shadows a step name.
func AmbiguousParameter(name string) *AppError {
	return &AppError{
		Code: ErrCodeAmbiguousParameter, Message: fmt.Sprintf("Run parameter %q collides with a registered step name.", name),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"parameter": name},
	}
}

// --- Execution-Time Argument Errors ---

// InvalidArgument creates a new AppError for an argument no declared parameter accepts.
func InvalidArgument(step, arg string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("Step %q does not declare a parameter %q.", step, arg),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"step": step, "argument": arg},
	}
}

// TypeMismatch creates a new AppError for an argument of the wrong runtime type.
func TypeMismatch(step, arg, want, got string) *AppError {
	return &AppError{
		Code: ErrCodeTypeMismatch, Message: fmt.Sprintf("Step %q argument %q: expected %s, got %s.", step, arg, want, got),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"step": step, "argument": arg, "expected": want, "actual": got},
	}
}

// MissingArgument creates a new AppError for a required parameter left without a value.
func MissingArgument(step, arg string) *AppError {
	return &AppError{
		Code: ErrCodeMissingArgument, Message: fmt.Sprintf("Step %q is missing required argument %q.", step, arg),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"step": step, "argument": arg},
	}
}

// ExecutorFailure creates a new AppError for an executor that failed while running.
// The executor's own error is preserved as the cause and remains reachable
// through the standard unwrap chain.
func ExecutorFailure(step string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExecutorFailure, Message: fmt.Sprintf("Step %q executor failed.", step),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"step": step}, Cause: cause,
	}
}

// --- Surrounding-Layer Errors ---

// SourceFailure creates a new AppError for a payload source that failed to produce.
func SourceFailure(source string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSourceFailure, Message: fmt.Sprintf("The %s source failed to produce a payload.", source),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"source": source}, Cause: cause,
	}
}

// InvalidFlowFile creates a new AppError for a flow definition that could not be loaded.
func InvalidFlowFile(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidFlowFile, Message: fmt.Sprintf("Invalid flow definition: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// InvalidConfig creates a new AppError for a configuration value that failed validation.
func InvalidConfig(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("Invalid configuration: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Unauthorized creates a new AppError for unauthorized access.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// Wrap normalizes any error into an AppError. An AppError anywhere in the
// chain is returned as-is; everything else becomes an internal error with the
// original as cause. Wrap(nil) returns nil.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
