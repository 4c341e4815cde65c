package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
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

// Is reports whether target is an AppError with the same code, so the
// package sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

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

// Sentinels for errors.Is comparisons. Only the code is compared.
var (
	ErrCycleDetected     = &AppError{Code: ErrCodeCycleDetected}
	ErrUnknownDependency = &AppError{Code: ErrCodeUnknownDependency}
	ErrTaskNotFound      = &AppError{Code: ErrCodeTaskNotFound}
	ErrUnsupportedTask   = &AppError{Code: ErrCodeUnsupportedTask}
	ErrTaskFault         = &AppError{Code: ErrCodeTaskFault}
	ErrTaskFailure       = &AppError{Code: ErrCodeTaskFailure}
	ErrInvalidConfig     = &AppError{Code: ErrCodeInvalidConfig}
	ErrInvalidBuildFile  = &AppError{Code: ErrCodeInvalidBuildFile}
	ErrInvalidInput      = &AppError{Code: ErrCodeInvalidInput}
	ErrNotFound          = &AppError{Code: ErrCodeNotFound}
	ErrCanceled          = &AppError{Code: ErrCodeCanceled}
	ErrRunInProgress     = &AppError{Code: ErrCodeRunInProgress}
)

// --- Graph errors ---

// CycleDetected creates a new AppError for a dependency cycle through the given path.
func CycleDetected(node string, path []string) *AppError {
	return &AppError{
		Code: ErrCodeCycleDetected, Message: fmt.Sprintf("Dependency cycle detected at %q.", node),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"node": node, "path": path},
	}
}

// UnknownDependency creates a new AppError for a dependency outside the task universe.
func UnknownDependency(task, dependency string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownDependency, Message: fmt.Sprintf("Task %q depends on unknown task %q.", task, dependency),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"task": task, "dependency": dependency},
	}
}

// --- Task errors ---

// TaskNotFound creates a new AppError for a task whose target does not exist.
func TaskNotFound(task string) *AppError {
	return &AppError{
		Code: ErrCodeTaskNotFound, Message: fmt.Sprintf("Task %q was not found.", task),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"task": task},
	}
}

// UnsupportedTask creates a new AppError for a task the executor cannot run.
func UnsupportedTask(task, kind string) *AppError {
	details := map[string]any{"task": task}
	if kind != "" {
		details["kind"] = kind
	}
	return &AppError{
		Code: ErrCodeUnsupportedTask, Message: fmt.Sprintf("Task %q has an unsupported type.", task),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false, Details: details,
	}
}

// TaskFault creates a new AppError for an unexpected executor error.
func TaskFault(task string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTaskFault, Message: fmt.Sprintf("Task %q raised an unexpected error.", task),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"task": task}, Cause: cause,
	}
}

// TaskFailure creates a new AppError for a task that completed unsuccessfully.
func TaskFailure(task string, attempts int) *AppError {
	return &AppError{
		Code: ErrCodeTaskFailure, Message: fmt.Sprintf("Task %q failed after %d attempt(s).", task, attempts),
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Details: map[string]any{"task": task, "attempts": attempts},
	}
}

// --- Input errors ---

// InvalidConfig creates a new AppError for a configuration that failed validation.
func InvalidConfig(reason string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("Invalid configuration: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Cause: cause,
	}
}

// InvalidBuildFile creates a new AppError for a build file that cannot be used.
func InvalidBuildFile(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeInvalidBuildFile, Message: fmt.Sprintf("Unable to load build file %s.", path),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"path": path}, Cause: cause,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// --- Resource and internal errors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// Canceled creates a new AppError for work stopped by cancellation.
func Canceled(cause error) *AppError {
	return &AppError{
		Code: ErrCodeCanceled, Message: "The run was canceled.",
		HTTPStatus: 499, Retryable: false, Cause: cause,
	}
}

// RunInProgress creates a new AppError for a run requested while another
// run is still active. The caller may try again later.
func RunInProgress(runID string) *AppError {
	return &AppError{
		Code: ErrCodeRunInProgress, Message: "Another run is in progress.",
		HTTPStatus: http.StatusConflict, Retryable: true,
		Details: map[string]any{"run_id": runID},
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// Is forwards to the standard library errors.Is.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As forwards to the standard library errors.As.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Join forwards to the standard library errors.Join.
func Join(errs ...error) error { return stderrors.Join(errs...) }
