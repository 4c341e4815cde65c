package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Graph errors. These are fatal for a run: nothing is scheduled.
const (
	// ErrCodeCycleDetected indicates the dependency graph contains a cycle.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"
	// ErrCodeUnknownDependency indicates a task depends on a name outside the graph
	// while the strict unknown-dependency policy is active.
	ErrCodeUnknownDependency ErrorCode = "UNKNOWN_DEPENDENCY"
)

// Task errors. These are recorded per task and never abort a run.
const (
	// ErrCodeTaskNotFound indicates the task's runnable target does not exist.
	ErrCodeTaskNotFound ErrorCode = "TASK_NOT_FOUND"
	// ErrCodeUnsupportedTask indicates the executor does not know how to run the target.
	ErrCodeUnsupportedTask ErrorCode = "UNSUPPORTED_TASK"
	// ErrCodeTaskFault indicates the executor raised an unexpected error.
	ErrCodeTaskFault ErrorCode = "TASK_FAULT"
	// ErrCodeTaskFailure indicates an ordinary failed completion.
	ErrCodeTaskFailure ErrorCode = "TASK_FAILURE"
)

// Input errors
const (
	// ErrCodeInvalidConfig indicates the configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInvalidBuildFile indicates the build file could not be read or parsed.
	ErrCodeInvalidBuildFile ErrorCode = "INVALID_BUILD_FILE"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Resource and internal errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeCanceled indicates the run was canceled before it could finish.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeRunInProgress indicates a run was requested while another is active.
	ErrCodeRunInProgress ErrorCode = "RUN_IN_PROGRESS"
)

// TASK_FAILURE is the only code the retry policy acts on.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeTaskFailure: true,
	ErrCodeTaskFault:   false,
	ErrCodeInternal:    false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
