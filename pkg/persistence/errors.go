// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrTaskNotFound indicates a task was not found by the given identifier.
	ErrTaskNotFound = errors.New("task not found")

	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrPolicyNotFound indicates a policy was not found by the given identifier.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrWorkflowConflict indicates a conditional cursor advance lost a race:
	// the stored cursor no longer matched the expected value.
	ErrWorkflowConflict = errors.New("workflow cursor conflict")

	// ErrTaskFinalized indicates an attempt to finalize a task that already
	// reached a terminal status.
	ErrTaskFinalized = errors.New("task already finalized")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g., "GetByID", "AdvanceStep")
	WorkflowID string
	Err        error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsWorkflowConflict checks if an error indicates a lost cursor race.
func IsWorkflowConflict(err error) bool {
	return errors.Is(err, ErrWorkflowConflict)
}

// IsTaskNotFound checks if an error indicates a task was not found.
func IsTaskNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

// IsPolicyNotFound checks if an error indicates a policy was not found.
func IsPolicyNotFound(err error) bool {
	return errors.Is(err, ErrPolicyNotFound)
}
