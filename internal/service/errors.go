package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the services. The API layer maps them to
// status codes with errors.Is.
var (
	// ErrForbidden indicates the actor may see the resource but not perform the operation.
	ErrForbidden = errors.New("operation not permitted")

	// ErrFieldForbidden is wrapped by FieldForbiddenError.
	ErrFieldForbidden = fmt.Errorf("%w: field may not be changed", ErrForbidden)

	// ErrLastAdmin is returned when an operation would leave the system without an admin.
	ErrLastAdmin = errors.New("cannot remove the last admin")

	// ErrOwnerRemoval is returned when a request would drop the owner from their project.
	ErrOwnerRemoval = errors.New("project owner cannot be removed from the project")

	// ErrUnknownUsers is returned when a request references user IDs that do not exist.
	ErrUnknownUsers = errors.New("unknown user IDs")

	// ErrAssigneeNotMember is returned when a task would be assigned to a user
	// outside the task's project.
	ErrAssigneeNotMember = errors.New("assignee is not a member of the project")
)

// FieldForbiddenError names the first field in an update the actor is not
// allowed to change.
type FieldForbiddenError struct {
	Field string
}

func (e *FieldForbiddenError) Error() string {
	return fmt.Sprintf("not permitted to change field %q", e.Field)
}

func (e *FieldForbiddenError) Unwrap() error {
	return ErrFieldForbidden
}

// ServiceError wraps unexpected failures with the operation that produced them.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "update_task")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Message: message, Err: err}
}
