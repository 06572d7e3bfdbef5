// Package services implements the application operations over processes and
// the department/role directory, including the save pipeline that resolves
// draft references before anything is written.
package services

import (
	"errors"
	"fmt"

	"github.com/orgflowhq/orgflow/pkg/models"
	"github.com/orgflowhq/orgflow/pkg/persistence"
	"github.com/orgflowhq/orgflow/pkg/resolve"
)

// Business logic errors. The HTTP layer maps each class to a distinct
// status so callers can tell "fix your input" from "re-sync and retry"
// from "try again later".
var (
	// Validation errors (400-class).
	ErrInvalidRequest = errors.New("invalid request")
	ErrNameRequired   = errors.New("name is required")

	// Reference integrity errors (400-class): the step list names entities
	// that do not exist or belong elsewhere. Rejected before any
	// persistence write is attempted.
	ErrUnknownDepartment      = errors.New("step references an unknown department")
	ErrUnknownRole            = errors.New("step references an unknown role")
	ErrRoleDepartmentMismatch = errors.New("role does not belong to the step's department")

	// Authorization errors (403).
	ErrForbidden = errors.New("actor may not access this organization")
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string // Operation name
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error describes malformed input that the
// caller must fix before retrying (HTTP 400).
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrUnknownDepartment) ||
		errors.Is(err, ErrUnknownRole) ||
		errors.Is(err, ErrRoleDepartmentMismatch) ||
		errors.Is(err, resolve.ErrUnknownDepartment) ||
		errors.Is(err, models.ErrTitleLength) ||
		errors.Is(err, models.ErrTooFewSteps) ||
		errors.Is(err, models.ErrTerminalShape) ||
		errors.Is(err, models.ErrInvalidStepType) ||
		errors.Is(err, models.ErrDuplicateStepID) ||
		errors.Is(err, models.ErrEmptyStepID) ||
		errors.Is(err, models.ErrBranchOnNonDecision)
}

// IsUnprocessableError checks if an error describes input that parses but
// cannot be resolved, e.g. a draft role with no department (HTTP 422).
func IsUnprocessableError(err error) bool {
	return errors.Is(err, resolve.ErrRoleWithoutDepartment)
}

// IsConflictError checks if an error is a name-uniqueness race the caller
// resolves by re-reading state and resubmitting (HTTP 409).
func IsConflictError(err error) bool {
	return persistence.IsNameTaken(err)
}

// IsForbiddenError checks if an error is an authorization rejection (HTTP 403).
func IsForbiddenError(err error) bool {
	return errors.Is(err, ErrForbidden)
}
