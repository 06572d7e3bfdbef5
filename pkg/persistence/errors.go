package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations use.
var (
	// ErrProcessNotFound indicates a process was not found by the given identifier.
	ErrProcessNotFound = errors.New("process not found")

	// ErrDepartmentNotFound indicates a department was not found by the given identifier.
	ErrDepartmentNotFound = errors.New("department not found")

	// ErrRoleNotFound indicates a role was not found by the given identifier.
	ErrRoleNotFound = errors.New("role not found")

	// ErrOrganizationNotFound indicates an organization was not found by the given identifier.
	ErrOrganizationNotFound = errors.New("organization not found")

	// ErrNameTaken indicates a department or role name collided with an
	// existing entity under the same uniqueness scope. Concurrent savers
	// racing to create the same name see this; re-reading state and
	// resubmitting resolves it.
	ErrNameTaken = errors.New("name already taken")
)

// NameConflictError reports which entity and name collided during a batch
// creation. It unwraps to ErrNameTaken.
type NameConflictError struct {
	Entity string // "department" or "role"
	Name   string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("%s name %q already taken", e.Entity, e.Name)
}

func (e *NameConflictError) Unwrap() error {
	return ErrNameTaken
}

// NewDepartmentConflict builds the conflict error for a department name.
func NewDepartmentConflict(name string) *NameConflictError {
	return &NameConflictError{Entity: "department", Name: name}
}

// NewRoleConflict builds the conflict error for a role name.
func NewRoleConflict(name string) *NameConflictError {
	return &NameConflictError{Entity: "role", Name: name}
}

// IsNameTaken checks if an error indicates a uniqueness conflict.
func IsNameTaken(err error) bool {
	return errors.Is(err, ErrNameTaken)
}

// IsNotFound checks if an error indicates any missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProcessNotFound) ||
		errors.Is(err, ErrDepartmentNotFound) ||
		errors.Is(err, ErrRoleNotFound) ||
		errors.Is(err, ErrOrganizationNotFound)
}
