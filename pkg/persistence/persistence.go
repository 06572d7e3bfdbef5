// Package persistence provides the data storage abstraction for processes
// and the department/role directory.
package persistence

import (
	"context"

	"github.com/orgflowhq/orgflow/pkg/models"
)

// DepartmentRow is the input for one department creation in a batch.
type DepartmentRow struct {
	Name  string
	Color string
}

// RoleRow is the input for one role creation in a batch. DepartmentID must
// reference a persisted department.
type RoleRow struct {
	DepartmentID string
	Name         string
	Color        string
}

// DepartmentRepository stores the department directory of an organization.
// Department names are unique per organization (case-insensitive, trimmed);
// batch creation is atomic and reports name collisions as conflicts.
type DepartmentRepository interface {
	ListDepartments(ctx context.Context, organizationID string) ([]*models.Department, error)
	BatchCreateDepartments(ctx context.Context, organizationID string, rows []DepartmentRow) ([]*models.Department, error)
}

// RoleRepository stores roles scoped to departments. Role names are unique
// per department (case-insensitive, trimmed); batch creation is atomic and
// reports name collisions as conflicts.
type RoleRepository interface {
	ListRoles(ctx context.Context, departmentID string) ([]*models.Role, error)
	BatchCreateRoles(ctx context.Context, rows []RoleRow) ([]*models.Role, error)
}

// ProcessRepository stores whole process records. SaveProcess writes the
// record wholesale; the save is the unit of consistency. Steps handed to
// SaveProcess must be fully resolved, never draft-bearing.
type ProcessRepository interface {
	ListProcesses(ctx context.Context, organizationID string) ([]*models.Process, error)
	ProcessByID(ctx context.Context, id string) (*models.Process, error)
	SaveProcess(ctx context.Context, process *models.Process) error
	DeleteProcess(ctx context.Context, id string) error
}

// OrganizationRepository stores organizations and answers access questions.
type OrganizationRepository interface {
	OrganizationByID(ctx context.Context, id string) (*models.Organization, error)
	SaveOrganization(ctx context.Context, organization *models.Organization) error
}

// Persistence bundles the repositories of one backend.
type Persistence interface {
	Departments() DepartmentRepository
	Roles() RoleRepository
	Processes() ProcessRepository
	Organizations() OrganizationRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
