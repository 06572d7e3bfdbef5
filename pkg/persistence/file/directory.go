package file

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/orgflowhq/orgflow/pkg/models"
	"github.com/orgflowhq/orgflow/pkg/persistence"
)

const (
	departmentsFile = "departments.json"
	rolesFile       = "roles.json"
)

// DepartmentRepository stores all departments in one JSON collection.
type DepartmentRepository struct {
	store *store
}

func (r *DepartmentRepository) ListDepartments(_ context.Context, organizationID string) ([]*models.Department, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.listLocked(organizationID)
}

func (r *DepartmentRepository) listLocked(organizationID string) ([]*models.Department, error) {
	var all []*models.Department
	if err := r.store.readCollection(departmentsFile, &all); err != nil {
		return nil, err
	}

	departments := make([]*models.Department, 0, len(all))

	for _, department := range all {
		if department.OrganizationID == organizationID {
			departments = append(departments, department)
		}
	}

	models.SortDepartmentsByName(departments)

	return departments, nil
}

// BatchCreateDepartments creates all rows or none. Every name is checked
// against the organization's existing departments and against the rest of
// the batch before anything is written.
func (r *DepartmentRepository) BatchCreateDepartments(_ context.Context, organizationID string, rows []persistence.DepartmentRow) ([]*models.Department, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var all []*models.Department
	if err := r.store.readCollection(departmentsFile, &all); err != nil {
		return nil, err
	}

	taken := make(map[string]bool)

	for _, department := range all {
		if department.OrganizationID == organizationID {
			taken[models.NameKey(department.Name)] = true
		}
	}

	now := time.Now().UTC()
	created := make([]*models.Department, 0, len(rows))

	for _, row := range rows {
		key := models.NameKey(row.Name)
		if taken[key] {
			return nil, persistence.NewDepartmentConflict(row.Name)
		}

		taken[key] = true

		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate department ID: %w", err)
		}

		created = append(created, &models.Department{
			ID:             id.String(),
			OrganizationID: organizationID,
			Name:           row.Name,
			Color:          row.Color,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	all = append(all, created...)

	if err := r.store.writeCollection(departmentsFile, all); err != nil {
		return nil, err
	}

	return created, nil
}

// RoleRepository stores all roles in one JSON collection.
type RoleRepository struct {
	store *store
}

func (r *RoleRepository) ListRoles(_ context.Context, departmentID string) ([]*models.Role, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var all []*models.Role
	if err := r.store.readCollection(rolesFile, &all); err != nil {
		return nil, err
	}

	roles := make([]*models.Role, 0, len(all))

	for _, role := range all {
		if role.DepartmentID == departmentID {
			roles = append(roles, role)
		}
	}

	models.SortRolesByName(roles)

	return roles, nil
}

// BatchCreateRoles creates all rows or none. Each row's department must
// exist; names are unique within a department.
func (r *RoleRepository) BatchCreateRoles(_ context.Context, rows []persistence.RoleRow) ([]*models.Role, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var departments []*models.Department
	if err := r.store.readCollection(departmentsFile, &departments); err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(departments))
	for _, department := range departments {
		known[department.ID] = true
	}

	var all []*models.Role
	if err := r.store.readCollection(rolesFile, &all); err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(all))
	for _, role := range all {
		taken[role.DepartmentID+"\x00"+models.NameKey(role.Name)] = true
	}

	now := time.Now().UTC()
	created := make([]*models.Role, 0, len(rows))

	for _, row := range rows {
		if !known[row.DepartmentID] {
			return nil, fmt.Errorf("role %q references department %s: %w",
				row.Name, row.DepartmentID, persistence.ErrDepartmentNotFound)
		}

		key := row.DepartmentID + "\x00" + models.NameKey(row.Name)
		if taken[key] {
			return nil, persistence.NewRoleConflict(row.Name)
		}

		taken[key] = true

		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate role ID: %w", err)
		}

		created = append(created, &models.Role{
			ID:           id.String(),
			DepartmentID: row.DepartmentID,
			Name:         row.Name,
			Color:        row.Color,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	all = append(all, created...)

	if err := r.store.writeCollection(rolesFile, all); err != nil {
		return nil, err
	}

	return created, nil
}
