// Package resolve turns draft department/role references in a step list
// into persisted identifiers, creating missing entities exactly once.
package resolve

import (
	"errors"
	"fmt"

	"github.com/orgflowhq/orgflow/pkg/models"
)

var (
	// ErrRoleWithoutDepartment indicates a step proposing a draft role while
	// referencing no department at all; the role has no scope to live in.
	ErrRoleWithoutDepartment = errors.New("role has no resolvable department")

	// ErrUnknownDepartment indicates a step referencing a department id that
	// is not part of the organization snapshot.
	ErrUnknownDepartment = errors.New("unknown department")
)

// PendingDepartment is one department to create, deduplicated by normalized
// name. Name keeps the spelling of the first step that proposed it.
type PendingDepartment struct {
	Key  string
	Name string
}

// PendingRole is one role to create. Exactly one of DepartmentID (the
// department already exists) and DepartmentKey (the department is itself
// pending in the same plan) is set.
type PendingRole struct {
	DepartmentID  string
	DepartmentKey string
	Key           string
	Name          string
}

// Plan is the conflict-free set of create operations derived from a step
// list and an existing-entity snapshot. Pending entries preserve
// first-appearance order so materialization is deterministic.
type Plan struct {
	Departments []PendingDepartment
	Roles       []PendingRole
}

// Empty reports whether the plan creates nothing, i.e. every reference in
// the input already resolved against the snapshot.
func (p *Plan) Empty() bool {
	return len(p.Departments) == 0 && len(p.Roles) == 0
}

// snapshot indexes the existing entities for resolution.
type snapshot struct {
	departmentsByID  map[string]*models.Department
	departmentsByKey map[string]*models.Department
	rolesByScope     map[string]*models.Role // departmentID + "\x00" + name key
}

func newSnapshot(departments []*models.Department, roles []*models.Role) *snapshot {
	s := &snapshot{
		departmentsByID:  make(map[string]*models.Department, len(departments)),
		departmentsByKey: make(map[string]*models.Department, len(departments)),
		rolesByScope:     make(map[string]*models.Role, len(roles)),
	}

	for _, department := range departments {
		s.departmentsByID[department.ID] = department
		s.departmentsByKey[models.NameKey(department.Name)] = department
	}

	for _, role := range roles {
		s.rolesByScope[roleScope(role.DepartmentID, role.Name)] = role
	}

	return s
}

func roleScope(departmentID, name string) string {
	return departmentID + "\x00" + models.NameKey(name)
}

// BuildPlan walks the step list and produces the create operations needed
// to resolve every draft reference against the snapshot.
//
// Draft department names matching an existing department (normalized) need
// no creation. The remaining names are queued once per normalized key, so
// "Sales" and "sales " yield a single department. Draft roles resolve their
// department first, through either a persisted id or a pending key; a role
// under an existing department that already has a role with that name needs
// no creation either. A draft role whose step references no department is a
// validation failure.
func BuildPlan(steps []*models.Step, departments []*models.Department, roles []*models.Role) (*Plan, error) {
	snap := newSnapshot(departments, roles)
	plan := &Plan{}

	pendingDepartments := make(map[string]bool)
	pendingRoles := make(map[string]bool)

	for _, step := range steps {
		if step.Department.IsDraft() {
			key := models.NameKey(step.Department.DraftName())

			if _, exists := snap.departmentsByKey[key]; !exists && !pendingDepartments[key] {
				pendingDepartments[key] = true

				plan.Departments = append(plan.Departments, PendingDepartment{
					Key:  key,
					Name: step.Department.DraftName(),
				})
			}
		}
	}

	for _, step := range steps {
		if !step.Role.IsDraft() {
			continue
		}

		roleKey := models.NameKey(step.Role.DraftName())

		departmentID, departmentKey, err := resolveDepartmentScope(step, snap, pendingDepartments)
		if err != nil {
			return nil, err
		}

		if departmentID != "" {
			if _, exists := snap.rolesByScope[roleScope(departmentID, roleKey)]; exists {
				continue
			}
		}

		scope := departmentID + "\x00" + departmentKey + "\x00" + roleKey
		if pendingRoles[scope] {
			continue
		}

		pendingRoles[scope] = true

		plan.Roles = append(plan.Roles, PendingRole{
			DepartmentID:  departmentID,
			DepartmentKey: departmentKey,
			Key:           roleKey,
			Name:          step.Role.DraftName(),
		})
	}

	return plan, nil
}

// resolveDepartmentScope determines which department a step's draft role
// belongs to: a persisted id, an existing department matched by draft name,
// or a department pending creation in the same plan.
func resolveDepartmentScope(step *models.Step, snap *snapshot, pendingDepartments map[string]bool) (departmentID, departmentKey string, err error) {
	switch {
	case step.Department.IsResolved():
		id := step.Department.ID()
		if _, known := snap.departmentsByID[id]; !known {
			return "", "", fmt.Errorf("step %q: %w", step.ID, ErrUnknownDepartment)
		}

		return id, "", nil

	case step.Department.IsDraft():
		key := models.NameKey(step.Department.DraftName())

		if department, exists := snap.departmentsByKey[key]; exists {
			return department.ID, "", nil
		}

		if pendingDepartments[key] {
			return "", key, nil
		}

		// Unreachable: the department pass queued every draft name.
		return "", key, nil

	default:
		return "", "", fmt.Errorf("step %q role %q: %w", step.ID, step.Role.DraftName(), ErrRoleWithoutDepartment)
	}
}
