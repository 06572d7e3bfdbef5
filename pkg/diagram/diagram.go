// Package diagram compiles a process step sequence into the two renderer
// inputs: a textual flowchart definition for the grammar-based renderer and
// a positioned-node layout for the custom renderer. Both outputs are pure
// functions of their input; identical input yields byte-identical output.
package diagram

import (
	"strings"

	"github.com/orgflowhq/orgflow/pkg/models"
)

// Options control which metadata the compiled outputs include.
type Options struct {
	// GroupByDepartment emits definition nodes inside one named block per
	// department, in first-appearance order across the step sequence.
	GroupByDepartment bool

	// ShowDepartments adds the department name to node display text.
	ShowDepartments bool

	// ShowRoles adds the role name to node display text.
	ShowRoles bool

	// Colors enables role/department color styling; when disabled all nodes
	// use the per-type defaults.
	Colors bool
}

// Lookup resolves persisted department and role references for steps.
type Lookup struct {
	Departments map[string]*models.Department
	Roles       map[string]*models.Role
}

// NewLookup indexes departments and roles by id.
func NewLookup(departments []*models.Department, roles []*models.Role) Lookup {
	lookup := Lookup{
		Departments: make(map[string]*models.Department, len(departments)),
		Roles:       make(map[string]*models.Role, len(roles)),
	}

	for _, department := range departments {
		lookup.Departments[department.ID] = department
	}

	for _, role := range roles {
		lookup.Roles[role.ID] = role
	}

	return lookup
}

// Department returns the step's department, resolving through the role's
// department when the step references only a role.
func (l Lookup) Department(step *models.Step) *models.Department {
	if step.Department.IsResolved() {
		return l.Departments[step.Department.ID()]
	}

	if role := l.Role(step); role != nil {
		return l.Departments[role.DepartmentID]
	}

	return nil
}

// Role returns the step's resolved role, or nil.
func (l Lookup) Role(step *models.Step) *models.Role {
	if !step.Role.IsResolved() {
		return nil
	}

	return l.Roles[step.Role.ID()]
}

// stepColor returns the color attached to a step via its role, falling back
// to its department, or "" when neither carries one.
func (l Lookup) stepColor(step *models.Step) string {
	if role := l.Role(step); role != nil && role.Color != "" {
		return role.Color
	}

	if department := l.Department(step); department != nil && department.Color != "" {
		return department.Color
	}

	return ""
}

// sanitizeID maps an identifier into the token grammar accepted by the
// definition renderer: every non-alphanumeric rune becomes '_'.
func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, id)
}

// departmentToken namespaces a sanitized department id so it cannot collide
// with a step token in the same symbol space.
func departmentToken(id string) string {
	return "dept_" + sanitizeID(id)
}
