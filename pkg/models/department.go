package models

import (
	"sort"
	"strings"
	"time"
)

// Department is an organizational unit that steps can be assigned to.
// Department names are unique within an organization, compared case
// insensitively after trimming.
type Department struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"  validate:"required,min=1,max=120"`
	Color          string    `json:"color" validate:"omitempty,hexadecimal,len=6"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Role is a responsibility scoped to a department. Role names are unique
// within their department, compared case insensitively after trimming.
type Role struct {
	ID           string    `json:"id"`
	DepartmentID string    `json:"department_id"`
	Name         string    `json:"name"  validate:"required,min=1,max=120"`
	Color        string    `json:"color" validate:"omitempty,hexadecimal,len=6"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NameKey normalizes an entity name for uniqueness comparison and draft
// matching: surrounding whitespace is trimmed and the result lowercased.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SortDepartmentsByName orders departments alphabetically by name, the order
// the editor presents them in.
func SortDepartmentsByName(departments []*Department) {
	sort.SliceStable(departments, func(i, j int) bool {
		return NameKey(departments[i].Name) < NameKey(departments[j].Name)
	})
}

// SortRolesByName orders roles alphabetically by name, the order the editor
// presents them in.
func SortRolesByName(roles []*Role) {
	sort.SliceStable(roles, func(i, j int) bool {
		return NameKey(roles[i].Name) < NameKey(roles[j].Name)
	})
}
