package services

import (
	"context"
	"fmt"

	"github.com/orgflowhq/orgflow/pkg/diagram"
	"github.com/orgflowhq/orgflow/pkg/models"
)

// Definition compiles the textual flowchart definition for an already
// fetched process. Callers key caches on the record's revision and only
// compile on a miss.
func (s *Process) Definition(ctx context.Context, process *models.Process, opts diagram.Options) (string, error) {
	lookup, err := s.lookup(ctx, process.OrganizationID)
	if err != nil {
		return "", err
	}

	return diagram.CompileDefinition(process.Steps, lookup, opts), nil
}

// Layout computes positioned-node geometry for a process.
func (s *Process) Layout(ctx context.Context, processID, actorID string, opts diagram.Options) (*diagram.Layout, error) {
	process, err := s.Fetch(ctx, processID, actorID)
	if err != nil {
		return nil, err
	}

	lookup, err := s.lookup(ctx, process.OrganizationID)
	if err != nil {
		return nil, err
	}

	layout := diagram.ComputeLayout(process.Steps, lookup, opts)

	return &layout, nil
}

// lookup snapshots the organization's directory for diagram compilation.
func (s *Process) lookup(ctx context.Context, organizationID string) (diagram.Lookup, error) {
	departments, err := s.persistence.Departments().ListDepartments(ctx, organizationID)
	if err != nil {
		return diagram.Lookup{}, fmt.Errorf("failed to list departments: %w", err)
	}

	roles := make([]*models.Role, 0)

	for _, department := range departments {
		departmentRoles, err := s.persistence.Roles().ListRoles(ctx, department.ID)
		if err != nil {
			return diagram.Lookup{}, fmt.Errorf("failed to list roles: %w", err)
		}

		roles = append(roles, departmentRoles...)
	}

	return diagram.NewLookup(departments, roles), nil
}
