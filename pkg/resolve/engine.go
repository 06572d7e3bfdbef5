package resolve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orgflowhq/orgflow/pkg/models"
	"github.com/orgflowhq/orgflow/pkg/persistence"
)

// Engine materializes draft references against a persistence backend.
type Engine struct {
	departments persistence.DepartmentRepository
	roles       persistence.RoleRepository
	logger      *slog.Logger
}

// NewEngine creates a draft resolution engine.
func NewEngine(departments persistence.DepartmentRepository, roles persistence.RoleRepository, logger *slog.Logger) *Engine {
	return &Engine{
		departments: departments,
		roles:       roles,
		logger:      logger.With("module", "resolve"),
	}
}

// Resolution is the outcome of resolving a step list: the fully resolved
// steps (never draft-bearing), the entities created on the way, and the
// remap from draft keys to persisted identifiers.
type Resolution struct {
	Steps              []*models.Step
	CreatedDepartments []*models.Department
	CreatedRoles       []*models.Role

	// DepartmentIDs maps normalized draft department names to persisted ids,
	// covering both name matches against existing departments and fresh
	// creations.
	DepartmentIDs map[string]string

	// RoleIDs maps departmentID-scoped normalized role names to persisted ids.
	RoleIDs map[string]string
}

// Resolve turns every draft reference in steps into a persisted identifier.
//
// The engine snapshots the organization's departments and roles, builds a
// deduplicated creation plan, then persists pending departments in one batch
// followed by pending roles in one batch; roles reference department ids
// that only exist after the first batch commits, so the phases cannot be
// reordered or merged. A uniqueness conflict during either batch is
// returned unchanged for the caller to surface as a structured conflict;
// the engine never retries. Resolving the same input against the snapshot
// produced by a previous call creates nothing new, which makes retry after
// partial failure safe.
//
// The input steps are not mutated; the returned steps are copies.
func (e *Engine) Resolve(ctx context.Context, organizationID string, steps []*models.Step) (*Resolution, error) {
	departments, err := e.departments.ListDepartments(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	roles := make([]*models.Role, 0)

	for _, department := range departments {
		departmentRoles, err := e.roles.ListRoles(ctx, department.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list roles for department %s: %w", department.ID, err)
		}

		roles = append(roles, departmentRoles...)
	}

	plan, err := BuildPlan(steps, departments, roles)
	if err != nil {
		return nil, err
	}

	resolution := &Resolution{
		DepartmentIDs: make(map[string]string),
		RoleIDs:       make(map[string]string),
	}

	snap := newSnapshot(departments, roles)

	for key, department := range snap.departmentsByKey {
		resolution.DepartmentIDs[key] = department.ID
	}

	for scope, role := range snap.rolesByScope {
		resolution.RoleIDs[scope] = role.ID
	}

	if err := e.materialize(ctx, organizationID, plan, resolution); err != nil {
		return nil, err
	}

	resolution.Steps, err = rewriteSteps(steps, resolution)
	if err != nil {
		return nil, err
	}

	return resolution, nil
}

// materialize persists the plan: departments first, then roles.
func (e *Engine) materialize(ctx context.Context, organizationID string, plan *Plan, resolution *Resolution) error {
	if len(plan.Departments) > 0 {
		rows := make([]persistence.DepartmentRow, 0, len(plan.Departments))

		for _, pending := range plan.Departments {
			rows = append(rows, persistence.DepartmentRow{
				Name:  pending.Name,
				Color: models.ColorForName(pending.Name),
			})
		}

		created, err := e.departments.BatchCreateDepartments(ctx, organizationID, rows)
		if err != nil {
			return fmt.Errorf("failed to create departments: %w", err)
		}

		resolution.CreatedDepartments = created

		for i, department := range created {
			resolution.DepartmentIDs[plan.Departments[i].Key] = department.ID
		}

		e.logger.InfoContext(ctx, "created departments from drafts",
			"organization_id", organizationID, "count", len(created))
	}

	if len(plan.Roles) > 0 {
		rows := make([]persistence.RoleRow, 0, len(plan.Roles))

		for _, pending := range plan.Roles {
			departmentID := pending.DepartmentID
			if departmentID == "" {
				departmentID = resolution.DepartmentIDs[pending.DepartmentKey]
			}

			rows = append(rows, persistence.RoleRow{
				DepartmentID: departmentID,
				Name:         pending.Name,
				Color:        models.ColorForName(pending.Name),
			})
		}

		created, err := e.roles.BatchCreateRoles(ctx, rows)
		if err != nil {
			return fmt.Errorf("failed to create roles: %w", err)
		}

		resolution.CreatedRoles = created

		for _, role := range created {
			resolution.RoleIDs[roleScope(role.DepartmentID, role.Name)] = role.ID
		}

		e.logger.InfoContext(ctx, "created roles from drafts",
			"organization_id", organizationID, "count", len(created))
	}

	return nil
}

// rewriteSteps substitutes persisted identifiers for every draft reference
// and clears the draft names. Steps with no drafts pass through unchanged.
func rewriteSteps(steps []*models.Step, resolution *Resolution) ([]*models.Step, error) {
	resolved := make([]*models.Step, 0, len(steps))

	for _, step := range steps {
		clone := step.Clone()

		if clone.Department.IsDraft() {
			id, ok := resolution.DepartmentIDs[models.NameKey(clone.Department.DraftName())]
			if !ok {
				return nil, fmt.Errorf("step %q department %q: %w",
					clone.ID, clone.Department.DraftName(), ErrUnknownDepartment)
			}

			clone.Department = models.ResolvedRef(id)
		}

		if clone.Role.IsDraft() {
			departmentID := clone.Department.ID()
			if departmentID == "" {
				return nil, fmt.Errorf("step %q role %q: %w",
					clone.ID, clone.Role.DraftName(), ErrRoleWithoutDepartment)
			}

			id, ok := resolution.RoleIDs[roleScope(departmentID, clone.Role.DraftName())]
			if !ok {
				return nil, fmt.Errorf("step %q role %q: %w",
					clone.ID, clone.Role.DraftName(), persistence.ErrRoleNotFound)
			}

			clone.Role = models.ResolvedRef(id)
		}

		resolved = append(resolved, clone)
	}

	return resolved, nil
}
