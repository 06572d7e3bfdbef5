package resolve

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgflowhq/orgflow/pkg/models"
	"github.com/orgflowhq/orgflow/pkg/persistence"
	"github.com/orgflowhq/orgflow/pkg/persistence/file"
)

func testEngine(t *testing.T) (*Engine, *file.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	return NewEngine(p.Departments(), p.Roles(), logger), p
}

func TestEngine_Resolve_CreatesDepartmentFromDraft(t *testing.T) {
	ctx := context.Background()
	engine, p := testEngine(t)

	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Type: models.StepTypeAction, Department: models.DraftRef("Sales")},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	resolution, err := engine.Resolve(ctx, "org-1", steps)
	require.NoError(t, err)

	require.Len(t, resolution.CreatedDepartments, 1)
	assert.Equal(t, "Sales", resolution.CreatedDepartments[0].Name)
	assert.NotEmpty(t, resolution.CreatedDepartments[0].ID)

	resolved := resolution.Steps[1]
	assert.True(t, resolved.Department.IsResolved())
	assert.Equal(t, resolution.CreatedDepartments[0].ID, resolved.Department.ID())

	departments, err := p.Departments().ListDepartments(ctx, "org-1")
	require.NoError(t, err)
	assert.Len(t, departments, 1)
}

func TestEngine_Resolve_DeduplicatesDraftsByNormalizedName(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(t)

	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Type: models.StepTypeAction, Department: models.DraftRef("Sales")},
		{ID: "b", Type: models.StepTypeAction, Department: models.DraftRef("sales ")},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	resolution, err := engine.Resolve(ctx, "org-1", steps)
	require.NoError(t, err)

	// One department, spelled the way the first step proposed it.
	require.Len(t, resolution.CreatedDepartments, 1)
	assert.Equal(t, "Sales", resolution.CreatedDepartments[0].Name)

	assert.Equal(t, resolution.Steps[1].Department.ID(), resolution.Steps[2].Department.ID())
}

func TestEngine_Resolve_SecondRunCreatesNothing(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(t)

	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Type: models.StepTypeAction,
			Department: models.DraftRef("Ops"), Role: models.DraftRef("Lead")},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	first, err := engine.Resolve(ctx, "org-1", steps)
	require.NoError(t, err)
	require.Len(t, first.CreatedDepartments, 1)
	require.Len(t, first.CreatedRoles, 1)

	second, err := engine.Resolve(ctx, "org-1", steps)
	require.NoError(t, err)

	assert.Empty(t, second.CreatedDepartments)
	assert.Empty(t, second.CreatedRoles)
	assert.Equal(t, first.Steps[1].Department.ID(), second.Steps[1].Department.ID())
	assert.Equal(t, first.Steps[1].Role.ID(), second.Steps[1].Role.ID())
}

func TestEngine_Resolve_RoleUnderPendingDepartment(t *testing.T) {
	ctx := context.Background()
	engine, p := testEngine(t)

	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Type: models.StepTypeAction,
			Department: models.DraftRef("Ops"), Role: models.DraftRef("Lead")},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	resolution, err := engine.Resolve(ctx, "org-1", steps)
	require.NoError(t, err)

	require.Len(t, resolution.CreatedDepartments, 1)
	require.Len(t, resolution.CreatedRoles, 1)

	department := resolution.CreatedDepartments[0]
	role := resolution.CreatedRoles[0]

	assert.Equal(t, department.ID, role.DepartmentID)
	assert.Equal(t, "Lead", role.Name)

	roles, err := p.Roles().ListRoles(ctx, department.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestEngine_Resolve_RoleUnderExistingDepartmentByID(t *testing.T) {
	ctx := context.Background()
	engine, p := testEngine(t)

	created, err := p.Departments().BatchCreateDepartments(ctx, "org-1", []persistence.DepartmentRow{
		{Name: "Support", Color: "0891B2"},
	})
	require.NoError(t, err)

	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Type: models.StepTypeAction,
			Department: models.ResolvedRef(created[0].ID), Role: models.DraftRef("Agent")},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	resolution, err := engine.Resolve(ctx, "org-1", steps)
	require.NoError(t, err)

	assert.Empty(t, resolution.CreatedDepartments)
	require.Len(t, resolution.CreatedRoles, 1)
	assert.Equal(t, created[0].ID, resolution.CreatedRoles[0].DepartmentID)
}

func TestEngine_Resolve_DraftDepartmentMatchingExistingNeedsNoCreation(t *testing.T) {
	ctx := context.Background()
	engine, p := testEngine(t)

	created, err := p.Departments().BatchCreateDepartments(ctx, "org-1", []persistence.DepartmentRow{
		{Name: "Sales", Color: "2563EB"},
	})
	require.NoError(t, err)

	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Type: models.StepTypeAction, Department: models.DraftRef("  SALES ")},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	resolution, err := engine.Resolve(ctx, "org-1", steps)
	require.NoError(t, err)

	assert.Empty(t, resolution.CreatedDepartments)
	assert.Equal(t, created[0].ID, resolution.Steps[1].Department.ID())
}

func TestEngine_Resolve_RoleWithoutDepartmentFails(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(t)

	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Type: models.StepTypeAction, Role: models.DraftRef("Lead")},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	_, err := engine.Resolve(ctx, "org-1", steps)

	assert.ErrorIs(t, err, ErrRoleWithoutDepartment)
}

func TestEngine_Resolve_UnknownDepartmentIDFails(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(t)

	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Type: models.StepTypeAction,
			Department: models.ResolvedRef("nope"), Role: models.DraftRef("Lead")},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	_, err := engine.Resolve(ctx, "org-1", steps)

	assert.ErrorIs(t, err, ErrUnknownDepartment)
}

func TestEngine_Resolve_FullyResolvedInputIsANoOp(t *testing.T) {
	ctx := context.Background()
	engine, p := testEngine(t)

	departments, err := p.Departments().BatchCreateDepartments(ctx, "org-1", []persistence.DepartmentRow{
		{Name: "Sales", Color: "2563EB"},
	})
	require.NoError(t, err)

	roles, err := p.Roles().BatchCreateRoles(ctx, []persistence.RoleRow{
		{DepartmentID: departments[0].ID, Name: "Rep", Color: "DC2626"},
	})
	require.NoError(t, err)

	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Type: models.StepTypeAction,
			Department: models.ResolvedRef(departments[0].ID), Role: models.ResolvedRef(roles[0].ID)},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	resolution, err := engine.Resolve(ctx, "org-1", steps)
	require.NoError(t, err)

	assert.Empty(t, resolution.CreatedDepartments)
	assert.Empty(t, resolution.CreatedRoles)
	assert.Equal(t, steps, resolution.Steps)
}

func TestEngine_Resolve_DoesNotMutateInput(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(t)

	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Type: models.StepTypeAction, Department: models.DraftRef("Sales")},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	_, err := engine.Resolve(ctx, "org-1", steps)
	require.NoError(t, err)

	assert.True(t, steps[1].Department.IsDraft())
	assert.Equal(t, "Sales", steps[1].Department.DraftName())
}

func TestEngine_Resolve_DraftRoleMatchingExistingRole(t *testing.T) {
	ctx := context.Background()
	engine, p := testEngine(t)

	departments, err := p.Departments().BatchCreateDepartments(ctx, "org-1", []persistence.DepartmentRow{
		{Name: "Sales", Color: "2563EB"},
	})
	require.NoError(t, err)

	roles, err := p.Roles().BatchCreateRoles(ctx, []persistence.RoleRow{
		{DepartmentID: departments[0].ID, Name: "Rep", Color: "DC2626"},
	})
	require.NoError(t, err)

	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Type: models.StepTypeAction,
			Department: models.ResolvedRef(departments[0].ID), Role: models.DraftRef("rep ")},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	resolution, err := engine.Resolve(ctx, "org-1", steps)
	require.NoError(t, err)

	assert.Empty(t, resolution.CreatedRoles)
	assert.Equal(t, roles[0].ID, resolution.Steps[1].Role.ID())
}

func TestBuildPlan_EmptyForResolvedInput(t *testing.T) {
	departments := []*models.Department{{ID: "d1", Name: "Sales"}}

	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Type: models.StepTypeAction, Department: models.ResolvedRef("d1")},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	plan, err := BuildPlan(steps, departments, nil)
	require.NoError(t, err)

	assert.True(t, plan.Empty())
}
