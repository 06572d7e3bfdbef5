package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgflowhq/orgflow/pkg/models"
)

func reviewSteps() []*models.Step {
	return []*models.Step{
		{ID: "start", Label: "Start", Type: models.StepTypeStart},
		{ID: "review", Label: "Review request", Type: models.StepTypeAction,
			Department: models.ResolvedRef("dept-sales"), Role: models.ResolvedRef("role-rep")},
		{ID: "approved", Label: "Approved?", Type: models.StepTypeDecision, YesTargetID: "ship"},
		{ID: "revise", Label: "Revise order", Type: models.StepTypeAction,
			Department: models.ResolvedRef("dept-sales")},
		{ID: "ship", Label: "Ship order", Type: models.StepTypeAction,
			Department: models.ResolvedRef("dept-ops")},
		{ID: "finish", Label: "Finish", Type: models.StepTypeFinish},
	}
}

func reviewLookup() Lookup {
	return NewLookup(
		[]*models.Department{
			{ID: "dept-sales", OrganizationID: "org-1", Name: "Sales", Color: "2563EB"},
			{ID: "dept-ops", OrganizationID: "org-1", Name: "Operations", Color: "16A34A"},
		},
		[]*models.Role{
			{ID: "role-rep", DepartmentID: "dept-sales", Name: "Sales Rep", Color: "DC2626"},
		},
	)
}

func TestCompileDefinition_Shapes(t *testing.T) {
	definition := CompileDefinition(reviewSteps(), reviewLookup(), Options{})

	assert.True(t, strings.HasPrefix(definition, "flowchart TD\n"))
	assert.Contains(t, definition, `start(["Start"])`)
	assert.Contains(t, definition, `review["Review request"]`)
	assert.Contains(t, definition, `approved{"Approved?"}`)
	assert.Contains(t, definition, `finish(["Finish"])`)
}

func TestCompileDefinition_EdgesFollowBranchResolution(t *testing.T) {
	definition := CompileDefinition(reviewSteps(), reviewLookup(), Options{})

	assert.Contains(t, definition, "    start --> review\n")
	assert.Contains(t, definition, "    approved -->|Yes| ship\n")
	assert.Contains(t, definition, "    approved -->|No| revise\n")
	assert.Contains(t, definition, "    ship --> finish\n")
}

func TestCompileDefinition_Deterministic(t *testing.T) {
	opts := Options{GroupByDepartment: true, ShowRoles: true, Colors: true}

	first := CompileDefinition(reviewSteps(), reviewLookup(), opts)

	for range 20 {
		assert.Equal(t, first, CompileDefinition(reviewSteps(), reviewLookup(), opts))
	}
}

func TestCompileDefinition_GroupsByDepartmentInFirstAppearanceOrder(t *testing.T) {
	definition := CompileDefinition(reviewSteps(), reviewLookup(), Options{GroupByDepartment: true})

	salesAt := strings.Index(definition, `subgraph dept_dept_sales["Sales"]`)
	opsAt := strings.Index(definition, `subgraph dept_dept_ops["Operations"]`)

	require.GreaterOrEqual(t, salesAt, 0)
	require.GreaterOrEqual(t, opsAt, 0)
	assert.Less(t, salesAt, opsAt)

	// The whole Sales block is emitted once, holding both of its steps.
	assert.Equal(t, 1, strings.Count(definition, `subgraph dept_dept_sales`))

	salesBlock := definition[salesAt:strings.Index(definition[salesAt:], "end")+salesAt]
	assert.Contains(t, salesBlock, `review["Review request"]`)
	assert.Contains(t, salesBlock, `revise["Revise order"]`)
}

func TestCompileDefinition_UngroupedStepsStayOutsideBlocks(t *testing.T) {
	definition := CompileDefinition(reviewSteps(), reviewLookup(), Options{GroupByDepartment: true})

	// Terminals have no department, so they sit at top level (4-space indent).
	assert.Contains(t, definition, "\n    start([\"Start\"])\n")
	assert.Contains(t, definition, "\n    finish([\"Finish\"])\n")
}

func TestCompileDefinition_StyleClassPriority(t *testing.T) {
	definition := CompileDefinition(reviewSteps(), reviewLookup(), Options{Colors: true})

	// Decision steps always use the decision class even with colors on.
	assert.Contains(t, definition, "    class approved decision\n")

	// A resolved role with a color wins for non-decision steps.
	assert.Contains(t, definition, "    classDef role_role_rep ")
	assert.Contains(t, definition, "    class review role_role_rep\n")

	// Steps without a colored role fall back to the default class.
	assert.Contains(t, definition, "    class ship step\n")
	assert.Contains(t, definition, "    class start step\n")
}

func TestCompileDefinition_ColorsOffUsesDefaults(t *testing.T) {
	definition := CompileDefinition(reviewSteps(), reviewLookup(), Options{})

	assert.NotContains(t, definition, "role_role_rep")
	assert.Contains(t, definition, "    class review step\n")
}

func TestCompileDefinition_SanitizesTokens(t *testing.T) {
	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "step one!", Label: "Do it", Type: models.StepTypeAction},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	definition := CompileDefinition(steps, Lookup{}, Options{})

	assert.Contains(t, definition, `step_one_["Do it"]`)
	assert.Contains(t, definition, "    start --> step_one_\n")
}

func TestCompileDefinition_EscapesQuotesInLabels(t *testing.T) {
	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Label: `Say "hello"`, Type: models.StepTypeAction},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	definition := CompileDefinition(steps, Lookup{}, Options{})

	assert.Contains(t, definition, `a["Say 'hello'"]`)
	assert.NotContains(t, definition, `"Say "hello""`)
}

func TestCompileDefinition_EmptyLabelUsesPlaceholder(t *testing.T) {
	steps := []*models.Step{
		{ID: "start", Type: models.StepTypeStart},
		{ID: "a", Type: models.StepTypeAction},
		{ID: "finish", Type: models.StepTypeFinish},
	}

	definition := CompileDefinition(steps, Lookup{}, Options{})

	assert.Contains(t, definition, `a["`+models.DefaultStepLabel+`"]`)
}

func TestLookup_DepartmentFallsBackThroughRole(t *testing.T) {
	lookup := reviewLookup()

	step := &models.Step{ID: "a", Type: models.StepTypeAction, Role: models.ResolvedRef("role-rep")}

	department := lookup.Department(step)
	require.NotNil(t, department)
	assert.Equal(t, "dept-sales", department.ID)
}
