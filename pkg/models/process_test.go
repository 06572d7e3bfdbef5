package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSteps() []*Step {
	return []*Step{
		{ID: "start", Label: "Start", Type: StepTypeStart},
		{ID: "a", Label: "Review request", Type: StepTypeAction},
		{ID: "finish", Label: "Finish", Type: StepTypeFinish},
	}
}

func TestNewProcess_HoldsTerminalPair(t *testing.T) {
	process := NewProcess("org-1", "Onboarding")

	require.Len(t, process.Steps, 2)
	assert.Equal(t, StepTypeStart, process.Steps[0].Type)
	assert.Equal(t, StepTypeFinish, process.Steps[1].Type)
	assert.NoError(t, process.Validate())
}

func TestProcess_Validate_TitleBounds(t *testing.T) {
	process := &Process{Title: "", Steps: validSteps()}
	assert.ErrorIs(t, process.Validate(), ErrTitleLength)

	process.Title = strings.Repeat("x", 121)
	assert.ErrorIs(t, process.Validate(), ErrTitleLength)

	process.Title = strings.Repeat("x", 120)
	assert.NoError(t, process.Validate())
}

func TestProcess_Validate_TitleCountsRunesNotBytes(t *testing.T) {
	process := &Process{Title: strings.Repeat("ä", 120), Steps: validSteps()}

	assert.NoError(t, process.Validate())
}

func TestValidateSteps_TooFew(t *testing.T) {
	assert.ErrorIs(t, ValidateSteps(nil), ErrTooFewSteps)
	assert.ErrorIs(t, ValidateSteps([]*Step{{ID: "start", Type: StepTypeStart}}), ErrTooFewSteps)
}

func TestValidateSteps_TerminalShape(t *testing.T) {
	noFinish := []*Step{
		{ID: "start", Type: StepTypeStart},
		{ID: "a", Type: StepTypeAction},
	}
	assert.ErrorIs(t, ValidateSteps(noFinish), ErrTerminalShape)

	finishFirst := []*Step{
		{ID: "finish", Type: StepTypeFinish},
		{ID: "start", Type: StepTypeStart},
	}
	assert.ErrorIs(t, ValidateSteps(finishFirst), ErrTerminalShape)

	twoStarts := []*Step{
		{ID: "start", Type: StepTypeStart},
		{ID: "start2", Type: StepTypeStart},
		{ID: "finish", Type: StepTypeFinish},
	}
	assert.ErrorIs(t, ValidateSteps(twoStarts), ErrTerminalShape)
}

func TestValidateSteps_DuplicateAndEmptyIDs(t *testing.T) {
	duplicate := []*Step{
		{ID: "start", Type: StepTypeStart},
		{ID: "a", Type: StepTypeAction},
		{ID: "a", Type: StepTypeAction},
		{ID: "finish", Type: StepTypeFinish},
	}
	assert.ErrorIs(t, ValidateSteps(duplicate), ErrDuplicateStepID)

	empty := []*Step{
		{ID: "start", Type: StepTypeStart},
		{ID: "", Type: StepTypeAction},
		{ID: "finish", Type: StepTypeFinish},
	}
	assert.ErrorIs(t, ValidateSteps(empty), ErrEmptyStepID)
}

func TestValidateSteps_UnknownType(t *testing.T) {
	steps := []*Step{
		{ID: "start", Type: StepTypeStart},
		{ID: "a", Type: StepType("loop")},
		{ID: "finish", Type: StepTypeFinish},
	}

	assert.ErrorIs(t, ValidateSteps(steps), ErrInvalidStepType)
}

func TestValidateSteps_BranchTargetsOnlyOnDecisions(t *testing.T) {
	steps := []*Step{
		{ID: "start", Type: StepTypeStart},
		{ID: "a", Type: StepTypeAction, YesTargetID: "finish"},
		{ID: "finish", Type: StepTypeFinish},
	}
	assert.ErrorIs(t, ValidateSteps(steps), ErrBranchOnNonDecision)

	steps[1].YesTargetID = ""
	steps[1].NoTargetID = "finish"
	assert.ErrorIs(t, ValidateSteps(steps), ErrBranchOnNonDecision)
}

func TestValidateSteps_DanglingBranchTargetIsNotAnError(t *testing.T) {
	steps := []*Step{
		{ID: "start", Type: StepTypeStart},
		{ID: "d", Type: StepTypeDecision, YesTargetID: "missing", NoTargetID: ""},
		{ID: "finish", Type: StepTypeFinish},
	}

	assert.NoError(t, ValidateSteps(steps))
}

func TestStep_DisplayLabel(t *testing.T) {
	step := &Step{ID: "a", Type: StepTypeAction}
	assert.Equal(t, DefaultStepLabel, step.DisplayLabel())

	step.Label = "Review request"
	assert.Equal(t, "Review request", step.DisplayLabel())
}

func TestNameKey(t *testing.T) {
	assert.Equal(t, "sales", NameKey("Sales"))
	assert.Equal(t, "sales", NameKey("  sales  "))
	assert.Equal(t, NameKey("Sales"), NameKey("sales "))
	assert.Empty(t, NameKey("   "))
}

func TestColorForName_DeterministicAndNormalized(t *testing.T) {
	assert.Equal(t, ColorForName("Sales"), ColorForName("  sales"))
	assert.Contains(t, PaletteColors, ColorForName("Support"))
}
