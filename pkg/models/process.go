package models

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Structural validation errors for process step lists.
var (
	// ErrTitleLength indicates a process title outside the 1-120 character range.
	ErrTitleLength = errors.New("process title must be between 1 and 120 characters")

	// ErrTooFewSteps indicates a process with fewer than two steps.
	ErrTooFewSteps = errors.New("process must have at least two steps")

	// ErrTerminalShape indicates a process that does not begin with exactly one
	// start step and end with exactly one finish step.
	ErrTerminalShape = errors.New("process must begin with its only start step and end with its only finish step")

	// ErrInvalidStepType indicates a step with an unknown type.
	ErrInvalidStepType = errors.New("invalid step type")

	// ErrDuplicateStepID indicates two steps sharing an identifier.
	ErrDuplicateStepID = errors.New("duplicate step id")

	// ErrEmptyStepID indicates a step without an identifier.
	ErrEmptyStepID = errors.New("step id is required")

	// ErrBranchOnNonDecision indicates a yes/no branch target on a step that
	// is not a decision.
	ErrBranchOnNonDecision = errors.New("branch targets are only valid on decision steps")
)

// Process is an ordered sequence of typed steps owned by an organization.
// It is persisted wholesale on save; the save operation is the unit of
// consistency.
type Process struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Title          string    `json:"title" validate:"required,min=1,max=120"`
	Steps          []*Step   `json:"steps"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewProcess builds an empty process holding the mandatory start/finish pair.
func NewProcess(organizationID, title string) *Process {
	return &Process{
		OrganizationID: organizationID,
		Title:          title,
		Steps: []*Step{
			{ID: "start", Label: "Start", Type: StepTypeStart},
			{ID: "finish", Label: "Finish", Type: StepTypeFinish},
		},
	}
}

// Validate checks the structural invariants of the process: title bounds,
// minimum length, terminal shape, step id uniqueness and branch placement.
// Branch targets pointing at unknown steps are deliberately not an error;
// the branch resolver falls back to the sequential edge for those.
func (p *Process) Validate() error {
	if length := utf8.RuneCountInString(p.Title); length < 1 || length > 120 {
		return ErrTitleLength
	}

	return ValidateSteps(p.Steps)
}

// ValidateSteps checks a step list against the structural invariants shared
// by the editor and the save pipeline.
func ValidateSteps(steps []*Step) error {
	if len(steps) < 2 {
		return ErrTooFewSteps
	}

	seen := make(map[string]struct{}, len(steps))
	starts, finishes := 0, 0

	for i, step := range steps {
		if step.ID == "" {
			return fmt.Errorf("step %d: %w", i, ErrEmptyStepID)
		}

		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("step %q: %w", step.ID, ErrDuplicateStepID)
		}

		seen[step.ID] = struct{}{}

		if !step.Type.Valid() {
			return fmt.Errorf("step %q has type %q: %w", step.ID, step.Type, ErrInvalidStepType)
		}

		switch step.Type {
		case StepTypeStart:
			starts++
		case StepTypeFinish:
			finishes++
		}

		if step.Type != StepTypeDecision && (step.YesTargetID != "" || step.NoTargetID != "") {
			return fmt.Errorf("step %q: %w", step.ID, ErrBranchOnNonDecision)
		}
	}

	if starts != 1 || finishes != 1 ||
		steps[0].Type != StepTypeStart || steps[len(steps)-1].Type != StepTypeFinish {
		return ErrTerminalShape
	}

	return nil
}
