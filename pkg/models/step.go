// Package models defines the core domain models for organizational process design.
package models

// StepType classifies a step within a process sequence.
type StepType string

const (
	StepTypeStart    StepType = "start"    // Entry point, exactly one per process
	StepTypeAction   StepType = "action"   // Regular unit of work
	StepTypeDecision StepType = "decision" // Yes/no branching point
	StepTypeFinish   StepType = "finish"   // Exit point, exactly one per process
)

// Valid reports whether the step type is one of the known values.
func (t StepType) Valid() bool {
	switch t {
	case StepTypeStart, StepTypeAction, StepTypeDecision, StepTypeFinish:
		return true
	}

	return false
}

// Terminal reports whether the step type is a process boundary (start or finish).
func (t StepType) Terminal() bool {
	return t == StepTypeStart || t == StepTypeFinish
}

// DefaultStepLabel is rendered in place of an empty step label.
const DefaultStepLabel = "Untitled step"

// Step is a single node in a process sequence. Department and Role may point
// at persisted entities or carry draft names pending creation; after draft
// resolution both references are either resolved or empty.
type Step struct {
	ID          string    `json:"id"    validate:"required"`
	Label       string    `json:"label"`
	Type        StepType  `json:"type"  validate:"required,oneof=start action decision finish"`
	Department  EntityRef `json:"department"`
	Role        EntityRef `json:"role"`
	YesTargetID string    `json:"yes_target_id,omitempty"`
	NoTargetID  string    `json:"no_target_id,omitempty"`
}

// DisplayLabel returns the label or the placeholder when the label is empty.
func (s *Step) DisplayLabel() string {
	if s.Label == "" {
		return DefaultStepLabel
	}

	return s.Label
}

// Clone returns a copy of the step.
func (s *Step) Clone() *Step {
	clone := *s

	return &clone
}

// CloneSteps returns a deep copy of a step list.
func CloneSteps(steps []*Step) []*Step {
	cloned := make([]*Step, len(steps))
	for i, step := range steps {
		cloned[i] = step.Clone()
	}

	return cloned
}
