// Package editor holds the single mutable copy of a process during an
// editing session. Every mutation synchronously recomputes the resolved
// edges, the diagram definition and the layout, so the caller always reads
// outputs consistent with the current step list. A session is owned by one
// goroutine; it performs no I/O.
package editor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/orgflowhq/orgflow/pkg/diagram"
	"github.com/orgflowhq/orgflow/pkg/flow"
	"github.com/orgflowhq/orgflow/pkg/models"
)

var (
	// ErrStepNotFound indicates a step id unknown to the session.
	ErrStepNotFound = errors.New("step not found")

	// ErrTerminalImmutable indicates an attempt to remove or reorder the
	// start or finish step.
	ErrTerminalImmutable = errors.New("start and finish steps cannot be moved or removed")

	// ErrInvalidStepType indicates adding a step that is not an action or a
	// decision.
	ErrInvalidStepType = errors.New("only action and decision steps can be added")
)

// Session is an in-memory process editing session.
type Session struct {
	title       string
	steps       []*models.Step
	departments []*models.Department
	roles       []*models.Role
	palette     *Palette
	options     diagram.Options

	edges      []flow.Edge
	definition string
	layout     diagram.Layout
}

// NewSession starts a session over a fresh process holding the mandatory
// start/finish pair. The department and role slices are the organization's
// current directory snapshot used for diagram metadata.
func NewSession(title string, departments []*models.Department, roles []*models.Role, options diagram.Options) *Session {
	process := models.NewProcess("", title)

	s := &Session{
		title:       title,
		steps:       process.Steps,
		departments: departments,
		roles:       roles,
		palette:     NewPalette(),
		options:     options,
	}

	s.recompute()

	return s
}

// Load starts a session over an existing process.
func Load(process *models.Process, departments []*models.Department, roles []*models.Role, options diagram.Options) *Session {
	s := &Session{
		title:       process.Title,
		steps:       models.CloneSteps(process.Steps),
		departments: departments,
		roles:       roles,
		palette:     NewPalette(),
		options:     options,
	}

	s.recompute()

	return s
}

// AddStep inserts a new action or decision step immediately before the
// finish step and returns it.
func (s *Session) AddStep(stepType models.StepType, label string) (*models.Step, error) {
	if stepType != models.StepTypeAction && stepType != models.StepTypeDecision {
		return nil, ErrInvalidStepType
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate step ID: %w", err)
	}

	step := &models.Step{
		ID:    id.String(),
		Label: label,
		Type:  stepType,
	}

	at := len(s.steps) - 1
	s.steps = append(s.steps[:at], append([]*models.Step{step}, s.steps[at:]...)...)

	s.recompute()

	return step, nil
}

// RemoveStep deletes a step. Terminal steps are not removable.
func (s *Session) RemoveStep(id string) error {
	index, step, err := s.find(id)
	if err != nil {
		return err
	}

	if step.Type.Terminal() {
		return ErrTerminalImmutable
	}

	s.steps = append(s.steps[:index], s.steps[index+1:]...)

	s.recompute()

	return nil
}

// Move places the step at targetIndex within the sequence. The start step
// is pinned at the first position and the finish step at the last; both
// refuse to move, and other steps cannot displace them. Out-of-range
// targets are clamped into the movable interior.
func (s *Session) Move(id string, targetIndex int) error {
	index, step, err := s.find(id)
	if err != nil {
		return err
	}

	if step.Type.Terminal() {
		return ErrTerminalImmutable
	}

	if targetIndex < 1 {
		targetIndex = 1
	}

	if limit := len(s.steps) - 2; targetIndex > limit {
		targetIndex = limit
	}

	if targetIndex == index {
		return nil
	}

	s.steps = append(s.steps[:index], s.steps[index+1:]...)
	s.steps = append(s.steps[:targetIndex], append([]*models.Step{step}, s.steps[targetIndex:]...)...)

	s.recompute()

	return nil
}

// SetLabel updates a step's label. Branch summaries of decision steps
// pointing at it are derived at recompute time, so they pick up the new
// label automatically.
func (s *Session) SetLabel(id, label string) error {
	_, step, err := s.find(id)
	if err != nil {
		return err
	}

	step.Label = label

	s.recompute()

	return nil
}

// SetDepartment assigns a department reference to a step.
func (s *Session) SetDepartment(id string, ref models.EntityRef) error {
	_, step, err := s.find(id)
	if err != nil {
		return err
	}

	step.Department = ref

	s.recompute()

	return nil
}

// SetRole assigns a role reference to a step.
func (s *Session) SetRole(id string, ref models.EntityRef) error {
	_, step, err := s.find(id)
	if err != nil {
		return err
	}

	step.Role = ref

	s.recompute()

	return nil
}

// SetBranchTargets sets a decision step's yes/no overrides. Targets naming
// unknown steps are kept as-is; the branch resolver falls back to the
// sequential edge for them.
func (s *Session) SetBranchTargets(id, yesTargetID, noTargetID string) error {
	_, step, err := s.find(id)
	if err != nil {
		return err
	}

	if step.Type != models.StepTypeDecision {
		return fmt.Errorf("step %q: %w", id, models.ErrBranchOnNonDecision)
	}

	step.YesTargetID = yesTargetID
	step.NoTargetID = noTargetID

	s.recompute()

	return nil
}

// AddDraftRoleColor reserves the next palette color for a role the user is
// creating in the sidebar.
func (s *Session) AddDraftRoleColor() string {
	return s.palette.Next()
}

// SetTitle updates the process title.
func (s *Session) SetTitle(title string) {
	s.title = title
}

// Title returns the process title.
func (s *Session) Title() string {
	return s.title
}

// Steps returns a copy of the current step list, e.g. to feed the save
// pipeline.
func (s *Session) Steps() []*models.Step {
	return models.CloneSteps(s.steps)
}

// Edges returns the resolved edges of the current step list.
func (s *Session) Edges() []flow.Edge {
	return s.edges
}

// Definition returns the current diagram definition text.
func (s *Session) Definition() string {
	return s.definition
}

// Layout returns the current positioned layout.
func (s *Session) Layout() diagram.Layout {
	return s.layout
}

func (s *Session) find(id string) (int, *models.Step, error) {
	for i, step := range s.steps {
		if step.ID == id {
			return i, step, nil
		}
	}

	return 0, nil, fmt.Errorf("step %q: %w", id, ErrStepNotFound)
}

func (s *Session) recompute() {
	lookup := diagram.NewLookup(s.departments, s.roles)

	s.edges = flow.ResolveEdges(s.steps)
	s.definition = diagram.CompileDefinition(s.steps, lookup, s.options)
	s.layout = diagram.ComputeLayout(s.steps, lookup, s.options)
}
