package persistence

import (
	"errors"
	"fmt"

	"github.com/orgflowhq/orgflow/pkg/models"
)

// ErrDraftInPersistedStep indicates an attempt to persist a step that still
// carries a draft department or role name. Draft names live only in the
// editor's transient state; every persisted step resolves to real
// identifiers or null.
var ErrDraftInPersistedStep = errors.New("step carries an unresolved draft reference")

// StepRecord is the durable shape of a step. Department and role are flat
// nullable identifiers; draft-name fields are structurally absent.
type StepRecord struct {
	ID           string          `json:"id"`
	Label        string          `json:"label"`
	Type         models.StepType `json:"type"`
	DepartmentID *string         `json:"department_id"`
	RoleID       *string         `json:"role_id"`
	YesTargetID  *string         `json:"yes_target_id"`
	NoTargetID   *string         `json:"no_target_id"`
}

// EncodeSteps converts resolved steps into their durable records. It fails
// when any step still carries a draft reference.
func EncodeSteps(steps []*models.Step) ([]StepRecord, error) {
	records := make([]StepRecord, 0, len(steps))

	for _, step := range steps {
		if step.Department.IsDraft() || step.Role.IsDraft() {
			return nil, fmt.Errorf("step %q: %w", step.ID, ErrDraftInPersistedStep)
		}

		records = append(records, StepRecord{
			ID:           step.ID,
			Label:        step.Label,
			Type:         step.Type,
			DepartmentID: optionalID(step.Department.ID()),
			RoleID:       optionalID(step.Role.ID()),
			YesTargetID:  optionalID(step.YesTargetID),
			NoTargetID:   optionalID(step.NoTargetID),
		})
	}

	return records, nil
}

// DecodeSteps converts durable records back into model steps.
func DecodeSteps(records []StepRecord) []*models.Step {
	steps := make([]*models.Step, 0, len(records))

	for _, record := range records {
		step := &models.Step{
			ID:          record.ID,
			Label:       record.Label,
			Type:        record.Type,
			YesTargetID: stringValue(record.YesTargetID),
			NoTargetID:  stringValue(record.NoTargetID),
		}

		if record.DepartmentID != nil {
			step.Department = models.ResolvedRef(*record.DepartmentID)
		}

		if record.RoleID != nil {
			step.Role = models.ResolvedRef(*record.RoleID)
		}

		steps = append(steps, step)
	}

	return steps
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}

	return &id
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
