// Package web provides HTTP request and response types for the process API.
package web

import "github.com/orgflowhq/orgflow/pkg/models"

// StepPayload is the wire form of one step. Department and role references
// are flattened: a persisted id, a draft name, or neither. When a payload
// carries both an id and a draft name the id wins.
type StepPayload struct {
	ID                  string `json:"id"                              validate:"required"`
	Label               string `json:"label"`
	Type                string `json:"type"                            validate:"required,oneof=start action decision finish"`
	DepartmentID        string `json:"department_id,omitempty"`
	DraftDepartmentName string `json:"draft_department_name,omitempty"`
	RoleID              string `json:"role_id,omitempty"`
	DraftRoleName       string `json:"draft_role_name,omitempty"`
	YesTargetID         string `json:"yes_target_id,omitempty"`
	NoTargetID          string `json:"no_target_id,omitempty"`
}

// ToModel converts the payload into the domain step.
func (p StepPayload) ToModel() *models.Step {
	return &models.Step{
		ID:          p.ID,
		Label:       p.Label,
		Type:        models.StepType(p.Type),
		Department:  toRef(p.DepartmentID, p.DraftDepartmentName),
		Role:        toRef(p.RoleID, p.DraftRoleName),
		YesTargetID: p.YesTargetID,
		NoTargetID:  p.NoTargetID,
	}
}

func toRef(id, draft string) models.EntityRef {
	if id != "" {
		return models.ResolvedRef(id)
	}

	return models.DraftRef(draft)
}

// StepPayloadFromModel converts a domain step back into its wire form.
func StepPayloadFromModel(step *models.Step) StepPayload {
	return StepPayload{
		ID:                  step.ID,
		Label:               step.Label,
		Type:                string(step.Type),
		DepartmentID:        step.Department.ID(),
		DraftDepartmentName: step.Department.DraftName(),
		RoleID:              step.Role.ID(),
		DraftRoleName:       step.Role.DraftName(),
		YesTargetID:         step.YesTargetID,
		NoTargetID:          step.NoTargetID,
	}
}

// SaveProcessRequest represents the request body for creating or replacing a
// process.
type SaveProcessRequest struct {
	Title string        `json:"title" validate:"required,min=1,max=120"`
	Steps []StepPayload `json:"steps" validate:"required,min=2,dive"`
}

// StepModels converts the request's step payloads to domain steps.
func (r SaveProcessRequest) StepModels() []*models.Step {
	steps := make([]*models.Step, 0, len(r.Steps))
	for _, payload := range r.Steps {
		steps = append(steps, payload.ToModel())
	}

	return steps
}

// CreateDepartmentRequest represents the request body for creating a
// department directly through the directory API.
type CreateDepartmentRequest struct {
	Name  string `json:"name"            validate:"required,min=1,max=120"`
	Color string `json:"color,omitempty" validate:"omitempty,hexadecimal,len=6"`
}

// CreateRoleRequest represents the request body for creating a role.
type CreateRoleRequest struct {
	Name  string `json:"name"            validate:"required,min=1,max=120"`
	Color string `json:"color,omitempty" validate:"omitempty,hexadecimal,len=6"`
}

// ProcessResponse is the wire form of a whole process record.
type ProcessResponse struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organization_id"`
	Title          string        `json:"title"`
	Steps          []StepPayload `json:"steps"`
	CreatedAt      string        `json:"created_at"`
	UpdatedAt      string        `json:"updated_at"`
}

// TransformProcessResponse converts a process into its wire form.
func TransformProcessResponse(process *models.Process) ProcessResponse {
	steps := make([]StepPayload, 0, len(process.Steps))
	for _, step := range process.Steps {
		steps = append(steps, StepPayloadFromModel(step))
	}

	return ProcessResponse{
		ID:             process.ID,
		OrganizationID: process.OrganizationID,
		Title:          process.Title,
		Steps:          steps,
		CreatedAt:      process.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:      process.UpdatedAt.UTC().Format(timeLayout),
	}
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
