package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/orgflowhq/orgflow/pkg/eventbus"
	"github.com/orgflowhq/orgflow/pkg/events"
	"github.com/orgflowhq/orgflow/pkg/models"
	"github.com/orgflowhq/orgflow/pkg/otelhelper"
	"github.com/orgflowhq/orgflow/pkg/persistence"
	"github.com/orgflowhq/orgflow/pkg/resolve"
)

// Process implements the process operations: list, fetch, save, delete.
// Save is the unit of consistency: it authorizes, validates, resolves
// drafts and writes the whole record, in that order, and publishes a
// lifecycle event on success.
type Process struct {
	persistence persistence.Persistence
	resolver    *resolve.Engine
	bus         eventbus.EventBus
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewProcess creates the process service. The event bus may be nil; events
// are then skipped.
func NewProcess(p persistence.Persistence, bus eventbus.EventBus, logger *slog.Logger) *Process {
	return &Process{
		persistence: p,
		resolver:    resolve.NewEngine(p.Departments(), p.Roles(), logger),
		bus:         bus,
		tracer:      otel.Tracer("orgflow/services"),
		logger:      logger.With("module", "services"),
	}
}

// SaveRequest carries one whole-process save.
type SaveRequest struct {
	OrganizationID string
	ActorID        string

	// ProcessID is empty for a first save and set for updates.
	ProcessID string

	Title string
	Steps []*models.Step
}

// Save runs the save pipeline.
//
// Order matters: authorization is checked before any resolution work,
// validation and reference integrity before any persistence write, and the
// resolved step list - never the draft-bearing input - is what gets
// persisted. A conflict from the resolution batches aborts the save with
// nothing partially applied to the process record; re-running the save
// resolves against the updated directory and is safe.
func (s *Process) Save(ctx context.Context, req SaveRequest) (*models.Process, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "process.save",
		attribute.String(otelhelper.OrganizationIDKey, req.OrganizationID),
		attribute.String(otelhelper.ProcessIDKey, req.ProcessID),
		attribute.Int(otelhelper.StepCountKey, len(req.Steps)),
	)
	defer span.End()

	organization, err := s.authorize(ctx, req.OrganizationID, req.ActorID, true)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := validateSave(req); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := s.checkReferences(ctx, organization.ID, req.Steps); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	var createdAt time.Time

	if req.ProcessID != "" {
		existing, err := s.persistence.Processes().ProcessByID(ctx, req.ProcessID)
		if err != nil {
			otelhelper.SetError(span, err)

			return nil, err
		}

		if existing.OrganizationID != organization.ID {
			err := fmt.Errorf("process %s: %w", req.ProcessID, ErrForbidden)
			otelhelper.SetError(span, err)

			return nil, err
		}

		createdAt = existing.CreatedAt
	}

	resolveCtx, resolveSpan := otelhelper.StartSpan(ctx, s.tracer, "process.resolve_drafts")

	resolution, err := s.resolver.Resolve(resolveCtx, organization.ID, req.Steps)
	if err != nil {
		otelhelper.SetError(resolveSpan, err)
		resolveSpan.End()
		otelhelper.SetError(span, err)

		return nil, err
	}

	resolveSpan.SetAttributes(
		attribute.Int(otelhelper.CreatedDeptsKey, len(resolution.CreatedDepartments)),
		attribute.Int(otelhelper.CreatedRolesKey, len(resolution.CreatedRoles)),
	)
	resolveSpan.End()

	process := &models.Process{
		ID:             req.ProcessID,
		OrganizationID: organization.ID,
		Title:          req.Title,
		Steps:          resolution.Steps,
		CreatedAt:      createdAt,
	}

	if err := s.persistence.Processes().SaveProcess(ctx, process); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save process: %w", err)
	}

	s.publishSaved(ctx, process, resolution)

	return process, nil
}

// List returns the organization's processes, newest first.
func (s *Process) List(ctx context.Context, organizationID, actorID string) ([]*models.Process, error) {
	if _, err := s.authorize(ctx, organizationID, actorID, false); err != nil {
		return nil, err
	}

	return s.persistence.Processes().ListProcesses(ctx, organizationID)
}

// Fetch returns one process after checking the actor can read its
// organization.
func (s *Process) Fetch(ctx context.Context, processID, actorID string) (*models.Process, error) {
	process, err := s.persistence.Processes().ProcessByID(ctx, processID)
	if err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, process.OrganizationID, actorID, false); err != nil {
		return nil, err
	}

	return process, nil
}

// Delete removes a process.
func (s *Process) Delete(ctx context.Context, processID, actorID string) error {
	process, err := s.persistence.Processes().ProcessByID(ctx, processID)
	if err != nil {
		return err
	}

	if _, err := s.authorize(ctx, process.OrganizationID, actorID, true); err != nil {
		return err
	}

	if err := s.persistence.Processes().DeleteProcess(ctx, processID); err != nil {
		return err
	}

	if s.bus != nil {
		event := events.ProcessDeleted{
			BaseEvent: events.BaseEvent{
				ID:             s.bus.GenerateID(),
				Type:           events.ProcessDeletedEvent,
				Timestamp:      time.Now().UTC(),
				OrganizationID: process.OrganizationID,
			},
			ProcessID: process.ID,
		}

		if err := s.bus.Publish(ctx, process.ID, event); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish process deleted event", "error", err)
		}
	}

	return nil
}

// authorize loads the organization and checks the actor's access level.
func (s *Process) authorize(ctx context.Context, organizationID, actorID string, manage bool) (*models.Organization, error) {
	organization, err := s.persistence.Organizations().OrganizationByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	allowed := organization.AccessibleBy(actorID)
	if manage {
		allowed = organization.ManageableBy(actorID)
	}

	if !allowed {
		return nil, fmt.Errorf("organization %s: %w", organizationID, ErrForbidden)
	}

	return organization, nil
}

func validateSave(req SaveRequest) error {
	process := models.Process{Title: req.Title, Steps: req.Steps}

	return process.Validate()
}

// checkReferences verifies that every persisted id the steps carry exists
// within the organization and that role references sit under the step's
// department. Drafts are resolved later; dangling branch targets are the
// branch resolver's business and deliberately not checked here.
func (s *Process) checkReferences(ctx context.Context, organizationID string, steps []*models.Step) error {
	departments, err := s.persistence.Departments().ListDepartments(ctx, organizationID)
	if err != nil {
		return fmt.Errorf("failed to list departments: %w", err)
	}

	known := make(map[string]bool, len(departments))
	roles := make(map[string]*models.Role)

	for _, department := range departments {
		known[department.ID] = true

		departmentRoles, err := s.persistence.Roles().ListRoles(ctx, department.ID)
		if err != nil {
			return fmt.Errorf("failed to list roles: %w", err)
		}

		for _, role := range departmentRoles {
			roles[role.ID] = role
		}
	}

	for _, step := range steps {
		if step.Department.IsResolved() && !known[step.Department.ID()] {
			return fmt.Errorf("step %q department %s: %w", step.ID, step.Department.ID(), ErrUnknownDepartment)
		}

		if !step.Role.IsResolved() {
			continue
		}

		role, exists := roles[step.Role.ID()]
		if !exists {
			return fmt.Errorf("step %q role %s: %w", step.ID, step.Role.ID(), ErrUnknownRole)
		}

		if !step.Department.IsResolved() || step.Department.ID() != role.DepartmentID {
			return fmt.Errorf("step %q role %s: %w", step.ID, step.Role.ID(), ErrRoleDepartmentMismatch)
		}
	}

	return nil
}

func (s *Process) publishSaved(ctx context.Context, process *models.Process, resolution *resolve.Resolution) {
	if s.bus == nil {
		return
	}

	event := events.ProcessSaved{
		BaseEvent: events.BaseEvent{
			ID:             s.bus.GenerateID(),
			Type:           events.ProcessSavedEvent,
			Timestamp:      time.Now().UTC(),
			OrganizationID: process.OrganizationID,
		},
		ProcessID: process.ID,
		Title:     process.Title,
		StepCount: len(process.Steps),
	}

	for _, department := range resolution.CreatedDepartments {
		event.CreatedDepartmentIDs = append(event.CreatedDepartmentIDs, department.ID)
	}

	for _, role := range resolution.CreatedRoles {
		event.CreatedRoleIDs = append(event.CreatedRoleIDs, role.ID)
	}

	if err := s.bus.Publish(ctx, process.ID, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish process saved event", "error", err)
	}
}
