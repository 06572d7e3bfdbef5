package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/orgflowhq/orgflow/pkg/eventbus"
	"github.com/orgflowhq/orgflow/pkg/events"
	"github.com/orgflowhq/orgflow/pkg/models"
	"github.com/orgflowhq/orgflow/pkg/persistence"
)

// Directory implements the department and role operations outside the save
// pipeline: listing the directory and creating entries one at a time.
type Directory struct {
	persistence persistence.Persistence
	bus         eventbus.EventBus
	logger      *slog.Logger
}

// NewDirectory creates the directory service. The event bus may be nil.
func NewDirectory(p persistence.Persistence, bus eventbus.EventBus, logger *slog.Logger) *Directory {
	return &Directory{
		persistence: p,
		bus:         bus,
		logger:      logger.With("module", "services"),
	}
}

// ListDepartments returns the organization's departments.
func (s *Directory) ListDepartments(ctx context.Context, organizationID, actorID string) ([]*models.Department, error) {
	if _, err := s.authorize(ctx, organizationID, actorID, false); err != nil {
		return nil, err
	}

	return s.persistence.Departments().ListDepartments(ctx, organizationID)
}

// ListRoles returns the roles of one department after checking it belongs to
// the organization.
func (s *Directory) ListRoles(ctx context.Context, organizationID, departmentID, actorID string) ([]*models.Role, error) {
	if _, err := s.authorize(ctx, organizationID, actorID, false); err != nil {
		return nil, err
	}

	if _, err := s.departmentInOrganization(ctx, organizationID, departmentID); err != nil {
		return nil, err
	}

	return s.persistence.Roles().ListRoles(ctx, departmentID)
}

// CreateDepartment creates one department. The name is kept as spelled;
// uniqueness is enforced on the normalized form and surfaces as a conflict.
func (s *Directory) CreateDepartment(ctx context.Context, organizationID, actorID, name, color string) (*models.Department, error) {
	if _, err := s.authorize(ctx, organizationID, actorID, true); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	if color == "" {
		color = models.ColorForName(name)
	}

	created, err := s.persistence.Departments().BatchCreateDepartments(ctx, organizationID, []persistence.DepartmentRow{
		{Name: name, Color: color},
	})
	if err != nil {
		return nil, err
	}

	department := created[0]

	s.publish(ctx, department.ID, events.DepartmentCreated{
		BaseEvent: s.baseEvent(events.DepartmentCreatedEvent, organizationID),

		DepartmentID: department.ID,
		Name:         department.Name,
	})

	return department, nil
}

// CreateRole creates one role under an existing department of the
// organization.
func (s *Directory) CreateRole(ctx context.Context, organizationID, departmentID, actorID, name, color string) (*models.Role, error) {
	if _, err := s.authorize(ctx, organizationID, actorID, true); err != nil {
		return nil, err
	}

	if _, err := s.departmentInOrganization(ctx, organizationID, departmentID); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	if color == "" {
		color = models.ColorForName(name)
	}

	created, err := s.persistence.Roles().BatchCreateRoles(ctx, []persistence.RoleRow{
		{DepartmentID: departmentID, Name: name, Color: color},
	})
	if err != nil {
		return nil, err
	}

	role := created[0]

	s.publish(ctx, role.ID, events.RoleCreated{
		BaseEvent: s.baseEvent(events.RoleCreatedEvent, organizationID),

		RoleID:       role.ID,
		DepartmentID: role.DepartmentID,
		Name:         role.Name,
	})

	return role, nil
}

func (s *Directory) authorize(ctx context.Context, organizationID, actorID string, manage bool) (*models.Organization, error) {
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

// departmentInOrganization resolves a department id within the organization's
// directory, rejecting ids that exist elsewhere.
func (s *Directory) departmentInOrganization(ctx context.Context, organizationID, departmentID string) (*models.Department, error) {
	departments, err := s.persistence.Departments().ListDepartments(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	for _, department := range departments {
		if department.ID == departmentID {
			return department, nil
		}
	}

	return nil, fmt.Errorf("department %s: %w", departmentID, persistence.ErrDepartmentNotFound)
}

func (s *Directory) baseEvent(eventType events.EventType, organizationID string) events.BaseEvent {
	if s.bus == nil {
		return events.BaseEvent{}
	}

	return events.BaseEvent{
		ID:             s.bus.GenerateID(),
		Type:           eventType,
		Timestamp:      time.Now().UTC(),
		OrganizationID: organizationID,
	}
}

func (s *Directory) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.bus == nil {
		return
	}

	if err := s.bus.Publish(ctx, key, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish directory event", "error", err)
	}
}
