// Package events defines the event types published when process and
// directory records change.
package events

import (
	"time"
)

type EventType string

// Topic carries all orgflow lifecycle events.
const Topic = "orgflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ProcessSavedEvent      EventType = "process.saved"
	ProcessDeletedEvent    EventType = "process.deleted"
	DepartmentCreatedEvent EventType = "department.created"
	RoleCreatedEvent       EventType = "role.created"
)

type BaseEvent struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	OrganizationID string    `json:"organization_id"`
}

// ProcessSaved is published after a process record is written, including
// the entities materialized from drafts during the save.
type ProcessSaved struct {
	BaseEvent

	ProcessID            string   `json:"process_id"`
	Title                string   `json:"title"`
	StepCount            int      `json:"step_count"`
	CreatedDepartmentIDs []string `json:"created_department_ids,omitempty"`
	CreatedRoleIDs       []string `json:"created_role_ids,omitempty"`
}

func (e ProcessSaved) GetType() EventType {
	return ProcessSavedEvent
}

// ProcessDeleted is published after a process record is removed.
type ProcessDeleted struct {
	BaseEvent

	ProcessID string `json:"process_id"`
}

func (e ProcessDeleted) GetType() EventType {
	return ProcessDeletedEvent
}

// DepartmentCreated is published for each department created directly
// through the directory API (drafts materialized during a save are reported
// on ProcessSaved instead).
type DepartmentCreated struct {
	BaseEvent

	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
}

func (e DepartmentCreated) GetType() EventType {
	return DepartmentCreatedEvent
}

// RoleCreated is published for each role created directly through the
// directory API.
type RoleCreated struct {
	BaseEvent

	RoleID       string `json:"role_id"`
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
}

func (e RoleCreated) GetType() EventType {
	return RoleCreatedEvent
}
