package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/project-intake/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProjectCreated       EventType = "project_created"
	EventProjectStatusChanged EventType = "project_status_changed"
	EventProjectAssigned      EventType = "project_assigned"
	EventDeveloperCreated     EventType = "developer_created"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// ActorOf builds the event actor for a principal.
func ActorOf(p domain.Principal) Actor {
	return Actor{Email: p.Email, Role: p.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ProjectID int64       `json:"project_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, projectID int64, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ProjectID: projectID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// ProjectCreatedPayload payload.
type ProjectCreatedPayload struct {
	Title          string `json:"title"`
	Type           string `json:"type"`
	SubmitterEmail string `json:"submitter_email"`
}

// ProjectStatusChangedPayload payload.
type ProjectStatusChangedPayload struct {
	OldStatus domain.ProjectStatus `json:"old_status"`
	NewStatus domain.ProjectStatus `json:"new_status"`
	Override  bool                 `json:"override"`
}

// ProjectAssignedPayload payload. A status reset travels with the assignment.
type ProjectAssignedPayload struct {
	OldDeveloper *string              `json:"old_developer,omitempty"`
	NewDeveloper *string              `json:"new_developer,omitempty"`
	OldStatus    domain.ProjectStatus `json:"old_status"`
	NewStatus    domain.ProjectStatus `json:"new_status"`
	StatusReset  bool                 `json:"status_reset"`
}

// DeveloperCreatedPayload payload.
type DeveloperCreatedPayload struct {
	DeveloperID string `json:"developer_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
}
