package domain

import "time"

// ProjectChangeType captures what changed in a history entry.
type ProjectChangeType string

const (
	ChangeTypeStatus   ProjectChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee ProjectChangeType = "ASSIGNEE_CHANGE"
)

// ProjectHistory is an immutable audit trail entry.
type ProjectHistory struct {
	ID         int64
	ProjectID  int64
	ActorEmail string
	ChangeType ProjectChangeType
	OldValue   *string
	NewValue   *string
	Override   bool
	InsertedAt time.Time
}
