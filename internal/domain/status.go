package domain

import (
	"fmt"
	"strings"
)

// ProjectStatus is the single status vocabulary shared by triage and execution.
type ProjectStatus string

const (
	StatusPending    ProjectStatus = "Pending"
	StatusReviewing  ProjectStatus = "reviewing"
	StatusApproved   ProjectStatus = "approved"
	StatusRejected   ProjectStatus = "rejected"
	StatusInProgress ProjectStatus = "In Progress"
	StatusDone       ProjectStatus = "Done"
)

// StatusLane tells which phase owns a status.
type StatusLane string

const (
	LaneTriage    StatusLane = "triage"
	LaneExecution StatusLane = "execution"
)

// AllStatuses lists statuses in lifecycle order.
var AllStatuses = []ProjectStatus{
	StatusPending,
	StatusReviewing,
	StatusApproved,
	StatusRejected,
	StatusInProgress,
	StatusDone,
}

// ParseProjectStatus accepts wire values case-insensitively. Empty means Pending.
func ParseProjectStatus(raw string) (ProjectStatus, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return StatusPending, nil
	}
	for _, status := range AllStatuses {
		if strings.EqualFold(trimmed, string(status)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown project status %q", raw)
}

// Valid reports whether s is a member of the unified set.
func (s ProjectStatus) Valid() bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Lane returns the owning phase.
func (s ProjectStatus) Lane() StatusLane {
	if s == StatusInProgress || s == StatusDone {
		return LaneExecution
	}
	return LaneTriage
}

// IsTerminal reports Rejected and Done.
func (s ProjectStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusDone
}

// DeveloperSettable reports the statuses an assigned developer may request.
func (s ProjectStatus) DeveloperSettable() bool {
	return s == StatusInProgress || s == StatusDone
}
