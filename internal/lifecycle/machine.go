// Package lifecycle validates project status transitions and assignment
// changes against the unified status set.
package lifecycle

import (
	"go.uber.org/zap"

	"github.com/spec-kit/project-intake/internal/domain"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

var transitions = map[domain.ProjectStatus][]domain.ProjectStatus{
	domain.StatusPending:    {domain.StatusReviewing, domain.StatusApproved, domain.StatusRejected, domain.StatusInProgress},
	domain.StatusReviewing:  {domain.StatusApproved, domain.StatusRejected, domain.StatusInProgress},
	domain.StatusApproved:   {domain.StatusRejected, domain.StatusInProgress},
	domain.StatusInProgress: {domain.StatusDone},
	domain.StatusDone:       nil,
	domain.StatusRejected:   nil,
}

// Allowed reports whether from -> to is in the non-override table.
func Allowed(from, to domain.ProjectStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Next lists the statuses reachable from from without override.
func Next(from domain.ProjectStatus) []domain.ProjectStatus {
	out := make([]domain.ProjectStatus, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

// Transition describes an applied status change.
type Transition struct {
	From     domain.ProjectStatus
	To       domain.ProjectStatus
	Override bool
	NoOp     bool
}

// Assignment describes an applied developer change.
type Assignment struct {
	From        *string
	To          *string
	StatusFrom  domain.ProjectStatus
	StatusTo    domain.ProjectStatus
	StatusReset bool
	NoOp        bool
}

// Machine applies lifecycle rules. It never touches storage.
type Machine struct {
	logger *zap.Logger
}

// NewMachine builds a state machine that logs override paths to logger.
func NewMachine(logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{logger: logger}
}

// Apply validates requested against the project's current status and the
// actor, returning the updated copy.
func (m *Machine) Apply(project domain.Project, requested domain.ProjectStatus, actor domain.Principal, override bool) (domain.Project, Transition, error) {
	from := project.Status
	result := Transition{From: from, To: requested}

	if !requested.Valid() {
		return project, result, apperrors.NewTransitionError("unknown status", map[string]any{
			"status": string(requested),
		})
	}
	if override && !actor.IsAdmin() {
		return project, result, apperrors.NewForbidden("only an admin may override the lifecycle")
	}
	if from == requested {
		result.NoOp = true
		return project, result, nil
	}

	details := map[string]any{"from": string(from), "to": string(requested)}

	if requested.Lane() == domain.LaneExecution && !project.HasDeveloper() {
		return project, result, apperrors.NewTransitionError("no developer assigned", details)
	}
	// Override only reopens a terminal project. A live project goes through
	// the table whatever the flag says.
	if override && from.IsTerminal() {
		m.logger.Warn("lifecycle override",
			zap.Int64("project_id", project.ID),
			zap.String("actor", actor.Email),
			zap.String("from", string(from)),
			zap.String("to", string(requested)),
		)
		project.Status = requested
		result.Override = true
		return project, result, nil
	}

	if from.IsTerminal() {
		return project, result, apperrors.NewTransitionError("project is in a terminal state", details)
	}
	if !Allowed(from, requested) {
		return project, result, apperrors.NewTransitionError("transition not allowed", details)
	}

	switch requested.Lane() {
	case domain.LaneTriage:
		if !actor.IsAdmin() {
			return project, result, apperrors.NewForbidden("triage decisions require an admin")
		}
	case domain.LaneExecution:
		if !actor.IsAdmin() && !project.AssignedTo(actor.Email) {
			return project, result, apperrors.NewForbidden("only the assigned developer may move execution status")
		}
	}

	project.Status = requested
	return project, result, nil
}

// Assign changes the developer on a non-terminal project. Status is kept
// unless reset names Pending, Reviewing or Approved.
func (m *Machine) Assign(project domain.Project, developerEmail *string, actor domain.Principal, reset *domain.ProjectStatus) (domain.Project, Assignment, error) {
	result := Assignment{
		From:       project.DeveloperEmail,
		StatusFrom: project.Status,
		StatusTo:   project.Status,
	}
	if developerEmail != nil && *developerEmail == "" {
		developerEmail = nil
	}
	result.To = developerEmail

	if !actor.IsAdmin() {
		return project, result, apperrors.NewForbidden("only an admin may assign developers")
	}
	if project.Status.IsTerminal() {
		return project, result, apperrors.NewTransitionError("cannot reassign a project in a terminal state", map[string]any{
			"status": string(project.Status),
		})
	}
	if reset != nil {
		if !reset.Valid() || reset.IsTerminal() || reset.Lane() != domain.LaneTriage {
			return project, result, apperrors.NewTransitionError("reset status must be Pending, reviewing or approved", map[string]any{
				"reset_status": string(*reset),
			})
		}
	}

	sameDeveloper := equalEmail(project.DeveloperEmail, developerEmail)
	if sameDeveloper && (reset == nil || *reset == project.Status) {
		result.NoOp = true
		return project, result, nil
	}

	if developerEmail == nil {
		project.DeveloperEmail = nil
	} else {
		dev := *developerEmail
		project.DeveloperEmail = &dev
	}
	if reset != nil && *reset != project.Status {
		m.logger.Info("status reset on reassignment",
			zap.Int64("project_id", project.ID),
			zap.String("actor", actor.Email),
			zap.String("from", string(project.Status)),
			zap.String("to", string(*reset)),
		)
		project.Status = *reset
		result.StatusTo = *reset
		result.StatusReset = true
	}
	return project, result, nil
}

func equalEmail(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
