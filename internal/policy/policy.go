// Package policy decides whether a principal may perform an operation on a
// project. It has no I/O; callers resolve everything it needs up front.
package policy

import (
	"github.com/spec-kit/project-intake/internal/domain"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

// Operation names a guarded action.
type Operation string

const (
	OpRead            Operation = "read"
	OpCreate          Operation = "create"
	OpAssignDeveloper Operation = "assign_developer"
	OpSetStatus       Operation = "set_status"
)

// Reason explains a denial.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNotOwner        Reason = "NOT_OWNER"
	ReasonForbidden       Reason = "FORBIDDEN"
	ReasonInvalidAssignee Reason = "INVALID_ASSIGNEE"
)

// Request describes the attempted operation.
type Request struct {
	Operation Operation
	// TargetStatus is required for OpSetStatus.
	TargetStatus domain.ProjectStatus
	// Assignee is the resolved target principal for OpAssignDeveloper. Nil
	// together with ClearAssignee removes the assignment.
	Assignee      *domain.Principal
	ClearAssignee bool
}

// Decision is the policy verdict.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason Reason) Decision { return Decision{Reason: reason} }

// Authorize evaluates the rules in order. project may be nil for OpCreate.
func Authorize(principal *domain.Principal, project *domain.Project, req Request) Decision {
	if principal == nil {
		return deny(ReasonForbidden)
	}
	if _, ok := domain.ParseRole(string(principal.Role)); !ok {
		return deny(ReasonForbidden)
	}

	switch req.Operation {
	case OpCreate:
		if principal.Role == domain.RoleClient {
			return allow()
		}
		return deny(ReasonForbidden)

	case OpRead:
		if project == nil {
			return deny(ReasonNotOwner)
		}
		switch principal.Role {
		case domain.RoleAdmin:
			return allow()
		case domain.RoleClient:
			if project.SubmitterEmail == principal.Email {
				return allow()
			}
		case domain.RoleDeveloper:
			if project.AssignedTo(principal.Email) {
				return allow()
			}
		}
		return deny(ReasonNotOwner)

	case OpAssignDeveloper:
		if principal.Role != domain.RoleAdmin {
			return deny(ReasonForbidden)
		}
		if req.ClearAssignee && req.Assignee == nil {
			return allow()
		}
		if req.Assignee == nil || req.Assignee.Role != domain.RoleDeveloper {
			return deny(ReasonInvalidAssignee)
		}
		return allow()

	case OpSetStatus:
		if project == nil {
			return deny(ReasonForbidden)
		}
		switch principal.Role {
		case domain.RoleAdmin:
			return allow()
		case domain.RoleDeveloper:
			if project.AssignedTo(principal.Email) && req.TargetStatus.DeveloperSettable() {
				return allow()
			}
		}
		return deny(ReasonForbidden)
	}
	return deny(ReasonForbidden)
}

// Err converts a denial into the matching domain error. It returns nil for
// an allowed decision.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonNotOwner:
		return apperrors.NewNotOwner("project is not visible to this principal")
	case ReasonInvalidAssignee:
		return apperrors.NewInvalidAssignee("assignee must be a developer", nil)
	default:
		return apperrors.NewForbidden("operation not permitted for this role")
	}
}
