package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/project-intake/internal/domain"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

var (
	admin     = &domain.Principal{ID: "a", Email: "admin@x.com", Role: domain.RoleAdmin}
	client    = &domain.Principal{ID: "c", Email: "a@x.com", Role: domain.RoleClient}
	other     = &domain.Principal{ID: "o", Email: "b@x.com", Role: domain.RoleClient}
	developer = &domain.Principal{ID: "d", Email: "d@x.com", Role: domain.RoleDeveloper}
	stranger  = &domain.Principal{ID: "s", Email: "e@x.com", Role: domain.RoleDeveloper}
)

func project(dev *string) *domain.Project {
	return &domain.Project{ID: 1, SubmitterEmail: "a@x.com", DeveloperEmail: dev, Status: domain.StatusPending}
}

func ptr(s string) *string { return &s }

func TestAuthorize_Read(t *testing.T) {
	p := project(ptr("d@x.com"))
	cases := []struct {
		name      string
		principal *domain.Principal
		allowed   bool
		reason    Reason
	}{
		{"admin", admin, true, ReasonNone},
		{"submitter", client, true, ReasonNone},
		{"other client", other, false, ReasonNotOwner},
		{"assigned developer", developer, true, ReasonNone},
		{"unassigned developer", stranger, false, ReasonNotOwner},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Authorize(tc.principal, p, Request{Operation: OpRead})
			assert.Equal(t, tc.allowed, d.Allowed)
			assert.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestAuthorize_CreateClientOnly(t *testing.T) {
	assert.True(t, Authorize(client, nil, Request{Operation: OpCreate}).Allowed)
	assert.False(t, Authorize(developer, nil, Request{Operation: OpCreate}).Allowed)
	assert.False(t, Authorize(admin, nil, Request{Operation: OpCreate}).Allowed)
}

func TestAuthorize_AssignDeveloper(t *testing.T) {
	p := project(nil)

	assert.True(t, Authorize(admin, p, Request{Operation: OpAssignDeveloper, Assignee: developer}).Allowed)
	assert.True(t, Authorize(admin, p, Request{Operation: OpAssignDeveloper, ClearAssignee: true}).Allowed)

	d := Authorize(admin, p, Request{Operation: OpAssignDeveloper, Assignee: client})
	assert.Equal(t, Decision{Reason: ReasonInvalidAssignee}, d)
	assert.ErrorIs(t, d.Err(), apperrors.ErrInvalidAssignee)

	d = Authorize(admin, p, Request{Operation: OpAssignDeveloper})
	assert.Equal(t, ReasonInvalidAssignee, d.Reason)

	for _, principal := range []*domain.Principal{client, developer} {
		d := Authorize(principal, p, Request{Operation: OpAssignDeveloper, Assignee: developer})
		assert.Equal(t, ReasonForbidden, d.Reason)
	}
}

func TestAuthorize_SetStatus(t *testing.T) {
	assigned := project(ptr("d@x.com"))
	unassigned := project(nil)

	for _, status := range domain.AllStatuses {
		assert.True(t, Authorize(admin, unassigned, Request{Operation: OpSetStatus, TargetStatus: status}).Allowed, status)
		assert.False(t, Authorize(client, assigned, Request{Operation: OpSetStatus, TargetStatus: status}).Allowed, status)
		assert.False(t, Authorize(stranger, assigned, Request{Operation: OpSetStatus, TargetStatus: status}).Allowed, status)

		devAllowed := Authorize(developer, assigned, Request{Operation: OpSetStatus, TargetStatus: status}).Allowed
		assert.Equal(t, status.DeveloperSettable(), devAllowed, status)
	}

	d := Authorize(developer, assigned, Request{Operation: OpSetStatus, TargetStatus: domain.StatusApproved})
	assert.ErrorIs(t, d.Err(), apperrors.ErrForbidden)
}

// Clients can never mutate, whatever the project looks like.
func TestAuthorize_ClientsNeverMutate(t *testing.T) {
	own := project(ptr("d@x.com"))
	for _, op := range []Operation{OpAssignDeveloper, OpSetStatus} {
		for _, status := range domain.AllStatuses {
			d := Authorize(client, own, Request{Operation: op, TargetStatus: status, Assignee: developer})
			assert.False(t, d.Allowed)
		}
	}
}

func TestAuthorize_UnknownRole(t *testing.T) {
	ghost := &domain.Principal{Email: "a@x.com", Role: "superuser"}
	d := Authorize(ghost, project(nil), Request{Operation: OpRead})
	assert.Equal(t, ReasonForbidden, d.Reason)
	assert.Equal(t, ReasonForbidden, Authorize(nil, project(nil), Request{Operation: OpRead}).Reason)
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, allow().Err())
	assert.ErrorIs(t, deny(ReasonNotOwner).Err(), apperrors.ErrNotOwner)
}
