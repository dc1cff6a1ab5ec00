package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-intake/internal/domain"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

func TestCreateProject_ForcesSubmitter(t *testing.T) {
	h := newHarness(t)
	client := h.principal(t, "A", "a@x.com", domain.RoleClient)

	project := h.submit(t, client, "Site")
	assert.Equal(t, int64(1), project.ID)
	assert.Equal(t, "a@x.com", project.SubmitterEmail)
	assert.Equal(t, domain.StatusPending, project.Status)
}

func TestCreateProject_Rejections(t *testing.T) {
	h := newHarness(t)
	client := h.principal(t, "A", "a@x.com", domain.RoleClient)
	admin := h.principal(t, "Admin", "admin@x.com", domain.RoleAdmin)
	ctx := context.Background()

	_, err := h.Projects.CreateProject(ctx, client, domain.ProjectDraft{Title: "Site"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, "required", apperrors.ToDomainError(err).Details["description"])

	_, err = h.Projects.CreateProject(ctx, admin, domain.ProjectDraft{Title: "Site", Type: "Web", Description: "d"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGetProject_Visibility(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.principal(t, "A", "a@x.com", domain.RoleClient)
	other := h.principal(t, "B", "b@x.com", domain.RoleClient)
	dev := h.principal(t, "Dev", "d@x.com", domain.RoleDeveloper)
	admin := h.principal(t, "Admin", "admin@x.com", domain.RoleAdmin)
	project := h.submit(t, owner, "Site")

	_, err := h.Projects.GetProject(ctx, owner, project.ID)
	assert.NoError(t, err)
	_, err = h.Projects.GetProject(ctx, admin, project.ID)
	assert.NoError(t, err)
	_, err = h.Projects.GetProject(ctx, other, project.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)
	_, err = h.Projects.GetProject(ctx, dev, project.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)

	_, err = h.Projects.AssignDeveloper(ctx, admin, project.ID, AssignInput{DeveloperEmail: "d@x.com"})
	require.NoError(t, err)
	_, err = h.Projects.GetProject(ctx, dev, project.ID)
	assert.NoError(t, err)

	_, err = h.Projects.GetProject(ctx, admin, 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProjectLifecycleScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	clientA := h.principal(t, "A", "a@x.com", domain.RoleClient)
	clientB := h.principal(t, "B", "b@x.com", domain.RoleClient)
	dev := h.principal(t, "Dev", "d@x.com", domain.RoleDeveloper)
	admin := h.principal(t, "Admin", "admin@x.com", domain.RoleAdmin)

	project := h.submit(t, clientA, "Site")
	require.Equal(t, int64(1), project.ID)

	project, err := h.Projects.AssignDeveloper(ctx, admin, 1, AssignInput{DeveloperEmail: "d@x.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, project.Status)

	project, err = h.Projects.SetStatus(ctx, dev, 1, StatusChangeInput{Status: domain.StatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, project.Status)

	_, err = h.Projects.SetStatus(ctx, clientB, 1, StatusChangeInput{Status: domain.StatusDone})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = h.Projects.SetStatus(ctx, dev, 1, StatusChangeInput{Status: domain.StatusDone})
	require.NoError(t, err)

	_, err = h.Projects.SetStatus(ctx, admin, 1, StatusChangeInput{Status: domain.StatusRejected})
	assert.ErrorIs(t, err, apperrors.ErrTransition)

	_, err = h.Projects.SetStatus(ctx, dev, 1, StatusChangeInput{Status: domain.StatusInProgress, Override: true})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	project, err = h.Projects.SetStatus(ctx, admin, 1, StatusChangeInput{Status: domain.StatusRejected, Override: true})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, project.Status)

	history, err := h.Projects.ListHistory(ctx, clientA, 1)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, domain.ChangeTypeAssignee, history[0].ChangeType)
	assert.Equal(t, "d@x.com", *history[0].NewValue)
	last := history[3]
	assert.True(t, last.Override)
	assert.Equal(t, "Done", *last.OldValue)
	assert.Equal(t, "rejected", *last.NewValue)
	assert.Equal(t, "admin@x.com", last.ActorEmail)
}

func TestAssignDeveloper_Rules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.principal(t, "A", "a@x.com", domain.RoleClient)
	h.principal(t, "Dev", "d@x.com", domain.RoleDeveloper)
	h.principal(t, "Eve", "e@x.com", domain.RoleDeveloper)
	admin := h.principal(t, "Admin", "admin@x.com", domain.RoleAdmin)
	project := h.submit(t, client, "Site")

	_, err := h.Projects.AssignDeveloper(ctx, admin, project.ID, AssignInput{DeveloperEmail: "a@x.com"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssignee)
	_, err = h.Projects.AssignDeveloper(ctx, admin, project.ID, AssignInput{DeveloperEmail: "ghost@x.com"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssignee)
	_, err = h.Projects.AssignDeveloper(ctx, client, project.ID, AssignInput{DeveloperEmail: "d@x.com"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = h.Projects.AssignDeveloper(ctx, admin, project.ID, AssignInput{DeveloperEmail: "D@X.com"})
	require.NoError(t, err)
	dev, err := h.profiles.GetByEmail(ctx, "d@x.com")
	require.NoError(t, err)
	updated, err := h.Projects.SetStatus(ctx, dev, project.ID, StatusChangeInput{Status: domain.StatusInProgress})
	require.NoError(t, err)

	// Reassignment keeps In Progress.
	updated, err = h.Projects.AssignDeveloper(ctx, admin, project.ID, AssignInput{DeveloperEmail: "e@x.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	assert.Equal(t, "e@x.com", *updated.DeveloperEmail)

	reset := domain.StatusApproved
	updated, err = h.Projects.AssignDeveloper(ctx, admin, project.ID, AssignInput{ResetStatus: &reset})
	require.NoError(t, err)
	assert.Nil(t, updated.DeveloperEmail)
	assert.Equal(t, domain.StatusApproved, updated.Status)
}

func TestSetStatus_VersionConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.principal(t, "A", "a@x.com", domain.RoleClient)
	admin := h.principal(t, "Admin", "admin@x.com", domain.RoleAdmin)
	project := h.submit(t, client, "Site")

	updated, err := h.Projects.SetStatus(ctx, admin, project.ID, StatusChangeInput{Status: domain.StatusReviewing, ExpectedVersion: project.Version})
	require.NoError(t, err)
	assert.Equal(t, project.Version+1, updated.Version)

	_, err = h.Projects.SetStatus(ctx, admin, project.ID, StatusChangeInput{Status: domain.StatusApproved, ExpectedVersion: project.Version})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	same, err := h.Projects.SetStatus(ctx, admin, project.ID, StatusChangeInput{Status: domain.StatusReviewing})
	require.NoError(t, err)
	assert.Equal(t, updated.Version, same.Version)
}

func TestDashboard_RoleScopedAndOrdered(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	clientA := h.principal(t, "A", "a@x.com", domain.RoleClient)
	clientB := h.principal(t, "B", "b@x.com", domain.RoleClient)
	dev := h.principal(t, "Dev", "d@x.com", domain.RoleDeveloper)
	admin := h.principal(t, "Admin", "admin@x.com", domain.RoleAdmin)

	h.submit(t, clientA, "one")
	h.submit(t, clientB, "two")
	third := h.submit(t, clientA, "three")
	_, err := h.Projects.AssignDeveloper(ctx, admin, third.ID, AssignInput{DeveloperEmail: dev.Email})
	require.NoError(t, err)

	view, err := h.Dashboard.BuildView(ctx, clientA)
	require.NoError(t, err)
	require.Len(t, view.Projects, 2)
	assert.Equal(t, int64(3), view.Projects[0].ID)
	assert.Empty(t, view.Developers)

	view, err = h.Dashboard.BuildView(ctx, dev)
	require.NoError(t, err)
	require.Len(t, view.Projects, 1)
	assert.Equal(t, "three", view.Projects[0].Title)

	view, err = h.Dashboard.BuildView(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, view.Projects, 3)
	require.Len(t, view.Developers, 1)
	assert.Equal(t, "d@x.com", view.Developers[0].Email)

	_, err = h.Dashboard.BuildView(ctx, &domain.Principal{Email: "x@x.com", Role: "guest"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
