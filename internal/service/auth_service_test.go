package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-intake/internal/auth"
	"github.com/spec-kit/project-intake/internal/config"
	"github.com/spec-kit/project-intake/internal/domain"
	"github.com/spec-kit/project-intake/internal/repository/memstore"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

type failingProfiles struct {
	*memstore.Profiles
}

func (failingProfiles) Create(context.Context, *domain.Principal) error {
	return apperrors.NewStoreError(apperrors.StorePermission, errors.New("denied"))
}

func TestSignUpSignInSignOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resolver := auth.NewResolver(h.tokens, h.sessions, h.profiles)

	signedUp, err := h.Auth.SignUp(ctx, "Alice", " Alice@X.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, signedUp.Principal.Role)
	assert.Equal(t, "alice@x.com", signedUp.Principal.Email)

	_, err = h.Auth.SignUp(ctx, "Alice", "alice@x.com", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = h.Auth.SignIn(ctx, "alice@x.com", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	_, err = h.Auth.SignIn(ctx, "nobody@x.com", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	signedIn, err := h.Auth.SignIn(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)

	principal, session, err := resolver.Resolve(ctx, signedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, signedUp.Principal.ID, principal.ID)

	require.NoError(t, h.Auth.SignOut(ctx, session.ID))
	_, _, err = resolver.Resolve(ctx, signedIn.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	// The sign-up session is independent of the signed-out one.
	_, _, err = resolver.Resolve(ctx, signedUp.Token)
	assert.NoError(t, err)
}

func TestSignUp_Validation(t *testing.T) {
	h := newHarness(t)
	_, err := h.Auth.SignUp(context.Background(), "", "not-an-email", "123")
	require.ErrorIs(t, err, apperrors.ErrValidation)
	details := apperrors.ToDomainError(err).Details
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
	assert.Equal(t, 0, h.accounts.Len())
}

func TestSignIn_MissingProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.principal(t, "Dev", "d@x.com", domain.RoleDeveloper)
	h.profiles.Delete(p.ID)

	_, err := h.Auth.SignIn(ctx, "d@x.com", "password")
	assert.ErrorIs(t, err, apperrors.ErrRoleResolution)
}

func TestCreateDeveloper(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.principal(t, "Admin", "admin@x.com", domain.RoleAdmin)
	client := h.principal(t, "A", "a@x.com", domain.RoleClient)

	_, err := h.Auth.CreateDeveloper(ctx, client, NewDeveloperInput{Name: "Dev", Email: "d@x.com", TemporaryPassword: "temp123"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	dev, err := h.Auth.CreateDeveloper(ctx, admin, NewDeveloperInput{Name: "Dev", Email: "d@x.com", TemporaryPassword: "temp123"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDeveloper, dev.Role)

	roster, err := h.Auth.ListDevelopers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, dev.ID, roster[0].ID)

	_, err = h.Auth.ListDevelopers(ctx, client)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	signedIn, err := h.Auth.SignIn(ctx, "d@x.com", "temp123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDeveloper, signedIn.Principal.Role)
}

func TestCreateDeveloper_RollsBackAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.principal(t, "Admin", "admin@x.com", domain.RoleAdmin)
	before := h.accounts.Len()

	svc := NewAuthService(config.AuthConfig{BcryptCost: 4, MinPasswordLength: 6}, AuthDependencies{
		AccountRepo:  h.accounts,
		ProfileRepo:  failingProfiles{h.profiles},
		SessionStore: h.sessions,
		TokenManager: h.tokens,
	})

	_, err := svc.CreateDeveloper(ctx, admin, NewDeveloperInput{Name: "Dev", Email: "d@x.com", TemporaryPassword: "temp123"})
	require.Error(t, err)
	kind, ok := apperrors.StoreKind(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.StorePermission, kind)

	assert.Equal(t, before, h.accounts.Len())
	_, err = h.accounts.GetByEmail(ctx, "d@x.com")
	assert.True(t, apperrors.IsNotFound(err))
}
