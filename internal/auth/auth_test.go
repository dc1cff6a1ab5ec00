package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-intake/internal/domain"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

type profileMap map[string]domain.Principal

func (m profileMap) GetByID(_ context.Context, id string) (*domain.Principal, error) {
	profile, ok := m[id]
	if !ok {
		return nil, apperrors.NewStoreError(apperrors.StoreNotFound, nil)
	}
	return &profile, nil
}

type fixture struct {
	mr       *miniredis.Miniredis
	tokens   *TokenManager
	sessions *RedisSessionStore
	profiles profileMap
	resolver *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		mr:       mr,
		tokens:   NewTokenManager("test-secret", time.Hour),
		sessions: NewRedisSessionStore(client, "test:session:"),
		profiles: profileMap{},
	}
	f.resolver = NewResolver(f.tokens, f.sessions, f.profiles)
	return f
}

func (f *fixture) login(t *testing.T, principal domain.Principal) string {
	t.Helper()
	f.profiles[principal.ID] = principal
	token, session, err := f.tokens.GenerateToken(principal)
	require.NoError(t, err)
	require.NoError(t, f.sessions.Save(context.Background(), session))
	return token
}

func TestResolve_ValidSession(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, domain.Principal{ID: "u1", Email: "a@x.com", Role: domain.RoleClient})

	principal, session, err := f.resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", principal.Email)
	assert.Equal(t, domain.RoleClient, principal.Role)
	assert.Equal(t, "u1", session.PrincipalID)
	assert.True(t, f.mr.Exists("test:session:"+session.ID))
}

func TestResolve_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, domain.Principal{ID: "u1", Email: "a@x.com", Role: domain.RoleClient})

	other := NewTokenManager("other-secret", time.Hour)
	forged, _, err := other.GenerateToken(domain.Principal{ID: "u1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	cases := map[string]string{
		"empty":      "",
		"garbage":    "not-a-jwt",
		"bad secret": forged,
	}
	for name, candidate := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := f.resolver.Resolve(context.Background(), candidate)
			assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
		})
	}

	t.Run("revoked", func(t *testing.T) {
		claims, err := f.tokens.ParseToken(token)
		require.NoError(t, err)
		require.NoError(t, f.sessions.Revoke(context.Background(), claims.ID))

		_, _, err = f.resolver.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})
}

func TestResolve_ExpiredSession(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, domain.Principal{ID: "u1", Email: "a@x.com", Role: domain.RoleDeveloper})

	f.mr.FastForward(2 * time.Hour)

	_, _, err := f.resolver.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestResolve_MissingProfileIsRoleResolutionError(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, domain.Principal{ID: "u1", Email: "a@x.com", Role: domain.RoleClient})
	delete(f.profiles, "u1")

	principal, _, err := f.resolver.Resolve(context.Background(), token)
	assert.Nil(t, principal)
	assert.ErrorIs(t, err, apperrors.ErrRoleResolution)
}

func TestResolve_UnknownRoleIsRoleResolutionError(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, domain.Principal{ID: "u1", Email: "a@x.com", Role: domain.RoleClient})
	f.profiles["u1"] = domain.Principal{ID: "u1", Email: "a@x.com", Role: "superuser"}

	_, _, err := f.resolver.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrRoleResolution)
}

func TestResolve_TokenRoleMustMatchProfile(t *testing.T) {
	f := newFixture(t)
	f.profiles["u1"] = domain.Principal{ID: "u1", Email: "a@x.com", Role: domain.RoleClient}
	token, session, err := f.tokens.GenerateToken(domain.Principal{ID: "u1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.NoError(t, f.sessions.Save(context.Background(), session))

	_, _, err = f.resolver.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrRoleResolution)
}

func TestResolve_RedisDownIsStoreError(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, domain.Principal{ID: "u1", Email: "a@x.com", Role: domain.RoleClient})
	f.mr.Close()

	_, _, err := f.resolver.Resolve(context.Background(), token)
	kind, ok := apperrors.StoreKind(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.StoreConnectivity, kind)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	claims := &Claims{Role: domain.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{ID: "s", Subject: "u"}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.ParseToken(unsigned)
	assert.Error(t, err)
}

func TestPasswordRoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(4)
	hash, err := hasher.Hash("hunter22")
	require.NoError(t, err)
	assert.True(t, hasher.Verify(hash, "hunter22"))
	assert.False(t, hasher.Verify(hash, "wrong"))
	assert.NotPanics(t, func() { hasher.VerifyMissing("anything") })

	clamped := NewPasswordHasher(99)
	hash, err = clamped.Hash("hunter22")
	require.NoError(t, err)
	assert.True(t, clamped.Verify(hash, "hunter22"))
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	for _, header := range []string{"", "abc", "Basic abc", "Bearer "} {
		_, err := BearerToken(header)
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated, header)
	}
}

func TestMiddleware_RequireRole(t *testing.T) {
	f := newFixture(t)
	clientToken := f.login(t, domain.Principal{ID: "c1", Email: "c@x.com", Role: domain.RoleClient})
	adminToken := f.login(t, domain.Principal{ID: "a1", Email: "admin@x.com", Role: domain.RoleAdmin})

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	mw := NewAuthMiddleware(f.resolver)
	app.Get("/admin", mw.Handle, RequireAdmin(), func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.SendString(principal.Email)
	})

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"client", clientToken, http.StatusForbidden},
		{"admin", adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
