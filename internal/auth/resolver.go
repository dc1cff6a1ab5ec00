package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/project-intake/internal/domain"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

// ProfileLookup is the slice of the profile repository the resolver needs.
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Principal, error)
}

// Resolver turns a bearer token into an authenticated principal.
type Resolver struct {
	tokens   *TokenManager
	sessions SessionStore
	profiles ProfileLookup
}

// NewResolver constructs a resolver.
func NewResolver(tokens *TokenManager, sessions SessionStore, profiles ProfileLookup) *Resolver {
	return &Resolver{tokens: tokens, sessions: sessions, profiles: profiles}
}

// Resolve validates the token, its live session and the stored profile.
// A principal is never given a role that is not on its profile row.
func (r *Resolver) Resolve(ctx context.Context, token string) (*domain.Principal, *domain.Session, error) {
	if token == "" {
		return nil, nil, apperrors.NewUnauthenticated("missing token")
	}
	claims, err := r.tokens.ParseToken(token)
	if err != nil {
		return nil, nil, apperrors.NewUnauthenticated("invalid token")
	}

	session, err := r.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil, apperrors.NewUnauthenticated("session expired or revoked")
		}
		return nil, nil, apperrors.NewStoreError(apperrors.StoreConnectivity, err)
	}
	if session.PrincipalID != claims.Subject {
		return nil, nil, apperrors.NewUnauthenticated("session does not match token")
	}

	profile, err := r.profiles.GetByID(ctx, claims.Subject)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, apperrors.NewRoleResolutionError("no profile for authenticated principal", err)
		}
		return nil, nil, err
	}

	role, ok := domain.ParseRole(string(profile.Role))
	if !ok {
		return nil, nil, apperrors.NewRoleResolutionError(
			"profile carries an unknown role",
			fmt.Errorf("role %q", profile.Role),
		)
	}
	if claims.Role != "" && claims.Role != role {
		return nil, nil, apperrors.NewRoleResolutionError(
			"token role does not match profile",
			fmt.Errorf("token %q, profile %q", claims.Role, role),
		)
	}

	principal := *profile
	principal.Role = role
	return &principal, session, nil
}
