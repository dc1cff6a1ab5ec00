package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/project-intake/internal/auth"
	"github.com/spec-kit/project-intake/internal/config"
	"github.com/spec-kit/project-intake/internal/domain"
	"github.com/spec-kit/project-intake/internal/events"
	"github.com/spec-kit/project-intake/internal/repository"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

// AuthService coordinates registration, login and developer provisioning.
type AuthService struct {
	accounts       repository.AccountRepository
	profiles       repository.ProfileRepository
	sessions       auth.SessionStore
	tokenMgr       *auth.TokenManager
	dispatcher     events.Dispatcher
	logger         *zap.Logger
	passwords      *auth.PasswordHasher
	minPasswordLen int
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	AccountRepo  repository.AccountRepository
	ProfileRepo  repository.ProfileRepository
	SessionStore auth.SessionStore
	TokenManager *auth.TokenManager
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// AuthResult is returned by sign-up and sign-in.
type AuthResult struct {
	Principal domain.Principal
	Token     string
	ExpiresAt time.Time
}

// NewDeveloperInput is the admin developer-creation payload.
type NewDeveloperInput struct {
	Name              string
	Email             string
	TemporaryPassword string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL())
	}
	return &AuthService{
		accounts:       deps.AccountRepo,
		profiles:       deps.ProfileRepo,
		sessions:       deps.SessionStore,
		tokenMgr:       tokens,
		dispatcher:     deps.Dispatcher,
		logger:         logger,
		passwords:      auth.NewPasswordHasher(cfg.BcryptCost),
		minPasswordLen: cfg.MinPasswordLength,
	}
}

// SignUp registers a client and signs them in.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (*AuthResult, error) {
	principal, err := s.createPrincipal(ctx, name, email, password, domain.RoleClient)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, *principal)
}

// SignIn verifies credentials and opens a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.passwords.VerifyMissing(password)
			return nil, apperrors.NewUnauthenticated("invalid credentials")
		}
		return nil, err
	}
	if !s.passwords.Verify(account.PasswordHash, password) {
		return nil, apperrors.NewUnauthenticated("invalid credentials")
	}

	profile, err := s.profiles.GetByID(ctx, account.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewRoleResolutionError("account has no profile", err)
		}
		return nil, err
	}
	role, ok := domain.ParseRole(string(profile.Role))
	if !ok {
		return nil, apperrors.NewRoleResolutionError("profile carries an unknown role", nil)
	}
	profile.Role = role
	return s.issue(ctx, *profile)
}

// SignOut revokes the session so its token stops resolving.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.NewUnauthenticated("no active session")
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return apperrors.NewStoreError(apperrors.StoreConnectivity, err)
	}
	return nil
}

// CreateDeveloper provisions a developer account and profile. Admin only.
func (s *AuthService) CreateDeveloper(ctx context.Context, actor *domain.Principal, input NewDeveloperInput) (*domain.Principal, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only an admin may create developers")
	}
	developer, err := s.createPrincipal(ctx, input.Name, input.Email, input.TemporaryPassword, domain.RoleDeveloper)
	if err != nil {
		return nil, err
	}
	if s.dispatcher != nil {
		event := events.New(events.EventDeveloperCreated, 0, events.ActorOf(*actor), events.DeveloperCreatedPayload{
			DeveloperID: developer.ID,
			Email:       developer.Email,
			Name:        developer.Name,
		})
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Error("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return developer, nil
}

// CreateAdmin provisions an admin. Only the operator CLI calls it.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*domain.Principal, error) {
	return s.createPrincipal(ctx, name, email, password, domain.RoleAdmin)
}

// ListDevelopers returns the assignment roster. Admin only.
func (s *AuthService) ListDevelopers(ctx context.Context, actor *domain.Principal) ([]domain.DeveloperProfile, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only an admin may list developers")
	}
	developers, err := s.profiles.ListByRole(ctx, domain.RoleDeveloper)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DeveloperProfile, 0, len(developers))
	for _, dev := range developers {
		out = append(out, domain.DeveloperProfileOf(dev))
	}
	return out, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// createPrincipal writes the account then the profile. If the profile write
// fails the account is removed so no credential exists without a role.
func (s *AuthService) createPrincipal(ctx context.Context, name, email, password string, role domain.Role) (*domain.Principal, error) {
	name = strings.TrimSpace(name)
	email = domain.NormalizeEmail(email)

	problems := map[string]any{}
	if name == "" {
		problems["name"] = "required"
	}
	if email == "" || !strings.Contains(email, "@") {
		problems["email"] = "invalid"
	}
	if len(password) < s.minPasswordLen {
		problems["password"] = "too short"
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidationError("invalid account details", problems)
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	account := &domain.Account{Email: email, PasswordHash: hash}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	profile := &domain.Principal{ID: account.ID, Email: email, Name: name, Role: role}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if delErr := s.accounts.Delete(context.WithoutCancel(ctx), account.ID); delErr != nil {
			s.logger.Error("orphaned account after profile failure",
				zap.String("account_id", account.ID),
				zap.String("email", email),
				zap.Error(delErr),
			)
		}
		return nil, err
	}
	return profile, nil
}

func (s *AuthService) issue(ctx context.Context, principal domain.Principal) (*AuthResult, error) {
	token, session, err := s.tokenMgr.GenerateToken(principal)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreConnectivity, err)
	}
	return &AuthResult{Principal: principal, Token: token, ExpiresAt: session.ExpiresAt}, nil
}
