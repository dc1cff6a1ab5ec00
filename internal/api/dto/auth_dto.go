package dto

import (
	"time"

	"github.com/spec-kit/project-intake/internal/domain"
)

// RegisterRequest payload for client self sign-up.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PrincipalResponse describes the authenticated caller.
type PrincipalResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Principal PrincipalResponse `json:"principal"`
}

// CreateDeveloperRequest is the admin developer-creation payload.
type CreateDeveloperRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporary_password"`
}

// DeveloperResponse is a roster entry.
type DeveloperResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewPrincipalResponse maps a principal.
func NewPrincipalResponse(p domain.Principal) PrincipalResponse {
	return PrincipalResponse{ID: p.ID, Email: p.Email, Name: p.Name, Role: p.Role}
}

// NewDeveloperResponse maps a roster entry.
func NewDeveloperResponse(d domain.DeveloperProfile) DeveloperResponse {
	return DeveloperResponse{ID: d.ID, Name: d.Name, Email: d.Email}
}

// Domain converts a roster entry back.
func (d DeveloperResponse) Domain() domain.DeveloperProfile {
	return domain.DeveloperProfile{ID: d.ID, Name: d.Name, Email: d.Email}
}
