package domain

import (
	"strings"
	"time"
)

// Role enumerates the fixed principal roles.
type Role string

const (
	RoleClient    Role = "client"
	RoleDeveloper Role = "developer"
	RoleAdmin     Role = "admin"
)

// ParseRole maps a stored role string to a Role.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleClient:
		return RoleClient, true
	case RoleDeveloper:
		return RoleDeveloper, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Principal is an authenticated actor with a resolved role.
type Principal struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// DeveloperProfile is the admin-facing projection of a developer principal.
type DeveloperProfile struct {
	ID    string
	Name  string
	Email string
}

// DeveloperProfileOf projects a principal for the assignment roster.
func DeveloperProfileOf(p Principal) DeveloperProfile {
	return DeveloperProfile{ID: p.ID, Name: p.Name, Email: p.Email}
}

// Account is an identity-provider credential record.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NormalizeEmail lowercases and trims an email for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
