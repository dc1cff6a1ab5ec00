package domain

import "time"

// Session is the server-side record behind an issued access token.
type Session struct {
	ID          string
	PrincipalID string
	Role        Role
	IssuedAt    time.Time
	ExpiresAt   time.Time
}
