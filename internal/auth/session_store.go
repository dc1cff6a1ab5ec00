package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/project-intake/internal/domain"
)

// ErrSessionNotFound is returned for expired, revoked or unknown sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps the server-side half of issued tokens.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Revoke(ctx context.Context, id string) error
}

type sessionRecord struct {
	PrincipalID string      `json:"principal_id"`
	Role        domain.Role `json:"role"`
	IssuedAt    time.Time   `json:"issued_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// RedisSessionStore stores sessions as JSON values that expire with the token.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionStore wires a session store on an existing client.
func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = "intake:session:"
	}
	return &RedisSessionStore{client: client, prefix: prefix}
}

func (s *RedisSessionStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisSessionStore) Save(ctx context.Context, session domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	payload, err := json.Marshal(sessionRecord{
		PrincipalID: session.PrincipalID,
		Role:        session.Role,
		IssuedAt:    session.IssuedAt,
		ExpiresAt:   session.ExpiresAt,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.ID), payload, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var record sessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &domain.Session{
		ID:          id,
		PrincipalID: record.PrincipalID,
		Role:        record.Role,
		IssuedAt:    record.IssuedAt,
		ExpiresAt:   record.ExpiresAt,
	}, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}
