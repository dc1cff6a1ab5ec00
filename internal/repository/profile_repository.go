package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/project-intake/internal/domain"
)

// ProfileRepository persists principal profiles (id, email, name, role).
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Principal) error
	GetByID(ctx context.Context, id string) (*domain.Principal, error)
	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.Principal, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Principal) error {
	const query = `
        INSERT INTO profiles (id, email, name, role)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		profile.ID,
		profile.Email,
		profile.Name,
		profile.Role,
	).Scan(&profile.CreatedAt)
	return storeError(err)
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	const query = `SELECT id, email, name, role, created_at FROM profiles WHERE id=$1`
	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storeError(err)
	}
	return profile, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	const query = `SELECT id, email, name, role, created_at FROM profiles WHERE email=$1`
	profile, err := scanProfile(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, storeError(err)
	}
	return profile, nil
}

func (r *profileRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Principal, error) {
	const query = `
        SELECT id, email, name, role, created_at
        FROM profiles WHERE role=$1 ORDER BY name ASC, email ASC`
	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	result := []domain.Principal{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, storeError(err)
		}
		result = append(result, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return result, nil
}

// scanProfile keeps the raw role string; callers decide how to treat unknown roles.
func scanProfile(row pgx.Row) (*domain.Principal, error) {
	var (
		profile domain.Principal
		role    string
	)
	if err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.Name,
		&role,
		&profile.CreatedAt,
	); err != nil {
		return nil, err
	}
	profile.Role = domain.Role(role)
	return &profile, nil
}
