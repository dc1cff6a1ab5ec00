package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/project-intake/internal/domain"
)

// ProjectHistoryRepository stores audit entries.
type ProjectHistoryRepository interface {
	Create(ctx context.Context, entry *domain.ProjectHistory) error
	ListByProject(ctx context.Context, projectID int64) ([]domain.ProjectHistory, error)
}

type projectHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewProjectHistoryRepository builds repository.
func NewProjectHistoryRepository(pool *pgxpool.Pool) ProjectHistoryRepository {
	return &projectHistoryRepository{pool: pool}
}

func (r *projectHistoryRepository) Create(ctx context.Context, entry *domain.ProjectHistory) error {
	const query = `
        INSERT INTO project_history (project_id, actor_email, change_type, old_value, new_value, override)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, inserted_at`
	err := r.pool.QueryRow(ctx, query,
		entry.ProjectID,
		entry.ActorEmail,
		entry.ChangeType,
		entry.OldValue,
		entry.NewValue,
		entry.Override,
	).Scan(&entry.ID, &entry.InsertedAt)
	return storeError(err)
}

func (r *projectHistoryRepository) ListByProject(ctx context.Context, projectID int64) ([]domain.ProjectHistory, error) {
	const query = `
        SELECT id, project_id, actor_email, change_type, old_value, new_value, override, inserted_at
        FROM project_history WHERE project_id=$1 ORDER BY inserted_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	result := []domain.ProjectHistory{}
	for rows.Next() {
		var entry domain.ProjectHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.ProjectID,
			&entry.ActorEmail,
			&entry.ChangeType,
			&entry.OldValue,
			&entry.NewValue,
			&entry.Override,
			&entry.InsertedAt,
		); err != nil {
			return nil, storeError(err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return result, nil
}
