package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/project-intake/internal/domain"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

const projectColumns = `id, title, type, description, budget, submitter_email, developer_email,
               status, version, inserted_at, updated_at`

// ProjectFilter narrows a project listing. Nil fields do not filter.
type ProjectFilter struct {
	SubmitterEmail *string
	DeveloperEmail *string
	Statuses       []domain.ProjectStatus
	Limit          int
	Offset         int
}

// ProjectRepository is the typed accessor for the project table.
type ProjectRepository interface {
	Create(ctx context.Context, draft domain.ProjectDraft, submitterEmail string) (*domain.Project, error)
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]domain.Project, error)
	// Update applies patch when the stored version equals expectedVersion.
	// expectedVersion <= 0 skips the check (last write wins).
	Update(ctx context.Context, id int64, patch domain.ProjectPatch, expectedVersion int64) (*domain.Project, error)
}

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository instantiates repository.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) Create(ctx context.Context, draft domain.ProjectDraft, submitterEmail string) (*domain.Project, error) {
	draft = draft.Normalize()
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}
	if submitterEmail == "" {
		return nil, apperrors.NewStoreError(apperrors.StoreValidation, errors.New("submitter email required"))
	}
	query := `
        INSERT INTO projects (title, type, description, budget, submitter_email, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING ` + projectColumns
	project, err := scanProject(r.pool.QueryRow(ctx, query,
		draft.Title,
		draft.Type,
		draft.Description,
		draft.Budget,
		submitterEmail,
		domain.StatusPending,
	))
	if err != nil {
		return nil, storeError(err)
	}
	return project, nil
}

func (r *projectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id=$1`
	project, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storeError(err)
	}
	return project, nil
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]domain.Project, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SubmitterEmail != nil {
		args = append(args, *filter.SubmitterEmail)
		clauses = append(clauses, fmt.Sprintf("submitter_email=$%d", len(args)))
	}
	if filter.DeveloperEmail != nil {
		args = append(args, *filter.DeveloperEmail)
		clauses = append(clauses, fmt.Sprintf("developer_email=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM projects WHERE %s ORDER BY inserted_at DESC, id DESC`,
		projectColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	result := []domain.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, storeError(err)
		}
		result = append(result, *project)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return result, nil
}

func (r *projectRepository) Update(ctx context.Context, id int64, patch domain.ProjectPatch, expectedVersion int64) (*domain.Project, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}
	sets := []string{"version=version+1", "updated_at=NOW()"}
	args := []any{}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, apperrors.NewStoreError(apperrors.StoreValidation, fmt.Errorf("invalid status %q", *patch.Status))
		}
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if patch.SetDeveloper {
		args = append(args, patch.DeveloperEmail)
		sets = append(sets, fmt.Sprintf("developer_email=$%d", len(args)))
	}
	args = append(args, id)
	where := fmt.Sprintf("id=$%d", len(args))
	if expectedVersion > 0 {
		args = append(args, expectedVersion)
		where += fmt.Sprintf(" AND version=$%d", len(args))
	}

	query := fmt.Sprintf(`UPDATE projects SET %s WHERE %s RETURNING %s`,
		strings.Join(sets, ", "), where, projectColumns)
	project, err := scanProject(r.pool.QueryRow(ctx, query, args...))
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) || expectedVersion <= 0 {
		return nil, storeError(err)
	}

	// No row matched: either the project is gone or the version moved on.
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, apperrors.NewConflict("project was modified concurrently", map[string]any{
		"project_id":       id,
		"expected_version": expectedVersion,
		"current_version":  current.Version,
	})
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var project domain.Project
	if err := row.Scan(
		&project.ID,
		&project.Title,
		&project.Type,
		&project.Description,
		&project.Budget,
		&project.SubmitterEmail,
		&project.DeveloperEmail,
		&project.Status,
		&project.Version,
		&project.InsertedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &project, nil
}
