package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/project-intake/internal/domain"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

// Postgres SQLSTATE classes and codes classified explicitly.
const (
	sqlStateInsufficientPrivilege = "42501"
	sqlStateClassIntegrity        = "23"
	sqlStateClassData             = "22"
)

// storeError classifies a driver error into a StoreError kind.
// Anything not recognised is treated as connectivity.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.StoreKind(err); ok {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewStoreError(apperrors.StoreNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == sqlStateInsufficientPrivilege:
			return apperrors.NewStoreError(apperrors.StorePermission, err)
		case strings.HasPrefix(pgErr.Code, sqlStateClassIntegrity), strings.HasPrefix(pgErr.Code, sqlStateClassData):
			return apperrors.NewStoreError(apperrors.StoreValidation, err)
		}
	}
	return apperrors.NewStoreError(apperrors.StoreConnectivity, err)
}

// ValidateDraft rejects malformed drafts at the store boundary.
func ValidateDraft(draft domain.ProjectDraft) error {
	problems := draft.Validate()
	if len(problems) == 0 {
		return nil
	}
	details := make(map[string]any, len(problems))
	for field, problem := range problems {
		details[field] = problem
	}
	return apperrors.NewStoreError(apperrors.StoreValidation, apperrors.NewValidationError("invalid project draft", details))
}
