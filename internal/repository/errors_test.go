package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-intake/internal/domain"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

func TestStoreError_Classification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind apperrors.StoreErrorKind
	}{
		{"no rows", pgx.ErrNoRows, apperrors.StoreNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), apperrors.StoreNotFound},
		{"permission", &pgconn.PgError{Code: "42501"}, apperrors.StorePermission},
		{"check violation", &pgconn.PgError{Code: "23514"}, apperrors.StoreValidation},
		{"unique violation", &pgconn.PgError{Code: "23505"}, apperrors.StoreValidation},
		{"data exception", &pgconn.PgError{Code: "22001"}, apperrors.StoreValidation},
		{"deadline", context.DeadlineExceeded, apperrors.StoreConnectivity},
		{"unknown", errors.New("connection reset"), apperrors.StoreConnectivity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := storeError(tc.err)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrStore)
			assert.ErrorIs(t, err, tc.err)

			kind, ok := apperrors.StoreKind(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, kind)
		})
	}
}

func TestStoreError_NilAndIdempotent(t *testing.T) {
	assert.NoError(t, storeError(nil))

	once := storeError(&pgconn.PgError{Code: "42501"})
	twice := storeError(once)
	assert.Same(t, once, twice)
}

func TestValidateDraft(t *testing.T) {
	err := ValidateDraft(domain.ProjectDraft{Title: "Site", Type: "Web", Description: "A site"})
	assert.NoError(t, err)

	err = ValidateDraft(domain.ProjectDraft{Title: "", Type: "Web"})
	require.Error(t, err)
	kind, ok := apperrors.StoreKind(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.StoreValidation, kind)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	var validation *apperrors.DomainError
	require.True(t, errors.As(errors.Unwrap(err), &validation))
	assert.Equal(t, "required", validation.Details["title"])
	assert.Equal(t, "required", validation.Details["description"])
}
