// Package memstore provides in-process implementations of the repository
// interfaces. The API server falls back to it when no Postgres DSN is set.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/project-intake/internal/domain"
	"github.com/spec-kit/project-intake/internal/repository"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

// Clock returns the current time. Tests pin it to force ordering ties.
type Clock func() time.Time

// Projects is an in-memory ProjectRepository.
type Projects struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]domain.Project
	now    Clock
}

// NewProjects builds an empty project table.
func NewProjects(now Clock) *Projects {
	if now == nil {
		now = time.Now
	}
	return &Projects{rows: make(map[int64]domain.Project), now: now}
}

var _ repository.ProjectRepository = (*Projects)(nil)

func (s *Projects) Create(ctx context.Context, draft domain.ProjectDraft, submitterEmail string) (*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreConnectivity, err)
	}
	draft = draft.Normalize()
	if err := repository.ValidateDraft(draft); err != nil {
		return nil, err
	}
	if submitterEmail == "" {
		return nil, apperrors.NewStoreError(apperrors.StoreValidation, errors.New("submitter email required"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := s.now()
	project := domain.Project{
		ID:             s.nextID,
		Title:          draft.Title,
		Type:           draft.Type,
		Description:    draft.Description,
		Budget:         draft.Budget,
		SubmitterEmail: submitterEmail,
		Status:         domain.StatusPending,
		Version:        1,
		InsertedAt:     now,
		UpdatedAt:      now,
	}
	s.rows[project.ID] = project.Clone()
	return &project, nil
}

func (s *Projects) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreConnectivity, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.rows[id]
	if !ok {
		return nil, apperrors.NewStoreError(apperrors.StoreNotFound, fmt.Errorf("project %d", id))
	}
	out := project.Clone()
	return &out, nil
}

func (s *Projects) List(ctx context.Context, filter repository.ProjectFilter) ([]domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreConnectivity, err)
	}
	s.mu.RLock()
	result := []domain.Project{}
	for _, project := range s.rows {
		if filter.SubmitterEmail != nil && project.SubmitterEmail != *filter.SubmitterEmail {
			continue
		}
		if filter.DeveloperEmail != nil && !project.AssignedTo(*filter.DeveloperEmail) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, project.Status) {
			continue
		}
		result = append(result, project.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].InsertedAt.Equal(result[j].InsertedAt) {
			return result[i].InsertedAt.After(result[j].InsertedAt)
		}
		return result[i].ID > result[j].ID
	})

	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		if offset >= len(result) {
			return []domain.Project{}, nil
		}
		end := offset + filter.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, nil
}

func (s *Projects) Update(ctx context.Context, id int64, patch domain.ProjectPatch, expectedVersion int64) (*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreConnectivity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.rows[id]
	if !ok {
		return nil, apperrors.NewStoreError(apperrors.StoreNotFound, fmt.Errorf("project %d", id))
	}
	if patch.Empty() {
		out := project.Clone()
		return &out, nil
	}
	if expectedVersion > 0 && project.Version != expectedVersion {
		return nil, apperrors.NewConflict("project was modified concurrently", map[string]any{
			"project_id":       id,
			"expected_version": expectedVersion,
			"current_version":  project.Version,
		})
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, apperrors.NewStoreError(apperrors.StoreValidation, fmt.Errorf("invalid status %q", *patch.Status))
		}
		project.Status = *patch.Status
	}
	if patch.SetDeveloper {
		if patch.DeveloperEmail == nil {
			project.DeveloperEmail = nil
		} else {
			dev := *patch.DeveloperEmail
			project.DeveloperEmail = &dev
		}
	}
	project.Version++
	project.UpdatedAt = s.now()
	s.rows[id] = project
	out := project.Clone()
	return &out, nil
}

func containsStatus(statuses []domain.ProjectStatus, status domain.ProjectStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// Profiles is an in-memory ProfileRepository.
type Profiles struct {
	mu   sync.RWMutex
	byID map[string]domain.Principal
}

// NewProfiles builds an empty profile table.
func NewProfiles() *Profiles {
	return &Profiles{byID: make(map[string]domain.Principal)}
}

var _ repository.ProfileRepository = (*Profiles)(nil)

func (s *Profiles) Create(ctx context.Context, profile *domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile.ID == "" {
		return apperrors.NewStoreError(apperrors.StoreValidation, errors.New("profile id required"))
	}
	if _, ok := domain.ParseRole(string(profile.Role)); !ok {
		return apperrors.NewStoreError(apperrors.StoreValidation, fmt.Errorf("invalid role %q", profile.Role))
	}
	for _, existing := range s.byID {
		if existing.ID == profile.ID || existing.Email == profile.Email {
			return apperrors.NewStoreError(apperrors.StoreValidation, errors.New("profile already exists"))
		}
	}
	profile.CreatedAt = time.Now()
	s.byID[profile.ID] = *profile
	return nil
}

func (s *Profiles) GetByID(_ context.Context, id string) (*domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewStoreError(apperrors.StoreNotFound, fmt.Errorf("profile %s", id))
	}
	return &profile, nil
}

func (s *Profiles) GetByEmail(_ context.Context, email string) (*domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, profile := range s.byID {
		if profile.Email == email {
			out := profile
			return &out, nil
		}
	}
	return nil, apperrors.NewStoreError(apperrors.StoreNotFound, fmt.Errorf("profile %s", email))
}

func (s *Profiles) ListByRole(_ context.Context, role domain.Role) ([]domain.Principal, error) {
	s.mu.RLock()
	result := []domain.Principal{}
	for _, profile := range s.byID {
		if profile.Role == role {
			result = append(result, profile)
		}
	}
	s.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].Email < result[j].Email
	})
	return result, nil
}

// Delete removes a profile. It exists for tests that simulate a missing profile.
func (s *Profiles) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

// Accounts is an in-memory AccountRepository.
type Accounts struct {
	mu   sync.RWMutex
	rows map[string]domain.Account
}

// NewAccounts builds an empty account table.
func NewAccounts() *Accounts {
	return &Accounts{rows: make(map[string]domain.Account)}
}

var _ repository.AccountRepository = (*Accounts)(nil)

func (s *Accounts) Create(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.Email == account.Email {
			return apperrors.NewStoreError(apperrors.StoreValidation, errors.New("account already exists"))
		}
	}
	account.ID = uuid.NewString()
	account.CreatedAt = time.Now()
	s.rows[account.ID] = *account
	return nil
}

func (s *Accounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.rows {
		if account.Email == email {
			out := account
			return &out, nil
		}
	}
	return nil, apperrors.NewStoreError(apperrors.StoreNotFound, fmt.Errorf("account %s", email))
}

func (s *Accounts) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return apperrors.NewStoreError(apperrors.StoreNotFound, fmt.Errorf("account %s", id))
	}
	delete(s.rows, id)
	return nil
}

// Len reports the number of stored accounts.
func (s *Accounts) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// History is an in-memory ProjectHistoryRepository.
type History struct {
	mu     sync.RWMutex
	nextID int64
	rows   []domain.ProjectHistory
}

// NewHistory builds an empty audit table.
func NewHistory() *History {
	return &History{}
}

var _ repository.ProjectHistoryRepository = (*History)(nil)

func (s *History) Create(_ context.Context, entry *domain.ProjectHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry.ID = s.nextID
	entry.InsertedAt = time.Now()
	s.rows = append(s.rows, *entry)
	return nil
}

func (s *History) ListByProject(_ context.Context, projectID int64) ([]domain.ProjectHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []domain.ProjectHistory{}
	for _, entry := range s.rows {
		if entry.ProjectID == projectID {
			result = append(result, entry)
		}
	}
	return result, nil
}
