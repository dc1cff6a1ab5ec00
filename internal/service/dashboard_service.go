package service

import (
	"context"
	"sort"

	"github.com/spec-kit/project-intake/internal/domain"
	"github.com/spec-kit/project-intake/internal/repository"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

// DashboardService builds the per-role project view.
type DashboardService struct {
	projects repository.ProjectRepository
	profiles repository.ProfileRepository
}

// NewDashboardService constructs the service.
func NewDashboardService(projects repository.ProjectRepository, profiles repository.ProfileRepository) *DashboardService {
	return &DashboardService{projects: projects, profiles: profiles}
}

// BuildView returns the projects the principal may see, newest first, and
// for admins the developer roster.
func (s *DashboardService) BuildView(ctx context.Context, principal *domain.Principal) (*domain.ProjectView, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}

	var filter repository.ProjectFilter
	switch principal.Role {
	case domain.RoleClient:
		filter.SubmitterEmail = &principal.Email
	case domain.RoleDeveloper:
		filter.DeveloperEmail = &principal.Email
	case domain.RoleAdmin:
	default:
		return nil, apperrors.NewForbidden("unrecognized role")
	}

	projects, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	SortNewestFirst(projects)

	view := &domain.ProjectView{Role: principal.Role, Projects: projects, Developers: []domain.DeveloperProfile{}}
	if principal.Role == domain.RoleAdmin {
		developers, err := s.profiles.ListByRole(ctx, domain.RoleDeveloper)
		if err != nil {
			return nil, err
		}
		for _, dev := range developers {
			view.Developers = append(view.Developers, domain.DeveloperProfileOf(dev))
		}
	}
	return view, nil
}

// SortNewestFirst orders by inserted_at descending, ties by id descending.
func SortNewestFirst(projects []domain.Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		if !projects[i].InsertedAt.Equal(projects[j].InsertedAt) {
			return projects[i].InsertedAt.After(projects[j].InsertedAt)
		}
		return projects[i].ID > projects[j].ID
	})
}
