package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-intake/internal/auth"
	"github.com/spec-kit/project-intake/internal/config"
	"github.com/spec-kit/project-intake/internal/domain"
	"github.com/spec-kit/project-intake/internal/events"
	"github.com/spec-kit/project-intake/internal/observability"
	"github.com/spec-kit/project-intake/internal/repository/memstore"
)

type harness struct {
	projects   *memstore.Projects
	profiles   *memstore.Profiles
	accounts   *memstore.Accounts
	history    *memstore.History
	sessions   *auth.RedisSessionStore
	tokens     *auth.TokenManager
	metrics    *observability.Metrics
	dispatcher events.Dispatcher

	Projects  *ProjectService
	Dashboard *DashboardService
	Auth      *AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &harness{
		projects:   memstore.NewProjects(nil),
		profiles:   memstore.NewProfiles(),
		accounts:   memstore.NewAccounts(),
		history:    memstore.NewHistory(),
		sessions:   auth.NewRedisSessionStore(client, "test:"),
		tokens:     auth.NewTokenManager("secret", time.Hour),
		metrics:    observability.NewMetrics(),
		dispatcher: events.NewInMemoryDispatcher(),
	}
	NewAuditService(h.dispatcher, h.history, h.metrics, nil).RegisterHandlers()

	h.Projects = NewProjectService(ProjectDependencies{
		ProjectRepo: h.projects,
		ProfileRepo: h.profiles,
		HistoryRepo: h.history,
		Dispatcher:  h.dispatcher,
		Metrics:     h.metrics,
	})
	h.Dashboard = NewDashboardService(h.projects, h.profiles)
	h.Auth = NewAuthService(config.AuthConfig{BcryptCost: 4, MinPasswordLength: 6}, AuthDependencies{
		AccountRepo:  h.accounts,
		ProfileRepo:  h.profiles,
		SessionStore: h.sessions,
		TokenManager: h.tokens,
		Dispatcher:   h.dispatcher,
	})
	return h
}

func (h *harness) principal(t *testing.T, name, email string, role domain.Role) *domain.Principal {
	t.Helper()
	p, err := h.Auth.createPrincipal(context.Background(), name, email, "password", role)
	require.NoError(t, err)
	return p
}

func (h *harness) submit(t *testing.T, owner *domain.Principal, title string) *domain.Project {
	t.Helper()
	project, err := h.Projects.CreateProject(context.Background(), owner, domain.ProjectDraft{
		Title:       title,
		Type:        "Web App",
		Description: "Please build it",
	})
	require.NoError(t, err)
	return project
}
