// Package app assembles the HTTP server from configuration and stores.
package app

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/project-intake/internal/api/http"
	"github.com/spec-kit/project-intake/internal/api/http/handlers"
	"github.com/spec-kit/project-intake/internal/auth"
	"github.com/spec-kit/project-intake/internal/config"
	"github.com/spec-kit/project-intake/internal/events"
	"github.com/spec-kit/project-intake/internal/lifecycle"
	"github.com/spec-kit/project-intake/internal/observability"
	"github.com/spec-kit/project-intake/internal/persistence"
	"github.com/spec-kit/project-intake/internal/repository"
	"github.com/spec-kit/project-intake/internal/repository/memstore"
	"github.com/spec-kit/project-intake/internal/service"
	"github.com/spec-kit/project-intake/internal/worker"
)

// Stores bundles the repository implementations.
type Stores struct {
	Projects repository.ProjectRepository
	Profiles repository.ProfileRepository
	Accounts repository.AccountRepository
	History  repository.ProjectHistoryRepository
}

// PostgresStores returns pgx-backed repositories.
func PostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Projects: repository.NewProjectRepository(pool),
		Profiles: repository.NewProfileRepository(pool),
		Accounts: repository.NewAccountRepository(pool),
		History:  repository.NewProjectHistoryRepository(pool),
	}
}

// MemoryStores returns process-local repositories.
func MemoryStores() Stores {
	return Stores{
		Projects: memstore.NewProjects(nil),
		Profiles: memstore.NewProfiles(),
		Accounts: memstore.NewAccounts(),
		History:  memstore.NewHistory(),
	}
}

// Dependencies are the external resources a server is built on.
type Dependencies struct {
	Stores   Stores
	Sessions auth.SessionStore
	Postgres *persistence.Postgres
	Redis    *persistence.Redis
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// Server is a fully wired application.
type Server struct {
	App       *fiber.App
	Auth      *service.AuthService
	Projects  *service.ProjectService
	Dashboard *service.DashboardService
	Metrics   *observability.Metrics
}

// NewServer wires services, handlers and routes.
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, deps.Stores.History, metrics, logger))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		AccountRepo:  deps.Stores.Accounts,
		ProfileRepo:  deps.Stores.Profiles,
		SessionStore: deps.Sessions,
		TokenManager: tokens,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	projectService := service.NewProjectService(service.ProjectDependencies{
		ProjectRepo: deps.Stores.Projects,
		ProfileRepo: deps.Stores.Profiles,
		HistoryRepo: deps.Stores.History,
		Machine:     lifecycle.NewMachine(logger),
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	dashboardService := service.NewDashboardService(deps.Stores.Projects, deps.Stores.Profiles)

	resolver := auth.NewResolver(tokens, deps.Sessions, deps.Stores.Profiles)
	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Postgres, deps.Redis),
		Auth:           handlers.NewAuthHandler(authService),
		Projects:       handlers.NewProjectsHandler(projectService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Admin:          handlers.NewAdminHandler(authService),
		AuthMiddleware: auth.NewAuthMiddleware(resolver),
		Metrics:        metrics.Handler(),
	})

	return &Server{
		App:       app,
		Auth:      authService,
		Projects:  projectService,
		Dashboard: dashboardService,
		Metrics:   metrics,
	}
}
