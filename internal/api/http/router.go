package http

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/spec-kit/project-intake/internal/api/http/handlers"
	"github.com/spec-kit/project-intake/internal/auth"
	"github.com/spec-kit/project-intake/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Projects       *handlers.ProjectsHandler
	Dashboard      *handlers.DashboardHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        http.Handler
}

// NewApp builds a fiber app with the global middleware chain installed.
func NewApp(name string, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, metrics, timeout)
	return app
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	// Auth is attached per route so unknown paths still fall through to 404.
	requireAuth := cfg.AuthMiddleware.Handle
	authGroup.Post("/logout", requireAuth, cfg.Auth.Logout)
	app.Get("/me", requireAuth, cfg.Auth.Me)
	app.Get("/dashboard", requireAuth, cfg.Dashboard.View)

	projects := app.Group("/projects", requireAuth)
	projects.Post("", cfg.Projects.Create)
	projects.Get("/:id", cfg.Projects.Get)
	projects.Get("/:id/history", cfg.Projects.History)
	projects.Patch("/:id/status", cfg.Projects.SetStatus)
	projects.Patch("/:id/developer", cfg.Projects.AssignDeveloper)

	admin := app.Group("/admin", requireAuth, auth.RequireAdmin())
	admin.Post("/developers", cfg.Admin.CreateDeveloper)
	admin.Get("/developers", cfg.Admin.ListDevelopers)
}
