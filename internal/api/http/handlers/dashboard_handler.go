package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-intake/internal/api/dto"
	"github.com/spec-kit/project-intake/internal/service"
)

// DashboardHandler serves the per-role project view.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// View GET /dashboard.
func (h *DashboardHandler) View(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	view, err := h.dashboard.BuildView(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope[dto.DashboardResponse]{Data: dto.NewDashboardResponse(*view)})
}
