package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-intake/internal/api/dto"
	"github.com/spec-kit/project-intake/internal/service"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

// AdminHandler exposes developer provisioning.
type AdminHandler struct {
	auth *service.AuthService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService) *AdminHandler {
	return &AdminHandler{auth: authService}
}

// CreateDeveloper POST /admin/developers.
func (h *AdminHandler) CreateDeveloper(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateDeveloperRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	developer, err := h.auth.CreateDeveloper(c.UserContext(), principal, service.NewDeveloperInput{
		Name:              req.Name,
		Email:             req.Email,
		TemporaryPassword: req.TemporaryPassword,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.Envelope[dto.PrincipalResponse]{Data: dto.NewPrincipalResponse(*developer)})
}

// ListDevelopers GET /admin/developers.
func (h *AdminHandler) ListDevelopers(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	developers, err := h.auth.ListDevelopers(c.UserContext(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.DeveloperResponse, 0, len(developers))
	for _, dev := range developers {
		items = append(items, dto.NewDeveloperResponse(dev))
	}
	return c.JSON(dto.Envelope[[]dto.DeveloperResponse]{Data: items})
}
