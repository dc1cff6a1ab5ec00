package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-intake/internal/api/dto"
	"github.com/spec-kit/project-intake/internal/auth"
	"github.com/spec-kit/project-intake/internal/domain"
	"github.com/spec-kit/project-intake/internal/service"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

// ProjectsHandler manages project endpoints for every role.
type ProjectsHandler struct {
	service *service.ProjectService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projectService *service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{service: projectService}
}

// Create POST /projects.
func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	project, err := h.service.CreateProject(c.UserContext(), principal, req.Draft())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.Envelope[dto.ProjectResponse]{Data: dto.NewProjectResponse(*project)})
}

// Get GET /projects/:id.
func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := projectID(c)
	if err != nil {
		return err
	}
	project, err := h.service.GetProject(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope[dto.ProjectResponse]{Data: dto.NewProjectResponse(*project)})
}

// History GET /projects/:id/history.
func (h *ProjectsHandler) History(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := projectID(c)
	if err != nil {
		return err
	}
	entries, err := h.service.ListHistory(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	items := make([]dto.HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewHistoryResponse(entry))
	}
	return c.JSON(dto.Envelope[[]dto.HistoryResponse]{Data: items})
}

// SetStatus PATCH /projects/:id/status.
func (h *ProjectsHandler) SetStatus(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := projectID(c)
	if err != nil {
		return err
	}
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	status, err := domain.ParseProjectStatus(req.Status)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"allowed": domain.AllStatuses})
	}

	project, err := h.service.SetStatus(c.UserContext(), principal, id, service.StatusChangeInput{
		Status:          status,
		Override:        req.Override,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope[dto.ProjectResponse]{Data: dto.NewProjectResponse(*project)})
}

// AssignDeveloper PATCH /projects/:id/developer.
func (h *ProjectsHandler) AssignDeveloper(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := projectID(c)
	if err != nil {
		return err
	}
	var req dto.AssignDeveloperRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.AssignInput{DeveloperEmail: req.DeveloperEmail, ExpectedVersion: req.Version}
	if req.ResetStatus != nil {
		reset, err := domain.ParseProjectStatus(*req.ResetStatus)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		input.ResetStatus = &reset
	}

	project, err := h.service.AssignDeveloper(c.UserContext(), principal, id, input)
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope[dto.ProjectResponse]{Data: dto.NewProjectResponse(*project)})
}

func requirePrincipal(c *fiber.Ctx) (*domain.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	return principal, nil
}

func projectID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid project id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}
