// Package client talks to the project-intake HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-intake/internal/api/dto"
	"github.com/spec-kit/project-intake/internal/domain"
	"github.com/spec-kit/project-intake/internal/optimistic"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

const defaultTimeout = 10 * time.Second

// Client is an API client. It satisfies optimistic.Remote.
type Client struct {
	baseURL string
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

var _ optimistic.Remote = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds every request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: defaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Register signs up a client account and keeps its token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", dto.RegisterRequest{Name: name, Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Login signs in and keeps the token.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", dto.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Logout revokes the session and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Me returns the authenticated principal.
func (c *Client) Me(ctx context.Context) (*dto.PrincipalResponse, error) {
	var out dto.PrincipalResponse
	if err := c.do(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Dashboard(ctx context.Context) (*domain.ProjectView, error) {
	var out dto.DashboardResponse
	if err := c.do(ctx, http.MethodGet, "/dashboard", nil, &out); err != nil {
		return nil, err
	}
	view := out.Domain()
	return &view, nil
}

// CreateProject submits a project as the signed-in client.
func (c *Client) CreateProject(ctx context.Context, draft domain.ProjectDraft) (*domain.Project, error) {
	req := dto.CreateProjectRequest{Title: draft.Title, Type: draft.Type, Description: draft.Description, Budget: draft.Budget}
	return c.project(ctx, http.MethodPost, "/projects", req)
}

func (c *Client) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	return c.project(ctx, http.MethodGet, fmt.Sprintf("/projects/%d", id), nil)
}

// History returns the audit trail of a project.
func (c *Client) History(ctx context.Context, id int64) ([]dto.HistoryResponse, error) {
	var out []dto.HistoryResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d/history", id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetStatus(ctx context.Context, id int64, status domain.ProjectStatus, override bool, version int64) (*domain.Project, error) {
	req := dto.SetStatusRequest{Status: string(status), Override: override, Version: version}
	return c.project(ctx, http.MethodPatch, fmt.Sprintf("/projects/%d/status", id), req)
}

func (c *Client) AssignDeveloper(ctx context.Context, id int64, developerEmail string, reset *domain.ProjectStatus, version int64) (*domain.Project, error) {
	req := dto.AssignDeveloperRequest{DeveloperEmail: developerEmail, Version: version}
	if reset != nil {
		value := string(*reset)
		req.ResetStatus = &value
	}
	return c.project(ctx, http.MethodPatch, fmt.Sprintf("/projects/%d/developer", id), req)
}

// CreateDeveloper provisions a developer. Admin only.
func (c *Client) CreateDeveloper(ctx context.Context, name, email, temporaryPassword string) (*dto.PrincipalResponse, error) {
	var out dto.PrincipalResponse
	req := dto.CreateDeveloperRequest{Name: name, Email: email, TemporaryPassword: temporaryPassword}
	if err := c.do(ctx, http.MethodPost, "/admin/developers", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDevelopers returns the developer roster. Admin only.
func (c *Client) ListDevelopers(ctx context.Context) ([]dto.DeveloperResponse, error) {
	var out []dto.DeveloperResponse
	if err := c.do(ctx, http.MethodGet, "/admin/developers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) project(ctx context.Context, method, path string, body any) (*domain.Project, error) {
	var out dto.ProjectResponse
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	project := out.Domain()
	return &project, nil
}

func (c *Client) agent(method, url string) (*fiber.Agent, error) {
	switch method {
	case http.MethodGet:
		return fiber.Get(url), nil
	case http.MethodPost:
		return fiber.Post(url), nil
	case http.MethodPatch:
		return fiber.Patch(url), nil
	}
	return nil, fmt.Errorf("unsupported method %s", method)
}

// do sends one request and decodes the data envelope into out. Non-2xx
// responses come back as *errorutil.DomainError carrying the server's code.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewStoreError(apperrors.StoreConnectivity, err)
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	a, err := c.agent(method, c.baseURL+path)
	if err != nil {
		return err
	}
	a.Timeout(timeout)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if token := c.Token(); token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		a.JSON(body)
	}
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return apperrors.NewStoreError(apperrors.StoreConnectivity, err)
	}

	code, raw, errs := a.Bytes()
	if len(errs) > 0 {
		return apperrors.NewStoreError(apperrors.StoreConnectivity, errors.Join(errs...))
	}
	if code < 200 || code >= 300 {
		return decodeError(code, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	envelope := dto.Envelope[json.RawMessage]{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func decodeError(code int, raw []byte) error {
	var envelope dto.ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Code == "" {
		return apperrors.NewDomainError(apperrors.CodeInternal, strings.TrimSpace(string(raw)), code, nil)
	}
	return apperrors.NewDomainError(envelope.Error.Code, envelope.Error.Message, code, envelope.Error.Details)
}
