// Package optimistic keeps a client-side project view in step with the
// server. Mutations show up locally before the remote write; a failed write
// is undone by re-reading the authoritative record.
package optimistic

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/project-intake/internal/domain"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

// Remote is the authoritative side of the view.
type Remote interface {
	Dashboard(ctx context.Context) (*domain.ProjectView, error)
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
	SetStatus(ctx context.Context, id int64, status domain.ProjectStatus, override bool, version int64) (*domain.Project, error)
	AssignDeveloper(ctx context.Context, id int64, developerEmail string, reset *domain.ProjectStatus, version int64) (*domain.Project, error)
}

// Coordinator owns a local ProjectView. It is safe for concurrent use.
type Coordinator struct {
	remote Remote
	logger *zap.Logger

	mu     sync.RWMutex
	view   domain.ProjectView
	loaded bool
	stale  bool
}

// NewCoordinator builds a coordinator with an empty view. Call Reload first.
func NewCoordinator(remote Remote, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{remote: remote, logger: logger}
}

// Reload replaces the whole view from the remote and clears the stale flag.
func (c *Coordinator) Reload(ctx context.Context) error {
	view, err := c.remote.Dashboard(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = cloneView(*view)
	c.loaded = true
	c.stale = false
	return nil
}

// Snapshot returns a deep copy of the current view. A stale view holds a
// value the server rejected, so it is withheld until Reload.
func (c *Coordinator) Snapshot() (domain.ProjectView, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stale {
		return domain.ProjectView{}, staleView()
	}
	return cloneView(c.view), nil
}

// Project returns the locally displayed record, or a stale-view error while
// the view awaits Reload.
func (c *Coordinator) Project(id int64) (domain.Project, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stale {
		return domain.Project{}, staleView()
	}
	if i := c.indexOf(id); i >= 0 {
		return c.view.Projects[i].Clone(), nil
	}
	return domain.Project{}, apperrors.NewNotFound("project", map[string]any{"project_id": id})
}

// Stale reports whether a Reload is required before further mutations.
func (c *Coordinator) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

// SetStatus shows the new status locally, then writes it.
func (c *Coordinator) SetStatus(ctx context.Context, id int64, status domain.ProjectStatus, override bool) (*domain.Project, error) {
	return c.mutate(ctx, id,
		func(p *domain.Project) { p.Status = status },
		func(version int64) (*domain.Project, error) {
			return c.remote.SetStatus(ctx, id, status, override, version)
		},
	)
}

// AssignDeveloper shows the new assignee locally, then writes it. An empty
// email unassigns.
func (c *Coordinator) AssignDeveloper(ctx context.Context, id int64, developerEmail string, reset *domain.ProjectStatus) (*domain.Project, error) {
	return c.mutate(ctx, id,
		func(p *domain.Project) {
			if developerEmail == "" {
				p.DeveloperEmail = nil
			} else {
				email := domain.NormalizeEmail(developerEmail)
				p.DeveloperEmail = &email
			}
			if reset != nil {
				p.Status = *reset
			}
		},
		func(version int64) (*domain.Project, error) {
			return c.remote.AssignDeveloper(ctx, id, developerEmail, reset, version)
		},
	)
}

func (c *Coordinator) mutate(ctx context.Context, id int64, apply func(*domain.Project), write func(version int64) (*domain.Project, error)) (*domain.Project, error) {
	c.mu.Lock()
	if c.stale || !c.loaded {
		c.mu.Unlock()
		return nil, staleView()
	}
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return nil, apperrors.NewNotFound("project", map[string]any{"project_id": id})
	}
	version := c.view.Projects[i].Version
	apply(&c.view.Projects[i])
	c.mu.Unlock()

	updated, writeErr := write(version)
	if writeErr == nil {
		c.replace(*updated)
		return updated, nil
	}

	authoritative, readErr := c.remote.GetProject(ctx, id)
	if readErr != nil {
		c.mu.Lock()
		c.stale = true
		c.mu.Unlock()
		c.logger.Warn("view marked stale after failed revert",
			zap.Int64("project_id", id),
			zap.NamedError("write_error", writeErr),
			zap.NamedError("read_error", readErr),
		)
		return nil, apperrors.NewStaleViewError(writeErr, readErr)
	}
	c.replace(*authoritative)
	return nil, writeErr
}

func (c *Coordinator) replace(project domain.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(project.ID); i >= 0 {
		c.view.Projects[i] = project.Clone()
	}
}

func (c *Coordinator) indexOf(id int64) int {
	for i := range c.view.Projects {
		if c.view.Projects[i].ID == id {
			return i
		}
	}
	return -1
}

func staleView() error {
	return apperrors.NewDomainError(apperrors.CodeStaleView, "view must be reloaded", http.StatusConflict, nil)
}

func cloneView(view domain.ProjectView) domain.ProjectView {
	out := domain.ProjectView{
		Role:       view.Role,
		Projects:   make([]domain.Project, len(view.Projects)),
		Developers: make([]domain.DeveloperProfile, len(view.Developers)),
	}
	for i, p := range view.Projects {
		out.Projects[i] = p.Clone()
	}
	copy(out.Developers, view.Developers)
	return out
}
