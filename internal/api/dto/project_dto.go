package dto

import (
	"time"

	"github.com/spec-kit/project-intake/internal/domain"
)

// CreateProjectRequest payload. A submitter_email in the body is ignored;
// the owner is always the authenticated client.
type CreateProjectRequest struct {
	Title          string  `json:"title"`
	Type           string  `json:"type"`
	Description    string  `json:"description"`
	Budget         *string `json:"budget"`
	SubmitterEmail string  `json:"submitter_email,omitempty"`
}

// Draft converts the request to a creation draft.
func (r CreateProjectRequest) Draft() domain.ProjectDraft {
	return domain.ProjectDraft{Title: r.Title, Type: r.Type, Description: r.Description, Budget: r.Budget}
}

// SetStatusRequest payload for PATCH /projects/:id/status.
type SetStatusRequest struct {
	Status   string `json:"status"`
	Override bool   `json:"override"`
	Version  int64  `json:"version,omitempty"`
}

// AssignDeveloperRequest payload for PATCH /projects/:id/developer. An empty
// developer_email unassigns.
type AssignDeveloperRequest struct {
	DeveloperEmail string  `json:"developer_email"`
	ResetStatus    *string `json:"reset_status,omitempty"`
	Version        int64   `json:"version,omitempty"`
}

// ProjectResponse response.
type ProjectResponse struct {
	ID             int64                `json:"id"`
	Title          string               `json:"title"`
	Type           string               `json:"type"`
	Description    string               `json:"description"`
	Budget         *string              `json:"budget"`
	SubmitterEmail string               `json:"submitter_email"`
	DeveloperEmail *string              `json:"developer_email"`
	Status         domain.ProjectStatus `json:"status"`
	Lane           domain.StatusLane    `json:"lane"`
	Version        int64                `json:"version"`
	InsertedAt     time.Time            `json:"inserted_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// NewProjectResponse maps a project.
func NewProjectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:             p.ID,
		Title:          p.Title,
		Type:           p.Type,
		Description:    p.Description,
		Budget:         p.Budget,
		SubmitterEmail: p.SubmitterEmail,
		DeveloperEmail: p.DeveloperEmail,
		Status:         p.Status,
		Lane:           p.Status.Lane(),
		Version:        p.Version,
		InsertedAt:     p.InsertedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// Domain converts the response back into a project.
func (r ProjectResponse) Domain() domain.Project {
	return domain.Project{
		ID:             r.ID,
		Title:          r.Title,
		Type:           r.Type,
		Description:    r.Description,
		Budget:         r.Budget,
		SubmitterEmail: r.SubmitterEmail,
		DeveloperEmail: r.DeveloperEmail,
		Status:         r.Status,
		Version:        r.Version,
		InsertedAt:     r.InsertedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID         int64                    `json:"id"`
	ProjectID  int64                    `json:"project_id"`
	ActorEmail string                   `json:"actor_email"`
	ChangeType domain.ProjectChangeType `json:"change_type"`
	OldValue   *string                  `json:"old_value"`
	NewValue   *string                  `json:"new_value"`
	Override   bool                     `json:"override"`
	InsertedAt time.Time                `json:"inserted_at"`
}

// NewHistoryResponse maps an audit entry.
func NewHistoryResponse(h domain.ProjectHistory) HistoryResponse {
	return HistoryResponse{
		ID:         h.ID,
		ProjectID:  h.ProjectID,
		ActorEmail: h.ActorEmail,
		ChangeType: h.ChangeType,
		OldValue:   h.OldValue,
		NewValue:   h.NewValue,
		Override:   h.Override,
		InsertedAt: h.InsertedAt,
	}
}

// DashboardResponse is the per-role view.
type DashboardResponse struct {
	Role       domain.Role         `json:"role"`
	Projects   []ProjectResponse   `json:"projects"`
	Developers []DeveloperResponse `json:"developers"`
}

// NewDashboardResponse maps a view.
func NewDashboardResponse(v domain.ProjectView) DashboardResponse {
	out := DashboardResponse{
		Role:       v.Role,
		Projects:   make([]ProjectResponse, 0, len(v.Projects)),
		Developers: make([]DeveloperResponse, 0, len(v.Developers)),
	}
	for _, p := range v.Projects {
		out.Projects = append(out.Projects, NewProjectResponse(p))
	}
	for _, d := range v.Developers {
		out.Developers = append(out.Developers, NewDeveloperResponse(d))
	}
	return out
}

// Domain converts the response back into a view.
func (r DashboardResponse) Domain() domain.ProjectView {
	view := domain.ProjectView{
		Role:       r.Role,
		Projects:   make([]domain.Project, 0, len(r.Projects)),
		Developers: make([]domain.DeveloperProfile, 0, len(r.Developers)),
	}
	for _, p := range r.Projects {
		view.Projects = append(view.Projects, p.Domain())
	}
	for _, d := range r.Developers {
		view.Developers = append(view.Developers, d.Domain())
	}
	return view
}
