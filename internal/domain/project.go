package domain

import (
	"strings"
	"time"
)

// Draft field limits.
const (
	MaxTitleLength       = 200
	MaxTypeLength        = 100
	MaxDescriptionLength = 5000
	MaxBudgetLength      = 100
)

// Project is a client-submitted request tracked through triage and execution.
type Project struct {
	ID             int64
	Title          string
	Type           string
	Description    string
	Budget         *string
	SubmitterEmail string
	DeveloperEmail *string
	Status         ProjectStatus
	Version        int64
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// AssignedTo reports whether email is the assigned developer.
func (p *Project) AssignedTo(email string) bool {
	return p.DeveloperEmail != nil && email != "" && *p.DeveloperEmail == email
}

// HasDeveloper reports whether any developer is assigned.
func (p *Project) HasDeveloper() bool {
	return p.DeveloperEmail != nil && *p.DeveloperEmail != ""
}

// Clone returns a deep copy.
func (p Project) Clone() Project {
	out := p
	if p.Budget != nil {
		budget := *p.Budget
		out.Budget = &budget
	}
	if p.DeveloperEmail != nil {
		dev := *p.DeveloperEmail
		out.DeveloperEmail = &dev
	}
	return out
}

// ProjectDraft is the validated creation input. Ownership is not part of it.
type ProjectDraft struct {
	Title       string
	Type        string
	Description string
	Budget      *string
}

// Normalize trims every field and drops an empty budget.
func (d ProjectDraft) Normalize() ProjectDraft {
	out := ProjectDraft{
		Title:       strings.TrimSpace(d.Title),
		Type:        strings.TrimSpace(d.Type),
		Description: strings.TrimSpace(d.Description),
	}
	if d.Budget != nil {
		if budget := strings.TrimSpace(*d.Budget); budget != "" {
			out.Budget = &budget
		}
	}
	return out
}

// Validate returns per-field problems; an empty map means the draft is valid.
func (d ProjectDraft) Validate() map[string]string {
	problems := map[string]string{}
	checkRequired(problems, "title", d.Title, MaxTitleLength)
	checkRequired(problems, "type", d.Type, MaxTypeLength)
	checkRequired(problems, "description", d.Description, MaxDescriptionLength)
	if d.Budget != nil && len(*d.Budget) > MaxBudgetLength {
		problems["budget"] = "too long"
	}
	return problems
}

func checkRequired(problems map[string]string, field, value string, max int) {
	switch {
	case strings.TrimSpace(value) == "":
		problems[field] = "required"
	case len(value) > max:
		problems[field] = "too long"
	}
}

// ProjectPatch carries the only fields that may change after creation.
type ProjectPatch struct {
	Status         *ProjectStatus
	SetDeveloper   bool
	DeveloperEmail *string
}

// Empty reports whether the patch changes nothing.
func (p ProjectPatch) Empty() bool {
	return p.Status == nil && !p.SetDeveloper
}

// ProjectView is the per-role dashboard projection.
type ProjectView struct {
	Role       Role
	Projects   []Project
	Developers []DeveloperProfile
}
