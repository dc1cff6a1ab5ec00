package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/project-intake/internal/domain"
	"github.com/spec-kit/project-intake/internal/events"
	"github.com/spec-kit/project-intake/internal/lifecycle"
	"github.com/spec-kit/project-intake/internal/observability"
	"github.com/spec-kit/project-intake/internal/policy"
	"github.com/spec-kit/project-intake/internal/repository"
	apperrors "github.com/spec-kit/project-intake/pkg/util/errorutil"
)

// ProjectService coordinates project workflows.
type ProjectService struct {
	projects   repository.ProjectRepository
	profiles   repository.ProfileRepository
	history    repository.ProjectHistoryRepository
	machine    *lifecycle.Machine
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// ProjectDependencies bundles collaborators for the project service.
type ProjectDependencies struct {
	ProjectRepo repository.ProjectRepository
	ProfileRepo repository.ProfileRepository
	HistoryRepo repository.ProjectHistoryRepository
	Machine     *lifecycle.Machine
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// StatusChangeInput describes a status update request.
type StatusChangeInput struct {
	Status          domain.ProjectStatus
	Override        bool
	ExpectedVersion int64
}

// AssignInput describes a developer assignment request. An empty
// DeveloperEmail clears the assignment.
type AssignInput struct {
	DeveloperEmail  string
	ResetStatus     *domain.ProjectStatus
	ExpectedVersion int64
}

// NewProjectService constructs the service.
func NewProjectService(deps ProjectDependencies) *ProjectService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	machine := deps.Machine
	if machine == nil {
		machine = lifecycle.NewMachine(logger)
	}
	return &ProjectService{
		projects:   deps.ProjectRepo,
		profiles:   deps.ProfileRepo,
		history:    deps.HistoryRepo,
		machine:    machine,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// CreateProject stores a new submission owned by the calling client.
func (s *ProjectService) CreateProject(ctx context.Context, principal *domain.Principal, draft domain.ProjectDraft) (*domain.Project, error) {
	draft = draft.Normalize()
	if problems := draft.Validate(); len(problems) > 0 {
		return nil, apperrors.NewValidationError("invalid project draft", fieldDetails(problems))
	}
	if err := s.authorize(principal, nil, policy.Request{Operation: policy.OpCreate}); err != nil {
		return nil, err
	}

	project, err := s.projects.Create(ctx, draft, principal.Email)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.New(events.EventProjectCreated, project.ID, events.ActorOf(*principal), events.ProjectCreatedPayload{
		Title:          project.Title,
		Type:           project.Type,
		SubmitterEmail: project.SubmitterEmail,
	}))
	return project, nil
}

// GetProject returns a project the principal may read.
func (s *ProjectService) GetProject(ctx context.Context, principal *domain.Principal, id int64) (*domain.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(principal, project, policy.Request{Operation: policy.OpRead}); err != nil {
		return nil, err
	}
	return project, nil
}

// ListHistory returns the audit trail of a readable project.
func (s *ProjectService) ListHistory(ctx context.Context, principal *domain.Principal, id int64) ([]domain.ProjectHistory, error) {
	if _, err := s.GetProject(ctx, principal, id); err != nil {
		return nil, err
	}
	return s.history.ListByProject(ctx, id)
}

// SetStatus moves a project through the lifecycle.
func (s *ProjectService) SetStatus(ctx context.Context, principal *domain.Principal, id int64, input StatusChangeInput) (*domain.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(project, input.ExpectedVersion); err != nil {
		return nil, err
	}
	if err := s.authorize(principal, project, policy.Request{Operation: policy.OpSetStatus, TargetStatus: input.Status}); err != nil {
		return nil, err
	}

	next, transition, err := s.machine.Apply(*project, input.Status, *principal, input.Override)
	if err != nil {
		return nil, err
	}
	if transition.NoOp {
		return project, nil
	}

	updated, err := s.projects.Update(ctx, id, domain.ProjectPatch{Status: &next.Status}, project.Version)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.New(events.EventProjectStatusChanged, id, events.ActorOf(*principal), events.ProjectStatusChangedPayload{
		OldStatus: transition.From,
		NewStatus: transition.To,
		Override:  transition.Override,
	}))
	return updated, nil
}

// AssignDeveloper sets or clears the project's developer.
func (s *ProjectService) AssignDeveloper(ctx context.Context, principal *domain.Principal, id int64, input AssignInput) (*domain.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(project, input.ExpectedVersion); err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(input.DeveloperEmail)
	var assignee *domain.Principal
	if email != "" && principal.IsAdmin() {
		assignee, err = s.profiles.GetByEmail(ctx, email)
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
	}
	req := policy.Request{Operation: policy.OpAssignDeveloper, Assignee: assignee, ClearAssignee: email == ""}
	if err := s.authorize(principal, project, req); err != nil {
		return nil, err
	}

	var target *string
	if email != "" {
		target = &email
	}
	next, assignment, err := s.machine.Assign(*project, target, *principal, input.ResetStatus)
	if err != nil {
		return nil, err
	}
	if assignment.NoOp {
		return project, nil
	}

	patch := domain.ProjectPatch{SetDeveloper: true, DeveloperEmail: next.DeveloperEmail}
	if assignment.StatusReset {
		patch.Status = &next.Status
	}
	updated, err := s.projects.Update(ctx, id, patch, project.Version)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.New(events.EventProjectAssigned, id, events.ActorOf(*principal), events.ProjectAssignedPayload{
		OldDeveloper: assignment.From,
		NewDeveloper: assignment.To,
		OldStatus:    assignment.StatusFrom,
		NewStatus:    assignment.StatusTo,
		StatusReset:  assignment.StatusReset,
	}))
	return updated, nil
}

func (s *ProjectService) load(ctx context.Context, id int64) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("project", map[string]any{"project_id": id})
		}
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) authorize(principal *domain.Principal, project *domain.Project, req policy.Request) error {
	decision := policy.Authorize(principal, project, req)
	if decision.Allowed {
		return nil
	}
	s.metrics.RecordDenial(string(req.Operation), string(decision.Reason))
	return decision.Err()
}

// publishEvent never fails the caller: the store write already happened.
func (s *ProjectService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Error("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("project_id", event.ProjectID),
			zap.Error(err),
		)
	}
}

func checkVersion(project *domain.Project, expected int64) error {
	if expected > 0 && expected != project.Version {
		return apperrors.NewConflict("project was modified since it was read", map[string]any{
			"project_id":       project.ID,
			"expected_version": expected,
			"current_version":  project.Version,
		})
	}
	return nil
}

func fieldDetails(problems map[string]string) map[string]any {
	details := make(map[string]any, len(problems))
	for field, problem := range problems {
		details[field] = problem
	}
	return details
}
