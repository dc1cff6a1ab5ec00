package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/project-intake/internal/domain"
	"github.com/spec-kit/project-intake/internal/events"
	"github.com/spec-kit/project-intake/internal/observability"
	"github.com/spec-kit/project-intake/internal/repository"
)

// AuditService turns project events into history rows, logs and metrics.
type AuditService struct {
	dispatcher events.Dispatcher
	history    repository.ProjectHistoryRepository
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, history repository.ProjectHistoryRepository, metrics *observability.Metrics, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		history:    history,
		metrics:    metrics,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventProjectCreated, a.handleProjectCreated)
	a.dispatcher.Subscribe(events.EventProjectStatusChanged, a.handleStatusChanged)
	a.dispatcher.Subscribe(events.EventProjectAssigned, a.handleAssigned)
	a.dispatcher.Subscribe(events.EventDeveloperCreated, a.handleDeveloperCreated)
}

func (a *AuditService) handleProjectCreated(_ context.Context, event events.Event) error {
	a.logger.Info("ProjectCreated", zap.Int64("project_id", event.ProjectID), zap.String("actor", event.Actor.Email))
	return nil
}

func (a *AuditService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ProjectStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	a.metrics.RecordTransition(string(payload.OldStatus), string(payload.NewStatus), payload.Override)
	a.logger.Info("ProjectStatusChanged",
		zap.Int64("project_id", event.ProjectID),
		zap.String("actor", event.Actor.Email),
		zap.String("from", string(payload.OldStatus)),
		zap.String("to", string(payload.NewStatus)),
		zap.Bool("override", payload.Override),
	)
	return a.record(ctx, event, domain.ChangeTypeStatus, statusPtr(payload.OldStatus), statusPtr(payload.NewStatus), payload.Override)
}

func (a *AuditService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ProjectAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	a.logger.Info("ProjectAssigned",
		zap.Int64("project_id", event.ProjectID),
		zap.String("actor", event.Actor.Email),
		zap.Stringp("developer", payload.NewDeveloper),
		zap.Bool("status_reset", payload.StatusReset),
	)
	if err := a.record(ctx, event, domain.ChangeTypeAssignee, payload.OldDeveloper, payload.NewDeveloper, false); err != nil {
		return err
	}
	if payload.StatusReset {
		a.metrics.RecordTransition(string(payload.OldStatus), string(payload.NewStatus), false)
		return a.record(ctx, event, domain.ChangeTypeStatus, statusPtr(payload.OldStatus), statusPtr(payload.NewStatus), false)
	}
	return nil
}

func (a *AuditService) handleDeveloperCreated(_ context.Context, event events.Event) error {
	a.logger.Info("DeveloperCreated", zap.String("actor", event.Actor.Email), zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) record(ctx context.Context, event events.Event, change domain.ProjectChangeType, oldValue, newValue *string, override bool) error {
	if a.history == nil {
		return nil
	}
	return a.history.Create(ctx, &domain.ProjectHistory{
		ProjectID:  event.ProjectID,
		ActorEmail: event.Actor.Email,
		ChangeType: change,
		OldValue:   oldValue,
		NewValue:   newValue,
		Override:   override,
	})
}

func statusPtr(status domain.ProjectStatus) *string {
	value := string(status)
	return &value
}
