package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-intake/internal/domain"
)

func TestPublish_RunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	var calls []string

	d.Subscribe(EventProjectCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventProjectCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "second")
		assert.Equal(t, int64(7), e.ProjectID)
		return nil
	})
	d.Subscribe(EventProjectAssigned, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	actor := ActorOf(domain.Principal{Email: "a@x.com", Role: domain.RoleClient})
	err := d.Publish(context.Background(), New(EventProjectCreated, 7, actor, ProjectCreatedPayload{Title: "Site"}))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestPublish_NoHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), New(EventDeveloperCreated, 0, Actor{}, nil)))
}

func TestNew_StampsIdentity(t *testing.T) {
	a := New(EventProjectCreated, 1, Actor{}, nil)
	b := New(EventProjectCreated, 1, Actor{}, nil)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())
}

func TestPublish_RecoversPanickingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	reached := false
	d.Subscribe(EventProjectAssigned, func(context.Context, Event) error {
		panic("nil payload")
	})
	d.Subscribe(EventProjectAssigned, func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := d.Publish(context.Background(), New(EventProjectAssigned, 3, Actor{}, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: nil payload")
	assert.True(t, reached)
}
