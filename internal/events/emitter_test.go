package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newEvent := func(t *testing.T, eventType string) *Event {
		event, err := NewEvent(eventType, uuid.New(), uuid.New(), map[string]string{"key": "value"})
		require.NoError(t, err)
		return event
	}

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		assert.NoError(t, emitter.EmitEvent(context.Background(), newEvent(t, TaskUpdated)))
	})

	t.Run("every unfiltered handler sees the event", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event := newEvent(t, TaskUpdated)
		require.NoError(t, emitter.EmitEvent(context.Background(), event))

		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Same(t, event, handler1.LastEvent)
		assert.Same(t, event, handler2.LastEvent)
	})

	t.Run("typed subscriptions only see their types", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		projects := &MockEventHandler{}
		emitter.RegisterHandler(projects, ProjectUpdated, ProjectDeleted)

		require.NoError(t, emitter.EmitEvent(context.Background(), newEvent(t, TaskCreated)))
		require.NoError(t, emitter.EmitEvent(context.Background(), newEvent(t, ProjectDeleted)))

		assert.Equal(t, 1, projects.HandledCount)
		assert.Equal(t, ProjectDeleted, projects.LastEvent.Type)
	})

	t.Run("failures are joined and do not stop later handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(nil)
		first := errors.New("handler error")
		second := errors.New("second error")
		ok := &MockEventHandler{}
		emitter.RegisterHandler(&MockEventHandler{HandlerError: first})
		emitter.RegisterHandler(&MockEventHandler{HandlerError: second})
		emitter.RegisterHandler(ok)

		err := emitter.EmitEvent(context.Background(), newEvent(t, TaskUpdated))
		assert.ErrorIs(t, err, first)
		assert.ErrorIs(t, err, second)
		assert.Equal(t, 1, ok.HandledCount)
	})

	t.Run("panicking handler is reported as an error", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		after := &MockEventHandler{}
		emitter.RegisterHandler(HandlerFunc(func(context.Context, *Event) error {
			panic("boom")
		}))
		emitter.RegisterHandler(after)

		err := emitter.EmitEvent(context.Background(), newEvent(t, TaskDeleted))
		assert.ErrorContains(t, err, "event handler panicked: boom")
		assert.Equal(t, 1, after.HandledCount)
	})

	t.Run("handler func adapter", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		var seen string
		emitter.RegisterHandler(HandlerFunc(func(_ context.Context, e *Event) error {
			seen = e.Type
			return nil
		}))

		require.NoError(t, emitter.EmitEvent(context.Background(), newEvent(t, TaskUpdated)))
		assert.Equal(t, TaskUpdated, seen)
	})
}
