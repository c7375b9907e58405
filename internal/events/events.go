package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted after a change has been committed.
const (
	ProjectUpdated = "project.updated"
	ProjectDeleted = "project.deleted"
	TaskCreated    = "task.created"
	TaskUpdated    = "task.updated"
	TaskDeleted    = "task.deleted"
)

// Event describes a committed change to a project or task.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the event type constants above
	Type string `json:"type"`

	// ActorID is the user whose request caused the change
	ActorID uuid.UUID `json:"actor_id"`

	// ProjectID is the affected project, or the task's project for task events
	ProjectID uuid.UUID `json:"project_id"`

	// TaskID is set for task events only
	TaskID uuid.UUID `json:"task_id,omitempty"`

	// Payload carries event-specific details serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event of the given type. A nil payload is omitted.
func NewEvent(eventType string, actorID, projectID uuid.UUID, payload interface{}) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		ActorID:   actorID,
		ProjectID: projectID,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewTaskEvent creates a task event, recording both the task and its project.
func NewTaskEvent(eventType string, actorID, projectID, taskID uuid.UUID, payload interface{}) (*Event, error) {
	e, err := NewEvent(eventType, actorID, projectID, payload)
	if err != nil {
		return nil, err
	}
	e.TaskID = taskID
	return e, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}
