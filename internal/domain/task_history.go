package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task history validation errors
var (
	ErrEmptyTaskHistoryID      = fmt.Errorf("%w: task history ID cannot be empty", ErrValidation)
	ErrEmptyTaskHistoryTaskID  = fmt.Errorf("%w: task history task ID cannot be empty", ErrValidation)
	ErrEmptyTaskHistoryActorID = fmt.Errorf("%w: task history actor ID cannot be empty", ErrValidation)
)

// TaskHistory is an audit row recording a task's status and priority before
// and after a mutation. Previous values are empty for the row written when a
// task is created.
type TaskHistory struct {
	ID               uuid.UUID    `json:"id"`
	TaskID           uuid.UUID    `json:"task_id"`
	ChangedBy        uuid.UUID    `json:"changed_by"`
	PreviousStatus   TaskStatus   `json:"previous_status,omitempty"`
	NewStatus        TaskStatus   `json:"new_status"`
	PreviousPriority TaskPriority `json:"previous_priority,omitempty"`
	NewPriority      TaskPriority `json:"new_priority"`
	CreatedAt        time.Time    `json:"created_at"`
}

// Validate checks if the TaskHistory has valid data.
func (h *TaskHistory) Validate() error {
	if h.ID == uuid.Nil {
		return ErrEmptyTaskHistoryID
	}
	if h.TaskID == uuid.Nil {
		return ErrEmptyTaskHistoryTaskID
	}
	if h.ChangedBy == uuid.Nil {
		return ErrEmptyTaskHistoryActorID
	}
	if h.PreviousStatus != "" && !h.PreviousStatus.IsValid() {
		return ErrInvalidTaskStatus
	}
	if !h.NewStatus.IsValid() {
		return ErrInvalidTaskStatus
	}
	if h.PreviousPriority != "" && !h.PreviousPriority.IsValid() {
		return ErrInvalidTaskPriority
	}
	if !h.NewPriority.IsValid() {
		return ErrInvalidTaskPriority
	}
	return nil
}

// StatusChanged reports whether the row records a status transition.
func (h *TaskHistory) StatusChanged() bool {
	return h.PreviousStatus != h.NewStatus
}

// PriorityChanged reports whether the row records a priority transition.
func (h *TaskHistory) PriorityChanged() bool {
	return h.PreviousPriority != h.NewPriority
}

// NewCreationHistory returns the initial audit row for a newly created task.
func NewCreationHistory(task *Task, actorID uuid.UUID) *TaskHistory {
	return &TaskHistory{
		ID:          uuid.New(),
		TaskID:      task.ID,
		ChangedBy:   actorID,
		NewStatus:   task.Status,
		NewPriority: task.Priority,
		CreatedAt:   task.CreatedAt,
	}
}

// DiffTaskHistory compares a task before and after an update. It returns nil
// when neither status nor priority changed, otherwise an audit row carrying
// both previous and new values.
func DiffTaskHistory(before, after *Task, actorID uuid.UUID) *TaskHistory {
	if before.Status == after.Status && before.Priority == after.Priority {
		return nil
	}
	return &TaskHistory{
		ID:               uuid.New(),
		TaskID:           after.ID,
		ChangedBy:        actorID,
		PreviousStatus:   before.Status,
		NewStatus:        after.Status,
		PreviousPriority: before.Priority,
		NewPriority:      after.Priority,
		CreatedAt:        time.Now().UTC(),
	}
}
