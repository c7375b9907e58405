package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// TaskSort is a column a task listing can be ordered by.
type TaskSort string

// Supported task sort columns.
const (
	TaskSortCreatedAt TaskSort = "created_at"
	TaskSortUpdatedAt TaskSort = "updated_at"
	TaskSortDueDate   TaskSort = "due_date"
	TaskSortPriority  TaskSort = "priority"
)

// IsValid reports whether s is a supported sort column.
func (s TaskSort) IsValid() bool {
	switch s {
	case TaskSortCreatedAt, TaskSortUpdatedAt, TaskSortDueDate, TaskSortPriority:
		return true
	}
	return false
}

// TaskFilter narrows a task listing. Nil pointers and empty strings mean
// "no restriction". VisibleTo limits results to projects that user belongs to.
type TaskFilter struct {
	ProjectID  *uuid.UUID
	AssigneeID *uuid.UUID
	Status     *domain.TaskStatus
	Priority   *domain.TaskPriority
	Search     string
	VisibleTo  *uuid.UUID
	Sort       TaskSort
	Descending bool
	Page       PageRequest
}

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// Create saves a new task.
	// Returns ErrInvalidEntity if the project, creator or assignee does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetForUpdate is GetByID that also locks the task row until the
	// transaction ends. Only meaningful through WithTx.
	// Returns ErrTaskNotFound if the task does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns one page of tasks and the total match count.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, int, error)

	// Update saves every mutable field of the task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task; its history rows cascade.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// UnassignUsers clears the assignee of every task in projectID assigned
	// to one of userIDs and returns the number of tasks changed.
	UnassignUsers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) (int64, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}

// TaskHistoryStore defines the interface for the task audit trail.
type TaskHistoryStore interface {
	// Create appends an audit row.
	// Returns ErrInvalidEntity if the task or actor does not exist.
	Create(ctx context.Context, entry *domain.TaskHistory) error

	// ListByTask returns one page of a task's audit rows, newest first, and the total count.
	ListByTask(ctx context.Context, taskID uuid.UUID, page PageRequest) ([]*domain.TaskHistory, int, error)

	// WithTx returns a new TaskHistoryStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskHistoryStore
}
