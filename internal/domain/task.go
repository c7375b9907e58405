package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
)

// IsValid reports whether s is a known status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone:
		return true
	}
	return false
}

// TaskPriority is the urgency of a task.
type TaskPriority string

// Possible task priority values
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// IsValid reports whether p is a known priority.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities from low (1) to urgent (4). Unknown values rank 0.
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityLow:
		return 1
	case TaskPriorityMedium:
		return 2
	case TaskPriorityHigh:
		return 3
	case TaskPriorityUrgent:
		return 4
	}
	return 0
}

// Task field limits.
const (
	MaxTaskTitleLength       = 200
	MaxTaskDescriptionLength = 5000
)

// Task validation errors
var (
	ErrEmptyTaskID            = fmt.Errorf("%w: task ID cannot be empty", ErrValidation)
	ErrEmptyTaskProjectID     = fmt.Errorf("%w: task project ID cannot be empty", ErrValidation)
	ErrEmptyTaskCreatorID     = fmt.Errorf("%w: task creator ID cannot be empty", ErrValidation)
	ErrEmptyTaskTitle         = fmt.Errorf("%w: task title cannot be empty", ErrValidation)
	ErrTaskTitleTooLong       = fmt.Errorf("%w: task title must be at most 200 characters", ErrValidation)
	ErrTaskDescriptionTooLong = fmt.Errorf("%w: task description must be at most 5000 characters", ErrValidation)
	ErrInvalidTaskStatus      = fmt.Errorf("%w: invalid task status", ErrValidation)
	ErrInvalidTaskPriority    = fmt.Errorf("%w: invalid task priority", ErrValidation)
)

// Task is a unit of work belonging to a project. AssigneeID is nil when the
// task is unassigned; DueDate is nil when there is no deadline.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	ProjectID   uuid.UUID    `json:"project_id"`
	AssigneeID  *uuid.UUID   `json:"assignee_id,omitempty"`
	CreatorID   uuid.UUID    `json:"creator_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewTask creates a new Task in projectID created by creatorID. Empty status
// and priority default to todo and medium.
func NewTask(
	projectID, creatorID uuid.UUID,
	title, description string,
	status TaskStatus,
	priority TaskPriority,
	assigneeID *uuid.UUID,
	dueDate *time.Time,
) (*Task, error) {
	if status == "" {
		status = TaskStatusTodo
	}
	if priority == "" {
		priority = TaskPriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		ProjectID:   projectID,
		AssigneeID:  assigneeID,
		CreatorID:   creatorID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      status,
		Priority:    priority,
		DueDate:     normalizeDueDate(dueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.ProjectID == uuid.Nil {
		return ErrEmptyTaskProjectID
	}
	if t.CreatorID == uuid.Nil {
		return ErrEmptyTaskCreatorID
	}
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}
	if len([]rune(t.Title)) > MaxTaskTitleLength {
		return ErrTaskTitleTooLong
	}
	if len([]rune(t.Description)) > MaxTaskDescriptionLength {
		return ErrTaskDescriptionTooLong
	}
	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}
	if !t.Priority.IsValid() {
		return ErrInvalidTaskPriority
	}
	return nil
}

// IsAssignedTo reports whether the task is assigned to userID.
func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// TaskChanges is a partial update to a task. Nil fields are left untouched.
// ClearAssignee and ClearDueDate unset the nullable fields explicitly.
type TaskChanges struct {
	Title         *string
	Description   *string
	Status        *TaskStatus
	Priority      *TaskPriority
	DueDate       *time.Time
	ClearDueDate  bool
	AssigneeID    *uuid.UUID
	ClearAssignee bool
	ProjectID     *uuid.UUID
}

// Fields returns the JSON names of the fields the change set touches.
func (c TaskChanges) Fields() []string {
	var fields []string
	if c.Title != nil {
		fields = append(fields, "title")
	}
	if c.Description != nil {
		fields = append(fields, "description")
	}
	if c.Status != nil {
		fields = append(fields, "status")
	}
	if c.Priority != nil {
		fields = append(fields, "priority")
	}
	if c.DueDate != nil || c.ClearDueDate {
		fields = append(fields, "due_date")
	}
	if c.AssigneeID != nil || c.ClearAssignee {
		fields = append(fields, "assignee_id")
	}
	if c.ProjectID != nil {
		fields = append(fields, "project_id")
	}
	return fields
}

// Apply writes the change set onto the task and validates the result. On
// validation failure the task is restored to its previous state.
func (t *Task) Apply(c TaskChanges) error {
	orig := *t

	if c.Title != nil {
		t.Title = strings.TrimSpace(*c.Title)
	}
	if c.Description != nil {
		t.Description = strings.TrimSpace(*c.Description)
	}
	if c.Status != nil {
		t.Status = *c.Status
	}
	if c.Priority != nil {
		t.Priority = *c.Priority
	}
	if c.ClearDueDate {
		t.DueDate = nil
	} else if c.DueDate != nil {
		t.DueDate = normalizeDueDate(c.DueDate)
	}
	if c.ClearAssignee {
		t.AssigneeID = nil
	} else if c.AssigneeID != nil {
		id := *c.AssigneeID
		t.AssigneeID = &id
	}
	if c.ProjectID != nil {
		t.ProjectID = *c.ProjectID
	}

	if err := t.Validate(); err != nil {
		*t = orig
		return err
	}

	t.UpdatedAt = time.Now().UTC()
	return nil
}

func normalizeDueDate(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	utc := d.UTC()
	return &utc
}
