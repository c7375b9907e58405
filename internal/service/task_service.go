package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
	"go.opentelemetry.io/otel/attribute"
)

// TaskInput holds the fields of a new task. Empty Status and Priority take
// the domain defaults.
type TaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
	AssigneeID  *uuid.UUID
	DueDate     *time.Time
}

// TaskChangePayload is the payload of task.updated events.
type TaskChangePayload struct {
	Fields            []string `json:"fields"`
	StatusChanged     bool     `json:"status_changed,omitempty"`
	PriorityChanged   bool     `json:"priority_changed,omitempty"`
	PreviousProjectID string   `json:"previous_project_id,omitempty"`
}

// TaskService manages tasks and their audit history.
type TaskService interface {
	// CreateTask adds a task to a project the actor belongs to and records
	// the initial history row.
	CreateTask(ctx context.Context, actor Actor, projectID uuid.UUID, input TaskInput) (*domain.Task, error)

	// ListTasks returns matching tasks. Non-admins only see tasks of their projects.
	ListTasks(ctx context.Context, actor Actor, filter store.TaskFilter) (store.Page[*domain.Task], error)

	GetTask(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Task, error)

	// UpdateTask applies changes subject to the actor's field permissions and
	// writes a history row when status or priority changed.
	UpdateTask(ctx context.Context, actor Actor, id uuid.UUID, changes domain.TaskChanges) (*domain.Task, error)

	DeleteTask(ctx context.Context, actor Actor, id uuid.UUID) error

	// ListHistory returns the task's audit rows, newest first.
	ListHistory(ctx context.Context, actor Actor, id uuid.UUID, page store.PageRequest) (store.Page[*domain.TaskHistory], error)
}

type taskServiceImpl struct {
	tasks    store.TaskStore
	history  store.TaskHistoryStore
	projects store.ProjectStore
	tx       store.TxRunner
	publisher
	logger *slog.Logger
}

// NewTaskService creates a new TaskService. The emitter may be nil.
func NewTaskService(
	tasks store.TaskStore,
	history store.TaskHistoryStore,
	projects store.ProjectStore,
	tx store.TxRunner,
	emitter events.EventEmitter,
	logger *slog.Logger,
) TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &taskServiceImpl{
		tasks:     tasks,
		history:   history,
		projects:  projects,
		tx:        tx,
		publisher: publisher{emitter: emitter},
		logger:    logger.With(slog.String("component", "task_service")),
	}
}

// Field sets for task updates by the actor's relation to the task.
var (
	contributorTaskFields = map[string]bool{
		"title": true, "description": true, "status": true, "priority": true, "due_date": true,
	}
	memberTaskFields = map[string]bool{"status": true}
)

// forbiddenTaskField returns the first field in changes the actor may not
// set, or "" when all are allowed. Admins and the project owner may change
// anything; the assignee and creator may edit content and workflow fields;
// other members may only move the task through statuses.
func forbiddenTaskField(actor Actor, project *domain.Project, task *domain.Task, changes domain.TaskChanges) string {
	if actor.canManage(project) {
		return ""
	}
	allowed := memberTaskFields
	if task.IsAssignedTo(actor.ID) || task.CreatorID == actor.ID {
		allowed = contributorTaskFields
	}
	for _, f := range changes.Fields() {
		if !allowed[f] {
			return f
		}
	}
	return ""
}

func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	actor Actor,
	projectID uuid.UUID,
	input TaskInput,
) (task *domain.Task, err error) {
	ctx, span := startSpan(ctx, "TaskService.CreateTask", attribute.String("project.id", projectID.String()))
	defer func() { finishSpan(span, err) }()
	log := logger.FromContextOrDefault(ctx, s.logger)

	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		project, err := visibleProject(ctx, s.projects.WithTx(tx).GetForShare, actor, projectID)
		if err != nil {
			return err
		}
		if input.AssigneeID != nil && !project.HasMember(*input.AssigneeID) {
			return ErrAssigneeNotMember
		}

		task, err = domain.NewTask(project.ID, actor.ID, input.Title, input.Description,
			input.Status, input.Priority, input.AssigneeID, input.DueDate)
		if err != nil {
			return err
		}
		if err := s.tasks.WithTx(tx).Create(ctx, task); err != nil {
			return err
		}
		return s.history.WithTx(tx).Create(ctx, domain.NewCreationHistory(task, actor.ID))
	})
	if err != nil {
		log.Debug("task creation rejected",
			slog.String("project_id", projectID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	event, evErr := events.NewTaskEvent(events.TaskCreated, actor.ID, task.ProjectID, task.ID, nil)
	s.publish(ctx, log, event, evErr)

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("project_id", task.ProjectID.String()))
	return task, nil
}

func (s *taskServiceImpl) ListTasks(
	ctx context.Context,
	actor Actor,
	filter store.TaskFilter,
) (page store.Page[*domain.Task], err error) {
	ctx, span := startSpan(ctx, "TaskService.ListTasks")
	defer func() { finishSpan(span, err) }()

	if !actor.IsAdmin() {
		id := actor.ID
		filter.VisibleTo = &id
	}
	if filter.Sort == "" {
		filter.Sort = store.TaskSortCreatedAt
	}
	filter.Page = filter.Page.Normalize()

	tasks, total, err := s.tasks.List(ctx, filter)
	if err != nil {
		return page, NewServiceError("list_tasks", "failed to list tasks", err)
	}
	return store.NewPage(tasks, filter.Page, total), nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, actor Actor, id uuid.UUID) (task *domain.Task, err error) {
	ctx, span := startSpan(ctx, "TaskService.GetTask", attribute.String("task.id", id.String()))
	defer func() { finishSpan(span, err) }()

	task, _, err = visibleTask(ctx, s.tasks.GetByID, s.projects.GetByID, actor, id)
	return task, err
}

func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	changes domain.TaskChanges,
) (task *domain.Task, err error) {
	ctx, span := startSpan(ctx, "TaskService.UpdateTask", attribute.String("task.id", id.String()))
	defer func() { finishSpan(span, err) }()
	log := logger.FromContextOrDefault(ctx, s.logger)

	var payload TaskChangePayload
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)
		projects := s.projects.WithTx(tx)

		current, project, err := lockTask(ctx, tasks, projects, actor, id)
		if err != nil {
			return err
		}
		if field := forbiddenTaskField(actor, project, current, changes); field != "" {
			return &FieldForbiddenError{Field: field}
		}

		payload.Fields = changes.Fields()
		if len(payload.Fields) == 0 {
			task = current
			return nil
		}

		target := project
		if changes.ProjectID != nil && *changes.ProjectID != current.ProjectID {
			target, err = visibleProject(ctx, projects.GetForShare, actor, *changes.ProjectID)
			if err != nil {
				return err
			}
			payload.PreviousProjectID = current.ProjectID.String()
		}

		before := *current
		if err := current.Apply(changes); err != nil {
			return err
		}
		if current.AssigneeID != nil && !target.HasMember(*current.AssigneeID) {
			return ErrAssigneeNotMember
		}

		if err := tasks.Update(ctx, current); err != nil {
			return err
		}

		if entry := domain.DiffTaskHistory(&before, current, actor.ID); entry != nil {
			if err := s.history.WithTx(tx).Create(ctx, entry); err != nil {
				return err
			}
			payload.StatusChanged = entry.StatusChanged()
			payload.PriorityChanged = entry.PriorityChanged()
		}

		task = current
		return nil
	})
	if err != nil {
		log.Debug("task update rejected",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	if len(payload.Fields) > 0 {
		event, evErr := events.NewTaskEvent(events.TaskUpdated, actor.ID, task.ProjectID, task.ID, payload)
		s.publish(ctx, log, event, evErr)
	}

	log.Info("task updated",
		slog.String("task_id", id.String()),
		slog.Any("fields", payload.Fields))
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, actor Actor, id uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "TaskService.DeleteTask", attribute.String("task.id", id.String()))
	defer func() { finishSpan(span, err) }()
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, project, err := visibleTask(ctx, s.tasks.GetByID, s.projects.GetByID, actor, id)
	if err != nil {
		return err
	}
	if !actor.canManage(project) && task.CreatorID != actor.ID {
		return ErrForbidden
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}

	event, evErr := events.NewTaskEvent(events.TaskDeleted, actor.ID, task.ProjectID, task.ID, nil)
	s.publish(ctx, log, event, evErr)

	log.Info("task deleted",
		slog.String("task_id", id.String()),
		slog.String("actor_id", actor.ID.String()))
	return nil
}

func (s *taskServiceImpl) ListHistory(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	req store.PageRequest,
) (page store.Page[*domain.TaskHistory], err error) {
	ctx, span := startSpan(ctx, "TaskService.ListHistory", attribute.String("task.id", id.String()))
	defer func() { finishSpan(span, err) }()

	if _, _, err := visibleTask(ctx, s.tasks.GetByID, s.projects.GetByID, actor, id); err != nil {
		return page, err
	}

	req = req.Normalize()
	entries, total, err := s.history.ListByTask(ctx, id, req)
	if err != nil {
		return page, NewServiceError("list_history", "failed to list task history", err)
	}
	return store.NewPage(entries, req, total), nil
}

// visibleTask loads a task and its project, reporting tasks in projects the
// actor cannot see as not found.
func visibleTask(
	ctx context.Context,
	loadTask func(context.Context, uuid.UUID) (*domain.Task, error),
	loadProject projectLoader,
	actor Actor,
	id uuid.UUID,
) (*domain.Task, *domain.Project, error) {
	task, err := loadTask(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	project, err := loadProject(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.canSee(project) {
		return nil, nil, store.ErrTaskNotFound
	}
	return task, project, nil
}

// lockTask loads a task for update inside a transaction. The project row is
// share-locked before the task row is locked, the same order membership
// changes lock the project and then the tasks they unassign. If the task
// moved projects between the first read and the lock, the new project is
// locked too; the task lock then keeps it from moving again.
func lockTask(
	ctx context.Context,
	tasks store.TaskStore,
	projects store.ProjectStore,
	actor Actor,
	id uuid.UUID,
) (*domain.Task, *domain.Project, error) {
	task, err := tasks.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	projectID := task.ProjectID
	for {
		project, err := projects.GetForShare(ctx, projectID)
		if errors.Is(err, store.ErrProjectNotFound) {
			return nil, nil, store.ErrTaskNotFound
		}
		if err != nil {
			return nil, nil, err
		}
		if task, err = tasks.GetForUpdate(ctx, id); err != nil {
			return nil, nil, err
		}
		if task.ProjectID != projectID {
			projectID = task.ProjectID
			continue
		}
		if !actor.canSee(project) {
			return nil, nil, store.ErrTaskNotFound
		}
		return task, project, nil
	}
}
