package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const taskColumns = `t.id, t.project_id, t.assignee_id, t.creator_id, t.title, t.description,
	t.status, t.priority, t.due_date, t.created_at, t.updated_at`

// priorityRank orders priorities by urgency rather than alphabetically.
const priorityRank = `CASE t.priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'urgent' THEN 4 END`

// PostgresTaskStore implements the store.TaskStore interface.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func scanTask(row interface{ Scan(...any) error }) (*domain.Task, error) {
	var (
		t        domain.Task
		assignee uuid.NullUUID
		due      sql.NullTime
		status   string
		priority string
	)
	err := row.Scan(&t.ID, &t.ProjectID, &assignee, &t.CreatorID, &t.Title, &t.Description,
		&status, &priority, &due, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	t.Priority = domain.TaskPriority(priority)
	if assignee.Valid {
		id := assignee.UUID
		t.AssigneeID = &id
	}
	if due.Valid {
		d := due.Time.UTC()
		t.DueDate = &d
	}
	return &t, nil
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, assignee_id, creator_id, title, description,
			status, priority, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		task.ID, task.ProjectID, nullableUUID(task.AssigneeID), task.CreatorID,
		task.Title, task.Description, string(task.Status), string(task.Priority),
		nullableTime(task.DueDate), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("project_id", task.ProjectID.String()))
		return MapError(err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("project_id", task.ProjectID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.get(ctx, id, "")
}

// GetForUpdate implements store.TaskStore.GetForUpdate
func (s *PostgresTaskStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.get(ctx, id, " FOR UPDATE")
}

func (s *PostgresTaskStore) get(ctx context.Context, id uuid.UUID, lock string) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`+lock, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	return task, nil
}

func taskOrderBy(sort store.TaskSort, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	var col string
	switch sort {
	case store.TaskSortUpdatedAt:
		col = "t.updated_at " + dir
	case store.TaskSortDueDate:
		col = "t.due_date " + dir + " NULLS LAST"
	case store.TaskSortPriority:
		col = priorityRank + " " + dir
	default:
		col = "t.created_at " + dir
	}
	return " ORDER BY " + col + ", t.created_at " + dir + ", t.id"
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var w whereBuilder
	if filter.ProjectID != nil {
		w.add("t.project_id = " + w.arg(*filter.ProjectID))
	}
	if filter.AssigneeID != nil {
		w.add("t.assignee_id = " + w.arg(*filter.AssigneeID))
	}
	if filter.Status != nil {
		w.add("t.status = " + w.arg(string(*filter.Status)))
	}
	if filter.Priority != nil {
		w.add("t.priority = " + w.arg(string(*filter.Priority)))
	}
	if filter.Search != "" {
		p := w.arg(likePattern(filter.Search))
		w.add("(t.title ILIKE " + p + " OR t.description ILIKE " + p + ")")
	}
	if filter.VisibleTo != nil {
		w.add("EXISTS (SELECT 1 FROM project_members m WHERE m.project_id = t.project_id AND m.user_id = " +
			w.arg(*filter.VisibleTo) + ")")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t`+w.clause(), w.args...).Scan(&total); err != nil {
		log.Error("failed to count tasks", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	page := filter.Page.Normalize()
	query := `SELECT ` + taskColumns + ` FROM tasks t` + w.clause() +
		taskOrderBy(filter.Sort, filter.Descending) +
		` LIMIT ` + w.arg(page.Limit()) + ` OFFSET ` + w.arg(page.Offset())

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0, page.PageSize)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}
	return tasks, total, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET project_id = $1, assignee_id = $2, title = $3, description = $4,
			status = $5, priority = $6, due_date = $7, updated_at = $8
		WHERE id = $9`,
		task.ProjectID, nullableUUID(task.AssigneeID), task.Title, task.Description,
		string(task.Status), string(task.Priority), nullableTime(task.DueDate),
		task.UpdatedAt, task.ID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// UnassignUsers implements store.TaskStore.UnassignUsers
func (s *PostgresTaskStore) UnassignUsers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET assignee_id = NULL, updated_at = $1
		WHERE project_id = $2 AND assignee_id = ANY($3::uuid[])`,
		time.Now().UTC(), projectID, uuidArray(userIDs),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to unassign tasks",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return 0, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
