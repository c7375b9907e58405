package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// PostgresTaskHistoryStore implements the store.TaskHistoryStore interface.
type PostgresTaskHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskHistoryStore creates a new PostgreSQL implementation of the TaskHistoryStore interface.
func NewPostgresTaskHistoryStore(db store.DBTX, logger *slog.Logger) *PostgresTaskHistoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskHistoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_history_store")),
	}
}

var _ store.TaskHistoryStore = (*PostgresTaskHistoryStore)(nil)

// WithTx implements store.TaskHistoryStore.WithTx
func (s *PostgresTaskHistoryStore) WithTx(tx *sql.Tx) store.TaskHistoryStore {
	return &PostgresTaskHistoryStore{db: tx, logger: s.logger}
}

func nullableString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// Create implements store.TaskHistoryStore.Create
func (s *PostgresTaskHistoryStore) Create(ctx context.Context, entry *domain.TaskHistory) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("task history validation failed",
			slog.String("error", err.Error()),
			slog.String("task_id", entry.TaskID.String()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_history (id, task_id, changed_by, previous_status, new_status,
			previous_priority, new_priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.TaskID, entry.ChangedBy,
		nullableString(string(entry.PreviousStatus)), string(entry.NewStatus),
		nullableString(string(entry.PreviousPriority)), string(entry.NewPriority),
		entry.CreatedAt,
	)
	if err != nil {
		log.Error("failed to record task history",
			slog.String("error", err.Error()),
			slog.String("task_id", entry.TaskID.String()))
		return MapError(err)
	}

	log.Debug("task history recorded",
		slog.String("task_id", entry.TaskID.String()),
		slog.String("new_status", string(entry.NewStatus)),
		slog.String("new_priority", string(entry.NewPriority)))
	return nil
}

// ListByTask implements store.TaskHistoryStore.ListByTask
func (s *PostgresTaskHistoryStore) ListByTask(
	ctx context.Context,
	taskID uuid.UUID,
	page store.PageRequest,
) ([]*domain.TaskHistory, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_history WHERE task_id = $1`, taskID).Scan(&total)
	if err != nil {
		log.Error("failed to count task history", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	page = page.Normalize()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, changed_by, previous_status, new_status,
			previous_priority, new_priority, created_at
		FROM task_history
		WHERE task_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		taskID, page.Limit(), page.Offset(),
	)
	if err != nil {
		log.Error("failed to list task history", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*domain.TaskHistory, 0, page.PageSize)
	for rows.Next() {
		var (
			h                  domain.TaskHistory
			prevStatus, prevPr sql.NullString
			newStatus, newPr   string
		)
		if err := rows.Scan(&h.ID, &h.TaskID, &h.ChangedBy, &prevStatus, &newStatus,
			&prevPr, &newPr, &h.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan task history: %w", err)
		}
		h.PreviousStatus = domain.TaskStatus(prevStatus.String)
		h.NewStatus = domain.TaskStatus(newStatus)
		h.PreviousPriority = domain.TaskPriority(prevPr.String)
		h.NewPriority = domain.TaskPriority(newPr)
		entries = append(entries, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}
	return entries, total, nil
}
