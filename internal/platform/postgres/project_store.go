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

const projectColumns = `p.id, p.name, p.description, p.owner_id, p.created_at, p.updated_at`

// PostgresProjectStore implements the store.ProjectStore interface. Member
// IDs live in the project_members table and are loaded alongside projects.
type PostgresProjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProjectStore creates a new PostgreSQL implementation of the ProjectStore interface.
func NewPostgresProjectStore(db store.DBTX, logger *slog.Logger) *PostgresProjectStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProjectStore{
		db:     db,
		logger: logger.With(slog.String("component", "project_store")),
	}
}

var _ store.ProjectStore = (*PostgresProjectStore)(nil)

// WithTx implements store.ProjectStore.WithTx
func (s *PostgresProjectStore) WithTx(tx *sql.Tx) store.ProjectStore {
	return &PostgresProjectStore{db: tx, logger: s.logger}
}

// Create implements store.ProjectStore.Create. Callers that need the project
// row and its members to land atomically run it through WithTx.
func (s *PostgresProjectStore) Create(ctx context.Context, project *domain.Project) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := project.Validate(); err != nil {
		log.Warn("project validation failed during create",
			slog.String("error", err.Error()),
			slog.String("project_id", project.ID.String()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		project.ID, project.Name, project.Description, project.OwnerID,
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create project",
			slog.String("error", err.Error()),
			slog.String("project_id", project.ID.String()))
		return MapError(err)
	}

	if err := s.AddMembers(ctx, project.ID, project.MemberIDs); err != nil {
		return err
	}

	log.Info("project created",
		slog.String("project_id", project.ID.String()),
		slog.String("owner_id", project.OwnerID.String()),
		slog.Int("members", len(project.MemberIDs)))
	return nil
}

func scanProject(row interface{ Scan(...any) error }) (*domain.Project, error) {
	var p domain.Project
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.MemberIDs = []uuid.UUID{}
	return &p, nil
}

// GetByID implements store.ProjectStore.GetByID
func (s *PostgresProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return s.get(ctx, id, "")
}

// GetForUpdate implements store.ProjectStore.GetForUpdate
func (s *PostgresProjectStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return s.get(ctx, id, " FOR UPDATE")
}

// GetForShare implements store.ProjectStore.GetForShare
func (s *PostgresProjectStore) GetForShare(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return s.get(ctx, id, " FOR SHARE")
}

func (s *PostgresProjectStore) get(ctx context.Context, id uuid.UUID, lock string) (*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = $1`+lock, id)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProjectNotFound
		}
		log.Error("failed to get project",
			slog.String("error", err.Error()),
			slog.String("project_id", id.String()))
		return nil, MapError(err)
	}

	if err := s.loadMembers(ctx, []*domain.Project{project}); err != nil {
		return nil, err
	}
	return project, nil
}

// ProjectIDsForMember implements store.ProjectStore.ProjectIDsForMember
func (s *PostgresProjectStore) ProjectIDsForMember(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT project_id FROM project_members WHERE user_id = $1 ORDER BY project_id`, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list member projects",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return ids, nil
}

// loadMembers fills MemberIDs for every project with a single query.
// The owner is listed first, the rest in the order they joined.
func (s *PostgresProjectStore) loadMembers(ctx context.Context, projects []*domain.Project) error {
	if len(projects) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Project, len(projects))
	ids := make([]uuid.UUID, 0, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pm.project_id, pm.user_id
		FROM project_members pm
		JOIN projects p ON p.id = pm.project_id
		WHERE pm.project_id = ANY($1::uuid[])
		ORDER BY pm.project_id, (pm.user_id = p.owner_id) DESC, pm.added_at, pm.user_id`,
		uuidArray(ids),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load project members",
			slog.String("error", err.Error()))
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var projectID, userID uuid.UUID
		if err := rows.Scan(&projectID, &userID); err != nil {
			return fmt.Errorf("failed to scan project member: %w", err)
		}
		if p, ok := byID[projectID]; ok {
			p.MemberIDs = append(p.MemberIDs, userID)
		}
	}
	return MapError(rows.Err())
}

// List implements store.ProjectStore.List
func (s *PostgresProjectStore) List(ctx context.Context, filter store.ProjectFilter) ([]*domain.Project, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var w whereBuilder
	if filter.MemberID != nil {
		w.add("EXISTS (SELECT 1 FROM project_members m WHERE m.project_id = p.id AND m.user_id = " +
			w.arg(*filter.MemberID) + ")")
	}
	if filter.Search != "" {
		w.add("p.name ILIKE " + w.arg(likePattern(filter.Search)))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects p`+w.clause(), w.args...).Scan(&total); err != nil {
		log.Error("failed to count projects", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	page := filter.Page.Normalize()
	query := `SELECT ` + projectColumns + ` FROM projects p` + w.clause() +
		` ORDER BY p.created_at DESC, p.id LIMIT ` + w.arg(page.Limit()) + ` OFFSET ` + w.arg(page.Offset())

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		log.Error("failed to list projects", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}
	projects := make([]*domain.Project, 0, page.PageSize)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			_ = rows.Close()
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return nil, 0, MapError(err)
	}

	if err := s.loadMembers(ctx, projects); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Update implements store.ProjectStore.Update
func (s *PostgresProjectStore) Update(ctx context.Context, project *domain.Project) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := project.Validate(); err != nil {
		return err
	}
	project.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE projects SET name = $1, description = $2, updated_at = $3
		WHERE id = $4`,
		project.Name, project.Description, project.UpdatedAt, project.ID,
	)
	if err != nil {
		log.Error("failed to update project",
			slog.String("error", err.Error()),
			slog.String("project_id", project.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrProjectNotFound)
}

// Delete implements store.ProjectStore.Delete
func (s *PostgresProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete project",
			slog.String("error", err.Error()),
			slog.String("project_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrProjectNotFound); err != nil {
		return err
	}

	log.Info("project deleted", slog.String("project_id", id.String()))
	return nil
}

// AddMembers implements store.ProjectStore.AddMembers
func (s *PostgresProjectStore) AddMembers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_members (project_id, user_id, added_at)
		SELECT $1, u, $3 FROM unnest($2::uuid[]) AS u
		ON CONFLICT (project_id, user_id) DO NOTHING`,
		projectID, uuidArray(userIDs), time.Now().UTC(),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to add project members",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return MapError(err)
	}
	return nil
}

// RemoveMembers implements store.ProjectStore.RemoveMembers
func (s *PostgresProjectStore) RemoveMembers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = ANY($2::uuid[])`,
		projectID, uuidArray(userIDs),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to remove project members",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return MapError(err)
	}
	return nil
}
