package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
	"go.opentelemetry.io/otel/attribute"
)

// ProjectChanges is a partial update to a project. A nil MemberIDs leaves
// membership untouched; a non-nil one replaces the member set.
type ProjectChanges struct {
	Name        *string
	Description *string
	MemberIDs   *[]uuid.UUID
}

// MembershipChange is the payload of project.updated events that changed membership.
type MembershipChange struct {
	Added           []uuid.UUID `json:"added,omitempty"`
	Removed         []uuid.UUID `json:"removed,omitempty"`
	UnassignedTasks int64       `json:"unassigned_tasks,omitempty"`
}

// ProjectService manages projects and their membership.
type ProjectService interface {
	CreateProject(ctx context.Context, actor Actor, name, description string, memberIDs []uuid.UUID) (*domain.Project, error)

	// ListProjects returns all projects for admins and the actor's own
	// projects for everyone else.
	ListProjects(ctx context.Context, actor Actor, filter store.ProjectFilter) (store.Page[*domain.Project], error)

	// GetProject returns store.ErrProjectNotFound for projects the actor
	// cannot see, so their existence is not revealed.
	GetProject(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Project, error)

	UpdateProject(ctx context.Context, actor Actor, id uuid.UUID, changes ProjectChanges) (*domain.Project, error)

	DeleteProject(ctx context.Context, actor Actor, id uuid.UUID) error

	// AddMembers adds users to the project. Existing members are ignored.
	AddMembers(ctx context.Context, actor Actor, id uuid.UUID, userIDs []uuid.UUID) (*domain.Project, error)

	// RemoveMember removes a user from the project and unassigns their tasks in it.
	RemoveMember(ctx context.Context, actor Actor, id, userID uuid.UUID) (*domain.Project, error)
}

type projectServiceImpl struct {
	projects store.ProjectStore
	users    store.UserStore
	tasks    store.TaskStore
	tx       store.TxRunner
	publisher
	logger *slog.Logger
}

// NewProjectService creates a new ProjectService. The emitter may be nil.
func NewProjectService(
	projects store.ProjectStore,
	users store.UserStore,
	tasks store.TaskStore,
	tx store.TxRunner,
	emitter events.EventEmitter,
	logger *slog.Logger,
) ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	return &projectServiceImpl{
		projects:  projects,
		users:     users,
		tasks:     tasks,
		tx:        tx,
		publisher: publisher{emitter: emitter},
		logger:    logger.With(slog.String("component", "project_service")),
	}
}

func (s *projectServiceImpl) CreateProject(
	ctx context.Context,
	actor Actor,
	name, description string,
	memberIDs []uuid.UUID,
) (project *domain.Project, err error) {
	ctx, span := startSpan(ctx, "ProjectService.CreateProject")
	defer func() { finishSpan(span, err) }()
	log := logger.FromContextOrDefault(ctx, s.logger)

	project, err = domain.NewProject(actor.ID, name, description, memberIDs)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := requireUsers(ctx, s.users.WithTx(tx), project.MemberIDs); err != nil {
			return err
		}
		return s.projects.WithTx(tx).Create(ctx, project)
	})
	if err != nil {
		log.Debug("project creation failed", slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("project created",
		slog.String("project_id", project.ID.String()),
		slog.Int("member_count", len(project.MemberIDs)))
	return project, nil
}

func (s *projectServiceImpl) ListProjects(
	ctx context.Context,
	actor Actor,
	filter store.ProjectFilter,
) (page store.Page[*domain.Project], err error) {
	ctx, span := startSpan(ctx, "ProjectService.ListProjects")
	defer func() { finishSpan(span, err) }()

	if !actor.IsAdmin() {
		id := actor.ID
		filter.MemberID = &id
	}
	filter.Page = filter.Page.Normalize()

	projects, total, err := s.projects.List(ctx, filter)
	if err != nil {
		return page, NewServiceError("list_projects", "failed to list projects", err)
	}
	return store.NewPage(projects, filter.Page, total), nil
}

func (s *projectServiceImpl) GetProject(ctx context.Context, actor Actor, id uuid.UUID) (project *domain.Project, err error) {
	ctx, span := startSpan(ctx, "ProjectService.GetProject", attribute.String("project.id", id.String()))
	defer func() { finishSpan(span, err) }()

	return visibleProject(ctx, s.projects.GetByID, actor, id)
}

func (s *projectServiceImpl) UpdateProject(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	changes ProjectChanges,
) (project *domain.Project, err error) {
	ctx, span := startSpan(ctx, "ProjectService.UpdateProject", attribute.String("project.id", id.String()))
	defer func() { finishSpan(span, err) }()
	log := logger.FromContextOrDefault(ctx, s.logger)

	var change MembershipChange
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		projects := s.projects.WithTx(tx)

		p, err := manageableProject(ctx, projects.GetForUpdate, actor, id)
		if err != nil {
			return err
		}

		if changes.Name != nil {
			p.Name = strings.TrimSpace(*changes.Name)
		}
		if changes.Description != nil {
			p.Description = strings.TrimSpace(*changes.Description)
		}
		if err := p.Validate(); err != nil {
			return err
		}

		if changes.MemberIDs != nil {
			desired := domain.UniqueIDs(*changes.MemberIDs)
			if !slices.Contains(desired, p.OwnerID) {
				return ErrOwnerRemoval
			}
			change, err = s.syncMembers(ctx, tx, p, p.DiffMembers(desired))
			if err != nil {
				return err
			}
		}

		p.UpdatedAt = time.Now().UTC()
		if err := projects.Update(ctx, p); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		log.Debug("project update rejected",
			slog.String("project_id", id.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	event, evErr := events.NewEvent(events.ProjectUpdated, actor.ID, project.ID, change)
	s.publish(ctx, log, event, evErr)

	log.Info("project updated",
		slog.String("project_id", project.ID.String()),
		slog.Int("members_added", len(change.Added)),
		slog.Int("members_removed", len(change.Removed)))
	return project, nil
}

// syncMembers applies diff to the project's membership inside tx and keeps
// p.MemberIDs in step with the stored rows. Tasks assigned to removed
// members are unassigned. The caller holds the project row lock.
func (s *projectServiceImpl) syncMembers(
	ctx context.Context,
	tx *sql.Tx,
	p *domain.Project,
	diff domain.MembershipDiff,
) (MembershipChange, error) {
	change := MembershipChange{Added: diff.Added, Removed: diff.Removed}
	if diff.Empty() {
		return change, nil
	}
	if slices.Contains(diff.Removed, p.OwnerID) {
		return change, ErrOwnerRemoval
	}

	projects := s.projects.WithTx(tx)

	if len(diff.Added) > 0 {
		if err := requireUsers(ctx, s.users.WithTx(tx), diff.Added); err != nil {
			return change, err
		}
		if err := projects.AddMembers(ctx, p.ID, diff.Added); err != nil {
			return change, err
		}
	}

	if len(diff.Removed) > 0 {
		if err := projects.RemoveMembers(ctx, p.ID, diff.Removed); err != nil {
			return change, err
		}
		n, err := s.tasks.WithTx(tx).UnassignUsers(ctx, p.ID, diff.Removed)
		if err != nil {
			return change, err
		}
		change.UnassignedTasks = n
	}

	members := make([]uuid.UUID, 0, len(p.MemberIDs)+len(diff.Added))
	for _, m := range p.MemberIDs {
		if !slices.Contains(diff.Removed, m) {
			members = append(members, m)
		}
	}
	p.MemberIDs = append(members, diff.Added...)
	return change, nil
}

func (s *projectServiceImpl) DeleteProject(ctx context.Context, actor Actor, id uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "ProjectService.DeleteProject", attribute.String("project.id", id.String()))
	defer func() { finishSpan(span, err) }()
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := manageableProject(ctx, s.projects.GetByID, actor, id); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}

	event, evErr := events.NewEvent(events.ProjectDeleted, actor.ID, id, nil)
	s.publish(ctx, log, event, evErr)

	log.Info("project deleted",
		slog.String("project_id", id.String()),
		slog.String("actor_id", actor.ID.String()))
	return nil
}

func (s *projectServiceImpl) AddMembers(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	userIDs []uuid.UUID,
) (project *domain.Project, err error) {
	ctx, span := startSpan(ctx, "ProjectService.AddMembers", attribute.String("project.id", id.String()))
	defer func() { finishSpan(span, err) }()

	return s.changeMembers(ctx, actor, id, func(p *domain.Project) (domain.MembershipDiff, error) {
		var diff domain.MembershipDiff
		for _, u := range domain.UniqueIDs(userIDs) {
			if !p.HasMember(u) {
				diff.Added = append(diff.Added, u)
			}
		}
		return diff, nil
	})
}

func (s *projectServiceImpl) RemoveMember(
	ctx context.Context,
	actor Actor,
	id, userID uuid.UUID,
) (project *domain.Project, err error) {
	ctx, span := startSpan(ctx, "ProjectService.RemoveMember",
		attribute.String("project.id", id.String()),
		attribute.String("user.id", userID.String()))
	defer func() { finishSpan(span, err) }()

	return s.changeMembers(ctx, actor, id, func(p *domain.Project) (domain.MembershipDiff, error) {
		if p.IsOwner(userID) {
			return domain.MembershipDiff{}, ErrOwnerRemoval
		}
		var diff domain.MembershipDiff
		if p.HasMember(userID) {
			diff.Removed = []uuid.UUID{userID}
		}
		return diff, nil
	})
}

// changeMembers runs a membership edit computed by plan inside a transaction
// and publishes project.updated when anything changed.
func (s *projectServiceImpl) changeMembers(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	plan func(p *domain.Project) (domain.MembershipDiff, error),
) (*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var project *domain.Project
	var change MembershipChange
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		p, err := manageableProject(ctx, s.projects.WithTx(tx).GetForUpdate, actor, id)
		if err != nil {
			return err
		}
		diff, err := plan(p)
		if err != nil {
			return err
		}
		change, err = s.syncMembers(ctx, tx, p, diff)
		if err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		log.Debug("membership change rejected",
			slog.String("project_id", id.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	if len(change.Added) > 0 || len(change.Removed) > 0 {
		event, evErr := events.NewEvent(events.ProjectUpdated, actor.ID, id, change)
		s.publish(ctx, log, event, evErr)
	}
	return project, nil
}

// projectLoader reads one project. Store methods such as GetByID and
// GetForUpdate fit it, so callers pick the lock they need.
type projectLoader func(ctx context.Context, id uuid.UUID) (*domain.Project, error)

// visibleProject loads a project the actor is allowed to read. Projects the
// actor cannot see are reported as not found.
func visibleProject(ctx context.Context, load projectLoader, actor Actor, id uuid.UUID) (*domain.Project, error) {
	p, err := load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canSee(p) {
		return nil, store.ErrProjectNotFound
	}
	return p, nil
}

// manageableProject loads a project the actor may change: members who are
// not the owner get ErrForbidden, outsiders get not found.
func manageableProject(ctx context.Context, load projectLoader, actor Actor, id uuid.UUID) (*domain.Project, error) {
	p, err := visibleProject(ctx, load, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.canManage(p) {
		return nil, ErrForbidden
	}
	return p, nil
}

// requireUsers fails with ErrUnknownUsers naming any ID without a user row.
func requireUsers(ctx context.Context, users store.UserStore, ids []uuid.UUID) error {
	ids = domain.UniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	existing, err := users.ExistingIDs(ctx, ids)
	if err != nil {
		return NewServiceError("check_users", "failed to look up users", err)
	}
	if len(existing) == len(ids) {
		return nil
	}

	var missing []string
	for _, id := range ids {
		if !slices.Contains(existing, id) {
			missing = append(missing, id.String())
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownUsers, strings.Join(missing, ", "))
}
