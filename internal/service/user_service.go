package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
	"go.opentelemetry.io/otel/attribute"
)

// UserChanges is a partial update to a user. Nil fields are left untouched.
type UserChanges struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// UserService provides user registration and account management.
type UserService interface {
	// Register creates a regular user. The first user ever registered becomes an admin.
	Register(ctx context.Context, email, name, password string) (*domain.User, error)

	// ListUsers returns a page of users. Admin only.
	ListUsers(ctx context.Context, actor Actor, filter store.UserFilter) (store.Page[*domain.User], error)

	// GetUser returns a user. Admins may read anyone, other users only themselves.
	GetUser(ctx context.Context, actor Actor, id uuid.UUID) (*domain.User, error)

	// UpdateUser applies changes to a user. Only admins may change roles.
	UpdateUser(ctx context.Context, actor Actor, id uuid.UUID, changes UserChanges) (*domain.User, error)

	// DeleteUser removes a user. Admins may delete anyone, other users only themselves.
	DeleteUser(ctx context.Context, actor Actor, id uuid.UUID) error
}

type userServiceImpl struct {
	users    store.UserStore
	projects store.ProjectStore
	tx       store.TxRunner
	publisher
	logger *slog.Logger
}

// NewUserService creates a new UserService. Deleting a user publishes
// project.updated for every project they belonged to; the emitter may be nil.
func NewUserService(
	users store.UserStore,
	projects store.ProjectStore,
	tx store.TxRunner,
	emitter events.EventEmitter,
	logger *slog.Logger,
) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &userServiceImpl{
		users:     users,
		projects:  projects,
		tx:        tx,
		publisher: publisher{emitter: emitter},
		logger:    logger.With(slog.String("component", "user_service")),
	}
}

func (s *userServiceImpl) Register(ctx context.Context, email, name, password string) (user *domain.User, err error) {
	ctx, span := startSpan(ctx, "UserService.Register")
	defer func() { finishSpan(span, err) }()
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err = domain.NewUser(email, name, password)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)

		count, err := users.Count(ctx, "")
		if err != nil {
			return NewServiceError("register", "failed to count users", err)
		}
		if count == 0 {
			user.Role = domain.RoleAdmin
		}

		return users.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("registration with existing email")
		} else {
			log.Error("failed to register user", slog.String("error", err.Error()))
		}
		return nil, err
	}

	log.Info("user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))
	return user, nil
}

func (s *userServiceImpl) ListUsers(
	ctx context.Context,
	actor Actor,
	filter store.UserFilter,
) (page store.Page[*domain.User], err error) {
	ctx, span := startSpan(ctx, "UserService.ListUsers")
	defer func() { finishSpan(span, err) }()

	if !actor.IsAdmin() {
		return page, ErrForbidden
	}

	filter.Page = filter.Page.Normalize()
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return page, NewServiceError("list_users", "failed to list users", err)
	}
	return store.NewPage(users, filter.Page, total), nil
}

func (s *userServiceImpl) GetUser(ctx context.Context, actor Actor, id uuid.UUID) (user *domain.User, err error) {
	ctx, span := startSpan(ctx, "UserService.GetUser", attribute.String("user.id", id.String()))
	defer func() { finishSpan(span, err) }()

	if !actor.IsAdmin() && actor.ID != id {
		return nil, ErrForbidden
	}
	return s.users.GetByID(ctx, id)
}

func (s *userServiceImpl) UpdateUser(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	changes UserChanges,
) (user *domain.User, err error) {
	ctx, span := startSpan(ctx, "UserService.UpdateUser", attribute.String("user.id", id.String()))
	defer func() { finishSpan(span, err) }()
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !actor.IsAdmin() && actor.ID != id {
		return nil, ErrForbidden
	}
	if changes.Role != nil && !actor.IsAdmin() {
		return nil, &FieldForbiddenError{Field: "role"}
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)

		existing, err := users.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if changes.Role != nil && existing.IsAdmin() && *changes.Role != domain.RoleAdmin {
			if err := s.ensureOtherAdmin(ctx, users); err != nil {
				return err
			}
		}

		if changes.Name != nil {
			existing.Name = strings.TrimSpace(*changes.Name)
		}
		if changes.Email != nil {
			existing.Email = domain.NormalizeEmail(*changes.Email)
		}
		if changes.Password != nil {
			existing.Password = *changes.Password
		}
		if changes.Role != nil {
			existing.Role = *changes.Role
		}
		if err := existing.Validate(); err != nil {
			return err
		}

		if err := users.Update(ctx, existing); err != nil {
			return err
		}
		user = existing
		return nil
	})
	if err != nil {
		log.Debug("user update rejected",
			slog.String("user_id", id.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("user updated",
		slog.String("user_id", id.String()),
		slog.String("actor_id", actor.ID.String()))
	return user, nil
}

func (s *userServiceImpl) DeleteUser(ctx context.Context, actor Actor, id uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "UserService.DeleteUser", attribute.String("user.id", id.String()))
	defer func() { finishSpan(span, err) }()
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !actor.IsAdmin() && actor.ID != id {
		return ErrForbidden
	}

	var memberOf []uuid.UUID
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)

		existing, err := users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing.IsAdmin() {
			if err := s.ensureOtherAdmin(ctx, users); err != nil {
				return err
			}
		}

		memberOf, err = s.projects.WithTx(tx).ProjectIDsForMember(ctx, id)
		if err != nil {
			return NewServiceError("delete_user", "failed to list user's projects", err)
		}
		return users.Delete(ctx, id)
	})
	if err != nil {
		log.Debug("user deletion rejected",
			slog.String("user_id", id.String()),
			slog.String("error", err.Error()))
		return err
	}

	// Membership rows went with the user; readers holding the old member
	// list learn about it the same way as from RemoveMember.
	for _, projectID := range memberOf {
		event, evErr := events.NewEvent(events.ProjectUpdated, actor.ID, projectID,
			MembershipChange{Removed: []uuid.UUID{id}})
		s.publish(ctx, log, event, evErr)
	}

	log.Info("user deleted",
		slog.String("user_id", id.String()),
		slog.String("actor_id", actor.ID.String()),
		slog.Int("projects_left", len(memberOf)))
	return nil
}

// ensureOtherAdmin fails with ErrLastAdmin unless at least two admins exist.
// The admin rows stay locked until the transaction ends, so two admins
// removing each other at once cannot both pass.
func (s *userServiceImpl) ensureOtherAdmin(ctx context.Context, users store.UserStore) error {
	admins, err := users.LockAdmins(ctx)
	if err != nil {
		return NewServiceError("lock_admins", "failed to lock admin rows", err)
	}
	if len(admins) <= 1 {
		return ErrLastAdmin
	}
	return nil
}
