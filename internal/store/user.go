package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// UserFilter narrows a user listing. Search matches email or name
// case-insensitively; an empty Search matches everything.
type UserFilter struct {
	Search string
	Page   PageRequest
}

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store, hashing user.Password.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their (normalized) email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns one page of users ordered by creation time and the total
	// number of users matching the filter.
	List(ctx context.Context, filter UserFilter) ([]*domain.User, int, error)

	// ExistingIDs returns the subset of ids that belong to existing users.
	ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)

	// Count returns the number of users, optionally restricted to one role
	// when role is non-empty.
	Count(ctx context.Context, role domain.Role) (int, error)

	// LockAdmins locks every admin row until the transaction ends and
	// returns their IDs. Concurrent demotions and deletions of admins
	// serialize on these locks.
	LockAdmins(ctx context.Context) ([]uuid.UUID, error)

	// Update modifies an existing user's details.
	// The caller MUST provide a complete user object including HashedPassword.
	// A non-empty user.Password is hashed and replaces HashedPassword.
	// Returns ErrUserNotFound or ErrEmailExists.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store by their ID.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
