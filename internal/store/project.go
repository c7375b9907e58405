package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// ProjectFilter narrows a project listing. A non-nil MemberID restricts the
// result to projects that user belongs to; Search matches the project name.
type ProjectFilter struct {
	MemberID *uuid.UUID
	Search   string
	Page     PageRequest
}

// ProjectStore defines the interface for project and membership persistence.
type ProjectStore interface {
	// Create saves a new project and its member rows.
	// Returns ErrInvalidEntity if the owner or a member does not exist.
	Create(ctx context.Context, project *domain.Project) error

	// GetByID retrieves a project with its member IDs.
	// Returns ErrProjectNotFound if the project does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	// GetForUpdate is GetByID that also locks the project row until the
	// transaction ends, blocking membership changes and task writes that
	// check membership. Only meaningful through WithTx.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	// GetForShare is GetByID with a shared row lock. Task writes hold it so
	// the membership they checked stays valid until they commit.
	GetForShare(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	// ProjectIDsForMember returns the IDs of every project userID belongs to.
	ProjectIDsForMember(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// List returns one page of projects (with member IDs) and the total match count.
	List(ctx context.Context, filter ProjectFilter) ([]*domain.Project, int, error)

	// Update saves the project's name, description and UpdatedAt.
	// Membership is changed only through AddMembers and RemoveMembers.
	// Returns ErrProjectNotFound if the project does not exist.
	Update(ctx context.Context, project *domain.Project) error

	// Delete removes a project. Its members, tasks and task history are
	// removed by ON DELETE CASCADE constraints.
	// Returns ErrProjectNotFound if the project does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddMembers inserts member rows; existing members are left untouched.
	AddMembers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) error

	// RemoveMembers deletes member rows for the given users.
	RemoveMembers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) error

	// WithTx returns a new ProjectStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ProjectStore
}
