package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// UserStore is a testify mock of store.UserStore. WithTx returns the receiver.
type UserStore struct {
	mock.Mock
}

var _ store.UserStore = (*UserStore)(nil)

func (m *UserStore) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserStore) List(ctx context.Context, filter store.UserFilter) ([]*domain.User, int, error) {
	args := m.Called(ctx, filter)
	users, _ := args.Get(0).([]*domain.User)
	return users, args.Int(1), args.Error(2)
}

func (m *UserStore) ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, ids)
	found, _ := args.Get(0).([]uuid.UUID)
	return found, args.Error(1)
}

func (m *UserStore) Count(ctx context.Context, role domain.Role) (int, error) {
	args := m.Called(ctx, role)
	return args.Int(0), args.Error(1)
}

func (m *UserStore) LockAdmins(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func (m *UserStore) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *UserStore) WithTx(*sql.Tx) store.UserStore {
	return m
}

// ProjectStore is a testify mock of store.ProjectStore. WithTx returns the receiver.
type ProjectStore struct {
	mock.Mock
}

var _ store.ProjectStore = (*ProjectStore)(nil)

func (m *ProjectStore) Create(ctx context.Context, project *domain.Project) error {
	return m.Called(ctx, project).Error(0)
}

func (m *ProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*domain.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*domain.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectStore) GetForShare(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*domain.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectStore) ProjectIDsForMember(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func (m *ProjectStore) List(ctx context.Context, filter store.ProjectFilter) ([]*domain.Project, int, error) {
	args := m.Called(ctx, filter)
	projects, _ := args.Get(0).([]*domain.Project)
	return projects, args.Int(1), args.Error(2)
}

func (m *ProjectStore) Update(ctx context.Context, project *domain.Project) error {
	return m.Called(ctx, project).Error(0)
}

func (m *ProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ProjectStore) AddMembers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) error {
	return m.Called(ctx, projectID, userIDs).Error(0)
}

func (m *ProjectStore) RemoveMembers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) error {
	return m.Called(ctx, projectID, userIDs).Error(0)
}

func (m *ProjectStore) WithTx(*sql.Tx) store.ProjectStore {
	return m
}

// TaskStore is a testify mock of store.TaskStore. WithTx returns the receiver.
type TaskStore struct {
	mock.Mock
}

var _ store.TaskStore = (*TaskStore)(nil)

func (m *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*domain.Task); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*domain.Task); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, int, error) {
	args := m.Called(ctx, filter)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Int(1), args.Error(2)
}

func (m *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *TaskStore) UnassignUsers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) (int64, error) {
	args := m.Called(ctx, projectID, userIDs)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *TaskStore) WithTx(*sql.Tx) store.TaskStore {
	return m
}

// TaskHistoryStore is a testify mock of store.TaskHistoryStore. WithTx returns the receiver.
type TaskHistoryStore struct {
	mock.Mock
}

var _ store.TaskHistoryStore = (*TaskHistoryStore)(nil)

func (m *TaskHistoryStore) Create(ctx context.Context, entry *domain.TaskHistory) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *TaskHistoryStore) ListByTask(
	ctx context.Context,
	taskID uuid.UUID,
	page store.PageRequest,
) ([]*domain.TaskHistory, int, error) {
	args := m.Called(ctx, taskID, page)
	entries, _ := args.Get(0).([]*domain.TaskHistory)
	return entries, args.Int(1), args.Error(2)
}

func (m *TaskHistoryStore) WithTx(*sql.Tx) store.TaskHistoryStore {
	return m
}
