package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// UserService is a testify mock of service.UserService.
type UserService struct {
	mock.Mock
}

var _ service.UserService = (*UserService)(nil)

func (m *UserService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	args := m.Called(ctx, email, name, password)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *UserService) ListUsers(
	ctx context.Context,
	actor service.Actor,
	filter store.UserFilter,
) (store.Page[*domain.User], error) {
	args := m.Called(ctx, actor, filter)
	page, _ := args.Get(0).(store.Page[*domain.User])
	return page, args.Error(1)
}

func (m *UserService) GetUser(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, actor, id)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *UserService) UpdateUser(
	ctx context.Context,
	actor service.Actor,
	id uuid.UUID,
	changes service.UserChanges,
) (*domain.User, error) {
	args := m.Called(ctx, actor, id, changes)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *UserService) DeleteUser(ctx context.Context, actor service.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

// ProjectService is a testify mock of service.ProjectService.
type ProjectService struct {
	mock.Mock
}

var _ service.ProjectService = (*ProjectService)(nil)

func (m *ProjectService) CreateProject(
	ctx context.Context,
	actor service.Actor,
	name, description string,
	memberIDs []uuid.UUID,
) (*domain.Project, error) {
	args := m.Called(ctx, actor, name, description, memberIDs)
	p, _ := args.Get(0).(*domain.Project)
	return p, args.Error(1)
}

func (m *ProjectService) ListProjects(
	ctx context.Context,
	actor service.Actor,
	filter store.ProjectFilter,
) (store.Page[*domain.Project], error) {
	args := m.Called(ctx, actor, filter)
	page, _ := args.Get(0).(store.Page[*domain.Project])
	return page, args.Error(1)
}

func (m *ProjectService) GetProject(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.Project, error) {
	args := m.Called(ctx, actor, id)
	p, _ := args.Get(0).(*domain.Project)
	return p, args.Error(1)
}

func (m *ProjectService) UpdateProject(
	ctx context.Context,
	actor service.Actor,
	id uuid.UUID,
	changes service.ProjectChanges,
) (*domain.Project, error) {
	args := m.Called(ctx, actor, id, changes)
	p, _ := args.Get(0).(*domain.Project)
	return p, args.Error(1)
}

func (m *ProjectService) DeleteProject(ctx context.Context, actor service.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *ProjectService) AddMembers(
	ctx context.Context,
	actor service.Actor,
	id uuid.UUID,
	userIDs []uuid.UUID,
) (*domain.Project, error) {
	args := m.Called(ctx, actor, id, userIDs)
	p, _ := args.Get(0).(*domain.Project)
	return p, args.Error(1)
}

func (m *ProjectService) RemoveMember(ctx context.Context, actor service.Actor, id, userID uuid.UUID) (*domain.Project, error) {
	args := m.Called(ctx, actor, id, userID)
	p, _ := args.Get(0).(*domain.Project)
	return p, args.Error(1)
}

// TaskService is a testify mock of service.TaskService.
type TaskService struct {
	mock.Mock
}

var _ service.TaskService = (*TaskService)(nil)

func (m *TaskService) CreateTask(
	ctx context.Context,
	actor service.Actor,
	projectID uuid.UUID,
	input service.TaskInput,
) (*domain.Task, error) {
	args := m.Called(ctx, actor, projectID, input)
	t, _ := args.Get(0).(*domain.Task)
	return t, args.Error(1)
}

func (m *TaskService) ListTasks(
	ctx context.Context,
	actor service.Actor,
	filter store.TaskFilter,
) (store.Page[*domain.Task], error) {
	args := m.Called(ctx, actor, filter)
	page, _ := args.Get(0).(store.Page[*domain.Task])
	return page, args.Error(1)
}

func (m *TaskService) GetTask(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, actor, id)
	t, _ := args.Get(0).(*domain.Task)
	return t, args.Error(1)
}

func (m *TaskService) UpdateTask(
	ctx context.Context,
	actor service.Actor,
	id uuid.UUID,
	changes domain.TaskChanges,
) (*domain.Task, error) {
	args := m.Called(ctx, actor, id, changes)
	t, _ := args.Get(0).(*domain.Task)
	return t, args.Error(1)
}

func (m *TaskService) DeleteTask(ctx context.Context, actor service.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *TaskService) ListHistory(
	ctx context.Context,
	actor service.Actor,
	id uuid.UUID,
	page store.PageRequest,
) (store.Page[*domain.TaskHistory], error) {
	args := m.Called(ctx, actor, id, page)
	p, _ := args.Get(0).(store.Page[*domain.TaskHistory])
	return p, args.Error(1)
}
