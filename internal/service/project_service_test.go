package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/mocks"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type projectFixture struct {
	projects *mocks.ProjectStore
	users    *mocks.UserStore
	tasks    *mocks.TaskStore
	tx       *mocks.MockTxRunner
	emitter  *mocks.RecordingEmitter
	svc      service.ProjectService
}

func newProjectFixture() *projectFixture {
	f := &projectFixture{
		projects: new(mocks.ProjectStore),
		users:    new(mocks.UserStore),
		tasks:    new(mocks.TaskStore),
		tx:       &mocks.MockTxRunner{},
		emitter:  &mocks.RecordingEmitter{},
	}
	f.svc = service.NewProjectService(f.projects, f.users, f.tasks, f.tx, f.emitter, nil)
	return f
}

func storedProject(owner uuid.UUID, members ...uuid.UUID) *domain.Project {
	return &domain.Project{
		ID:        uuid.New(),
		Name:      "Apollo",
		OwnerID:   owner,
		MemberIDs: append([]uuid.UUID{owner}, members...),
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now().Add(-time.Hour),
	}
}

func user(id uuid.UUID) service.Actor {
	return service.Actor{ID: id, Role: domain.RoleUser}
}

func admin() service.Actor {
	return service.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
}

func TestProjectService_CreateProject(t *testing.T) {
	owner, member := uuid.New(), uuid.New()

	t.Run("owner is always a member", func(t *testing.T) {
		f := newProjectFixture()
		f.users.On("ExistingIDs", mock.Anything, []uuid.UUID{owner, member}).
			Return([]uuid.UUID{owner, member}, nil)
		f.projects.On("Create", mock.Anything, mock.AnythingOfType("*domain.Project")).Return(nil)

		p, err := f.svc.CreateProject(context.Background(), user(owner), "Apollo", "", []uuid.UUID{member, member})

		require.NoError(t, err)
		assert.Equal(t, owner, p.OwnerID)
		assert.Equal(t, []uuid.UUID{owner, member}, p.MemberIDs)
		f.projects.AssertExpectations(t)
	})

	t.Run("unknown member ids", func(t *testing.T) {
		f := newProjectFixture()
		ghost := uuid.New()
		f.users.On("ExistingIDs", mock.Anything, []uuid.UUID{owner, ghost}).Return([]uuid.UUID{owner}, nil)

		_, err := f.svc.CreateProject(context.Background(), user(owner), "Apollo", "", []uuid.UUID{ghost})

		assert.ErrorIs(t, err, service.ErrUnknownUsers)
		assert.Contains(t, err.Error(), ghost.String())
		f.projects.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid name", func(t *testing.T) {
		f := newProjectFixture()
		_, err := f.svc.CreateProject(context.Background(), user(owner), "   ", "", nil)
		assert.ErrorIs(t, err, domain.ErrEmptyProjectName)
	})
}

func TestProjectService_ListProjects(t *testing.T) {
	t.Run("regular users are scoped to their projects", func(t *testing.T) {
		f := newProjectFixture()
		me := uuid.New()
		f.projects.On("List", mock.Anything, mock.MatchedBy(func(filter store.ProjectFilter) bool {
			return filter.MemberID != nil && *filter.MemberID == me && filter.Page.PageSize == store.DefaultPageSize
		})).Return([]*domain.Project{storedProject(me)}, 1, nil)

		page, err := f.svc.ListProjects(context.Background(), user(me), store.ProjectFilter{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})

	t.Run("admins see everything", func(t *testing.T) {
		f := newProjectFixture()
		f.projects.On("List", mock.Anything, mock.MatchedBy(func(filter store.ProjectFilter) bool {
			return filter.MemberID == nil && filter.Search == "apo"
		})).Return(nil, 0, nil)

		page, err := f.svc.ListProjects(context.Background(), admin(), store.ProjectFilter{Search: "apo"})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.NotNil(t, page.Items)
	})
}

func TestProjectService_GetProject(t *testing.T) {
	owner, member, outsider := uuid.New(), uuid.New(), uuid.New()
	p := storedProject(owner, member)

	f := newProjectFixture()
	f.projects.On("GetByID", mock.Anything, p.ID).Return(p, nil)

	for _, a := range []service.Actor{user(owner), user(member), admin()} {
		got, err := f.svc.GetProject(context.Background(), a, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	}

	_, err := f.svc.GetProject(context.Background(), user(outsider), p.ID)
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
}

func TestProjectService_UpdateProject(t *testing.T) {
	ptr := func(s string) *string { return &s }

	t.Run("syncs members and unassigns removed members", func(t *testing.T) {
		owner, keep, drop, add := uuid.New(), uuid.New(), uuid.New(), uuid.New()
		p := storedProject(owner, keep, drop)

		f := newProjectFixture()
		f.projects.On("GetForUpdate", mock.Anything, p.ID).Return(p, nil)
		f.users.On("ExistingIDs", mock.Anything, []uuid.UUID{add}).Return([]uuid.UUID{add}, nil)
		f.projects.On("AddMembers", mock.Anything, p.ID, []uuid.UUID{add}).Return(nil)
		f.projects.On("RemoveMembers", mock.Anything, p.ID, []uuid.UUID{drop}).Return(nil)
		f.tasks.On("UnassignUsers", mock.Anything, p.ID, []uuid.UUID{drop}).Return(int64(3), nil)
		f.projects.On("Update", mock.Anything, p).Return(nil)

		members := []uuid.UUID{owner, keep, add}
		got, err := f.svc.UpdateProject(context.Background(), user(owner), p.ID, service.ProjectChanges{
			Name:      ptr("Apollo 2"),
			MemberIDs: &members,
		})

		require.NoError(t, err)
		assert.Equal(t, "Apollo 2", got.Name)
		assert.ElementsMatch(t, []uuid.UUID{owner, keep, add}, got.MemberIDs)
		f.projects.AssertExpectations(t)
		f.tasks.AssertExpectations(t)

		require.Equal(t, []string{events.ProjectUpdated}, f.emitter.Types())
		var change service.MembershipChange
		require.NoError(t, f.emitter.Events[0].UnmarshalPayload(&change))
		assert.Equal(t, int64(3), change.UnassignedTasks)
		assert.Equal(t, []uuid.UUID{drop}, change.Removed)
	})

	t.Run("owner cannot be dropped", func(t *testing.T) {
		owner, member := uuid.New(), uuid.New()
		p := storedProject(owner, member)

		f := newProjectFixture()
		f.projects.On("GetForUpdate", mock.Anything, p.ID).Return(p, nil)

		members := []uuid.UUID{member}
		_, err := f.svc.UpdateProject(context.Background(), admin(), p.ID, service.ProjectChanges{MemberIDs: &members})

		assert.ErrorIs(t, err, service.ErrOwnerRemoval)
		assert.Empty(t, f.emitter.Events)
	})

	t.Run("members cannot edit", func(t *testing.T) {
		owner, member := uuid.New(), uuid.New()
		p := storedProject(owner, member)

		f := newProjectFixture()
		f.projects.On("GetForUpdate", mock.Anything, p.ID).Return(p, nil)

		_, err := f.svc.UpdateProject(context.Background(), user(member), p.ID, service.ProjectChanges{Name: ptr("x")})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("outsiders see not found", func(t *testing.T) {
		p := storedProject(uuid.New())

		f := newProjectFixture()
		f.projects.On("GetForUpdate", mock.Anything, p.ID).Return(p, nil)

		_, err := f.svc.UpdateProject(context.Background(), user(uuid.New()), p.ID, service.ProjectChanges{Name: ptr("x")})
		assert.ErrorIs(t, err, store.ErrProjectNotFound)
	})

	t.Run("event failure does not fail the update", func(t *testing.T) {
		owner := uuid.New()
		p := storedProject(owner)

		f := newProjectFixture()
		f.emitter.Err = errors.New("handler down")
		f.projects.On("GetForUpdate", mock.Anything, p.ID).Return(p, nil)
		f.projects.On("Update", mock.Anything, p).Return(nil)

		_, err := f.svc.UpdateProject(context.Background(), user(owner), p.ID, service.ProjectChanges{Description: ptr("d")})
		assert.NoError(t, err)
		assert.Len(t, f.emitter.Events, 1)
	})
}

func TestProjectService_DeleteProject(t *testing.T) {
	owner, member := uuid.New(), uuid.New()
	p := storedProject(owner, member)

	f := newProjectFixture()
	f.projects.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	f.projects.On("Delete", mock.Anything, p.ID).Return(nil)

	assert.ErrorIs(t, f.svc.DeleteProject(context.Background(), user(member), p.ID), service.ErrForbidden)

	require.NoError(t, f.svc.DeleteProject(context.Background(), user(owner), p.ID))
	assert.Equal(t, []string{events.ProjectDeleted}, f.emitter.Types())
	f.projects.AssertNumberOfCalls(t, "Delete", 1)
}

func TestProjectService_AddMembers(t *testing.T) {
	owner, existing, fresh := uuid.New(), uuid.New(), uuid.New()
	p := storedProject(owner, existing)

	f := newProjectFixture()
	f.projects.On("GetForUpdate", mock.Anything, p.ID).Return(p, nil)
	f.users.On("ExistingIDs", mock.Anything, []uuid.UUID{fresh}).Return([]uuid.UUID{fresh}, nil)
	f.projects.On("AddMembers", mock.Anything, p.ID, []uuid.UUID{fresh}).Return(nil)

	got, err := f.svc.AddMembers(context.Background(), user(owner), p.ID, []uuid.UUID{existing, fresh, fresh})

	require.NoError(t, err)
	assert.True(t, got.HasMember(fresh))
	f.projects.AssertExpectations(t)
	assert.Equal(t, []string{events.ProjectUpdated}, f.emitter.Types())
}

func TestProjectService_AddMembers_NoChange(t *testing.T) {
	owner, existing := uuid.New(), uuid.New()
	p := storedProject(owner, existing)

	f := newProjectFixture()
	f.projects.On("GetForUpdate", mock.Anything, p.ID).Return(p, nil)

	_, err := f.svc.AddMembers(context.Background(), admin(), p.ID, []uuid.UUID{existing})

	require.NoError(t, err)
	f.projects.AssertNotCalled(t, "AddMembers", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.emitter.Events)
}

func TestProjectService_RemoveMember(t *testing.T) {
	owner, member := uuid.New(), uuid.New()

	t.Run("removes and unassigns", func(t *testing.T) {
		p := storedProject(owner, member)
		f := newProjectFixture()
		f.projects.On("GetForUpdate", mock.Anything, p.ID).Return(p, nil)
		f.projects.On("RemoveMembers", mock.Anything, p.ID, []uuid.UUID{member}).Return(nil)
		f.tasks.On("UnassignUsers", mock.Anything, p.ID, []uuid.UUID{member}).Return(int64(0), nil)

		got, err := f.svc.RemoveMember(context.Background(), user(owner), p.ID, member)

		require.NoError(t, err)
		assert.False(t, got.HasMember(member))
		f.tasks.AssertExpectations(t)
	})

	t.Run("owner", func(t *testing.T) {
		p := storedProject(owner, member)
		f := newProjectFixture()
		f.projects.On("GetForUpdate", mock.Anything, p.ID).Return(p, nil)

		_, err := f.svc.RemoveMember(context.Background(), admin(), p.ID, owner)
		assert.ErrorIs(t, err, service.ErrOwnerRemoval)
	})

	t.Run("store failure rolls back", func(t *testing.T) {
		p := storedProject(owner, member)
		f := newProjectFixture()
		f.projects.On("GetForUpdate", mock.Anything, p.ID).Return(p, nil)
		f.projects.On("RemoveMembers", mock.Anything, p.ID, []uuid.UUID{member}).Return(nil)
		f.tasks.On("UnassignUsers", mock.Anything, p.ID, []uuid.UUID{member}).Return(int64(0), errors.New("boom"))

		_, err := f.svc.RemoveMember(context.Background(), user(owner), p.ID, member)
		assert.EqualError(t, err, "boom")
		assert.Empty(t, f.emitter.Events)
	})
}
