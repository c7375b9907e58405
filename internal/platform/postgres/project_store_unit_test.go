package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var projectCols = []string{"id", "name", "description", "owner_id", "created_at", "updated_at"}

func TestPostgresProjectStore_Create(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresProjectStore(db, nil)

	owner, member := uuid.New(), uuid.New()
	p, err := domain.NewProject(owner, "Launch", "ship it", []uuid.UUID{member})
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO projects").
		WithArgs(p.ID, "Launch", "ship it", owner, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO project_members").
		WithArgs(p.ID, uuidArray([]uuid.UUID{owner, member}), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, s.Create(context.Background(), p))
}

func TestPostgresProjectStore_Create_UnknownMember(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresProjectStore(db, nil)

	p, err := domain.NewProject(uuid.New(), "Launch", "", nil)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO projects").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO project_members").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "project_members_user_id_fkey"})

	assert.ErrorIs(t, s.Create(context.Background(), p), store.ErrInvalidEntity)
}

func TestPostgresProjectStore_GetByID(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresProjectStore(db, nil)

	id, owner, member := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM projects p WHERE p.id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(projectCols).AddRow(id.String(), "Launch", "", owner.String(), now, now))
	mock.ExpectQuery("SELECT pm.project_id, pm.user_id").
		WithArgs(uuidArray([]uuid.UUID{id})).
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "user_id"}).
			AddRow(id.String(), owner.String()).
			AddRow(id.String(), member.String()))

	p, err := s.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, owner, p.OwnerID)
	assert.Equal(t, []uuid.UUID{owner, member}, p.MemberIDs)
	assert.True(t, p.HasMember(member))

	mock.ExpectQuery(`SELECT .+ FROM projects p WHERE p.id = \$1`).
		WillReturnRows(sqlmock.NewRows(projectCols))
	_, err = s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
}

func TestPostgresProjectStore_LockingReads(t *testing.T) {
	tests := []struct {
		name  string
		query string
		get   func(store.ProjectStore, uuid.UUID) (*domain.Project, error)
	}{
		{"for update", `SELECT .+ FROM projects p WHERE p.id = \$1 FOR UPDATE`,
			func(s store.ProjectStore, id uuid.UUID) (*domain.Project, error) {
				return s.GetForUpdate(context.Background(), id)
			}},
		{"for share", `SELECT .+ FROM projects p WHERE p.id = \$1 FOR SHARE`,
			func(s store.ProjectStore, id uuid.UUID) (*domain.Project, error) {
				return s.GetForShare(context.Background(), id)
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			s := NewPostgresProjectStore(db, nil)

			id, owner := uuid.New(), uuid.New()
			now := time.Now().UTC()

			mock.ExpectBegin()
			mock.ExpectQuery(tt.query).
				WithArgs(id).
				WillReturnRows(sqlmock.NewRows(projectCols).AddRow(id.String(), "Launch", "", owner.String(), now, now))
			mock.ExpectQuery("SELECT pm.project_id, pm.user_id").
				WillReturnRows(sqlmock.NewRows([]string{"project_id", "user_id"}).AddRow(id.String(), owner.String()))
			mock.ExpectQuery(tt.query).WillReturnRows(sqlmock.NewRows(projectCols))
			mock.ExpectRollback()

			tx, err := db.Begin()
			require.NoError(t, err)

			p, err := tt.get(s.WithTx(tx), id)
			require.NoError(t, err)
			assert.Equal(t, []uuid.UUID{owner}, p.MemberIDs)

			_, err = tt.get(s.WithTx(tx), uuid.New())
			assert.ErrorIs(t, err, store.ErrProjectNotFound)
			require.NoError(t, tx.Rollback())
		})
	}
}

func TestPostgresProjectStore_ProjectIDsForMember(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresProjectStore(db, nil)

	userID, a, b := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT project_id FROM project_members WHERE user_id = \$1`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow(a.String()).AddRow(b.String()))
	mock.ExpectQuery(`SELECT project_id FROM project_members WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}))

	ids, err := s.ProjectIDsForMember(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	ids, err = s.ProjectIDsForMember(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestPostgresProjectStore_List_MemberFilter(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresProjectStore(db, nil)

	user := uuid.New()
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects p WHERE EXISTS .+ AND p.name ILIKE \$2`).
		WithArgs(user, "%launch%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT .+ FROM projects p WHERE .+ LIMIT \$3 OFFSET \$4`).
		WithArgs(user, "%launch%", 20, 0).
		WillReturnRows(sqlmock.NewRows(projectCols).AddRow(id.String(), "Launch", "", user.String(), now, now))
	mock.ExpectQuery("SELECT pm.project_id, pm.user_id").
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "user_id"}).AddRow(id.String(), user.String()))

	projects, total, err := s.List(context.Background(), store.ProjectFilter{MemberID: &user, Search: "launch"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, projects, 1)
	assert.Equal(t, []uuid.UUID{user}, projects[0].MemberIDs)
}

func TestPostgresProjectStore_List_Empty(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresProjectStore(db, nil)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects p$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT .+ FROM projects p ORDER BY`).
		WillReturnRows(sqlmock.NewRows(projectCols))

	projects, total, err := s.List(context.Background(), store.ProjectFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)
}

func TestPostgresProjectStore_UpdateDelete(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresProjectStore(db, nil)

	p, err := domain.NewProject(uuid.New(), "Launch", "", nil)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE projects SET name").
		WithArgs("Launch", "", sqlmock.AnyArg(), p.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Update(context.Background(), p))

	mock.ExpectExec("DELETE FROM projects").WithArgs(p.ID).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.Delete(context.Background(), p.ID), store.ErrProjectNotFound)
}

func TestPostgresProjectStore_Members(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresProjectStore(db, nil)

	projectID, a := uuid.New(), uuid.New()

	// Empty input issues no statement.
	require.NoError(t, s.AddMembers(context.Background(), projectID, nil))
	require.NoError(t, s.RemoveMembers(context.Background(), projectID, nil))

	mock.ExpectExec("ON CONFLICT \\(project_id, user_id\\) DO NOTHING").
		WithArgs(projectID, uuidArray([]uuid.UUID{a}), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.AddMembers(context.Background(), projectID, []uuid.UUID{a}))

	mock.ExpectExec("DELETE FROM project_members").
		WithArgs(projectID, uuidArray([]uuid.UUID{a})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.RemoveMembers(context.Background(), projectID, []uuid.UUID{a}))
}
