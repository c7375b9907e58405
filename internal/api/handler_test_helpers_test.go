package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/mocks"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

// testEnv wires the real router to mocked services and a real JWT service.
type testEnv struct {
	router    http.Handler
	users     *mocks.UserService
	projects  *mocks.ProjectService
	tasks     *mocks.TaskService
	userStore *mocks.UserStore
	verifier  *mocks.MockPasswordVerifier
	jwt       auth.JWTService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:     &mocks.UserService{},
		projects:  &mocks.ProjectService{},
		tasks:     &mocks.TaskService{},
		userStore: &mocks.UserStore{},
		verifier:  &mocks.MockPasswordVerifier{},
		jwt:       auth.RequireTestJWTService(t),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	env.router = NewRouter(RouterDeps{
		Auth:       NewAuthHandler(env.users, env.userStore, env.jwt, env.verifier, log),
		Users:      NewUserHandler(env.users),
		Projects:   NewProjectHandler(env.projects),
		Tasks:      NewTaskHandler(env.tasks),
		JWTService: env.jwt,
		Logger:     log,
	})

	t.Cleanup(func() {
		env.users.AssertExpectations(t)
		env.projects.AssertExpectations(t)
		env.tasks.AssertExpectations(t)
		env.userStore.AssertExpectations(t)
	})
	return env
}

// do sends a request through the router. A nil actor sends no Authorization
// header; a string body is sent verbatim, anything else is JSON-encoded.
func (e *testEnv) do(t *testing.T, method, path string, actor *service.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("Authorization", auth.GenerateAuthHeaderForTestingT(t, actor.ID, actor.Role))
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func adminActor() *service.Actor {
	return &service.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
}

func userActor() *service.Actor {
	return &service.Actor{ID: uuid.New(), Role: domain.RoleUser}
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[shared.ErrorResponse](t, rr).Error
}

func sampleUser(role domain.Role) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:             uuid.New(),
		Email:          "alice@example.com",
		Name:           "Alice",
		Role:           role,
		HashedPassword: "$2a$04$hash",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func sampleProject(owner uuid.UUID, members ...uuid.UUID) *domain.Project {
	now := time.Now().UTC()
	return &domain.Project{
		ID:        uuid.New(),
		Name:      "Launch",
		OwnerID:   owner,
		MemberIDs: append([]uuid.UUID{owner}, members...),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func sampleTask(projectID, creator uuid.UUID) *domain.Task {
	now := time.Now().UTC()
	return &domain.Task{
		ID:        uuid.New(),
		ProjectID: projectID,
		CreatorID: creator,
		Title:     "Write release notes",
		Status:    domain.TaskStatusTodo,
		Priority:  domain.TaskPriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newRawRequest(method, path, authorization string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
