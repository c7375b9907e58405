package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	t.Run("issues a token pair", func(t *testing.T) {
		env := newTestEnv(t)
		user := sampleUser(domain.RoleUser)
		env.users.On("Register", mock.Anything, "alice@example.com", "Alice", "correct horse battery").
			Return(user, nil).Once()

		rr := env.do(t, http.MethodPost, "/api/auth/register", nil, RegisterRequest{
			Email: "alice@example.com", Name: "Alice", Password: "correct horse battery",
		})

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		resp := decodeBody[AuthResponse](t, rr)
		assert.Equal(t, user.ID, resp.UserID)
		assert.NotEmpty(t, resp.RefreshToken)

		expires, err := time.Parse(time.RFC3339, resp.ExpiresAt)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

		claims, err := env.jwt.ValidateToken(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, domain.RoleUser, claims.Role)
	})

	t.Run("first user receives an admin token", func(t *testing.T) {
		env := newTestEnv(t)
		user := sampleUser(domain.RoleAdmin)
		env.users.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(user, nil).Once()

		rr := env.do(t, http.MethodPost, "/api/auth/register", nil, RegisterRequest{
			Email: "root@example.com", Name: "Root", Password: "correct horse battery",
		})

		require.Equal(t, http.StatusCreated, rr.Code)
		claims, err := env.jwt.ValidateToken(context.Background(), decodeBody[AuthResponse](t, rr).AccessToken)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, claims.Role)
	})

	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{
			name:    "short password",
			body:    RegisterRequest{Email: "a@example.com", Name: "A", Password: "short"},
			status:  http.StatusBadRequest,
			message: "Invalid password: too short",
		},
		{
			name:    "invalid email",
			body:    RegisterRequest{Email: "not-an-email", Name: "A", Password: "correct horse battery"},
			status:  http.StatusBadRequest,
			message: "Invalid email: invalid email format",
		},
		{
			name:    "missing name",
			body:    RegisterRequest{Email: "a@example.com", Password: "correct horse battery"},
			status:  http.StatusBadRequest,
			message: "Invalid name: required field",
		},
		{
			name:    "role cannot be self-assigned",
			body:    `{"email":"a@example.com","name":"A","password":"correct horse battery","role":"admin"}`,
			status:  http.StatusBadRequest,
			message: "Invalid request format",
		},
		{
			name:    "malformed json",
			body:    `{"email":`,
			status:  http.StatusBadRequest,
			message: "Invalid request format",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)

			rr := env.do(t, http.MethodPost, "/api/auth/register", nil, tc.body)

			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.message, errorMessage(t, rr))
			env.users.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("duplicate email", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, store.ErrEmailExists).Once()

		rr := env.do(t, http.MethodPost, "/api/auth/register", nil, RegisterRequest{
			Email: "alice@example.com", Name: "Alice", Password: "correct horse battery",
		})

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "Email already exists", errorMessage(t, rr))
	})
}

func TestLogin(t *testing.T) {
	t.Run("success normalizes the email", func(t *testing.T) {
		env := newTestEnv(t)
		env.verifier.ShouldSucceed = true
		user := sampleUser(domain.RoleUser)
		env.userStore.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()

		rr := env.do(t, http.MethodPost, "/api/auth/login", nil, LoginRequest{
			Email: "Alice@Example.com", Password: "correct horse battery",
		})

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		resp := decodeBody[AuthResponse](t, rr)
		assert.Equal(t, user.ID, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, 1, env.verifier.CompareCallCount)
	})

	t.Run("wrong password", func(t *testing.T) {
		env := newTestEnv(t)
		env.userStore.On("GetByEmail", mock.Anything, "alice@example.com").
			Return(sampleUser(domain.RoleUser), nil).Once()

		rr := env.do(t, http.MethodPost, "/api/auth/login", nil, LoginRequest{
			Email: "alice@example.com", Password: "wrong password",
		})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid email or password", errorMessage(t, rr))
	})

	t.Run("unknown email looks like a wrong password", func(t *testing.T) {
		env := newTestEnv(t)
		env.userStore.On("GetByEmail", mock.Anything, "nobody@example.com").
			Return(nil, store.ErrUserNotFound).Once()

		rr := env.do(t, http.MethodPost, "/api/auth/login", nil, LoginRequest{
			Email: "nobody@example.com", Password: "whatever",
		})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid email or password", errorMessage(t, rr))
		assert.Zero(t, env.verifier.CompareCallCount)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Run("reloads the role", func(t *testing.T) {
		env := newTestEnv(t)
		user := sampleUser(domain.RoleAdmin)
		refresh, err := env.jwt.GenerateRefreshToken(context.Background(), user.ID)
		require.NoError(t, err)
		env.userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()

		rr := env.do(t, http.MethodPost, "/api/auth/refresh", nil, RefreshTokenRequest{RefreshToken: refresh})

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		resp := decodeBody[AuthResponse](t, rr)
		claims, err := env.jwt.ValidateToken(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, claims.Role)

		_, err = env.jwt.ValidateRefreshToken(context.Background(), resp.RefreshToken)
		assert.NoError(t, err)
	})

	t.Run("access token is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		access, err := env.jwt.GenerateToken(context.Background(), uuid.New(), domain.RoleUser)
		require.NoError(t, err)

		rr := env.do(t, http.MethodPost, "/api/auth/refresh", nil, RefreshTokenRequest{RefreshToken: access})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid refresh token", errorMessage(t, rr))
	})

	t.Run("deleted user", func(t *testing.T) {
		env := newTestEnv(t)
		id := uuid.New()
		refresh, err := env.jwt.GenerateRefreshToken(context.Background(), id)
		require.NoError(t, err)
		env.userStore.On("GetByID", mock.Anything, id).Return(nil, store.ErrUserNotFound).Once()

		rr := env.do(t, http.MethodPost, "/api/auth/refresh", nil, RefreshTokenRequest{RefreshToken: refresh})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid refresh token", errorMessage(t, rr))
	})

	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv(t)

		rr := env.do(t, http.MethodPost, "/api/auth/refresh", nil, `{}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid refresh_token: required field", errorMessage(t, rr))
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/users/me", "/api/projects", "/api/tasks"} {
		rr := env.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestProtectedRoutesRejectRefreshTokens(t *testing.T) {
	env := newTestEnv(t)
	refresh, err := env.jwt.GenerateRefreshToken(context.Background(), uuid.New())
	require.NoError(t, err)

	req := newRawRequest(http.MethodGet, "/api/users/me", "Bearer "+refresh)
	rr := serve(env.router, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid token", errorMessage(t, rr))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}
