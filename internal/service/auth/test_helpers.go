package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/stretchr/testify/require"
)

// DefaultJWTConfig returns a standard configuration for JWT authentication suitable for testing.
func DefaultJWTConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                   "test-jwt-secret-that-is-32-chars-long",
		BCryptCost:                  4,
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 1440,
	}
}

// RequireTestJWTService creates a JWT service with DefaultJWTConfig and
// fails the test if that is not possible.
func RequireTestJWTService(t *testing.T) JWTService {
	t.Helper()
	service, err := NewJWTService(DefaultJWTConfig())
	require.NoError(t, err, "Failed to create test JWT service")
	return service
}

// GenerateAuthHeaderForTestingT creates an Authorization header carrying a
// valid access token for the user and role.
func GenerateAuthHeaderForTestingT(t *testing.T, userID uuid.UUID, role domain.Role) string {
	t.Helper()
	token, err := RequireTestJWTService(t).GenerateToken(context.Background(), userID, role)
	require.NoError(t, err, "Failed to generate auth header")
	return "Bearer " + token
}
