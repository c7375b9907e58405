package shared

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	ctxWithTrace := SetTraceID(ctx)
	traceID := GetTraceID(ctxWithTrace)
	assert.Len(t, traceID, 32, "trace ID should be 32 hex characters")

	assert.Empty(t, GetTraceID(ctx), "original context must remain unchanged")
}

func TestSetTraceID_ReusesSpanTraceID(t *testing.T) {
	tid, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	sid, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(SetTraceID(ctx)))
}

func TestGetTraceIDWithInvalidContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx))
}

func TestGenerateTraceID(t *testing.T) {
	const iterations = 500
	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := generateTraceID()
		_, err := hex.DecodeString(id)
		require.NoError(t, err)
		assert.Len(t, id, 32)
		assert.False(t, seen[id], "trace IDs should be unique")
		seen[id] = true
	}
}

func TestGenerateFallbackTraceID(t *testing.T) {
	id := generateFallbackTraceID()
	assert.Len(t, id, 32)
	_, err := hex.DecodeString(id)
	assert.NoError(t, err)
}

func TestUserFromContext(t *testing.T) {
	userID := uuid.New()

	t.Run("authenticated", func(t *testing.T) {
		ctx := WithUser(context.Background(), userID, domain.RoleAdmin)
		id, role, ok := UserFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, userID, id)
		assert.Equal(t, domain.RoleAdmin, role)
	})

	t.Run("missing", func(t *testing.T) {
		_, _, ok := UserFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("nil user ID", func(t *testing.T) {
		ctx := WithUser(context.Background(), uuid.Nil, domain.RoleUser)
		_, _, ok := UserFromContext(ctx)
		assert.False(t, ok)
	})

	t.Run("missing role", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), UserIDContextKey, userID)
		_, _, ok := UserFromContext(ctx)
		assert.False(t, ok)
	})
}
