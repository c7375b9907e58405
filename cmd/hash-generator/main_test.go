package main

import (
	"strings"
	"testing"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	t.Run("hash verifies with the login verifier", func(t *testing.T) {
		hash, err := hashPassword(strings.NewReader("correct horse battery\n"), bcrypt.MinCost)
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost, cost)
		assert.NoError(t, auth.NewBcryptVerifier().Compare(hash, "correct horse battery"))
	})

	t.Run("no trailing newline", func(t *testing.T) {
		hash, err := hashPassword(strings.NewReader("тест-пароль-123"), bcrypt.MinCost)
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("тест-пароль-123")))
	})

	tests := []struct {
		name    string
		input   string
		cost    int
		wantErr error
	}{
		{name: "empty", input: "\n", cost: bcrypt.MinCost, wantErr: domain.ErrEmptyPassword},
		{name: "too short", input: "short\n", cost: bcrypt.MinCost, wantErr: domain.ErrPasswordTooShort},
		{name: "too long", input: strings.Repeat("a", 73), cost: bcrypt.MinCost, wantErr: domain.ErrPasswordTooLong},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := hashPassword(strings.NewReader(tc.input), tc.cost)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("cost out of range", func(t *testing.T) {
		_, err := hashPassword(strings.NewReader("correct horse battery"), 2)
		assert.ErrorContains(t, err, "cost must be between")
	})
}
