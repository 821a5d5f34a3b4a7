package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	base := CreateParams{
		ID:           "u-1",
		Email:        "Alice@Example.com",
		Name:         "Alice",
		PasswordHash: "hash",
		CreatedAt:    now,
	}

	t.Run("defaults to guest role and lowercases the email", func(t *testing.T) {
		u, err := NewUser(base)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", u.Email)
		assert.Equal(t, []Role{RoleGuest}, u.Roles)
	})

	t.Run("duplicate roles are collapsed", func(t *testing.T) {
		params := base
		params.Roles = []Role{RoleHost, "HOST", RoleGuest}
		u, err := NewUser(params)
		require.NoError(t, err)
		assert.Equal(t, []Role{RoleHost, RoleGuest}, u.Roles)
	})

	t.Run("malformed email", func(t *testing.T) {
		params := base
		params.Email = "not-an-email"
		_, err := NewUser(params)
		assert.ErrorIs(t, err, ErrEmailInvalid)
	})

	t.Run("unknown role", func(t *testing.T) {
		params := base
		params.Roles = []Role{"landlord"}
		_, err := NewUser(params)
		assert.ErrorIs(t, err, ErrInvalidRole)
	})
}

func TestHasRoleAndEnsureRole(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	u, err := NewUser(CreateParams{
		ID:           "u-1",
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: "hash",
		CreatedAt:    now,
	})
	require.NoError(t, err)

	assert.True(t, u.HasRole(RoleGuest))
	assert.False(t, u.HasRole(RoleHost))

	require.NoError(t, u.EnsureRole(RoleHost, now))
	assert.True(t, u.HasRole(RoleHost))

	// idempotent
	require.NoError(t, u.EnsureRole(RoleHost, now))
	assert.Len(t, u.Roles, 2)

	assert.ErrorIs(t, u.EnsureRole("landlord", now), ErrInvalidRole)
}
