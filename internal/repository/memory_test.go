package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/flight-auth/internal/domain"
)

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	_, err := users.GetByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	created := &domain.User{Email: "a@x.com", PasswordHash: "hash", Active: true}
	require.NoError(t, users.Create(ctx, created))
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	err = users.Create(ctx, &domain.User{Email: "a@x.com", PasswordHash: "other"})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	got.PasswordHash = "mutated"
	again, err := users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", again.PasswordHash, "returned records must be copies")
}

func TestMemoryStore_Admins(t *testing.T) {
	ctx := context.Background()
	admins := NewMemoryStore().Admins()

	ops := &domain.Admin{Username: "ops", Email: "ops@tower.example", Phone: "+100", PasswordHash: "h"}
	require.NoError(t, admins.Create(ctx, ops))

	tests := []struct {
		name  string
		admin *domain.Admin
	}{
		{name: "username taken", admin: &domain.Admin{Username: "ops", Email: "other@tower.example"}},
		{name: "email taken", admin: &domain.Admin{Username: "ops2", Email: "ops@tower.example"}},
		{name: "phone taken", admin: &domain.Admin{Username: "ops3", Email: "ops3@tower.example", Phone: "+100"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, admins.Create(ctx, tt.admin), ErrDuplicate)
		})
	}

	require.NoError(t, admins.SetSuperadmin(ctx, "ops", true))
	got, err := admins.GetByUsername(ctx, "ops")
	require.NoError(t, err)
	assert.True(t, got.IsSuperadmin)

	assert.ErrorIs(t, admins.SetSuperadmin(ctx, "ghost", true), ErrNotFound)
	_, err = admins.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
