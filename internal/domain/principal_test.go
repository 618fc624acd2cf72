package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferSubject(t *testing.T) {
	tests := []struct {
		key  string
		want PrincipalKind
	}{
		{key: "a@x.com", want: PrincipalUser},
		{key: "ops-lead", want: PrincipalAdmin},
		{key: "@", want: PrincipalUser},
		{key: "", want: PrincipalAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := InferSubject(tt.key)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.key, got.Key)
		})
	}
}

func TestPrincipalAccessors(t *testing.T) {
	user := UserPrincipal(&User{Email: "a@x.com", PasswordHash: "h1"})
	assert.Equal(t, "a@x.com", user.Key())
	assert.False(t, user.IsSuperadmin())
	assert.Equal(t, "h1", user.PasswordHash())

	admin := AdminPrincipal(&Admin{Username: "root", PasswordHash: "h2", IsSuperadmin: true})
	assert.Equal(t, "root", admin.Key())
	assert.True(t, admin.IsSuperadmin())
	assert.Equal(t, "h2", admin.PasswordHash())

	assert.Empty(t, Principal{}.Key())
	assert.False(t, Principal{}.IsSuperadmin())
}

func TestRole(t *testing.T) {
	assert.True(t, RoleAdmin.IsAdmin())
	assert.True(t, RoleSuperadmin.IsAdmin())
	assert.False(t, RoleUser.IsAdmin())
	assert.False(t, Role("pilot").Valid())

	assert.Equal(t, RoleSuperadmin, (&Admin{IsSuperadmin: true}).Role())
	assert.Equal(t, RoleAdmin, (&Admin{}).Role())
}
