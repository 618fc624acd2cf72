package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/flight-auth/internal/domain"
	apperrors "github.com/spec-kit/flight-auth/pkg/util/errorutil"
)

func TestResolveRole(t *testing.T) {
	user := domain.UserPrincipal(&domain.User{Email: "a@x.com"})
	admin := domain.AdminPrincipal(&domain.Admin{Username: "ops"})
	superadmin := domain.AdminPrincipal(&domain.Admin{Username: "root", IsSuperadmin: true})

	tests := []struct {
		name      string
		subject   domain.Subject
		principal domain.Principal
		claimed   domain.Role
		want      domain.Role
	}{
		{name: "claimed role wins over demotion", subject: domain.AdminSubject("ops"), principal: admin, claimed: domain.RoleSuperadmin, want: domain.RoleSuperadmin},
		{name: "claimed role wins over superadmin flag", subject: domain.AdminSubject("root"), principal: superadmin, claimed: domain.RoleAdmin, want: domain.RoleAdmin},
		{name: "superadmin flag", subject: domain.AdminSubject("root"), principal: superadmin, want: domain.RoleSuperadmin},
		{name: "user subject", subject: domain.UserSubject("a@x.com"), principal: user, want: domain.RoleUser},
		{name: "legacy email shape", subject: domain.InferSubject("a@x.com"), principal: user, want: domain.RoleUser},
		{name: "admin fallback", subject: domain.AdminSubject("ops"), principal: admin, want: domain.RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRole(tt.subject, tt.principal, tt.claimed))
		})
	}
}

func TestResolveRole_DoesNotMutatePrincipal(t *testing.T) {
	admin := &domain.Admin{Username: "ops"}
	_ = ResolveRole(domain.AdminSubject("ops"), domain.AdminPrincipal(admin), domain.RoleSuperadmin)
	assert.False(t, admin.IsSuperadmin)
}

func TestCheckAdmin(t *testing.T) {
	assert.NoError(t, CheckAdmin(domain.RoleAdmin))
	assert.NoError(t, CheckAdmin(domain.RoleSuperadmin))

	err := CheckAdmin(domain.RoleUser)
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))
	assert.True(t, apperrors.Is(CheckAdmin(""), apperrors.CodeForbidden))
}

func TestCheckSuperadmin(t *testing.T) {
	assert.NoError(t, CheckSuperadmin(domain.RoleSuperadmin))
	assert.True(t, apperrors.Is(CheckSuperadmin(domain.RoleAdmin), apperrors.CodeForbidden))
	assert.True(t, apperrors.Is(CheckSuperadmin(domain.RoleUser), apperrors.CodeForbidden))
}
