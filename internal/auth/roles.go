package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-auth/internal/domain"
	apperrors "github.com/spec-kit/flight-auth/pkg/util/errorutil"
)

// ResolveRole derives the effective role of a principal. Precedence:
// a role claimed by a token we signed, then the superadmin flag, then the
// subject kind (user), and admin otherwise. Refresh and other role-less
// contexts pass an empty claimedRole so the current store state decides.
func ResolveRole(subject domain.Subject, principal domain.Principal, claimedRole domain.Role) domain.Role {
	if claimedRole != "" {
		return claimedRole
	}
	if principal.IsSuperadmin() {
		return domain.RoleSuperadmin
	}
	if subject.Kind == domain.PrincipalUser {
		return domain.RoleUser
	}
	return domain.RoleAdmin
}

// CheckAdmin fails with Forbidden unless role is admin or superadmin.
func CheckAdmin(role domain.Role) error {
	if !role.IsAdmin() {
		return apperrors.NewForbidden("not enough permissions")
	}
	return nil
}

// CheckSuperadmin fails with Forbidden unless role is superadmin.
func CheckSuperadmin(role domain.Role) error {
	if role != domain.RoleSuperadmin {
		return apperrors.NewForbidden("not enough permissions")
	}
	return nil
}

// RequireAdmin ensures the authenticated caller holds an admin role.
func RequireAdmin() fiber.Handler {
	return requireRole(CheckAdmin)
}

// RequireSuperadmin ensures the authenticated caller is a superadmin.
func RequireSuperadmin() fiber.Handler {
	return requireRole(CheckSuperadmin)
}

func requireRole(check func(domain.Role) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("not authenticated")
		}
		if err := check(principal.Role); err != nil {
			return err
		}
		return c.Next()
	}
}
