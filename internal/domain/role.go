package domain

// Role is an authorization tier carried in access tokens.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Valid reports whether r is one of the known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// IsAdmin reports whether r grants access to administrator routes.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}
