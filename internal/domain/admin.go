package domain

import "time"

// Admin models an operator account, identified by username.
type Admin struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Phone        string
	PasswordHash string
	IsSuperadmin bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role returns the authorization tier granted by the admin's current flags.
func (a *Admin) Role() Role {
	if a.IsSuperadmin {
		return RoleSuperadmin
	}
	return RoleAdmin
}
