package dto

import "time"

// CreateAdminRequest payload for POST /admin/admins.
type CreateAdminRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	IsSuperadmin bool   `json:"is_superadmin"`
}

// UpdatePrivilegeRequest payload for PATCH /admin/admins/:username/privilege.
type UpdatePrivilegeRequest struct {
	IsSuperadmin *bool `json:"is_superadmin"`
}

// AdminResponse is the public view of an administrator.
type AdminResponse struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone,omitempty"`
	IsSuperadmin bool      `json:"is_superadmin"`
	CreatedAt    time.Time `json:"created_at"`
}
