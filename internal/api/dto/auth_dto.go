package dto

import "time"

// SignupRequest payload for new end-users.
type SignupRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginRequest payload for end-user login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// AdminLoginRequest payload for administrator login.
type AdminLoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// RefreshRequest carries a refresh token in the body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenPairResponse is returned by the login endpoints.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AccessTokenResponse is returned by the refresh endpoint.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	Subject   string    `json:"subject"`
	Kind      string    `json:"kind"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	Profile   any       `json:"profile"`
}

// UserResponse is the public view of an end-user.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
