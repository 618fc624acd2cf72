package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-auth/internal/api/dto"
	"github.com/spec-kit/flight-auth/internal/auth"
	"github.com/spec-kit/flight-auth/internal/domain"
	"github.com/spec-kit/flight-auth/internal/service"
	apperrors "github.com/spec-kit/flight-auth/pkg/util/errorutil"
)

// AuthHandler exposes end-user registration, login and token endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if _, err := h.auth.Signup(c.UserContext(), req.Email, req.Password); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.MessageResponse{Message: "user created successfully"})
}

// Login handles POST /login. Missing or unreadable credentials fail like wrong ones.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	_ = c.BodyParser(&req)

	pair, err := h.auth.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(tokenPairResponse(pair))
}

// Refresh handles POST /refresh. The token may arrive in a JSON or form body,
// or as a bearer credential.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if len(c.Body()) > 0 {
		// An unreadable body is not fatal; the bearer header may still carry the token.
		_ = c.BodyParser(&req)
	}
	token := req.RefreshToken
	if token == "" {
		token, _ = auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	}
	if token == "" {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return apperrors.NewUnauthorized("refresh token required")
	}

	access, err := h.auth.Refresh(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(dto.AccessTokenResponse{AccessToken: access.AccessToken, TokenType: access.TokenType})
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}

	resp := dto.MeResponse{
		Subject:   principal.Subject.Key,
		Kind:      string(principal.Subject.Kind),
		Role:      string(principal.Role),
		ExpiresAt: principal.ExpiresAt,
	}
	switch {
	case principal.Principal.User != nil:
		resp.Profile = userResponse(principal.Principal.User)
	case principal.Principal.Admin != nil:
		resp.Profile = adminResponse(principal.Principal.Admin)
	}
	return c.JSON(resp)
}

func tokenPairResponse(pair *service.TokenPair) dto.TokenPairResponse {
	return dto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
	}
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

func adminResponse(a *domain.Admin) dto.AdminResponse {
	return dto.AdminResponse{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		FullName:     a.FullName,
		Phone:        a.Phone,
		IsSuperadmin: a.IsSuperadmin,
		CreatedAt:    a.CreatedAt,
	}
}
