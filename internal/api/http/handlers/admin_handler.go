package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-auth/internal/api/dto"
	"github.com/spec-kit/flight-auth/internal/auth"
	"github.com/spec-kit/flight-auth/internal/observability"
	"github.com/spec-kit/flight-auth/internal/service"
	apperrors "github.com/spec-kit/flight-auth/pkg/util/errorutil"
)

// AdminHandler exposes administrator endpoints.
type AdminHandler struct {
	auth    *service.AuthService
	metrics *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{auth: authService, metrics: metrics}
}

// Login handles POST /admin/login. Missing or unreadable credentials fail like wrong ones.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	_ = c.BodyParser(&req)

	pair, err := h.auth.LoginAdmin(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(tokenPairResponse(pair))
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	return c.JSON(dto.MessageResponse{Message: "Welcome to the admin dashboard!"})
}

// Metrics handles GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}

// CreateAdmin handles POST /admin/admins.
func (h *AdminHandler) CreateAdmin(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}

	var req dto.CreateAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	admin, err := h.auth.CreateAdmin(c.UserContext(), actor, service.NewAdminInput{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Password:     req.Password,
		IsSuperadmin: req.IsSuperadmin,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(adminResponse(admin))
}

// UpdatePrivilege handles PATCH /admin/admins/:username/privilege.
func (h *AdminHandler) UpdatePrivilege(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}

	var req dto.UpdatePrivilegeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.IsSuperadmin == nil {
		return apperrors.NewValidationError("is_superadmin required", map[string]any{"field": "is_superadmin"})
	}

	admin, err := h.auth.SetAdminPrivilege(c.UserContext(), actor, c.Params("username"), *req.IsSuperadmin)
	if err != nil {
		return err
	}
	return c.JSON(adminResponse(admin))
}
