package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-auth/internal/api/http/handlers"
	"github.com/spec-kit/flight-auth/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *RateLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	limited := cfg.RateLimiter.Handler()
	authenticated := cfg.AuthMiddleware.Handle

	app.Post("/signup", limited, cfg.Auth.Signup)
	app.Post("/login", limited, cfg.Auth.Login)
	app.Post("/refresh", limited, cfg.Auth.Refresh)
	app.Get("/me", authenticated, cfg.Auth.Me)

	app.Post("/admin/login", limited, cfg.Admin.Login)
	app.Get("/admin/dashboard", authenticated, auth.RequireAdmin(), cfg.Admin.Dashboard)
	app.Get("/admin/metrics", authenticated, auth.RequireAdmin(), cfg.Admin.Metrics)
	app.Post("/admin/admins", authenticated, auth.RequireSuperadmin(), cfg.Admin.CreateAdmin)
	app.Patch("/admin/admins/:username/privilege", authenticated, auth.RequireSuperadmin(), cfg.Admin.UpdatePrivilege)
}
