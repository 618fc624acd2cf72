package auth

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-auth/internal/domain"
	apperrors "github.com/spec-kit/flight-auth/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AuthenticatedPrincipal is the caller resolved from a verified access token.
// It lives for a single request.
type AuthenticatedPrincipal struct {
	Subject   domain.Subject
	Role      domain.Role
	Principal domain.Principal
	ExpiresAt time.Time
}

// PrincipalResolver turns a bearer access token into an authenticated principal.
type PrincipalResolver interface {
	Authenticate(ctx context.Context, accessToken string) (*AuthenticatedPrincipal, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	resolver PrincipalResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(resolver PrincipalResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return apperrors.NewUnauthorized("not authenticated")
	}

	principal, err := m.resolver.Authenticate(c.UserContext(), token)
	if err != nil {
		return err
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*AuthenticatedPrincipal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*AuthenticatedPrincipal)
	return principal, ok
}
