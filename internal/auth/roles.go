package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

// RequireRole ensures the principal holds one of the allowed roles. Route
// guards are a convenience; every service operation re-checks role and
// ownership before mutating anything.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewNotAuthorized("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a principal is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
