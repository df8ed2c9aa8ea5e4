package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
	"github.com/Im-Moazzam/Ticketing-System/internal/repository"
	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens and loads the calling account.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes. The principal is
// loaded fresh from the store on every request so role changes and deleted
// accounts take effect immediately.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("account not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, user)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated account.
func PrincipalFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}
