package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Im-Moazzam/Ticketing-System/internal/api/http/handlers"
	"github.com/Im-Moazzam/Ticketing-System/internal/auth"
	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
	"github.com/Im-Moazzam/Ticketing-System/internal/observability"
	"github.com/Im-Moazzam/Ticketing-System/internal/ratelimit"
)

// RouterDeps bundles everything route registration needs.
type RouterDeps struct {
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	AuthMW      *auth.AuthMiddleware
	AuthLimiter *ratelimit.Limiter

	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Tickets *handlers.TicketHandler
	Admin   *handlers.AdminHandler
}

// RegisterRoutes mounts the full HTTP surface on the app.
func RegisterRoutes(app *fiber.App, deps RouterDeps) {
	app.Use(observability.RequestLogger(deps.Logger, deps.Metrics))

	app.Get("/health/live", deps.Health.Live)
	app.Get("/health/ready", deps.Health.Ready)

	// Credential endpoints are rate limited per client IP.
	authGroup := app.Group("/auth", RateLimit(deps.AuthLimiter, deps.Logger))
	authGroup.Post("/register", deps.Auth.Register)
	authGroup.Post("/login", deps.Auth.Login)
	authGroup.Post("/password/reset/request", deps.Auth.RequestPasswordReset)
	authGroup.Post("/password/change", deps.AuthMW.Handle, auth.RequireAuthenticated(), deps.Auth.ChangePassword)

	tickets := app.Group("/tickets", deps.AuthMW.Handle)
	tickets.Get("/", deps.Tickets.List)
	tickets.Post("/", auth.RequireRole(domain.RoleStaff), deps.Tickets.Create)
	tickets.Get("/:id", deps.Tickets.Get)
	tickets.Get("/:id/attachment", deps.Tickets.Attachment)
	tickets.Post("/:id/comments", deps.Tickets.AddComment)
	tickets.Post("/:id/actions", auth.RequireRole(domain.RoleStaff), deps.Tickets.StaffAction)
	tickets.Patch("/:id/status", auth.RequireRole(domain.RoleAdmin), deps.Admin.ChangeStatus)
	tickets.Patch("/:id/assignee", auth.RequireRole(domain.RoleAdmin), deps.Admin.Assign)
}
