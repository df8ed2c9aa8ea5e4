package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Im-Moazzam/Ticketing-System/internal/persistence"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	version  string
	postgres *persistence.Postgres
	redis    *persistence.Redis
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{version: version, postgres: postgres, redis: redis}
}

// Live reports process liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "version": h.version})
}

// Ready reports whether the backing stores are reachable. Redis is degraded
// rather than fatal; only the database gates readiness.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{"postgres": "ok", "redis": "ok"}
	status := fiber.StatusOK

	if err := h.postgres.Ping(c.Context()); err != nil {
		checks["postgres"] = err.Error()
		status = fiber.StatusServiceUnavailable
	}
	if err := h.redis.Ping(c.Context()); err != nil {
		checks["redis"] = "degraded: " + err.Error()
	}

	return c.Status(status).JSON(fiber.Map{"status": checks})
}
