// Package http wires the Fiber application: routes, middleware and error
// rendering.
package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Im-Moazzam/Ticketing-System/internal/observability"
	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewErrorHandler renders every handler error as a DomainError envelope.
// Unexpected errors are logged with their cause and reported as 500 without
// leaking internals.
func NewErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(errorResponse{
				Error: errorBody{Code: "HTTP_ERROR", Message: fiberErr.Message},
			})
		}

		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.Error(err),
			)
		}
		metrics.RecordError(c.Path(), c.Method(), domainErr.Code)

		return c.Status(domainErr.HTTPStatus).JSON(errorResponse{
			Error: errorBody{
				Code:    domainErr.Code,
				Message: domainErr.Message,
				Details: domainErr.Details,
			},
		})
	}
}

// Allower reports whether an event for key fits the caller's budget.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit bounds requests per client IP. Redis trouble fails open; the
// limiter protects against abuse, it must never take the service down with
// it.
func RateLimit(limiter Allower, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, err := limiter.Allow(c.Context(), c.IP())
		if err != nil {
			logger.Warn("rate limit check failed", zap.Error(err))
			return c.Next()
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(errorResponse{
				Error: errorBody{Code: "RATE_LIMITED", Message: "too many requests, try again shortly"},
			})
		}
		return c.Next()
	}
}
