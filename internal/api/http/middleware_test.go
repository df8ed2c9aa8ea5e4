package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Im-Moazzam/Ticketing-System/internal/observability"
	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

type stubAllower struct {
	allowed bool
	err     error
}

func (s stubAllower) Allow(context.Context, string) (bool, error) {
	return s.allowed, s.err
}

func newTestApp(limiter Allower) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: NewErrorHandler(zap.NewNop(), observability.NewMetrics()),
	})
	app.Get("/ping", RateLimit(limiter, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func TestRateLimitAllows(t *testing.T) {
	app := newTestApp(stubAllower{allowed: true})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimitDeniesOverBudget(t *testing.T) {
	app := newTestApp(stubAllower{allowed: false})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "RATE_LIMITED", body.Error.Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	app := newTestApp(stubAllower{allowed: false, err: errors.New("redis down")})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestErrorHandlerRendersDomainErrors(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: NewErrorHandler(zap.NewNop(), observability.NewMetrics()),
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperrors.NewInvalidAction("not allowed from this state")
	})
	app.Get("/oops", func(c *fiber.Ctx) error {
		return errors.New("database exploded")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INVALID_ACTION", body.Error.Code)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/oops", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Equal(t, "internal server error", body.Error.Message, "internals must not leak")
}
