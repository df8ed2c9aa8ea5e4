package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Im-Moazzam/Ticketing-System/internal/api/dto"
	"github.com/Im-Moazzam/Ticketing-System/internal/auth"
	"github.com/Im-Moazzam/Ticketing-System/internal/service"
	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

// AuthHandler serves account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register creates a staff account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	user, err := h.auth.Register(c.Context(), service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewUserResponse(user))
}

// Login exchanges credentials for a token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	result, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.NewUserResponse(result.User),
	})
}

// ChangePassword rotates the caller's password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	if err := h.auth.ChangePassword(c.Context(), principal, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "password updated"})
}

// RequestPasswordReset always answers the same way so account existence
// cannot be probed.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	h.auth.RequestPasswordReset(c.Context(), req.Email)
	return c.JSON(fiber.Map{"message": "if the account exists, instructions have been emailed"})
}
