package dto

import (
	"time"

	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
)

// RegisterRequest is the self-registration payload.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest rotates the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PasswordResetRequest asks for the reset advisory email.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// UserResponse is the public account representation.
type UserResponse struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
}

// LoginResponse returns the issued token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}
