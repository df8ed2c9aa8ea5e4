package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Im-Moazzam/Ticketing-System/internal/auth"
	"github.com/Im-Moazzam/Ticketing-System/internal/config"
	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
	"github.com/Im-Moazzam/Ticketing-System/internal/notification"
	"github.com/Im-Moazzam/Ticketing-System/internal/repository"
	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

// AuthService covers account registration, login and password maintenance.
// Self-registration always produces a staff account; the single admin is
// seeded at boot from configuration.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	sink   notification.Sink
	logger *zap.Logger

	bcryptCost int
}

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginResult carries the issued token and its subject.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// NewAuthService constructs the service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, sink notification.Sink, logger *zap.Logger, bcryptCost int) *AuthService {
	if bcryptCost <= 0 {
		bcryptCost = 12
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		sink:       sink,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// Register creates a staff account. The requested role is never taken from
// the caller.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username, email and password are required", nil)
	}
	if input.Password != input.ConfirmPassword {
		return nil, apperrors.NewValidationError("passwords do not match", nil)
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleStaff,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// Login verifies credentials and issues an access token. The same error is
// returned for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid email or password")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ChangePassword rotates the authenticated user's password after verifying
// the current one.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.User, currentPassword, newPassword string) error {
	if newPassword == "" {
		return apperrors.NewValidationError("new password is required", nil)
	}
	if err := auth.ComparePassword(actor.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, actor.ID, hash); err != nil {
		return apperrors.MapError(err)
	}

	s.logger.Info("password changed", zap.Int64("user_id", actor.ID))
	return nil
}

// RequestPasswordReset sends an advisory email telling the account holder to
// contact the helpdesk admin. The response never reveals whether the address
// exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("password reset lookup failed", zap.Error(err))
		}
		return
	}

	body := fmt.Sprintf(
		"Dear %s,\n\nWe received a request to reset the password for your helpdesk account.\nPlease contact the credentialing admin to have your password reset.\n\nRegards,\nCredentialing Helpdesk System",
		user.Username,
	)
	s.sink.Send(ctx, "[Password Reset] Credentialing Helpdesk", []string{user.Email}, body)
}

// SeedAdmin makes sure the configured administrator account exists. Safe to
// run on every boot.
func (s *AuthService) SeedAdmin(ctx context.Context, cfg config.AdminConfig) error {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" || cfg.Password == "" {
		return apperrors.NewValidationError("admin email and password must be configured", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(cfg.Password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	admin := &domain.User{
		Username:     cfg.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return apperrors.MapError(err)
	}

	s.logger.Info("admin account seeded", zap.String("email", email))
	return nil
}
