package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Im-Moazzam/Ticketing-System/internal/auth"
	"github.com/Im-Moazzam/Ticketing-System/internal/config"
	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

// Low bcrypt cost keeps these tests fast.
const testBcryptCost = 4

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo, *captureSink) {
	t.Helper()
	users := newFakeUserRepo()
	sink := &captureSink{}
	tokens := auth.NewTokenManager("test-secret", 60)
	svc := NewAuthService(users, tokens, sink, zap.NewNop(), testBcryptCost)
	return svc, users, sink
}

func registerInput() RegisterInput {
	return RegisterInput{
		Username:        "hira",
		Email:           "Hira@Example.com",
		Password:        "s3cret!",
		ConfirmPassword: "s3cret!",
	}
}

func TestRegisterCreatesStaffAccount(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	user, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	assert.Equal(t, domain.RoleStaff, user.Role, "self-registration never yields admin")
	assert.Equal(t, "hira@example.com", user.Email)
	assert.NotEqual(t, "s3cret!", user.PasswordHash)
}

func TestRegisterRejectsPasswordMismatch(t *testing.T) {
	svc, users, _ := newAuthFixture(t)

	input := registerInput()
	input.ConfirmPassword = "different"
	_, err := svc.Register(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.Code(err))
	assert.Zero(t, users.count())
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerInput())
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.Code(err))
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	registered, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "hira@example.com", "s3cret!")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, registered.ID, result.User.ID)

	_, err = svc.Login(context.Background(), "hira@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.Code(err))

	_, err = svc.Login(context.Background(), "nobody@example.com", "s3cret!")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.Code(err), "unknown email must look like a bad password")
}

func TestChangePassword(t *testing.T) {
	svc, users, _ := newAuthFixture(t)

	user, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user, "wrong", "newpass1")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.Code(err))

	require.NoError(t, svc.ChangePassword(context.Background(), user, "s3cret!", "newpass1"))

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NoError(t, auth.ComparePassword(stored.PasswordHash, "newpass1"))
}

func TestRequestPasswordResetSendsAdvisory(t *testing.T) {
	svc, _, sink := newAuthFixture(t)

	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	svc.RequestPasswordReset(context.Background(), "hira@example.com")
	messages := sink.messages()
	require.Len(t, messages, 1)
	assert.Equal(t, []string{"hira@example.com"}, messages[0].Recipients)
	assert.Contains(t, messages[0].Subject, "Password Reset")

	// Unknown addresses are silently ignored.
	svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	assert.Len(t, sink.messages(), 1)
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	svc, users, _ := newAuthFixture(t)

	cfg := config.AdminConfig{
		Username: "CredentialingAdmin",
		Email:    "credentialing@docsmedicalbilling.com",
		Password: "Admin@123",
	}
	require.NoError(t, svc.SeedAdmin(context.Background(), cfg))
	require.NoError(t, svc.SeedAdmin(context.Background(), cfg))
	assert.Equal(t, 1, users.count())

	admin, err := users.GetByEmail(context.Background(), cfg.Email)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
}
