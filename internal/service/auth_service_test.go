package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

func newAuthService(t *testing.T) (*AuthService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	cfg := config.AuthConfig{
		JWTSecret:              "test-secret",
		AccessTokenTTLMinutes:  5,
		RefreshTokenTTLMinutes: 60,
		BcryptCost:             bcrypt.MinCost,
	}
	return NewAuthService(cfg, AuthDependencies{UserRepo: store.Users(), Blacklist: store.Blacklist()}), store
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:           "  Jane.Doe@Example.com ",
		Name:            "Jane Doe",
		Password:        "tangerine-Orbit-42",
		PasswordConfirm: "tangerine-Orbit-42",
	}
}

func TestRegisterUser(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	result, err := svc.RegisterUser(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", result.User.Email)
	assert.True(t, result.User.IsActive)
	assert.False(t, result.User.IsAdmin())
	assert.NotEmpty(t, result.Tokens.Access)
	assert.NotEmpty(t, result.Tokens.Refresh)

	_, err = svc.RegisterUser(ctx, validRegistration())
	assert.Equal(t, []string{"A user with this email already exists."}, requireFieldError(t, err, "email"))
}

func TestRegisterUserCollectsFieldErrors(t *testing.T) {
	svc, _ := newAuthService(t)
	input := RegisterInput{Email: "x@example.com", Name: " J ", Password: "12345678", PasswordConfirm: "87654321"}

	_, err := svc.RegisterUser(context.Background(), input)
	requireStatus(t, err, http.StatusBadRequest)
	fields := apperrors.ToDomainError(err).Fields
	assert.Equal(t, []string{"Name must be at least 2 characters long."}, fields["name"])
	assert.Equal(t, []string{"Passwords do not match."}, fields["password_confirm"])
	assert.Contains(t, fields["password"], "This password is entirely numeric.")
	assert.Contains(t, fields["password"], "This password is too common.")
}

func TestLoginUser(t *testing.T) {
	svc, store := newAuthService(t)
	ctx := context.Background()
	registered, err := svc.RegisterUser(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.LoginUser(ctx, "jane.doe@example.com", "wrong-password")
	requireStatus(t, err, http.StatusUnauthorized)
	assert.Equal(t, []string{"Invalid email or password."}, apperrors.ToDomainError(err).Fields["non_field_errors"])

	_, err = svc.LoginUser(ctx, "nobody@example.com", "tangerine-Orbit-42")
	requireStatus(t, err, http.StatusUnauthorized)

	result, err := svc.LoginUser(ctx, "JANE.DOE@example.com", "tangerine-Orbit-42")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)

	user := *registered.User
	user.IsActive = false
	require.NoError(t, store.Users().Update(ctx, &user))
	_, err = svc.LoginUser(ctx, "jane.doe@example.com", "tangerine-Orbit-42")
	assert.Equal(t, []string{"Account is inactive."}, apperrors.ToDomainError(err).Fields["non_field_errors"])
}

func TestLogoutBlacklistsRefreshToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	result, err := svc.RegisterUser(ctx, validRegistration())
	require.NoError(t, err)

	access, err := svc.RefreshAccess(ctx, result.Tokens.Refresh)
	require.NoError(t, err)
	claims, err := svc.TokenManager().Parse(access, auth.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)

	err = svc.Logout(ctx, result.User, "")
	requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "Refresh token is required", apperrors.ToDomainError(err).Message)

	err = svc.Logout(ctx, result.User, result.Tokens.Access)
	assert.Equal(t, "Invalid token", apperrors.ToDomainError(err).Message)

	require.NoError(t, svc.Logout(ctx, result.User, result.Tokens.Refresh))

	_, err = svc.RefreshAccess(ctx, result.Tokens.Refresh)
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestCreateAdmin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, "Root@Example.com", "Root", "correct-Horse-battery", true)
	require.NoError(t, err)
	assert.True(t, admin.IsStaff)
	assert.True(t, admin.IsSuperuser)

	_, err = svc.CreateAdmin(ctx, "root@example.com", "Root", "correct-Horse-battery", false)
	requireFieldError(t, err, "email")

	_, err = svc.CreateAdmin(ctx, "ops@example.com", "Ops", "short", false)
	requireFieldError(t, err, "password")
}

func TestClaimsRemainingMatchesRefreshTTL(t *testing.T) {
	svc, _ := newAuthService(t)
	pair, err := svc.TokenManager().IssuePair(1)
	require.NoError(t, err)
	claims, err := svc.TokenManager().Parse(pair.Refresh, auth.TokenTypeRefresh)
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), claims.Remaining(time.Now()).Seconds(), 5)
}
