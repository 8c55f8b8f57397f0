package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const (
	nameMinLength = 2

	msgEmailTaken          = "A user with this email already exists."
	msgNameTooShort        = "Name must be at least 2 characters long."
	msgPasswordsDiffer     = "Passwords do not match."
	msgInvalidCredentials  = "Invalid email or password."
	msgAccountInactive     = "Account is inactive."
	msgRefreshRequired     = "Refresh token is required"
	msgInvalidRefreshToken = "Invalid token"
	msgTokenExpired        = "Token is invalid or expired"
	nonFieldErrors         = "non_field_errors"
)

// RegisterInput is the registration form after decoding.
type RegisterInput struct {
	Email           string
	Name            string
	Password        string
	PasswordConfirm string
}

// AuthResult is a user with a freshly issued token pair.
type AuthResult struct {
	User   *domain.User
	Tokens auth.TokenPair
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	blacklist  repository.TokenBlacklist
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo  repository.UserRepository
	Blacklist repository.TokenBlacklist
	Tokens    *auth.TokenManager
	Logger    *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		blacklist:  deps.Blacklist,
		tokenMgr:   tokens,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// RegisterUser creates a new account and signs it in.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	errs := domain.ValidationErrors{}
	email := domain.NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)

	if utf8.RuneCountInString(name) < nameMinLength {
		errs.Add("name", msgNameTooShort)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		errs.Add("email", msgEmailTaken)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	for _, problem := range auth.ValidatePassword(input.Password, email, name) {
		errs.Add("password", problem)
	}
	if input.Password != input.PasswordConfirm {
		errs.Add("password_confirm", msgPasswordsDiffer)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, email, name, input.Password, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return s.signIn(user)
}

// LoginUser authenticates an account by email and password.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, loginFailed(msgInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, loginFailed(msgInvalidCredentials)
	}
	if !user.IsActive {
		return nil, loginFailed(msgAccountInactive)
	}
	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return s.signIn(user)
}

// Logout revokes actor's refresh token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, actor *domain.User, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return apperrors.NewBadRequest(msgRefreshRequired)
	}
	claims, err := s.tokenMgr.Parse(refreshToken, auth.TokenTypeRefresh)
	if err != nil || claims.UserID != actor.ID {
		return apperrors.NewBadRequest(msgInvalidRefreshToken)
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.Remaining(s.tokenMgr.Now())); err != nil {
		s.logger.Warn("refresh token revocation failed", zap.Int64("user_id", actor.ID), zap.Error(err))
		return apperrors.NewBadRequest(msgInvalidRefreshToken)
	}
	s.logger.Info("user logged out", zap.Int64("user_id", actor.ID))
	return nil
}

// RefreshAccess trades a live refresh token for a new access token.
func (s *AuthService) RefreshAccess(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", apperrors.NewFieldError("refresh", msgFieldRequired)
	}
	claims, err := s.tokenMgr.Parse(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return "", apperrors.NewUnauthorized(msgTokenExpired)
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", apperrors.NewUnauthorized(msgTokenExpired)
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return "", apperrors.NewUnauthorized(msgTokenExpired)
	}
	return s.tokenMgr.Issue(user.ID, auth.TokenTypeAccess)
}

// CreateAdmin bootstraps a staff account, optionally a superuser.
func (s *AuthService) CreateAdmin(ctx context.Context, email, name, password string, superuser bool) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if problems := auth.ValidatePassword(password, email, name); len(problems) > 0 {
		return nil, apperrors.NewValidationError("invalid password", apperrors.FieldErrors{"password": problems})
	}
	user, err := s.createUser(ctx, email, strings.TrimSpace(name), password, true)
	if err != nil {
		return nil, err
	}
	if superuser {
		user.IsSuperuser = true
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	s.logger.Info("administrator created", zap.Int64("user_id", user.ID), zap.Bool("superuser", superuser))
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) createUser(ctx context.Context, email, name, password string, staff bool) (*domain.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsStaff:      staff,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewFieldError("email", msgEmailTaken)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) signIn(user *domain.User) (*AuthResult, error) {
	tokens, err := s.tokenMgr.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

func loginFailed(message string) error {
	return apperrors.NewAuthenticationFailed(apperrors.FieldErrors{nonFieldErrors: {message}})
}
