package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	Name            string `json:"name" validate:"required,max=255"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LogoutRequest carries the refresh token to revoke.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshRequest carries a refresh token to trade for an access token.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse is the new access token.
type RefreshResponse struct {
	Access string `json:"access"`
}

// UpdateUserRequest changes the display name. A nil name was not submitted.
type UpdateUserRequest struct {
	Name *string `json:"name"`
}

// UserBasic is the nested user shape inside tickets and comments.
type UserBasic struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserResponse is the account shape of the auth and user endpoints.
type UserResponse struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	DateJoined time.Time `json:"date_joined"`
	IsActive   bool      `json:"is_active"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	User    UserResponse   `json:"user"`
	Tokens  auth.TokenPair `json:"tokens"`
	Message string         `json:"message"`
}

// MessageResponse is a bare confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewUserBasic maps a user, keeping nil as nil.
func NewUserBasic(user *domain.User) *UserBasic {
	if user == nil {
		return nil
	}
	return &UserBasic{ID: user.ID, Email: user.Email, Name: user.Name}
}

// NewUserResponse maps a user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		DateJoined: user.DateJoined,
		IsActive:   user.IsActive,
	}
}
