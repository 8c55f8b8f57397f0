package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and token endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register/.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.auth.RegisterUser(c.UserContext(), service.RegisterInput{
		Email:           req.Email,
		Name:            req.Name,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(authResponse(result, "User registered successfully"))
}

// Login handles POST /auth/login/.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		// login reports every credential problem as 401
		invalid := apperrors.ToDomainError(err)
		return apperrors.NewDomainError("UNAUTHORIZED", invalid.Message, http.StatusUnauthorized, invalid.Fields)
	}

	result, err := h.auth.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(authResponse(result, "Login successful"))
}

// Logout handles POST /auth/logout/.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.LogoutRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), actor, req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Logout successful"})
}

// Refresh handles POST /auth/token/refresh/.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	access, err := h.auth.RefreshAccess(c.UserContext(), req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(dto.RefreshResponse{Access: access})
}

func authResponse(result *service.AuthResult, message string) dto.AuthResponse {
	return dto.AuthResponse{
		User:    dto.NewUserResponse(result.User),
		Tokens:  result.Tokens,
		Message: message,
	}
}
