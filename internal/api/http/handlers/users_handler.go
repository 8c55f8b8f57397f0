package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/service"
)

const resourceUser = "User"

// UsersHandler exposes the caller's own account.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /users/. Callers only ever see themselves.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(dto.Paginated[dto.UserResponse]{Count: len(out), Results: out})
}

// Me handles GET /users/me/.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), actor, actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Get handles GET /users/:id/.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", resourceUser)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Replace handles PUT /users/:id/.
func (h *UsersHandler) Replace(c *fiber.Ctx) error {
	return h.update(c, true)
}

// Patch handles PATCH /users/:id/.
func (h *UsersHandler) Patch(c *fiber.Ctx) error {
	return h.update(c, false)
}

func (h *UsersHandler) update(c *fiber.Ctx, full bool) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", resourceUser)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateName(c.UserContext(), actor, id, req.Name, full)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}
