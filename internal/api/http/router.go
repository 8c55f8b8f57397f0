package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/observability"
)

const msgTicketsAdminOnly = "Only admins can access assigned tickets"

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
	AuthLimiter    fiber.Handler
	Metrics        http.Handler
}

// NewApp builds the fiber application with the API error handler installed.
func NewApp(name string, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		ErrorHandler:          NewErrorHandler(logger, metrics),
		DisableStartupMessage: true,
	})
}

// RegisterRoutes wires HTTP routes. Trailing slashes are optional.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	authenticated := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated()}

	throttled := func(h fiber.Handler) []fiber.Handler {
		if cfg.AuthLimiter == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{cfg.AuthLimiter, h}
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", throttled(cfg.Auth.Register)...)
	authGroup.Post("/login", throttled(cfg.Auth.Login)...)
	authGroup.Post("/token/refresh", throttled(cfg.Auth.Refresh)...)
	authGroup.Post("/logout", append(authenticated, cfg.Auth.Logout)...)

	users := app.Group("/users", authenticated...)
	users.Get("/", cfg.Users.List)
	users.Get("/me", cfg.Users.Me)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.Replace)
	users.Patch("/:id", cfg.Users.Patch)

	tickets := app.Group("/tickets", authenticated...)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/my_tickets", cfg.Tickets.MyTickets)
	tickets.Get("/assigned_to_me", auth.RequireAdmin(msgTicketsAdminOnly), cfg.Tickets.AssignedToMe)
	tickets.Get("/stats", cfg.Tickets.Stats)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.ReplaceTicket)
	tickets.Patch("/:id", cfg.Tickets.PatchTicket)
	tickets.Post("/:id/add_comment", cfg.Tickets.AddComment)
	tickets.Patch("/:id/update_status", cfg.Tickets.UpdateStatus)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments/:comment_id", cfg.Tickets.GetComment)
}
