package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/http/handlers"
	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/ws"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Queue          *handlers.QueueHandler
	Staff          *handlers.StaffHandler
	Hub            *ws.Hub
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Ticket commands stay open so kiosks
// and counter terminals need no credentials; administration requires an
// admin token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("/api")
	api.Post("/tickets", cfg.Queue.RequestTicket)
	api.Post("/tickets/call", cfg.Queue.CallNext)
	api.Post("/tickets/repeat", cfg.Queue.RepeatAnnouncement)
	api.Patch("/tickets/:id/status", cfg.Queue.UpdateStatus)
	api.Get("/queue/snapshot", cfg.Queue.GetSnapshot)

	admin := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.StaffRoleAdmin))
	admin.Post("/queue/reset", cfg.Queue.ResetQueue)
	admin.Get("/staff", cfg.Staff.List)
	admin.Post("/staff", cfg.Staff.Create)
	admin.Delete("/staff/:id", cfg.Staff.Delete)

	app.Use("/ws", ws.UpgradeGate)
	app.Get("/ws", cfg.Hub.Handler())
}
