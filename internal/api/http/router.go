package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workticket-service/internal/api/http/handlers"
	"github.com/spec-kit/workticket-service/internal/auth"
	"github.com/spec-kit/workticket-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Dashboards     *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	decider := auth.RequireRole(domain.RoleManager, domain.RoleAdmin)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/decisions", cfg.Tickets.ListDecisions)
	tickets.Post("/:id/approve", decider, cfg.Tickets.ApproveTicket)
	tickets.Post("/:id/reject", decider, cfg.Tickets.RejectTicket)

	employees := app.Group("/employees", cfg.AuthMiddleware.Handle)
	employees.Get("/:id/rollup", cfg.Dashboards.EmployeeRollup)
	employees.Get("/:id/dashboard", cfg.Dashboards.EmployeeDashboard)

	managers := app.Group("/managers", cfg.AuthMiddleware.Handle, decider)
	managers.Get("/:id/dashboard", cfg.Dashboards.ManagerDashboard)
	managers.Get("/:id/team-stats", cfg.Dashboards.TeamStats)
	managers.Get("/:id/budget", cfg.Dashboards.Budget)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/metrics", cfg.Health.Metrics)
}
