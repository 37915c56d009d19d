package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fitdesk/support-service/internal/api/http/handlers"
	"github.com/fitdesk/support-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	AgentTickets   *handlers.AgentTicketsHandler
	Internal       *handlers.InternalHandler
	AuthMiddleware *auth.Middleware
	APIKeys        *auth.APIKeyVerifier
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/rate", cfg.Tickets.RateTicket)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)
	tickets.Post("/:id/reopen", cfg.Tickets.ReopenTicket)

	agent := auth.RequireAgent()
	tickets.Post("/:id/start-progress", agent, cfg.AgentTickets.StartProgress)
	tickets.Post("/:id/wait-on-customer", agent, cfg.AgentTickets.WaitOnCustomer)
	tickets.Post("/:id/wait-on-third-party", agent, cfg.AgentTickets.WaitOnThirdParty)
	tickets.Post("/:id/escalate", agent, cfg.AgentTickets.Escalate)
	tickets.Post("/:id/resolve", agent, cfg.AgentTickets.Resolve)
	tickets.Post("/:id/assign", agent, cfg.AgentTickets.Assign)
	tickets.Post("/:id/unassign", agent, cfg.AgentTickets.Unassign)
	tickets.Post("/:id/priority", agent, cfg.AgentTickets.ChangePriority)

	internal := app.Group("/internal", cfg.APIKeys.Handle)
	internal.Post("/tickets/:id/messages", cfg.Internal.RecordMessage)
}
