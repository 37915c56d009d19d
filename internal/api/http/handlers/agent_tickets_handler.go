package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fitdesk/support-service/internal/api/dto"
	"github.com/fitdesk/support-service/internal/auth"
	"github.com/fitdesk/support-service/internal/service"
	apperrors "github.com/fitdesk/support-service/pkg/util/errorutil"
)

// AgentTicketsHandler exposes the agent-only lifecycle operations.
type AgentTicketsHandler struct {
	tickets *TicketsHandler
	service *service.TicketService
}

// NewAgentTicketsHandler constructs handler.
func NewAgentTicketsHandler(tickets *TicketsHandler, ticketService *service.TicketService) *AgentTicketsHandler {
	return &AgentTicketsHandler{tickets: tickets, service: ticketService}
}

// StartProgress POST /tickets/:id/start-progress.
func (h *AgentTicketsHandler) StartProgress(c *fiber.Ctx) error {
	return h.tickets.transition(c, h.service.StartProgress)
}

// WaitOnCustomer POST /tickets/:id/wait-on-customer.
func (h *AgentTicketsHandler) WaitOnCustomer(c *fiber.Ctx) error {
	return h.tickets.transition(c, h.service.WaitOnCustomer)
}

// WaitOnThirdParty POST /tickets/:id/wait-on-third-party.
func (h *AgentTicketsHandler) WaitOnThirdParty(c *fiber.Ctx) error {
	return h.tickets.transition(c, h.service.WaitOnThirdParty)
}

// Escalate POST /tickets/:id/escalate.
func (h *AgentTicketsHandler) Escalate(c *fiber.Ctx) error {
	return h.tickets.transition(c, h.service.Escalate)
}

// Resolve POST /tickets/:id/resolve.
func (h *AgentTicketsHandler) Resolve(c *fiber.Ctx) error {
	return h.tickets.transition(c, h.service.Resolve)
}

// Assign POST /tickets/:id/assign.
func (h *AgentTicketsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssigneeID == "" {
		return apperrors.NewValidationError("assignee_id required", nil)
	}
	ticket, err := h.service.Assign(c.UserContext(), principal.TenantID, c.Params("id"), actionInput(principal, nil), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.tickets.summary(ticket)})
}

// Unassign POST /tickets/:id/unassign.
func (h *AgentTicketsHandler) Unassign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.Unassign(c.UserContext(), principal.TenantID, c.Params("id"), actionInput(principal, nil))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.tickets.summary(ticket)})
}

// ChangePriority POST /tickets/:id/priority.
func (h *AgentTicketsHandler) ChangePriority(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Priority == "" {
		return apperrors.NewValidationError("priority required", nil)
	}
	ticket, err := h.service.ChangePriority(c.UserContext(), principal.TenantID, c.Params("id"), actionInput(principal, nil), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.tickets.summary(ticket)})
}
