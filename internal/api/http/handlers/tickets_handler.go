package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fitdesk/support-service/internal/api/dto"
	"github.com/fitdesk/support-service/internal/auth"
	"github.com/fitdesk/support-service/internal/domain"
	"github.com/fitdesk/support-service/internal/repository"
	"github.com/fitdesk/support-service/internal/service"
	apperrors "github.com/fitdesk/support-service/pkg/util/errorutil"
)

// TicketsHandler manages the ticket endpoints shared by customers and
// agents. Customers only see tickets they created.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("subject and description required", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), service.CreateTicketInput{
		TenantID:    principal.TenantID,
		CreatorID:   principal.ActorID,
		CreatorKind: principal.ActorKind,
		Subject:     req.Subject,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": h.summary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseTicketQuery(c, principal.TenantID)
	if principal.ActorKind == domain.ActorKindCustomer {
		creatorID := principal.ActorID
		filter.CreatorID = &creatorID
	}
	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, h.summary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var (
		ticket  *domain.Ticket
		history []domain.StatusHistoryEntry
		err     error
	)
	if principal.ActorKind == domain.ActorKindCustomer {
		ticket, history, err = h.service.GetTicketForCreator(c.UserContext(), principal.TenantID, principal.ActorID, c.Params("id"))
	} else {
		ticket, history, err = h.service.GetTicket(c.UserContext(), principal.TenantID, c.Params("id"))
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.detail(ticket, history)})
}

// RateTicket POST /tickets/:id/rate.
func (h *TicketsHandler) RateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Rate(c.UserContext(), principal.TenantID, c.Params("id"), actionInput(principal, nil), req.Score)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.summary(ticket)})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	return h.transition(c, h.service.Close)
}

// ReopenTicket POST /tickets/:id/reopen.
func (h *TicketsHandler) ReopenTicket(c *fiber.Ctx) error {
	return h.transition(c, h.service.Reopen)
}

func (h *TicketsHandler) transition(c *fiber.Ctx, op func(ctx context.Context, tenantID, ticketID string, in service.ActionInput) (*domain.Ticket, error)) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TransitionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := op(c.UserContext(), principal.TenantID, c.Params("id"), actionInput(principal, req.Reason))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.summary(ticket)})
}

func actionInput(principal *auth.Principal, reason *string) service.ActionInput {
	return service.ActionInput{
		ActorID:   principal.ActorID,
		ActorKind: principal.ActorKind,
		Reason:    reason,
	}
}

func parseTicketQuery(c *fiber.Ctx, tenantID string) repository.TicketFilter {
	filter := repository.TicketFilter{TenantID: tenantID}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if assignee := c.Query("assignee"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func (h *TicketsHandler) summary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:                    ticket.ID,
		Number:                ticket.Number,
		Subject:               ticket.Subject,
		Category:              ticket.Category,
		Status:                ticket.Status,
		Priority:              ticket.Priority,
		AssigneeID:            ticket.AssigneeID,
		SlaResponseDeadline:   ticket.SlaResponseDeadline,
		SlaResolutionDeadline: ticket.SlaResolutionDeadline,
		SlaBreached:           h.service.IsSlaBreached(ticket),
		CreatedAt:             ticket.CreatedAt,
		UpdatedAt:             ticket.UpdatedAt,
	}
}

func (h *TicketsHandler) detail(ticket *domain.Ticket, history []domain.StatusHistoryEntry) dto.TicketDetailResponse {
	entries := make([]dto.StatusHistoryResponse, 0, len(history))
	for _, entry := range history {
		entries = append(entries, dto.StatusHistoryResponse{
			ID:         entry.ID,
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			ActorID:    entry.ActorID,
			ActorKind:  entry.ActorKind,
			Reason:     entry.Reason,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return dto.TicketDetailResponse{
		TicketSummary:      h.summary(ticket),
		Description:        ticket.Description,
		CreatorID:          ticket.CreatorID,
		CreatorKind:        ticket.CreatorKind,
		SlaPausedAt:        ticket.SlaPausedAt,
		SlaPausedSeconds:   ticket.SlaPausedDuration.Seconds(),
		SatisfactionRating: ticket.SatisfactionRating,
		MessageCount:       ticket.MessageCount,
		LastMessageAt:      ticket.LastMessageAt,
		ResolvedAt:         ticket.ResolvedAt,
		ClosedAt:           ticket.ClosedAt,
		History:            entries,
	}
}
