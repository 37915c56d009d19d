package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fitdesk/support-service/internal/api/dto"
	"github.com/fitdesk/support-service/internal/service"
	apperrors "github.com/fitdesk/support-service/pkg/util/errorutil"
)

// InternalHandler serves the endpoints platform modules call with
// service credentials.
type InternalHandler struct {
	service *service.TicketService
}

// NewInternalHandler constructs handler.
func NewInternalHandler(ticketService *service.TicketService) *InternalHandler {
	return &InternalHandler{service: ticketService}
}

// RecordMessage POST /internal/tickets/:id/messages. The messaging
// module reports a new thread message; the core only tracks the count
// and the last-message time.
func (h *InternalHandler) RecordMessage(c *fiber.Ctx) error {
	var req dto.RecordMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TenantID == "" {
		return apperrors.NewValidationError("tenant_id required", nil)
	}
	at := time.Now()
	if req.At != nil {
		at = *req.At
	}
	_, err := h.service.RecordMessage(c.UserContext(), req.TenantID, c.Params("id"), at)
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
