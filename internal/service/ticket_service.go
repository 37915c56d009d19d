package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fitdesk/support-service/internal/domain"
	"github.com/fitdesk/support-service/internal/events"
	"github.com/fitdesk/support-service/internal/repository"
	"github.com/fitdesk/support-service/internal/sequence"
	"github.com/fitdesk/support-service/internal/sla"
	"github.com/fitdesk/support-service/internal/ticket"
	apperrors "github.com/fitdesk/support-service/pkg/util/errorutil"
)

// CounterStoreFactory binds a counter store to the querier of the
// enclosing transaction.
type CounterStoreFactory func(q repository.Querier) sequence.CounterStore

// TicketService coordinates ticket workflows. Each mutating operation
// runs in one transaction: row lock, state machine step, audit write.
type TicketService struct {
	tx         repository.TxRunner
	db         repository.Querier
	tickets    repository.TicketRepository
	history    repository.StatusHistoryRepository
	counters   CounterStoreFactory
	machine    *ticket.Machine
	dispatcher events.Dispatcher
	clock      func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Tx          repository.TxRunner
	DB          repository.Querier
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.StatusHistoryRepository
	Counters    CounterStoreFactory
	Machine     *ticket.Machine
	Dispatcher  events.Dispatcher
	Clock       func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tx:         deps.Tx,
		db:         deps.DB,
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		counters:   deps.Counters,
		machine:    deps.Machine,
		dispatcher: deps.Dispatcher,
		clock:      clock,
	}
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	TenantID    string
	CreatorID   string
	CreatorKind domain.ActorKind
	Subject     string
	Description string
	Category    string
	Priority    domain.TicketPriority
}

// ActionInput carries the actor context of a ticket operation.
type ActionInput struct {
	ActorID   string
	ActorKind domain.ActorKind
	Reason    *string
}

// CreateTicket allocates a number, computes initial SLA deadlines, and
// persists the ticket in OPEN. Number allocation and the insert share one
// transaction; no ticket without a number, no number without a ticket.
func (s *TicketService) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	if input.TenantID == "" || input.CreatorID == "" {
		return nil, apperrors.NewValidationError("tenant and creator required", nil)
	}
	if strings.TrimSpace(input.Subject) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("subject and description required", nil)
	}

	now := s.clock()
	t := &domain.Ticket{
		ID:          uuid.NewString(),
		TenantID:    input.TenantID,
		CreatorID:   input.CreatorID,
		CreatorKind: input.CreatorKind,
		Subject:     strings.TrimSpace(input.Subject),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Priority:    input.Priority,
	}
	s.machine.Initialize(t, now)

	err := s.tx.WithinTx(ctx, func(q repository.Querier) error {
		allocator := sequence.New(s.counters(q))
		_, number, err := allocator.Next(ctx, t.TenantID, now.Year())
		if err != nil {
			return err
		}
		t.Number = number
		return s.tickets.Create(ctx, q, t)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TenantID: t.TenantID,
		TicketID: t.ID,
		Actor:    events.Actor{ID: input.CreatorID, Kind: input.CreatorKind},
		Payload: events.TicketCreatedPayload{
			Number:   t.Number,
			Subject:  t.Subject,
			Category: t.Category,
			Priority: t.Priority,
		},
	})
	return t, nil
}

// StartProgress moves the ticket to IN_PROGRESS.
func (s *TicketService) StartProgress(ctx context.Context, tenantID, ticketID string, in ActionInput) (*domain.Ticket, error) {
	return s.transition(ctx, tenantID, ticketID, in, s.machine.StartProgress)
}

// WaitOnCustomer moves the ticket to WAITING_ON_CUSTOMER.
func (s *TicketService) WaitOnCustomer(ctx context.Context, tenantID, ticketID string, in ActionInput) (*domain.Ticket, error) {
	return s.transition(ctx, tenantID, ticketID, in, s.machine.WaitOnCustomer)
}

// WaitOnThirdParty moves the ticket to WAITING_ON_THIRD_PARTY.
func (s *TicketService) WaitOnThirdParty(ctx context.Context, tenantID, ticketID string, in ActionInput) (*domain.Ticket, error) {
	return s.transition(ctx, tenantID, ticketID, in, s.machine.WaitOnThirdParty)
}

// Escalate moves the ticket to ESCALATED.
func (s *TicketService) Escalate(ctx context.Context, tenantID, ticketID string, in ActionInput) (*domain.Ticket, error) {
	return s.transition(ctx, tenantID, ticketID, in, s.machine.Escalate)
}

// Resolve moves the ticket to RESOLVED.
func (s *TicketService) Resolve(ctx context.Context, tenantID, ticketID string, in ActionInput) (*domain.Ticket, error) {
	return s.transition(ctx, tenantID, ticketID, in, s.machine.Resolve)
}

// Close moves the ticket to CLOSED.
func (s *TicketService) Close(ctx context.Context, tenantID, ticketID string, in ActionInput) (*domain.Ticket, error) {
	return s.transition(ctx, tenantID, ticketID, in, s.machine.Close)
}

// Reopen moves a resolved or closed ticket to REOPENED.
func (s *TicketService) Reopen(ctx context.Context, tenantID, ticketID string, in ActionInput) (*domain.Ticket, error) {
	return s.transition(ctx, tenantID, ticketID, in, s.machine.Reopen)
}

func (s *TicketService) transition(ctx context.Context, tenantID, ticketID string, in ActionInput,
	op func(*domain.Ticket, ticket.TransitionInput) (*domain.StatusHistoryEntry, error)) (*domain.Ticket, error) {

	var t *domain.Ticket
	var entry *domain.StatusHistoryEntry
	err := s.tx.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		t, err = s.lockTicket(ctx, q, tenantID, ticketID)
		if err != nil {
			return err
		}
		entry, err = op(t, ticket.TransitionInput{
			ActorID:   in.ActorID,
			ActorKind: in.ActorKind,
			Reason:    in.Reason,
			Now:       s.clock(),
		})
		if err != nil {
			return err
		}
		if err := s.tickets.Update(ctx, q, t); err != nil {
			return err
		}
		return s.history.Create(ctx, q, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TenantID: t.TenantID,
		TicketID: t.ID,
		Actor:    events.Actor{ID: in.ActorID, Kind: in.ActorKind},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: entry.FromStatus,
			NewStatus: entry.ToStatus,
			Reason:    in.Reason,
		},
	})
	return t, nil
}

// Rate records a satisfaction score on a resolved or closed ticket.
func (s *TicketService) Rate(ctx context.Context, tenantID, ticketID string, in ActionInput, score int) (*domain.Ticket, error) {
	var t *domain.Ticket
	err := s.tx.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		t, err = s.lockTicket(ctx, q, tenantID, ticketID)
		if err != nil {
			return err
		}
		if err := s.machine.Rate(t, score); err != nil {
			return err
		}
		return s.tickets.Update(ctx, q, t)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketRated,
		TenantID: t.TenantID,
		TicketID: t.ID,
		Actor:    events.Actor{ID: in.ActorID, Kind: in.ActorKind},
		Payload:  events.TicketRatedPayload{Score: score},
	})
	return t, nil
}

// Assign sets the assignee; legal in any status.
func (s *TicketService) Assign(ctx context.Context, tenantID, ticketID string, in ActionInput, assigneeID string) (*domain.Ticket, error) {
	if assigneeID == "" {
		return nil, apperrors.NewValidationError("assignee required", nil)
	}
	return s.updateAssignee(ctx, tenantID, ticketID, in, func(t *domain.Ticket) {
		s.machine.Assign(t, assigneeID)
	})
}

// Unassign clears the assignee.
func (s *TicketService) Unassign(ctx context.Context, tenantID, ticketID string, in ActionInput) (*domain.Ticket, error) {
	return s.updateAssignee(ctx, tenantID, ticketID, in, func(t *domain.Ticket) {
		s.machine.Unassign(t)
	})
}

func (s *TicketService) updateAssignee(ctx context.Context, tenantID, ticketID string, in ActionInput, mutate func(*domain.Ticket)) (*domain.Ticket, error) {
	var t *domain.Ticket
	err := s.tx.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		t, err = s.lockTicket(ctx, q, tenantID, ticketID)
		if err != nil {
			return err
		}
		mutate(t)
		return s.tickets.Update(ctx, q, t)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TenantID: t.TenantID,
		TicketID: t.ID,
		Actor:    events.Actor{ID: in.ActorID, Kind: in.ActorKind},
		Payload:  events.TicketAssignedPayload{AssigneeID: t.AssigneeID},
	})
	return t, nil
}

// ChangePriority recomputes both SLA deadlines from now with the new
// priority's budgets. Accumulated pause shifts are discarded.
func (s *TicketService) ChangePriority(ctx context.Context, tenantID, ticketID string, in ActionInput, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	var t *domain.Ticket
	var oldPriority domain.TicketPriority
	err := s.tx.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		t, err = s.lockTicket(ctx, q, tenantID, ticketID)
		if err != nil {
			return err
		}
		oldPriority = t.Priority
		s.machine.ChangePriority(t, newPriority, s.clock())
		return s.tickets.Update(ctx, q, t)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TenantID: t.TenantID,
		TicketID: t.ID,
		Actor:    events.Actor{ID: in.ActorID, Kind: in.ActorKind},
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return t, nil
}

// RecordMessage bumps the message counters. Called by the messaging
// module, which owns the thread itself.
func (s *TicketService) RecordMessage(ctx context.Context, tenantID, ticketID string, at time.Time) (*domain.Ticket, error) {
	var t *domain.Ticket
	err := s.tx.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		t, err = s.lockTicket(ctx, q, tenantID, ticketID)
		if err != nil {
			return err
		}
		t.MessageCount++
		messageAt := at
		t.LastMessageAt = &messageAt
		return s.tickets.Update(ctx, q, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTicket fetches a ticket with its ordered status history.
func (s *TicketService) GetTicket(ctx context.Context, tenantID, ticketID string) (*domain.Ticket, []domain.StatusHistoryEntry, error) {
	t, err := s.tickets.GetByID(ctx, s.db, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if t.TenantID != tenantID {
		return nil, nil, apperrors.NewNotFound("ticket", nil)
	}
	history, err := s.history.ListByTicket(ctx, s.db, t.ID)
	if err != nil {
		return nil, nil, err
	}
	return t, history, nil
}

// GetTicketForCreator fetches a ticket ensuring the caller created it.
func (s *TicketService) GetTicketForCreator(ctx context.Context, tenantID, creatorID, ticketID string) (*domain.Ticket, []domain.StatusHistoryEntry, error) {
	t, history, err := s.GetTicket(ctx, tenantID, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if t.CreatorID != creatorID {
		return nil, nil, apperrors.NewNotFound("ticket", nil)
	}
	return t, history, nil
}

// ListTickets returns tickets matching the filter.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if filter.TenantID == "" {
		return nil, apperrors.NewValidationError("tenant required", nil)
	}
	return s.tickets.ListWithFilter(ctx, s.db, filter)
}

// IsSlaBreached derives the breach flag for a ticket at the current time.
func (s *TicketService) IsSlaBreached(t *domain.Ticket) bool {
	return sla.Breached(t, s.clock())
}

func (s *TicketService) lockTicket(ctx context.Context, q repository.Querier, tenantID, ticketID string) (*domain.Ticket, error) {
	t, err := s.tickets.GetForUpdate(ctx, q, ticketID)
	if err != nil {
		return nil, err
	}
	if t.TenantID != tenantID {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return t, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
