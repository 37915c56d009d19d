// Package ticket implements the ticket state machine. It is the sole
// mutator of ticket state: every status change is validated against the
// transition table, drives the SLA clock where required, and yields
// exactly one history entry bundled with the mutation.
package ticket

import (
	"time"

	"github.com/google/uuid"

	"github.com/fitdesk/support-service/internal/domain"
	"github.com/fitdesk/support-service/internal/sla"
)

// transitions is the authoritative adjacency table. Edges missing here
// are rejected.
var transitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen: {
		domain.TicketStatusInProgress,
		domain.TicketStatusWaitingOnCustomer,
		domain.TicketStatusEscalated,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	},
	domain.TicketStatusInProgress: {
		domain.TicketStatusWaitingOnCustomer,
		domain.TicketStatusWaitingOnThirdParty,
		domain.TicketStatusEscalated,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	},
	domain.TicketStatusWaitingOnCustomer: {
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	},
	domain.TicketStatusWaitingOnThirdParty: {
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	},
	domain.TicketStatusEscalated: {
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	},
	domain.TicketStatusResolved: {
		domain.TicketStatusClosed,
		domain.TicketStatusReopened,
	},
	domain.TicketStatusClosed: {
		domain.TicketStatusReopened,
	},
	domain.TicketStatusReopened: {
		domain.TicketStatusInProgress,
		domain.TicketStatusWaitingOnCustomer,
		domain.TicketStatusEscalated,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	},
}

// CanTransition reports whether the edge exists in the transition table.
func CanTransition(from, to domain.TicketStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// TransitionInput carries the actor and timing context of a transition.
type TransitionInput struct {
	ActorID   string
	ActorKind domain.ActorKind
	Reason    *string
	Now       time.Time
}

// Machine applies lifecycle operations to ticket aggregates.
type Machine struct {
	thresholds sla.Thresholds
}

// NewMachine builds a machine over the given SLA budget table.
func NewMachine(thresholds sla.Thresholds) *Machine {
	return &Machine{thresholds: thresholds}
}

// Initialize sets up a freshly created ticket: OPEN status and SLA
// deadlines computed from the creation time.
func (m *Machine) Initialize(t *domain.Ticket, createdAt time.Time) {
	t.Status = domain.TicketStatusOpen
	if t.Priority == "" {
		t.Priority = domain.TicketPriorityMedium
	}
	t.SlaResponseDeadline = m.thresholds.ResponseDeadline(t.Priority, createdAt)
	t.SlaResolutionDeadline = m.thresholds.ResolutionDeadline(t.Priority, createdAt)
}

// StartProgress moves the ticket to IN_PROGRESS, resuming the SLA clock
// when leaving a paused state.
func (m *Machine) StartProgress(t *domain.Ticket, in TransitionInput) (*domain.StatusHistoryEntry, error) {
	return m.apply(t, domain.TicketStatusInProgress, in, func() {
		sla.Resume(t, in.Now)
	})
}

// WaitOnCustomer moves the ticket to WAITING_ON_CUSTOMER and pauses the
// SLA clock.
func (m *Machine) WaitOnCustomer(t *domain.Ticket, in TransitionInput) (*domain.StatusHistoryEntry, error) {
	return m.apply(t, domain.TicketStatusWaitingOnCustomer, in, func() {
		sla.Pause(t, in.Now)
	})
}

// WaitOnThirdParty moves the ticket to WAITING_ON_THIRD_PARTY. The SLA
// clock keeps running: vendor wait time stays on our books, unlike
// customer waits.
func (m *Machine) WaitOnThirdParty(t *domain.Ticket, in TransitionInput) (*domain.StatusHistoryEntry, error) {
	return m.apply(t, domain.TicketStatusWaitingOnThirdParty, in, nil)
}

// Escalate moves the ticket to ESCALATED.
func (m *Machine) Escalate(t *domain.Ticket, in TransitionInput) (*domain.StatusHistoryEntry, error) {
	return m.apply(t, domain.TicketStatusEscalated, in, nil)
}

// Resolve moves the ticket to RESOLVED, resuming a paused clock first and
// stamping ResolvedAt.
func (m *Machine) Resolve(t *domain.Ticket, in TransitionInput) (*domain.StatusHistoryEntry, error) {
	return m.apply(t, domain.TicketStatusResolved, in, func() {
		sla.Resume(t, in.Now)
		resolvedAt := in.Now
		t.ResolvedAt = &resolvedAt
	})
}

// Close moves the ticket to CLOSED, resuming a paused clock first and
// stamping ClosedAt.
func (m *Machine) Close(t *domain.Ticket, in TransitionInput) (*domain.StatusHistoryEntry, error) {
	return m.apply(t, domain.TicketStatusClosed, in, func() {
		sla.Resume(t, in.Now)
		closedAt := in.Now
		t.ClosedAt = &closedAt
	})
}

// Reopen moves a resolved or closed ticket back to REOPENED and clears
// the terminal timestamps.
func (m *Machine) Reopen(t *domain.Ticket, in TransitionInput) (*domain.StatusHistoryEntry, error) {
	return m.apply(t, domain.TicketStatusReopened, in, func() {
		t.ResolvedAt = nil
		t.ClosedAt = nil
	})
}

// Rate records a satisfaction score. Only legal on resolved or closed
// tickets with a score in 1..5.
func (m *Machine) Rate(t *domain.Ticket, score int) error {
	if score < 1 || score > 5 || !t.IsTerminal() {
		return &InvalidRatingError{Status: t.Status, Score: score}
	}
	t.SatisfactionRating = &score
	return nil
}

// Assign sets the assignee. Legal in any status; no SLA or state machine
// effect.
func (m *Machine) Assign(t *domain.Ticket, userID string) {
	assignee := userID
	t.AssigneeID = &assignee
}

// Unassign clears the assignee.
func (m *Machine) Unassign(t *domain.Ticket) {
	t.AssigneeID = nil
}

// ChangePriority recomputes both deadlines from asOf using the new
// priority's budgets. Any deadline shift accumulated from earlier pauses
// is discarded; an in-flight pause is re-anchored at asOf so the new
// baseline is not shifted by pause time that predates it. The cumulative
// SlaPausedDuration is kept as bookkeeping.
func (m *Machine) ChangePriority(t *domain.Ticket, newPriority domain.TicketPriority, asOf time.Time) {
	t.Priority = newPriority
	t.SlaResponseDeadline = m.thresholds.ResponseDeadline(newPriority, asOf)
	t.SlaResolutionDeadline = m.thresholds.ResolutionDeadline(newPriority, asOf)
	if t.SlaPausedAt != nil {
		pausedAt := asOf
		t.SlaPausedAt = &pausedAt
	}
}

// IsSlaBreached reports whether the resolution deadline has passed while
// the ticket is still open.
func (m *Machine) IsSlaBreached(t *domain.Ticket, now time.Time) bool {
	return sla.Breached(t, now)
}

// apply validates the edge, runs the transition's side effects, sets the
// new status, and returns the audit entry. Validation happens before any
// mutation so a rejected transition leaves the ticket untouched.
func (m *Machine) apply(t *domain.Ticket, to domain.TicketStatus, in TransitionInput, effect func()) (*domain.StatusHistoryEntry, error) {
	from := t.Status
	if !CanTransition(from, to) {
		return nil, &InvalidTransitionError{From: from, To: to}
	}
	if effect != nil {
		effect()
	}
	t.Status = to
	return &domain.StatusHistoryEntry{
		ID:         uuid.NewString(),
		TicketID:   t.ID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    in.ActorID,
		ActorKind:  in.ActorKind,
		Reason:     in.Reason,
		CreatedAt:  in.Now,
	}, nil
}
