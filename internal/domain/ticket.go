package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen                TicketStatus = "OPEN"
	TicketStatusInProgress          TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingOnCustomer   TicketStatus = "WAITING_ON_CUSTOMER"
	TicketStatusWaitingOnThirdParty TicketStatus = "WAITING_ON_THIRD_PARTY"
	TicketStatusEscalated           TicketStatus = "ESCALATED"
	TicketStatusResolved            TicketStatus = "RESOLVED"
	TicketStatusClosed              TicketStatus = "CLOSED"
	TicketStatusReopened            TicketStatus = "REOPENED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// ActorKind differentiates the callers acting on a ticket.
type ActorKind string

const (
	ActorKindTenantAdmin ActorKind = "TENANT_ADMIN"
	ActorKindCustomer    ActorKind = "CUSTOMER"
	ActorKindAgent       ActorKind = "AGENT"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	Number      string
	TenantID    string
	CreatorID   string
	CreatorKind ActorKind
	AssigneeID  *string
	Subject     string
	Description string
	Category    string
	Status      TicketStatus
	Priority    TicketPriority

	SlaResponseDeadline   time.Time
	SlaResolutionDeadline time.Time
	SlaPausedAt           *time.Time
	SlaPausedDuration     time.Duration

	SatisfactionRating *int
	MessageCount       int
	LastMessageAt      *time.Time

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
	ClosedAt   *time.Time
}

// IsTerminal reports whether the ticket sits in a resting state. Both
// terminal states remain reopenable.
func (t *Ticket) IsTerminal() bool {
	return t.Status == TicketStatusResolved || t.Status == TicketStatusClosed
}
