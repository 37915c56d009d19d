package domain

import "time"

// StatusHistoryEntry is an immutable audit record written once per
// successful status transition.
type StatusHistoryEntry struct {
	ID         string
	TicketID   string
	FromStatus TicketStatus
	ToStatus   TicketStatus
	ActorID    string
	ActorKind  ActorKind
	Reason     *string
	CreatedAt  time.Time
}
