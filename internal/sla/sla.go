// Package sla implements the SLA timer engine: deadline calculation from
// per-priority budgets, and pausing/resuming the clock while a ticket
// waits on the customer.
package sla

import (
	"time"

	"github.com/fitdesk/support-service/internal/domain"
)

// Threshold holds the response and resolution budgets for one priority.
type Threshold struct {
	Response   time.Duration
	Resolution time.Duration
}

// Thresholds maps priorities to their SLA budgets.
type Thresholds map[domain.TicketPriority]Threshold

// DefaultThresholds returns the stock budget table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		domain.TicketPriorityCritical: {Response: 4 * time.Hour, Resolution: 8 * time.Hour},
		domain.TicketPriorityHigh:     {Response: 8 * time.Hour, Resolution: 24 * time.Hour},
		domain.TicketPriorityMedium:   {Response: 24 * time.Hour, Resolution: 72 * time.Hour},
		domain.TicketPriorityLow:      {Response: 48 * time.Hour, Resolution: 168 * time.Hour},
	}
}

// For returns the budgets for a priority. Unknown priorities fall back to
// MEDIUM instead of erroring.
func (t Thresholds) For(priority domain.TicketPriority) Threshold {
	if th, ok := t[priority]; ok {
		return th
	}
	return t[domain.TicketPriorityMedium]
}

// ResponseDeadline computes the first-response deadline.
func (t Thresholds) ResponseDeadline(priority domain.TicketPriority, createdAt time.Time) time.Time {
	return createdAt.Add(t.For(priority).Response)
}

// ResolutionDeadline computes the resolution deadline.
func (t Thresholds) ResolutionDeadline(priority domain.TicketPriority, createdAt time.Time) time.Time {
	return createdAt.Add(t.For(priority).Resolution)
}

// Pause stops the SLA clock at now. No-op when already paused.
func Pause(ticket *domain.Ticket, now time.Time) {
	if ticket.SlaPausedAt != nil {
		return
	}
	pausedAt := now
	ticket.SlaPausedAt = &pausedAt
}

// Resume restarts the SLA clock at now, shifting both deadlines forward by
// the elapsed pause and folding it into the cumulative paused duration.
// No-op when not paused.
func Resume(ticket *domain.Ticket, now time.Time) {
	if ticket.SlaPausedAt == nil {
		return
	}
	elapsed := now.Sub(*ticket.SlaPausedAt)
	ticket.SlaResponseDeadline = ticket.SlaResponseDeadline.Add(elapsed)
	ticket.SlaResolutionDeadline = ticket.SlaResolutionDeadline.Add(elapsed)
	ticket.SlaPausedDuration += elapsed
	ticket.SlaPausedAt = nil
}

// Breached reports whether the resolution deadline has passed while the
// ticket is still open. Resolved and closed tickets never count as
// breached. Derived on demand; no stored flag.
func Breached(ticket *domain.Ticket, now time.Time) bool {
	if ticket.IsTerminal() {
		return false
	}
	return now.After(ticket.SlaResolutionDeadline)
}
