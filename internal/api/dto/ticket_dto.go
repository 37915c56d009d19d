package dto

import (
	"time"

	"github.com/fitdesk/support-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
}

// TransitionRequest carries the optional free-text reason for a status
// change.
type TransitionRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// RateTicketRequest payload.
type RateTicketRequest struct {
	Score int `json:"score"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// ChangePriorityRequest payload.
type ChangePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// RecordMessageRequest is posted by the messaging module when a thread
// message lands.
type RecordMessageRequest struct {
	TenantID string     `json:"tenant_id"`
	At       *time.Time `json:"at,omitempty"`
}

// TicketSummary response.
type TicketSummary struct {
	ID                    string                `json:"id"`
	Number                string                `json:"number"`
	Subject               string                `json:"subject"`
	Category              string                `json:"category"`
	Status                domain.TicketStatus   `json:"status"`
	Priority              domain.TicketPriority `json:"priority"`
	AssigneeID            *string               `json:"assignee_id,omitempty"`
	SlaResponseDeadline   time.Time             `json:"sla_response_deadline"`
	SlaResolutionDeadline time.Time             `json:"sla_resolution_deadline"`
	SlaBreached           bool                  `json:"sla_breached"`
	CreatedAt             time.Time             `json:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides the full field set plus history.
type TicketDetailResponse struct {
	TicketSummary
	Description        string                  `json:"description"`
	CreatorID          string                  `json:"creator_id"`
	CreatorKind        domain.ActorKind        `json:"creator_kind"`
	SlaPausedAt        *time.Time              `json:"sla_paused_at,omitempty"`
	SlaPausedSeconds   float64                 `json:"sla_paused_seconds"`
	SatisfactionRating *int                    `json:"satisfaction_rating,omitempty"`
	MessageCount       int                     `json:"message_count"`
	LastMessageAt      *time.Time              `json:"last_message_at,omitempty"`
	ResolvedAt         *time.Time              `json:"resolved_at,omitempty"`
	ClosedAt           *time.Time              `json:"closed_at,omitempty"`
	History            []StatusHistoryResponse `json:"history"`
}

// StatusHistoryResponse represents one audit entry.
type StatusHistoryResponse struct {
	ID         string              `json:"id"`
	FromStatus domain.TicketStatus `json:"from_status"`
	ToStatus   domain.TicketStatus `json:"to_status"`
	ActorID    string              `json:"actor_id"`
	ActorKind  domain.ActorKind    `json:"actor_kind"`
	Reason     *string             `json:"reason,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}
