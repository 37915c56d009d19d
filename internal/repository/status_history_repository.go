package repository

import (
	"context"

	"github.com/fitdesk/support-service/internal/domain"
)

// StatusHistoryRepository stores the audit trail of status transitions.
// Entries are append-only; nothing in the core updates or deletes them.
type StatusHistoryRepository interface {
	Create(ctx context.Context, q Querier, entry *domain.StatusHistoryEntry) error
	ListByTicket(ctx context.Context, q Querier, ticketID string) ([]domain.StatusHistoryEntry, error)
}

type statusHistoryRepository struct{}

// NewStatusHistoryRepository builds the repository.
func NewStatusHistoryRepository() StatusHistoryRepository {
	return &statusHistoryRepository{}
}

func (r *statusHistoryRepository) Create(ctx context.Context, q Querier, entry *domain.StatusHistoryEntry) error {
	const query = `
        INSERT INTO ticket_status_history (id, ticket_id, from_status, to_status, actor_id, actor_kind, reason, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := q.Exec(ctx, query,
		entry.ID,
		entry.TicketID,
		entry.FromStatus,
		entry.ToStatus,
		entry.ActorID,
		entry.ActorKind,
		entry.Reason,
		entry.CreatedAt,
	)
	return err
}

func (r *statusHistoryRepository) ListByTicket(ctx context.Context, q Querier, ticketID string) ([]domain.StatusHistoryEntry, error) {
	const query = `
        SELECT id, ticket_id, from_status, to_status, actor_id, actor_kind, reason, created_at
        FROM ticket_status_history WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusHistoryEntry
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.ActorID,
			&entry.ActorKind,
			&entry.Reason,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
