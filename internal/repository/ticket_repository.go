package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fitdesk/support-service/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	TenantID    string
	CreatorID   *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Category    *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence. Methods take a
// Querier so callers decide the transactional scope.
type TicketRepository interface {
	Create(ctx context.Context, q Querier, ticket *domain.Ticket) error
	Update(ctx context.Context, q Querier, ticket *domain.Ticket) error
	GetByID(ctx context.Context, q Querier, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, q Querier, number string) (*domain.Ticket, error)
	// GetForUpdate locks the ticket row so concurrent transitions against
	// the same ticket evaluate the transition table on a consistent state.
	GetForUpdate(ctx context.Context, q Querier, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, q Querier, filter TicketFilter) ([]domain.Ticket, error)
	// ListPastResolutionDeadline returns open tickets whose resolution
	// deadline lies before now.
	ListPastResolutionDeadline(ctx context.Context, q Querier, now time.Time, limit int) ([]domain.Ticket, error)
}

type ticketRepository struct{}

// NewTicketRepository instantiates the repository.
func NewTicketRepository() TicketRepository {
	return &ticketRepository{}
}

const ticketColumns = `id, number, tenant_id, creator_id, creator_kind, assignee_id,
       subject, description, category, status, priority,
       sla_response_deadline, sla_resolution_deadline, sla_paused_at, sla_paused_duration_ms,
       satisfaction_rating, message_count, last_message_at,
       created_at, updated_at, resolved_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, q Querier, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, number, tenant_id, creator_id, creator_kind, assignee_id,
            subject, description, category, status, priority,
            sla_response_deadline, sla_resolution_deadline, sla_paused_at, sla_paused_duration_ms,
            satisfaction_rating, message_count, last_message_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
        RETURNING created_at, updated_at`
	return q.QueryRow(ctx, query,
		ticket.ID,
		ticket.Number,
		ticket.TenantID,
		ticket.CreatorID,
		ticket.CreatorKind,
		ticket.AssigneeID,
		ticket.Subject,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
		ticket.SlaResponseDeadline,
		ticket.SlaResolutionDeadline,
		ticket.SlaPausedAt,
		ticket.SlaPausedDuration.Milliseconds(),
		ticket.SatisfactionRating,
		ticket.MessageCount,
		ticket.LastMessageAt,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, q Querier, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET assignee_id=$1, subject=$2, description=$3, category=$4,
            status=$5, priority=$6,
            sla_response_deadline=$7, sla_resolution_deadline=$8, sla_paused_at=$9, sla_paused_duration_ms=$10,
            satisfaction_rating=$11, message_count=$12, last_message_at=$13,
            resolved_at=$14, closed_at=$15, updated_at=NOW()
        WHERE id=$16`
	cmd, err := q.Exec(ctx, query,
		ticket.AssigneeID,
		ticket.Subject,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
		ticket.SlaResponseDeadline,
		ticket.SlaResolutionDeadline,
		ticket.SlaPausedAt,
		ticket.SlaPausedDuration.Milliseconds(),
		ticket.SatisfactionRating,
		ticket.MessageCount,
		ticket.LastMessageAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, q Querier, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return fetchSingle(ctx, q, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, q Querier, number string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE number=$1`, ticketColumns)
	return fetchSingle(ctx, q, query, number)
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, q Querier, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1 FOR UPDATE`, ticketColumns)
	return fetchSingle(ctx, q, query, id)
}

func fetchSingle(ctx context.Context, q Querier, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(q.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, q Querier, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"tenant_id=$1"}
	args := []any{filter.TenantID}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("creator_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(subject) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListPastResolutionDeadline(ctx context.Context, q Querier, now time.Time, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE status NOT IN ($1, $2) AND sla_resolution_deadline < $3
        ORDER BY sla_resolution_deadline ASC LIMIT %d`, ticketColumns, limit)
	rows, err := q.Query(ctx, query, domain.TicketStatusResolved, domain.TicketStatusClosed, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	var pausedMs int64
	if err := row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.TenantID,
		&ticket.CreatorID,
		&ticket.CreatorKind,
		&ticket.AssigneeID,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Category,
		&ticket.Status,
		&ticket.Priority,
		&ticket.SlaResponseDeadline,
		&ticket.SlaResolutionDeadline,
		&ticket.SlaPausedAt,
		&pausedMs,
		&ticket.SatisfactionRating,
		&ticket.MessageCount,
		&ticket.LastMessageAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
	); err != nil {
		return err
	}
	ticket.SlaPausedDuration = time.Duration(pausedMs) * time.Millisecond
	return nil
}
