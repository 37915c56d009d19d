package ticket

import (
	"fmt"

	"github.com/fitdesk/support-service/internal/domain"
)

// InvalidTransitionError signals a requested edge absent from the
// transition table. The ticket is left untouched.
type InvalidTransitionError struct {
	From domain.TicketStatus
	To   domain.TicketStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// InvalidRatingError signals a rating outside resolved/closed states or
// outside the 1..5 range.
type InvalidRatingError struct {
	Status domain.TicketStatus
	Score  int
}

func (e *InvalidRatingError) Error() string {
	if e.Score < 1 || e.Score > 5 {
		return fmt.Sprintf("invalid rating %d: score must be between 1 and 5", e.Score)
	}
	return fmt.Sprintf("ticket in status %s cannot be rated", e.Status)
}
