package ticket

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/support-service/internal/domain"
	"github.com/fitdesk/support-service/internal/sla"
)

var allStatuses = []domain.TicketStatus{
	domain.TicketStatusOpen,
	domain.TicketStatusInProgress,
	domain.TicketStatusWaitingOnCustomer,
	domain.TicketStatusWaitingOnThirdParty,
	domain.TicketStatusEscalated,
	domain.TicketStatusResolved,
	domain.TicketStatusClosed,
	domain.TicketStatusReopened,
}

// allowed mirrors the lifecycle rules as documented, independently of the
// table the machine consults, so a table typo fails the test.
var allowed = map[domain.TicketStatus]map[domain.TicketStatus]bool{
	domain.TicketStatusOpen: {
		domain.TicketStatusInProgress:        true,
		domain.TicketStatusWaitingOnCustomer: true,
		domain.TicketStatusEscalated:         true,
		domain.TicketStatusResolved:          true,
		domain.TicketStatusClosed:            true,
	},
	domain.TicketStatusInProgress: {
		domain.TicketStatusWaitingOnCustomer:   true,
		domain.TicketStatusWaitingOnThirdParty: true,
		domain.TicketStatusEscalated:           true,
		domain.TicketStatusResolved:            true,
		domain.TicketStatusClosed:              true,
	},
	domain.TicketStatusWaitingOnCustomer: {
		domain.TicketStatusInProgress: true,
		domain.TicketStatusResolved:   true,
		domain.TicketStatusClosed:     true,
	},
	domain.TicketStatusWaitingOnThirdParty: {
		domain.TicketStatusInProgress: true,
		domain.TicketStatusResolved:   true,
		domain.TicketStatusClosed:     true,
	},
	domain.TicketStatusEscalated: {
		domain.TicketStatusInProgress: true,
		domain.TicketStatusResolved:   true,
		domain.TicketStatusClosed:     true,
	},
	domain.TicketStatusResolved: {
		domain.TicketStatusClosed:   true,
		domain.TicketStatusReopened: true,
	},
	domain.TicketStatusClosed: {
		domain.TicketStatusReopened: true,
	},
	domain.TicketStatusReopened: {
		domain.TicketStatusInProgress:        true,
		domain.TicketStatusWaitingOnCustomer: true,
		domain.TicketStatusEscalated:         true,
		domain.TicketStatusResolved:          true,
		domain.TicketStatusClosed:            true,
	},
}

func newTestMachine() *Machine {
	return NewMachine(sla.DefaultThresholds())
}

func testInput(now time.Time) TransitionInput {
	return TransitionInput{
		ActorID:   "agent-1",
		ActorKind: domain.ActorKindAgent,
		Now:       now,
	}
}

func ticketInStatus(status domain.TicketStatus) *domain.Ticket {
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Ticket{
		ID:                    "tkt-1",
		TenantID:              "tenant-1",
		Status:                status,
		Priority:              domain.TicketPriorityMedium,
		SlaResponseDeadline:   createdAt.Add(24 * time.Hour),
		SlaResolutionDeadline: createdAt.Add(72 * time.Hour),
		CreatedAt:             createdAt,
	}
}

func TestCanTransitionMatchesLifecycleRules(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			assert.Equal(t, allowed[from][to], CanTransition(from, to),
				"%s -> %s", from, to)
		}
	}
}

func TestApplyRejectsEveryIllegalEdgeWithoutMutation(t *testing.T) {
	m := newTestMachine()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	ops := map[domain.TicketStatus]func(*domain.Ticket) (*domain.StatusHistoryEntry, error){
		domain.TicketStatusInProgress: func(tk *domain.Ticket) (*domain.StatusHistoryEntry, error) {
			return m.StartProgress(tk, testInput(now))
		},
		domain.TicketStatusWaitingOnCustomer: func(tk *domain.Ticket) (*domain.StatusHistoryEntry, error) {
			return m.WaitOnCustomer(tk, testInput(now))
		},
		domain.TicketStatusWaitingOnThirdParty: func(tk *domain.Ticket) (*domain.StatusHistoryEntry, error) {
			return m.WaitOnThirdParty(tk, testInput(now))
		},
		domain.TicketStatusEscalated: func(tk *domain.Ticket) (*domain.StatusHistoryEntry, error) {
			return m.Escalate(tk, testInput(now))
		},
		domain.TicketStatusResolved: func(tk *domain.Ticket) (*domain.StatusHistoryEntry, error) {
			return m.Resolve(tk, testInput(now))
		},
		domain.TicketStatusClosed: func(tk *domain.Ticket) (*domain.StatusHistoryEntry, error) {
			return m.Close(tk, testInput(now))
		},
		domain.TicketStatusReopened: func(tk *domain.Ticket) (*domain.StatusHistoryEntry, error) {
			return m.Reopen(tk, testInput(now))
		},
	}

	for _, from := range allStatuses {
		for to, op := range ops {
			tk := ticketInStatus(from)
			before := *tk

			entry, err := op(tk)
			if allowed[from][to] {
				require.NoError(t, err, "%s -> %s", from, to)
				require.NotNil(t, entry)
				assert.Equal(t, to, tk.Status)
				assert.Equal(t, from, entry.FromStatus)
				assert.Equal(t, to, entry.ToStatus)
				continue
			}

			require.Error(t, err, "%s -> %s", from, to)
			assert.Nil(t, entry)
			var invalid *InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, from, invalid.From)
			assert.Equal(t, to, invalid.To)
			assert.Equal(t, before, *tk, "rejected transition must not mutate")
		}
	}
}

func TestInitialize(t *testing.T) {
	m := newTestMachine()
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tk := &domain.Ticket{Priority: domain.TicketPriorityHigh}
	m.Initialize(tk, createdAt)

	assert.Equal(t, domain.TicketStatusOpen, tk.Status)
	assert.Equal(t, createdAt.Add(8*time.Hour), tk.SlaResponseDeadline)
	assert.Equal(t, createdAt.Add(24*time.Hour), tk.SlaResolutionDeadline)
}

func TestInitializeDefaultsPriorityToMedium(t *testing.T) {
	m := newTestMachine()
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tk := &domain.Ticket{}
	m.Initialize(tk, createdAt)

	assert.Equal(t, domain.TicketPriorityMedium, tk.Priority)
	assert.Equal(t, createdAt.Add(72*time.Hour), tk.SlaResolutionDeadline)
}

func TestWaitOnCustomerPausesClock(t *testing.T) {
	m := newTestMachine()
	now := time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)

	tk := ticketInStatus(domain.TicketStatusInProgress)
	entry, err := m.WaitOnCustomer(tk, testInput(now))

	require.NoError(t, err)
	require.NotNil(t, tk.SlaPausedAt)
	assert.Equal(t, now, *tk.SlaPausedAt)
	assert.Equal(t, domain.TicketStatusWaitingOnCustomer, entry.ToStatus)
}

func TestWaitOnThirdPartyKeepsClockRunning(t *testing.T) {
	m := newTestMachine()
	now := time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)

	tk := ticketInStatus(domain.TicketStatusInProgress)
	responseBefore := tk.SlaResponseDeadline

	_, err := m.WaitOnThirdParty(tk, testInput(now))
	require.NoError(t, err)
	assert.Nil(t, tk.SlaPausedAt)
	assert.Equal(t, responseBefore, tk.SlaResponseDeadline)
}

func TestStartProgressResumesPausedClock(t *testing.T) {
	m := newTestMachine()
	pausedAt := time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)
	resumedAt := pausedAt.Add(2 * time.Hour)

	tk := ticketInStatus(domain.TicketStatusWaitingOnCustomer)
	tk.SlaPausedAt = &pausedAt
	resolutionBefore := tk.SlaResolutionDeadline

	_, err := m.StartProgress(tk, testInput(resumedAt))
	require.NoError(t, err)
	assert.Nil(t, tk.SlaPausedAt)
	assert.Equal(t, resolutionBefore.Add(2*time.Hour), tk.SlaResolutionDeadline)
	assert.Equal(t, 2*time.Hour, tk.SlaPausedDuration)
}

func TestResolveStampsResolvedAtAndResumesClock(t *testing.T) {
	m := newTestMachine()
	pausedAt := time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)
	now := pausedAt.Add(time.Hour)

	tk := ticketInStatus(domain.TicketStatusWaitingOnCustomer)
	tk.SlaPausedAt = &pausedAt

	_, err := m.Resolve(tk, testInput(now))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, tk.Status)
	require.NotNil(t, tk.ResolvedAt)
	assert.Equal(t, now, *tk.ResolvedAt)
	assert.Nil(t, tk.SlaPausedAt)
	assert.False(t, m.IsSlaBreached(tk, now.Add(1000*time.Hour)))
}

func TestCloseStampsClosedAt(t *testing.T) {
	m := newTestMachine()
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	tk := ticketInStatus(domain.TicketStatusResolved)
	_, err := m.Close(tk, testInput(now))

	require.NoError(t, err)
	require.NotNil(t, tk.ClosedAt)
	assert.Equal(t, now, *tk.ClosedAt)
}

func TestReopenClearsTerminalTimestamps(t *testing.T) {
	m := newTestMachine()
	resolvedAt := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	tk := ticketInStatus(domain.TicketStatusResolved)
	tk.ResolvedAt = &resolvedAt

	_, err := m.Reopen(tk, testInput(resolvedAt.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusReopened, tk.Status)
	assert.Nil(t, tk.ResolvedAt)
	assert.Nil(t, tk.ClosedAt)
}

func TestRate(t *testing.T) {
	m := newTestMachine()

	t.Run("accepts 1..5 on terminal tickets", func(t *testing.T) {
		for _, status := range []domain.TicketStatus{domain.TicketStatusResolved, domain.TicketStatusClosed} {
			for score := 1; score <= 5; score++ {
				tk := ticketInStatus(status)
				require.NoError(t, m.Rate(tk, score))
				require.NotNil(t, tk.SatisfactionRating)
				assert.Equal(t, score, *tk.SatisfactionRating)
			}
		}
	})

	t.Run("rejects out-of-range scores", func(t *testing.T) {
		for _, score := range []int{0, 6, -1, 100} {
			tk := ticketInStatus(domain.TicketStatusResolved)
			err := m.Rate(tk, score)
			var invalid *InvalidRatingError
			require.ErrorAs(t, err, &invalid)
			assert.Nil(t, tk.SatisfactionRating)
		}
	})

	t.Run("rejects non-terminal tickets", func(t *testing.T) {
		for _, status := range allStatuses {
			if status == domain.TicketStatusResolved || status == domain.TicketStatusClosed {
				continue
			}
			tk := ticketInStatus(status)
			err := m.Rate(tk, 4)
			var invalid *InvalidRatingError
			require.ErrorAs(t, err, &invalid, string(status))
			assert.Equal(t, status, invalid.Status)
		}
	})
}

func TestAssignAndUnassign(t *testing.T) {
	m := newTestMachine()

	tk := ticketInStatus(domain.TicketStatusClosed)
	m.Assign(tk, "agent-9")
	require.NotNil(t, tk.AssigneeID)
	assert.Equal(t, "agent-9", *tk.AssigneeID)

	m.Unassign(tk)
	assert.Nil(t, tk.AssigneeID)
}

func TestChangePriorityRecomputesDeadlinesFromAsOf(t *testing.T) {
	m := newTestMachine()
	asOf := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tk := ticketInStatus(domain.TicketStatusInProgress)
	tk.SlaPausedDuration = 3 * time.Hour

	m.ChangePriority(tk, domain.TicketPriorityCritical, asOf)

	assert.Equal(t, domain.TicketPriorityCritical, tk.Priority)
	assert.Equal(t, asOf.Add(4*time.Hour), tk.SlaResponseDeadline)
	assert.Equal(t, asOf.Add(8*time.Hour), tk.SlaResolutionDeadline)
	assert.Equal(t, 3*time.Hour, tk.SlaPausedDuration)
}

func TestChangePriorityReanchorsInFlightPause(t *testing.T) {
	m := newTestMachine()
	pausedAt := time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)
	asOf := pausedAt.Add(4 * time.Hour)

	tk := ticketInStatus(domain.TicketStatusWaitingOnCustomer)
	tk.SlaPausedAt = &pausedAt

	m.ChangePriority(tk, domain.TicketPriorityHigh, asOf)

	require.NotNil(t, tk.SlaPausedAt)
	assert.Equal(t, asOf, *tk.SlaPausedAt)

	// Resuming an hour later shifts the fresh baseline by that hour only.
	sla.Resume(tk, asOf.Add(time.Hour))
	assert.Equal(t, asOf.Add(8*time.Hour).Add(time.Hour), tk.SlaResponseDeadline)
}

func TestInvalidTransitionErrorMessage(t *testing.T) {
	err := &InvalidTransitionError{From: domain.TicketStatusClosed, To: domain.TicketStatusInProgress}
	assert.Contains(t, err.Error(), "CLOSED")
	assert.Contains(t, err.Error(), "IN_PROGRESS")
	assert.True(t, errors.As(error(err), new(*InvalidTransitionError)))
}
