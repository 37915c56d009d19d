package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fitdesk/support-service/internal/config"
	"github.com/fitdesk/support-service/internal/domain"
	"github.com/fitdesk/support-service/internal/events"
	"github.com/fitdesk/support-service/internal/observability"
	"github.com/fitdesk/support-service/internal/repository"
)

// breachKeyTTL bounds how long the dedupe marker lives; long enough that
// a still-open ticket is not re-announced every scan, short enough that a
// reopened-and-breached-again ticket eventually fires again.
const breachKeyTTL = 24 * time.Hour

// BreachScanner periodically finds open tickets past their resolution
// deadline and emits ticket_sla_breached events. The breach flag itself
// stays derived; nothing is written to the ticket.
type BreachScanner struct {
	db         repository.Querier
	tickets    repository.TicketRepository
	redis      *redis.Client
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.ScannerConfig
	clock      func() time.Time
}

// NewBreachScanner constructs the scanner.
func NewBreachScanner(db repository.Querier, tickets repository.TicketRepository, redisClient *redis.Client,
	dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, cfg config.ScannerConfig) *BreachScanner {
	return &BreachScanner{
		db:         db,
		tickets:    tickets,
		redis:      redisClient,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		clock:      time.Now,
	}
}

// Run scans on the configured interval until the context is cancelled.
func (s *BreachScanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanOnce(ctx)
		}
	}
}

func (s *BreachScanner) scanOnce(ctx context.Context) {
	now := s.clock()
	breached, err := s.tickets.ListPastResolutionDeadline(ctx, s.db, now, s.cfg.BatchSize)
	if err != nil {
		s.logger.Error("breach scan failed", zap.Error(err))
		return
	}

	for i := range breached {
		t := &breached[i]
		if t.SlaPausedAt != nil {
			// Paused clock: the deadline will shift on resume.
			continue
		}
		if !s.claimBreach(ctx, t.ID) {
			continue
		}
		s.metrics.RecordSlaBreach()
		s.publish(ctx, t)
	}
}

// claimBreach reports whether this scanner instance is the first to see
// the breach, using a redis SETNX marker shared across instances.
func (s *BreachScanner) claimBreach(ctx context.Context, ticketID string) bool {
	if s.redis == nil {
		return true
	}
	ok, err := s.redis.SetNX(ctx, "sla:breached:"+ticketID, 1, breachKeyTTL).Result()
	if err != nil {
		s.logger.Warn("breach dedupe unavailable", zap.Error(err))
		return true
	}
	return ok
}

func (s *BreachScanner) publish(ctx context.Context, t *domain.Ticket) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketSlaBreached,
		TenantID:  t.TenantID,
		TicketID:  t.ID,
		Actor:     events.Actor{ID: "system", Kind: domain.ActorKindAgent},
		Timestamp: s.clock(),
		Payload: events.TicketSlaBreachedPayload{
			Number:             t.Number,
			Priority:           t.Priority,
			ResolutionDeadline: t.SlaResolutionDeadline,
		},
	})
}
