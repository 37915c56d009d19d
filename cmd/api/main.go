package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/fitdesk/support-service/internal/api/http"
	"github.com/fitdesk/support-service/internal/api/http/handlers"
	"github.com/fitdesk/support-service/internal/auth"
	"github.com/fitdesk/support-service/internal/config"
	"github.com/fitdesk/support-service/internal/events"
	"github.com/fitdesk/support-service/internal/observability"
	"github.com/fitdesk/support-service/internal/persistence"
	"github.com/fitdesk/support-service/internal/repository"
	"github.com/fitdesk/support-service/internal/sequence"
	"github.com/fitdesk/support-service/internal/service"
	"github.com/fitdesk/support-service/internal/sla"
	"github.com/fitdesk/support-service/internal/ticket"
	"github.com/fitdesk/support-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketStatusChanged, func(_ context.Context, event events.Event) error {
		if payload, ok := event.Payload.(events.TicketStatusChangedPayload); ok {
			metrics.RecordTransition(string(payload.OldStatus), string(payload.NewStatus))
		}
		return nil
	})

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository()
	historyRepo := repository.NewStatusHistoryRepository()

	thresholds := sla.FromConfig(cfg.Sla)
	machine := ticket.NewMachine(thresholds)

	ticketService := service.NewTicketService(service.TicketDependencies{
		Tx:          repository.NewTxRunner(pool),
		DB:          pool,
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Counters: func(q repository.Querier) sequence.CounterStore {
			return sequence.NewPostgresStore(q)
		},
		Machine:    machine,
		Dispatcher: dispatcher,
	})

	notifications := service.NewNotificationService(dispatcher, logger)
	notifications.RegisterHandlers()

	if cfg.Scanner.Enabled {
		scanner := worker.NewBreachScanner(pool, ticketRepo, redis.Client, dispatcher, metrics, logger, cfg.Scanner)
		go scanner.Run(ctx)
	}

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authMiddleware := auth.NewMiddleware(tokenManager)
	apiKeys := auth.NewAPIKeyVerifier(cfg.Auth.ServiceAPIKeys)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	ticketsHandler := handlers.NewTicketsHandler(ticketService)
	agentHandler := handlers.NewAgentTicketsHandler(ticketsHandler, ticketService)
	internalHandler := handlers.NewInternalHandler(ticketService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Tickets:        ticketsHandler,
		AgentTickets:   agentHandler,
		Internal:       internalHandler,
		AuthMiddleware: authMiddleware,
		APIKeys:        apiKeys,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
