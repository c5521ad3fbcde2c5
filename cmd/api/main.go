package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/queue-service/internal/api/http"
	"github.com/spec-kit/queue-service/internal/api/http/handlers"
	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/config"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/observability"
	"github.com/spec-kit/queue-service/internal/persistence"
	"github.com/spec-kit/queue-service/internal/queue"
	"github.com/spec-kit/queue-service/internal/repository"
	"github.com/spec-kit/queue-service/internal/service"
	"github.com/spec-kit/queue-service/internal/ws"
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

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		ticketRepo  repository.TicketRepository
		counterRepo repository.CounterRepository
		staffRepo   repository.StaffRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		ticketRepo = repository.NewTicketRepository(pool)
		counterRepo = repository.NewCounterRepository(pool)
		staffRepo = repository.NewStaffRepository(pool)
	} else {
		logger.Warn("running with in-memory store; state is lost on restart")
		ticketRepo = repository.NewMemoryTicketRepository()
		counterRepo = repository.NewMemoryCounterRepository()
		staffRepo = repository.NewMemoryStaffRepository()
	}

	allocator := queue.NewAllocator(counterRepo)
	if err := allocator.EnsureInitialized(ctx); err != nil {
		logger.Fatal("failed to initialize counters", zap.Error(err))
	}

	snapshots := queue.NewSnapshotBuilder(ticketRepo, allocator, cfg.Queue.RecentCallsLimit)
	dispatcher := events.NewInMemoryDispatcher()

	queueService := queue.NewService(queue.Dependencies{
		TicketRepo: ticketRepo,
		Allocator:  allocator,
		Dispatcher: dispatcher,
		Logger:     logger,
	}, queue.Options{
		ServeDelay:   cfg.Queue.ServeDelay(),
		ServiceTypes: cfg.Queue.ServiceTypes,
	})

	authService := service.NewAuthService(cfg.Auth, staffRepo, logger)
	if err := authService.SeedDefaultAdmin(ctx); err != nil {
		logger.Fatal("failed to seed default admin", zap.Error(err))
	}
	staffService := service.NewStaffService(cfg.Auth, staffRepo, dispatcher, logger)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), staffRepo)

	var relay *ws.Relay
	if redis.Client != nil {
		relay = ws.NewRelay(redis.Client, cfg.Queue.RelayChannel, logger)
	}
	hub := ws.NewHub(logger, snapshots, staffRepo, relay)
	dispatcher.Subscribe(events.EventQueueChanged, hub.HandleQueueChanged)
	dispatcher.Subscribe(events.EventStaffChanged, hub.HandleStaffChanged)
	if relay != nil {
		go relay.Run(ctx)
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Queue:          handlers.NewQueueHandler(queueService, snapshots),
		Staff:          handlers.NewStaffHandler(staffService),
		Hub:            hub,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
