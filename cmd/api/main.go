package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/notify"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	requestTypeRepo := repository.NewRequestTypeRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	seenRepo := repository.NewSeenRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	boardRepo := repository.NewBoardRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	notifyService := notify.NewService(notify.Dependencies{
		TicketRepo:       ticketRepo,
		UserRepo:         userRepo,
		NotificationRepo: notificationRepo,
		Mailer:           notify.NewSMTPMailer(cfg.Notification),
		Logger:           logger,
		Config:           cfg.Notification,
	})
	notifyService.RegisterHandlers(dispatcher)

	identityService := service.NewIdentityService(*cfg, userRepo)
	taxonomyService := service.NewTaxonomyService(requestTypeRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:      ticketRepo,
		RequestTypeRepo: requestTypeRepo,
		MessageRepo:     messageRepo,
		UserRepo:        userRepo,
		Locker:          redis,
		Dispatcher:      dispatcher,
		Logger:          logger,
		Config:          cfg.Tickets,
	})
	seenService := service.NewSeenService(cfg.Storage, seenRepo, ticketRepo, messageRepo)
	boardService := service.NewBoardService(boardRepo)

	authMiddleware := auth.NewAuthMiddleware(identityService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Accounts:       handlers.NewAccountsHandler(identityService),
		Tickets:        handlers.NewTicketsHandler(ticketService, cfg.Tickets),
		RequestTypes:   handlers.NewRequestTypesHandler(taxonomyService),
		Seen:           handlers.NewSeenHandler(seenService),
		Notifications:  handlers.NewNotificationsHandler(notifyService),
		Board:          handlers.NewBoardHandler(boardService),
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
