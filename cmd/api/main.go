package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/ai"
	httpapi "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/triage"
	"github.com/spec-kit/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	cancel()
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations && postgres.PoolHandle() != nil {
		if err := persistence.RunMigrations(context.Background(), postgres.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := postgres.PoolHandle()
	orgRepo := repository.NewOrganizationRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	knowledgeRepo := repository.NewKnowledgeRepository(pool)
	jobRepo := repository.NewTriageJobRepository(pool)

	openaiClient := ai.NewClient(cfg.OpenAI)
	screener := ai.NewModerationScreener(openaiClient, logger)
	embedder := ai.NewOpenAIEmbedder(openaiClient, cfg.OpenAI.EmbeddingModel)
	responder := ai.NewOpenAIResponder(openaiClient, cfg.OpenAI, logger)
	retriever := triage.NewKnowledgeRetriever(embedder, knowledgeRepo,
		cfg.Triage.MatchThreshold, cfg.Triage.MatchCount)

	dispatcher := events.NewInMemoryDispatcher()

	pipeline := triage.NewPipeline(triage.Dependencies{
		TicketRepo:       ticketRepo,
		MessageRepo:      messageRepo,
		AttachmentRepo:   attachmentRepo,
		NotificationRepo: notificationRepo,
		JobRepo:          jobRepo,
		HistoryRepo:      historyRepo,
		Screener:         screener,
		Retriever:        retriever,
		Responder:        responder,
		Dispatcher:       dispatcher,
		Logger:           logger,
		Metrics:          metrics,
	})

	triageWorker := worker.NewTriageWorker(pipeline, redis, logger,
		cfg.Triage.RunTimeout(), cfg.Triage.DedupTTL())
	triageWorker.Register(dispatcher)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	authService := service.NewAuthService(service.AuthDependencies{
		Users:         userRepo,
		Staff:         staffRepo,
		Resets:        resetRepo,
		Tokens:        tokens,
		ResetTokenTTL: time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		Logger:        logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Tickets:       ticketRepo,
		Messages:      messageRepo,
		Attachments:   attachmentRepo,
		History:       historyRepo,
		Organizations: orgRepo,
		Staff:         staffRepo,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		Tickets:    ticketRepo,
		Staff:      staffRepo,
		Teams:      teamRepo,
		History:    historyRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	staffService := service.NewStaffService(service.StaffDependencies{
		Staff:         staffRepo,
		Teams:         teamRepo,
		Organizations: orgRepo,
		Logger:        logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Notifications: notificationRepo,
		Staff:         staffRepo,
		Logger:        logger,
	})
	knowledgeService := service.NewKnowledgeService(service.KnowledgeDependencies{
		Knowledge: knowledgeRepo,
		Staff:     staffRepo,
		Embedder:  embedder,
		Retriever: retriever,
		Logger:    logger,
	})
	triageService := service.NewTriageService(service.TriageDependencies{
		Jobs:     jobRepo,
		Messages: messageRepo,
		Tickets:  ticketRepo,
		Staff:    staffRepo,
		Logger:   logger,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout(),
		WriteTimeout: cfg.App.RequestTimeout(),
		ErrorHandler: httpapi.ErrorHandler(logger, metrics),
	})
	httpapi.RegisterMiddlewares(app, cfg, logger, metrics)
	httpapi.RegisterRoutes(app, tokens, httpapi.Handlers{
		Health:        handlers.NewHealthHandler(postgres, redis, metrics, cfg.App.Version),
		Auth:          handlers.NewAuthHandler(authService),
		Tickets:       handlers.NewTicketsHandler(ticketService),
		StaffTickets:  handlers.NewStaffTicketsHandler(ticketService, assignmentService),
		Staff:         handlers.NewStaffHandler(staffService),
		Notifications: handlers.NewNotificationsHandler(notificationService),
		Knowledge:     handlers.NewKnowledgeHandler(knowledgeService),
		Triage:        handlers.NewTriageHandler(triageService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("http server stopped", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("addr", cfg.App.Addr()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	triageWorker.Stop()
	logger.Info("shutdown complete")
}
