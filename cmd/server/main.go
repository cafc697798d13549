package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"eukexpress-backend/internal/auth"
	"eukexpress-backend/internal/cache"
	"eukexpress-backend/internal/config"
	"eukexpress-backend/internal/database"
	"eukexpress-backend/internal/db"
	"eukexpress-backend/internal/email"
	"eukexpress-backend/internal/handlers"
	"eukexpress-backend/internal/health"
	h "eukexpress-backend/internal/http"
	"eukexpress-backend/internal/logger"
	"eukexpress-backend/internal/middleware"
	"eukexpress-backend/internal/monitoring"
	"eukexpress-backend/internal/repositories"
	"eukexpress-backend/internal/services"
	"eukexpress-backend/internal/storage"
	"eukexpress-backend/internal/worker"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to postgres", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Name))

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = database.NewMigrator(pool, logger).RunMigrations(migrateCtx)
	cancel()
	if err != nil {
		return err
	}

	// Redis is optional; every cache helper degrades to a no-op without it
	if err := cache.Init(cfg, logger); err != nil {
		logger.Warn("redis unavailable, running without cache", zap.Error(err))
	}
	defer cache.Close()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	renderer, err := email.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to parse email templates: %w", err)
	}
	provider := email.NewProvider(cfg, logger)

	// Repositories
	shipmentRepo := repositories.NewShipmentRepository(pool)
	historyRepo := repositories.NewStatusHistoryRepository(pool)
	interventionRepo := repositories.NewInterventionLogRepository(pool)
	emailLogRepo := repositories.NewEmailLogRepository(pool)
	outboxRepo := repositories.NewOutboxRepository(pool)
	dashboardRepo := repositories.NewDashboardRepository(pool)
	campaignRepo := repositories.NewCampaignRepository(pool)
	adminRepo := repositories.NewAdminRepository(pool)

	// Services
	docs := services.NewDocumentService(cfg, store)
	planner := services.NewNotificationPlanner(cfg, renderer)
	shipmentService := services.NewShipmentService(shipmentRepo, planner, docs, logger)
	queryService := services.NewQueryService(shipmentRepo, historyRepo, interventionRepo, emailLogRepo, dashboardRepo, docs, logger)
	trackingService := services.NewTrackingService(shipmentRepo, historyRepo, docs)
	communicationService := services.NewCommunicationService(shipmentRepo, outboxRepo, emailLogRepo, planner, logger)
	campaignService := services.NewCampaignService(campaignRepo, shipmentRepo, planner, logger)
	paymentService := services.NewPaymentService(cfg, shipmentRepo, shipmentService, logger)

	jwtManager := auth.NewJWTManager(cfg)
	limiter := cache.NewRateLimiter(cfg.RateLimit.LoginAttempts, cfg.RateLimit.Window)
	authService := services.NewAuthService(adminRepo, jwtManager, limiter, logger)
	totpService := services.NewTOTPService(adminRepo, logger)

	if err := authService.EnsureBootstrapAdmin(ctx, cfg); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	// Live activity feed
	hub := monitoring.NewHub(cfg.Server.CorsAllowedOrigins, logger)
	shipmentService.SetActivityPublisher(hub)
	go hub.Run(ctx)

	// Background jobs
	orchestrator := worker.NewOrchestrator([]worker.Worker{
		worker.NewOutboxWorker(cfg, outboxRepo, emailLogRepo, provider, store, logger),
		worker.NewCampaignWorker(campaignService, cfg.Outbox.CampaignSchedule, logger),
		worker.NewSweepWorker(dashboardRepo, outboxRepo, cfg.Outbox.SweepSchedule, logger),
	}, logger)
	if err := orchestrator.Start(ctx); err != nil {
		return err
	}

	// HTTP
	healthChecker := health.NewHealthChecker(pool, cache.IsHealthy)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, adminRepo)
	router := h.NewRouter(h.Handlers{
		Auth:          handlers.NewAuthHandler(authService, logger),
		TOTP:          handlers.NewTOTPHandler(totpService, logger),
		Shipments:     handlers.NewShipmentHandler(shipmentService, queryService, trackingService, logger),
		Communication: handlers.NewCommunicationHandler(communicationService, campaignService, logger),
		Dashboard:     handlers.NewDashboardHandler(queryService, logger),
		Public:        handlers.NewPublicHandler(trackingService, logger),
		Razorpay:      handlers.NewRazorpayHandler(paymentService, logger),
		Health:        handlers.NewHealthHandler(healthChecker),
		Monitoring:    handlers.NewMonitoringHandler(pool, cache.IsHealthy, hub),
		Activity:      hub,
	}, authMiddleware, middleware.NewCORS(cfg), logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr), zap.String("email_provider", provider.Name()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	orchestrator.Stop(shutdownCtx)
	logger.Info("server stopped cleanly")
	return nil
}
