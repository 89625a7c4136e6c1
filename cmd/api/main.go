package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garment-platform/production-service/pkg/cloudevents"
	"github.com/garment-platform/production-service/pkg/kafka"
	"github.com/garment-platform/production-service/pkg/logging"
	"github.com/garment-platform/production-service/pkg/metrics"
	"github.com/garment-platform/production-service/pkg/middleware"
	"github.com/garment-platform/production-service/pkg/mongodb"
	"github.com/garment-platform/production-service/pkg/outbox"
	"github.com/garment-platform/production-service/pkg/tracing"

	"github.com/garment-platform/production-service/internal/application"
	"github.com/garment-platform/production-service/internal/domain"
	kafkaInfra "github.com/garment-platform/production-service/internal/infrastructure/kafka"
	mongoRepo "github.com/garment-platform/production-service/internal/infrastructure/mongodb"
)

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting production-service API")

	// Load configuration
	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing - don't exit
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// Initialize MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Kafka producer with circuit breaker
	kafkaProducer := kafka.NewProducer(config.Kafka)
	producer := kafka.NewCircuitBreakerProducer(kafkaProducer, logger.Logger)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Initialize CloudEvents factory
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceProduction)

	// Initialize repositories
	db := mongoClient.Database()
	workRepo := mongoRepo.NewWorkUnitRepository(db, eventFactory)
	reportRepo := mongoRepo.NewDamageReportRepository(db, eventFactory)
	walletRepo := mongoRepo.NewWalletRepository(db, eventFactory)
	ledgerRepo := mongoRepo.NewWageLedgerRepository(db)
	operatorRepo := mongoRepo.NewOperatorRepository(db)
	txManager := mongoRepo.NewTransactionManager(mongoClient.Client())

	// All repositories share one outbox collection; a single publisher
	// drains it
	outboxPublisher := outbox.NewPublisher(
		workRepo.GetOutboxRepository(),
		producer,
		logger,
		m,
		&outbox.PublisherConfig{
			PollInterval: 1 * time.Second,
			BatchSize:    100,
		},
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started")

	// Notification dispatch is fire-and-forget over Kafka
	notifier := kafkaInfra.NewNotifier(producer, eventFactory, logger)

	// Initialize application services
	assignmentService := application.NewAssignmentService(
		workRepo,
		walletRepo,
		ledgerRepo,
		operatorRepo,
		txManager,
		notifier,
		logger,
		m,
	)
	damageService := application.NewDamageService(
		reportRepo,
		workRepo,
		walletRepo,
		ledgerRepo,
		txManager,
		notifier,
		domain.DefaultTaxonomy(),
		config.MaxDamagedPieces,
		logger,
		m,
	)
	walletService := application.NewWalletService(walletRepo, ledgerRepo, logger)

	// Contention queue for claim requests
	assignmentQueue := application.NewAssignmentQueue(assignmentService, notifier, logger, m)
	assignmentQueue.Start()
	defer assignmentQueue.Stop()
	logger.Info("Assignment queue started")

	// Background sweeper escalates reports past their urgency SLA
	sweeperCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go damageService.RunEscalationSweeper(sweeperCtx, config.EscalationInterval)
	logger.Info("Escalation sweeper started", "interval", config.EscalationInterval)

	// Setup Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	apiV1 := router.Group("/api/v1")

	workUnits := apiV1.Group("/work-units")
	{
		workUnits.POST("", createWorkUnitHandler(assignmentService, logger))
		workUnits.GET("", listWorkUnitsHandler(assignmentService, logger))
		workUnits.GET("/available", listAvailableWorkHandler(assignmentService, logger))
		workUnits.GET("/:workId", getWorkUnitHandler(assignmentService, logger))
		workUnits.POST("/:workId/claim", claimWorkHandler(assignmentService, logger))
		workUnits.POST("/:workId/queue-claim", queueClaimWorkHandler(assignmentQueue, logger))
		workUnits.POST("/:workId/release", releaseWorkHandler(assignmentService, logger))
		workUnits.POST("/:workId/start", startWorkHandler(assignmentService, logger))
		workUnits.POST("/:workId/complete", completeWorkHandler(assignmentService, logger))
	}

	damageReports := apiV1.Group("/damage-reports")
	{
		damageReports.POST("", submitDamageReportHandler(damageService, logger))
		damageReports.GET("", listDamageReportsHandler(damageService, logger))
		damageReports.GET("/:reportId", getDamageReportHandler(damageService, logger))
		damageReports.POST("/:reportId/acknowledge", acknowledgeReportHandler(damageService, logger))
		damageReports.POST("/:reportId/rework/start", startReworkHandler(damageService, logger))
		damageReports.POST("/:reportId/rework/complete", completeReworkHandler(damageService, logger))
		damageReports.POST("/:reportId/return", returnToOperatorHandler(damageService, logger))
		damageReports.POST("/:reportId/finalize", finalizeReportHandler(damageService, logger))
		damageReports.POST("/:reportId/cancel", cancelReportHandler(damageService, logger))
		damageReports.POST("/:reportId/reject", rejectReportHandler(damageService, logger))
	}

	apiV1.GET("/damage-types", listDamageTypesHandler(damageService))

	operators := apiV1.Group("/operators")
	{
		operators.GET("/:operatorId/work-units", listOperatorWorkHandler(assignmentService, logger))
		operators.GET("/:operatorId/wallet", getWalletHandler(walletService, logger))
		operators.GET("/:operatorId/wallet/held-bundles", getHeldBundlesHandler(walletService, logger))
		operators.GET("/:operatorId/wallet/ledger", getLedgerHandler(walletService, logger))
	}

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}
