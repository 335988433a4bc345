package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	eventapp "github.com/crm/backend/internal/application/event"
	partnerapp "github.com/crm/backend/internal/application/partner"
	promotionapp "github.com/crm/backend/internal/application/promotion"
	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/analytics"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/event"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/notification"
	"github.com/crm/backend/internal/infrastructure/payment"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/retry"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
)

//	@title			CRM Backend API
//	@version		1.0
//	@description	Discount rule evaluation and application service for a small-business CRM

//	@contact.name	API Support
//	@contact.url	https://github.com/crm/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting CRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	leadRepo := persistence.NewGormLeadRepository(db.DB)
	applicationRepo := persistence.NewGormDiscountApplicationRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	var redisClient *redis.Client
	var ruleRepo promotion.DiscountRuleRepository = persistence.NewGormDiscountRuleRepository(db.DB)
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedisClient(
			fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		ruleRepo = cache.NewCachedDiscountRuleRepository(ruleRepo, redisClient, cfg.Cache.TTL, log)
		log.Info("Rule cache enabled", zap.Duration("ttl", cfg.Cache.TTL))
	}

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Discount application events are written to the outbox inside the same
	// transaction that records the application itself
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	applicationRepo.SetOutboxEventSaver(outboxPublisher)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Lead conversion reacts to applied discounts. The outbox processor may
	// redeliver after a crash, so the handler is wrapped with an idempotency
	// check keyed by event ID.
	var idempotencyStore shared.IdempotencyStore = cache.NewInMemoryIdempotencyStore()
	if redisClient != nil {
		idempotencyStore = cache.NewRedisIdempotencyStoreWithClient(redisClient, "")
	}
	leadConvertedHandler := event.NewIdempotentHandler(
		partnerapp.NewDiscountAppliedHandler(leadRepo, log),
		idempotencyStore,
		log,
	)
	eventBus.Subscribe(leadConvertedHandler, promotion.EventTypeDiscountApplied)

	// Outbox processor reads events from the outbox table and publishes
	// them to the event bus
	outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
	if err := outboxProcessor.Start(context.Background()); err != nil {
		log.Fatal("Failed to start outbox processor", zap.Error(err))
	}
	defer func() {
		if err := outboxProcessor.Stop(context.Background()); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}()
	log.Info("Outbox processor started",
		zap.Int("batch_size", outboxProcessorConfig.BatchSize),
		zap.Duration("poll_interval", outboxProcessorConfig.PollInterval),
	)

	// Provider gateway for syncing discounted totals to external invoicing
	providerGateway, err := payment.NewProviderGateway(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize provider gateway", zap.Error(err))
	}

	// Client notification dispatcher (email and WhatsApp)
	notifier := notification.NewDispatcherFromConfig(cfg.Notification, log)

	// Analytics recorder and retryer for the best-effort tail
	analyticsRecorder := analytics.NewGormRecorder(db.DB)
	retryer := retry.NewBackoffRetryer(cfg.Retry, log)

	// Initialize application services
	eligibilityService := promotionapp.NewEligibilityService(ruleRepo, invoiceRepo)
	ruleService := promotionapp.NewDiscountRuleService(ruleRepo)
	applicationService := promotionapp.NewDiscountApplicationService(
		invoiceRepo, leadRepo, applicationRepo, eligibilityService,
		providerGateway, notifier, analyticsRecorder, retryer, eventBus, log,
	)

	// JWT service for authentication
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	discountHandler := handler.NewDiscountHandler(applicationService)
	ruleHandler := handler.NewRuleHandler(ruleService)
	systemHandler := handler.NewSystemHandler()
	outboxHandler := handler.NewOutboxHandler(eventapp.NewOutboxService(outboxRepo, log))
	leadImportHandler := handler.NewLeadImportHandler(leadRepo, log)
	defer leadImportHandler.Stop()
	reportHandler := handler.NewReportHandler(
		persistence.NewGormDiscountReportRepository(db.DB),
		persistence.NewGormLeadReportRepository(db.DB),
	)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Tracing spans are no-ops until an OpenTelemetry SDK exporter is installed
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.App.Name,
		Enabled:     true,
	}))
	engine.Use(middleware.SpanErrorMarker())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// JWT authentication for API routes; the header-based owner fallback
	// below only applies to requests that passed or skipped this gate
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Owner resolution: JWT claims first, X-Owner-ID header in development
	ownerConfig := middleware.DefaultOwnerConfig()
	ownerConfig.HeaderEnabled = cfg.App.Env != "production"
	ownerConfig.SkipPaths = append(ownerConfig.SkipPaths,
		"/api/v1/ping", "/api/v1/system/ping", "/api/v1/system/info")
	ownerConfig.Logger = log
	engine.Use(middleware.OwnerMiddlewareWithConfig(ownerConfig))
	engine.Use(middleware.TracingAttributeInjector())

	// Promotion domain (discount rules and applications)
	promotionRoutes := router.NewDomainGroup("promotion", "/promotion")
	promotionRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "promotion service ready"})
	})

	// Discount application routes
	promotionRoutes.POST("/discounts/apply", discountHandler.Apply)
	promotionRoutes.GET("/discounts/applications/:id", discountHandler.GetApplication)
	promotionRoutes.GET("/discounts/invoices/:invoice_id/application", discountHandler.GetApplicationByInvoice)

	// Discount rule routes
	promotionRoutes.POST("/rules", ruleHandler.Create)
	promotionRoutes.GET("/rules", ruleHandler.List)
	promotionRoutes.GET("/rules/:id", ruleHandler.Get)
	promotionRoutes.PUT("/rules/:id", ruleHandler.Update)
	promotionRoutes.POST("/rules/:id/activate", ruleHandler.Activate)
	promotionRoutes.POST("/rules/:id/deactivate", ruleHandler.Deactivate)

	// Reporting read models
	promotionRoutes.GET("/reports/discounts/summary", reportHandler.DiscountSummary)
	promotionRoutes.GET("/reports/discounts/daily", reportHandler.DailyDiscountTrend)
	promotionRoutes.GET("/reports/discounts/rules", reportHandler.RuleUsageRanking)
	promotionRoutes.GET("/reports/discounts/rule-types", reportHandler.SavingsByRuleType)

	r.Register(promotionRoutes)

	// Partner domain (leads)
	partnerRoutes := router.NewDomainGroup("partner", "/partner")
	partnerRoutes.POST("/import/leads/validate", leadImportHandler.ValidateLeads)
	partnerRoutes.POST("/import/leads", leadImportHandler.ImportLeads)
	partnerRoutes.GET("/reports/leads/funnel", reportHandler.LeadFunnel)
	partnerRoutes.GET("/reports/leads/referrals", reportHandler.ReferralRanking)
	r.Register(partnerRoutes)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/outbox/stats", outboxHandler.GetStats)
	systemRoutes.GET("/outbox/dead", outboxHandler.GetDeadLetterEntries)
	systemRoutes.POST("/outbox/dead/retry-all", outboxHandler.RetryAllDeadEntries)
	systemRoutes.GET("/outbox/:id", outboxHandler.GetEntry)
	systemRoutes.POST("/outbox/:id/retry", outboxHandler.RetryDeadEntry)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
