package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appledger "github.com/ironstore/backend/internal/application/ledger"
	"github.com/ironstore/backend/internal/infrastructure/cache"
	"github.com/ironstore/backend/internal/infrastructure/config"
	"github.com/ironstore/backend/internal/infrastructure/event"
	"github.com/ironstore/backend/internal/infrastructure/logger"
	"github.com/ironstore/backend/internal/infrastructure/persistence"
	"github.com/ironstore/backend/internal/infrastructure/persistence/models"
	"github.com/ironstore/backend/internal/infrastructure/telemetry"
	"github.com/ironstore/backend/internal/interfaces/http/handler"
	"github.com/ironstore/backend/internal/interfaces/http/middleware"
	"github.com/ironstore/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

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

	log.Info("Starting Ironstore Ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing. With telemetry disabled this is a no-op provider.
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

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

	if cfg.Telemetry.Enabled {
		if err := telemetry.RegisterDBTracing(db.DB, cfg.Database.Driver, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	// Schema sync for development setups. Production deployments run the
	// versioned SQL migrations via cmd/migrate instead.
	if cfg.Database.AutoMigrate {
		if err := db.DB.AutoMigrate(
			&models.CounterpartyModel{},
			&models.CreditTransactionModel{},
			&models.DocumentModel{},
			&models.DocumentLineModel{},
			&models.LedgerEntryModel{},
			&models.PaymentModel{},
			&models.PaymentAllocationModel{},
			&models.ReturnModel{},
			&models.ReturnItemModel{},
			&models.AuditNoteModel{},
		); err != nil {
			log.Fatal("Failed to auto-migrate schema", zap.Error(err))
		}
		log.Info("Schema auto-migration completed")
	}

	// Balance cache: Redis when configured, otherwise an in-process cache.
	// Both are invalidated through the same balance-changed event handler.
	var balanceCache appledger.BalanceCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisBalanceCache(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Cache.KeyPrefix, cfg.Cache.BalanceTTL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("Error closing Redis cache", zap.Error(err))
			}
		}()
		balanceCache = redisCache
		log.Info("Redis balance cache enabled", zap.String("addr", cfg.Redis.Addr()))
	} else {
		memCache := cache.NewInMemoryBalanceCache(cfg.Cache.BalanceTTL)
		defer func() {
			if err := memCache.Close(); err != nil {
				log.Error("Error closing balance cache", zap.Error(err))
			}
		}()
		balanceCache = memCache
		log.Info("In-memory balance cache enabled", zap.Duration("ttl", cfg.Cache.BalanceTTL))
	}

	// Initialize repositories for the read-only services. Write paths get
	// their repositories from the transaction scope instead.
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	entryRepo := persistence.NewGormLedgerEntryRepository(db.DB)
	auditRepo := persistence.NewGormAuditTrailRepository(db.DB)
	counterpartyRepo := persistence.NewGormCounterpartyRepository(db.DB)
	creditTxRepo := persistence.NewGormCreditTransactionRepository(db.DB)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Balance changed -> cached projection invalidation
	invalidationHandler := cache.NewBalanceInvalidationHandler(balanceCache, log)
	eventBus.Subscribe(invalidationHandler)

	log.Info("Event handlers registered",
		zap.Strings("balance_invalidation_events", invalidationHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Transaction coordinator: every ledger write sequence runs inside one
	// Execute call and commits or rolls back as a unit
	txScope := persistence.NewGormLedgerTransactionScope(db.DB)

	// Initialize application services
	documentService := appledger.NewDocumentService(txScope, eventBus, log)
	paymentService := appledger.NewPaymentService(txScope, eventBus, log)
	returnService := appledger.NewReturnService(txScope, eventBus, log)
	adjustmentService := appledger.NewAdjustmentService(txScope, eventBus, log)
	balanceService := appledger.NewBalanceService(documentRepo, entryRepo, auditRepo, balanceCache, log)
	counterpartyService := appledger.NewCounterpartyService(counterpartyRepo, creditTxRepo, eventBus, log)

	// Initialize HTTP handlers
	documentHandler := handler.NewDocumentHandler(documentService, balanceService, adjustmentService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	returnHandler := handler.NewReturnHandler(returnService)
	counterpartyHandler := handler.NewCounterpartyHandler(counterpartyService, balanceService)
	systemHandler := handler.NewSystemHandler(db)

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

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - Per-request spans, error status for 4xx/5xx
	// 4. Logger - Log requests
	// 5. Security - Add security headers
	// 6. Limits - Request body size and per-IP rate limiting
	// 7. CORS - Handle cross-origin requests
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.App.Name,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))
	engine.Use(middleware.RateLimit(middleware.NewRateLimiter(300, time.Minute)))

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Documents: creation, lookup, deletion and the per-document read
	// surfaces (balance projection, ledger history, audit trail) plus
	// manual adjustments
	documentRoutes := router.NewDomainGroup("documents", "/documents")
	documentRoutes.POST("", documentHandler.Create)
	documentRoutes.GET("", documentHandler.List)
	documentRoutes.GET("/:id", documentHandler.GetByID)
	documentRoutes.DELETE("/:id", documentHandler.Delete)
	documentRoutes.GET("/:id/balance", documentHandler.Balance)
	documentRoutes.GET("/:id/ledger", documentHandler.Ledger)
	documentRoutes.GET("/:id/audit", documentHandler.AuditTrail)
	documentRoutes.POST("/:id/adjustments", documentHandler.Adjust)

	// Payments: targeted or FIFO application against open documents
	paymentRoutes := router.NewDomainGroup("payments", "/payments")
	paymentRoutes.POST("", paymentHandler.Apply)

	// Returns: validated credits against a settled or partially paid document
	returnRoutes := router.NewDomainGroup("returns", "/returns")
	returnRoutes.POST("", returnHandler.Process)

	// Counterparties: customers and vendors, their open documents in FIFO
	// order and their advance-credit history
	counterpartyRoutes := router.NewDomainGroup("counterparties", "/counterparties")
	counterpartyRoutes.POST("", counterpartyHandler.Create)
	counterpartyRoutes.GET("", counterpartyHandler.List)
	counterpartyRoutes.GET("/:id", counterpartyHandler.GetByID)
	counterpartyRoutes.GET("/:id/documents/open", counterpartyHandler.OpenDocuments)
	counterpartyRoutes.GET("/:id/credits", counterpartyHandler.CreditHistory)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	// Register all domain groups
	r.Register(documentRoutes).
		Register(paymentRoutes).
		Register(returnRoutes).
		Register(counterpartyRoutes).
		Register(systemRoutes)

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
