package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/storefront/backend/internal/application/sync"
	"github.com/storefront/backend/internal/domain/supplier"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/cj"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database with the zap-backed gorm logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	variantRepo := persistence.NewGormVariantRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	mappingRepo := persistence.NewGormCategoryMappingRepository(db.DB)
	unmappedRepo := persistence.NewGormUnmappedCategoryRepository(db.DB)
	reviewRepo := persistence.NewGormProductReviewRepository(db.DB)
	credentialRepo := persistence.NewGormCredentialRepository(db.DB)
	eventRepo := persistence.NewGormWebhookEventRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Idempotency store: Redis when reachable, in-memory otherwise
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	)
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	// Supplier connection. The supplier id is stable per account so the
	// stored credential survives restarts.
	supplierID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("cj-dropshipping/"+cfg.Supplier.Email))
	if err := ensureCredential(context.Background(), credentialRepo, supplierID, &cfg.Supplier); err != nil {
		log.Fatal("failed to bootstrap supplier credential", zap.Error(err))
	}

	cjCfg := cj.NewCJConfig(cfg.Supplier.Email, cfg.Supplier.APIKey, supplier.Tier(cfg.Supplier.Tier))
	if cfg.Supplier.BaseURL != "" {
		cjCfg.APIBaseURL = cfg.Supplier.BaseURL
	}
	if err := cjCfg.Validate(); err != nil {
		log.Fatal("invalid supplier configuration", zap.Error(err))
	}

	authenticator, err := cj.NewCJAuthenticator(cjCfg)
	if err != nil {
		log.Fatal("failed to create supplier authenticator", zap.Error(err))
	}
	credentials := cj.NewCredentialManager(supplierID, credentialRepo, authenticator, log)
	dispatcher, err := cj.NewDispatcher(cjCfg, credentials, log)
	if err != nil {
		log.Fatal("failed to create supplier dispatcher", zap.Error(err))
	}
	gateway := cj.NewCJClient(dispatcher)

	// Application services
	catalogSync := appsync.NewCatalogSyncService(gateway, productRepo, variantRepo, mappingRepo, log)
	mapper := appsync.NewCategoryMapperService(productRepo, mappingRepo, unmappedRepo, categoryRepo, txScope, log)
	reconciler := appsync.NewReconciliationService(gateway, productRepo, variantRepo, log)
	webhookSvc := appsync.NewWebhookService(eventRepo, idempotencyStore, catalogSync, mapper, variantRepo, txScope, log,
		appsync.WithDedupTTL(cfg.Webhook.DedupTTL))
	orchestrator := appsync.NewSyncOrchestrator(
		supplierID, gateway, productRepo, variantRepo, reviewRepo, reconciler,
		appsync.DefaultOrchestratorConfig(), log,
	)

	// Scheduled syncs
	var syncScheduler *scheduler.SyncScheduler
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewSyncExecutor(catalogSync, orchestrator)
		syncScheduler, err = scheduler.NewSyncScheduler(scheduler.SyncSchedulerConfig{
			Enabled:           true,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}, executor, log)
		if err != nil {
			log.Fatal("failed to create sync scheduler", zap.Error(err))
		}
		syncScheduler.Start(context.Background())
		defer syncScheduler.Stop(context.Background())

		trigger := scheduler.NewIntervalTrigger(scheduler.IntervalTriggerConfig{
			CatalogSyncInterval:    cfg.Scheduler.CatalogSyncInterval,
			StockSyncInterval:      cfg.Scheduler.StockSyncInterval,
			ReviewSyncInterval:     cfg.Scheduler.ReviewSyncInterval,
			ReconciliationInterval: cfg.Scheduler.ReconciliationInterval,
			CheckInterval:          time.Minute,
		}, syncScheduler, supplierID, log)
		trigger.Start(context.Background())
		defer trigger.Stop(context.Background())

		log.Info("sync scheduler started",
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
			zap.Duration("stock_interval", cfg.Scheduler.StockSyncInterval),
		)
	} else {
		log.Info("sync scheduler disabled")
	}

	// Register the webhook callback with the supplier. Failure is logged
	// but does not prevent startup; push updates resume once registration
	// succeeds on a later launch.
	if cfg.Webhook.Enabled && cfg.Webhook.CallbackURL != "" {
		regCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := gateway.RegisterWebhook(regCtx, cfg.Webhook.CallbackURL); err != nil {
			log.Warn("failed to register webhook callback",
				zap.String("callback_url", cfg.Webhook.CallbackURL),
				zap.Error(err),
			)
		} else {
			log.Info("webhook callback registered", zap.String("callback_url", cfg.Webhook.CallbackURL))
		}
		cancel()
	}

	// Handlers
	webhookHandler := handler.NewWebhookHandler(webhookSvc, supplierID, cfg.Webhook.Enabled, log)
	syncHandler := handler.NewSyncHandler(syncScheduler, supplierID, cfg.Scheduler.Enabled)
	categoryHandler := handler.NewCategoryHandler(categoryRepo, mapper, supplierID)
	productHandler := handler.NewProductHandler(productRepo, variantRepo, reviewRepo, catalogSync, reconciler, supplierID)
	systemHandler := handler.NewSystemHandler()

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", healthHandler(db))

	// Supplier push notifications stay outside the versioned API surface;
	// the callback URL is registered upstream and must not change shape.
	// With webhooks disabled the handler refuses pushes before they reach
	// the ingestion pipeline.
	engine.POST("/webhooks/supplier", webhookHandler.Receive)

	catalogGroup := router.NewDomainGroup("catalog", "").
		GET("/products", productHandler.ListProducts).
		GET("/products/uncategorized", productHandler.ListUncategorized).
		GET("/products/:id", productHandler.GetProduct).
		GET("/products/:id/reviews", productHandler.ListReviews).
		POST("/products/:id/refresh", productHandler.RefreshProduct).
		POST("/variants/:id/verify", productHandler.VerifyVariant).
		GET("/categories", categoryHandler.ListCategories).
		GET("/categories/unmapped", categoryHandler.ListUnmapped).
		POST("/categories/unmapped/sync", categoryHandler.SyncUnmapped).
		POST("/categories/unmapped/ignore", categoryHandler.IgnoreUnmapped).
		POST("/categories/mappings", categoryHandler.ApplyMapping).
		GET("/categories/mappings/resolve", categoryHandler.ResolveMapping)

	syncGroup := router.NewDomainGroup("sync", "/sync").
		POST("/jobs", syncHandler.TriggerSync).
		GET("/jobs", syncHandler.ListJobs).
		GET("/status", syncHandler.GetStatus).
		GET("/webhooks/rejected", webhookHandler.ListRejected)

	systemGroup := router.NewDomainGroup("system", "/system").
		GET("/info", systemHandler.GetSystemInfo).
		GET("/ping", systemHandler.Ping)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(catalogGroup).
		Register(syncGroup).
		Register(systemGroup).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

// ensureCredential makes sure a credential row exists for the configured
// supplier account. A changed API key replaces the stored secret and drops
// any tokens issued against the old one.
func ensureCredential(ctx context.Context, repo supplier.CredentialRepository, supplierID uuid.UUID, cfg *config.SupplierConfig) error {
	cred, err := repo.FindBySupplier(ctx, supplierID)
	if err != nil {
		if !errors.Is(err, supplier.ErrCredentialNotFound) {
			return err
		}
		cred, err = supplier.NewCredential(supplierID, cfg.Email, cfg.APIKey, supplier.Tier(cfg.Tier))
		if err != nil {
			return err
		}
		return repo.Save(ctx, cred)
	}

	changed := false
	if cred.APIKey != cfg.APIKey {
		cred.APIKey = cfg.APIKey
		cred.ClearTokens()
		changed = true
	}
	if tier := supplier.Tier(cfg.Tier); tier.IsValid() && cred.Tier != tier {
		cred.Tier = tier
		changed = true
	}
	if !changed {
		return nil
	}
	cred.UpdatedAt = time.Now()
	return repo.Save(ctx, cred)
}

func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			log.Error("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}
