package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/erp/ledger-engine/internal/application/common"
	financeapp "github.com/erp/ledger-engine/internal/application/finance"
	inventoryapp "github.com/erp/ledger-engine/internal/application/inventory"
	tradeapp "github.com/erp/ledger-engine/internal/application/trade"
	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/domain/shared/valueobject"
	"github.com/erp/ledger-engine/internal/infrastructure/auth"
	"github.com/erp/ledger-engine/internal/infrastructure/cache"
	"github.com/erp/ledger-engine/internal/infrastructure/config"
	"github.com/erp/ledger-engine/internal/infrastructure/event"
	"github.com/erp/ledger-engine/internal/infrastructure/idgen"
	"github.com/erp/ledger-engine/internal/infrastructure/logger"
	"github.com/erp/ledger-engine/internal/infrastructure/migration"
	"github.com/erp/ledger-engine/internal/infrastructure/persistence"
	"github.com/erp/ledger-engine/internal/infrastructure/telemetry"
	"github.com/erp/ledger-engine/internal/interfaces/http/handler"
	"github.com/erp/ledger-engine/internal/interfaces/http/middleware"
	"github.com/erp/ledger-engine/internal/interfaces/http/router"
	"github.com/erp/ledger-engine/migrations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Ledger Engine API
//	@version		1.0
//	@description	Order lifecycle, inventory and ledger consistency engine

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
		Env:        cfg.App.Env,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	// Telemetry comes first so the bridged logger is used everywhere else
	providers, err := telemetry.NewProviders(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = telemetry.BridgeLogger(log, providers, zapcore.InfoLevel)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingEndpoint,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", zap.Error(err))
	} else {
		defer func() { _ = profiler.Stop() }()
		if profiler.IsEnabled() {
			providers.EnableSpanProfiles()
		}
	}

	log.Info("Starting ledger engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithVersionMissLogging(cfg.Log.Level == "debug"))
	db, err := persistence.Open(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	sqlDB, err := db.SQL()
	if err != nil {
		log.Fatal("Failed to access database handle", zap.Error(err))
	}
	// The migrator is left open: closing it would close sqlDB as well
	migrator, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Up(); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Policies
	retry := common.RetryConfig{MaxRetries: cfg.Engine.MaxRetries, Backoff: cfg.Engine.RetryBackoff}
	baseCurrency, err := valueobject.ParseCurrency(cfg.Ledger.BaseCurrency)
	if err != nil {
		log.Fatal("Invalid base currency", zap.Error(err))
	}
	taxPolicy, err := finance.NewTaxPolicy(cfg.Invoice.TaxRate)
	if err != nil {
		log.Fatal("Invalid tax policy", zap.Error(err))
	}
	numbers, err := idgen.NewSnowflakeNumberGenerator(cfg.Engine.NodeID)
	if err != nil {
		log.Fatal("Failed to create document number generator", zap.Error(err))
	}
	authorizer := auth.NewCapabilityAuthorizer(log)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Repositories
	accountRepo := persistence.NewGormBankAccountRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	stockItemRepo := persistence.NewGormStockItemRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	salesOrderRepo := persistence.NewGormSalesOrderRepository(db.DB)

	// Application services
	ledgerService := financeapp.NewLedgerService(txScope, accountRepo, transactionRepo, authorizer, financeapp.LedgerConfig{
		BaseCurrency: baseCurrency,
		Overdraft:    finance.OverdraftPolicy{AllowOverdraft: cfg.Ledger.AllowOverdraft},
		Retry:        retry,
	})
	invoiceService := financeapp.NewInvoiceService(txScope, invoiceRepo, ledgerService, numbers, authorizer, financeapp.InvoiceConfig{
		TaxPolicy:    taxPolicy,
		PaymentTerms: cfg.Invoice.PaymentTerms(),
		Retry:        retry,
	})
	expenseService := financeapp.NewExpenseService(txScope, expenseRepo, ledgerService, authorizer, retry)
	dashboardService := financeapp.NewDashboardService(txScope, baseCurrency)

	stockTracker := inventoryapp.NewStockTracker(txScope, stockItemRepo, movementRepo, authorizer, retry)
	reorderPolicy := tradeapp.NewReorderPolicy(numbers, log)
	stockTracker.SetReorderer(reorderPolicy)

	workflowService := tradeapp.NewWorkflowService(txScope, purchaseOrderRepo, salesOrderRepo,
		stockTracker, invoiceService, reorderPolicy, numbers, authorizer, retry)

	// Business metrics
	var businessMetrics *telemetry.BusinessMetrics
	if cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:             providers.Meter("ledger-engine/business"),
			Logger:            log,
			InventoryProvider: telemetry.NewGormInventoryMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Business metrics unavailable", zap.Error(err))
		} else {
			businessMetrics.StartPeriodicCollection(context.Background(), 0)
			defer businessMetrics.Stop()
			ledgerService.SetBusinessMetrics(businessMetrics)
			invoiceService.SetBusinessMetrics(businessMetrics)
			stockTracker.SetBusinessMetrics(businessMetrics)
			workflowService.SetBusinessMetrics(businessMetrics)
		}
	}

	// Idempotency store backs both the Idempotency-Key middleware and event
	// deduplication
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).
		CreateStore(context.Background())
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() { _ = idempotencyStore.Close() }()

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	lowStockHandler := inventoryapp.NewStockBelowThresholdHandler(log).
		WithNotifier(inventoryapp.NewLoggingStockAlertNotifier(log))
	if businessMetrics != nil {
		lowStockHandler = lowStockHandler.WithBusinessMetrics(businessMetrics)
	}
	eventBus.Subscribe(event.NewIdempotentHandler(lowStockHandler, idempotencyStore, log))
	log.Info("Event handlers registered",
		zap.Strings("stock_below_threshold_events", lowStockHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	for _, svc := range []interface {
		SetEventPublisher(shared.EventPublisher)
		SetLogger(*zap.Logger)
	}{ledgerService, invoiceService, expenseService, stockTracker, workflowService} {
		svc.SetEventPublisher(eventBus)
		svc.SetLogger(log)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request ID feeds the logger, the tracing span must
	// exist before it is enriched, and authentication runs last so rejected
	// requests are still logged and traced.
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanEnricher(),
		middleware.SpanErrorMarker(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Authenticate(middleware.AuthConfig{
			Tokens:       auth.NewTokenService(cfg.JWT),
			TrustHeaders: cfg.JWT.TrustHeaders,
			SkipPaths:    []string{"/health"},
			Logger:       log,
		}),
	)

	var idempotent gin.HandlerFunc
	if cfg.Idempotency.Enabled {
		idempotent = middleware.IdempotencyKey(idempotencyStore, shared.IdempotencyConfig{
			TTL:     cfg.Idempotency.TTL,
			Enabled: true,
		}, log)
	}

	r := router.Mount(engine, router.Handlers{
		PurchaseOrders: handler.NewPurchaseOrderHandler(workflowService, invoiceService),
		SalesOrders:    handler.NewSalesOrderHandler(workflowService, invoiceService),
		Stock:          handler.NewStockHandler(stockTracker),
		Invoices:       handler.NewInvoiceHandler(invoiceService),
		BankAccounts:   handler.NewBankAccountHandler(ledgerService),
		Expenses:       handler.NewExpenseHandler(expenseService),
		Dashboard:      handler.NewDashboardHandler(dashboardService),
		System:         handler.NewSystemHandler(db, version),
	}, router.MountOptions{Idempotent: idempotent})

	for _, route := range r.Routes() {
		log.Debug("Route registered",
			zap.String("method", route.Method),
			zap.String("path", route.Path),
			zap.Bool("idempotency_guard", route.Guarded),
		)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
