package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/emilydias-boop/mcf-insight-hub/internal/adapters/cache"
	"github.com/emilydias-boop/mcf-insight-hub/internal/adapters/postgres"
	"github.com/emilydias-boop/mcf-insight-hub/internal/config"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
	commissionHandler "github.com/emilydias-boop/mcf-insight-hub/internal/handlers/commission"
	cronHandler "github.com/emilydias-boop/mcf-insight-hub/internal/handlers/cron"
	payoutHandler "github.com/emilydias-boop/mcf-insight-hub/internal/handlers/payout"
	reportHandler "github.com/emilydias-boop/mcf-insight-hub/internal/handlers/report"
	commissionService "github.com/emilydias-boop/mcf-insight-hub/internal/services/commission"
	"github.com/emilydias-boop/mcf-insight-hub/internal/services/dedup"
	"github.com/emilydias-boop/mcf-insight-hub/internal/services/firstsale"
	payoutService "github.com/emilydias-boop/mcf-insight-hub/internal/services/payout"
	revenueService "github.com/emilydias-boop/mcf-insight-hub/internal/services/revenue"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/middleware"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/observability"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/resilience"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/shutdown"
)

// reportLocation is the business timezone for report day boundaries
const reportLocation = "America/Sao_Paulo"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logger)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting mcf-insight-hub",
		zap.String("version", "0.1.0"),
		zap.String("secrets_backend", cfg.Secrets.Backend),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(logger, 30*time.Second)

	secrets, err := initSecretReader(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init secrets backend: %w", err)
	}
	if err := resolveCredentials(ctx, cfg, secrets); err != nil {
		return err
	}

	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	logger.Info("Business rules loaded",
		zap.String("path", cfg.RulesPath),
		zap.Strings("ladders", rules.LadderNames()),
	)

	dbPool, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	shutdownMgr.RegisterNoErr("postgres", dbPool.Close)

	redisClient, store, err := initFirstSaleStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init first-sale store: %w", err)
	}
	if redisClient != nil {
		shutdownMgr.RegisterCloser("redis", redisClient)
	}

	timeouts := resilience.DefaultTimeoutConfig()
	dbExec := postgres.NewDBExecutor(dbPool)
	txRepo := postgres.NewTransactionRepository(dbExec)
	payoutRepo := postgres.NewPayoutRepository(dbExec)

	deduplicator := dedup.NewDeduplicator(rules.Catalog, logger)
	refresher := firstsale.NewRefresher(dbExec, txRepo, store, deduplicator, firstsale.Config{
		Timeouts:    timeouts,
		PageSize:    cfg.Refresh.PageSize,
		MaxAttempts: cfg.Refresh.MaxAttempts,
	}, logger)

	payouts := payoutService.NewPayoutService(dbExec, payoutRepo, rules, logger)
	commissions := commissionService.NewCommissionService(rules.Schedule, logger)
	revenue := revenueService.NewRevenueService(txRepo, refresher, deduplicator, logger)

	loc, err := time.LoadLocation(reportLocation)
	if err != nil {
		logger.Warn("Report timezone unavailable, using UTC", zap.Error(err))
		loc = time.UTC
	}

	mux := http.NewServeMux()
	payoutHandler.NewHandler(payouts, timeouts, logger).RegisterRoutes(mux)
	commissionHandler.NewHandler(commissions, timeouts, logger).RegisterRoutes(mux)
	reportHandler.NewHandler(revenue, timeouts, loc, logger).RegisterRoutes(mux)
	cronHandler.NewFirstSaleHandler(refresher, logger, cfg.Server.CronSecret).RegisterRoutes(mux)

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, logger)
	shutdownMgr.RegisterNoErr("rate-limiter", rateLimiter.Shutdown)

	handler := middleware.Chain(mux,
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.SecurityHeaders(!cfg.Logger.Development),
		observability.HTTPMetricsMiddleware,
		rateLimiter.Middleware,
		middleware.Gzip("/cron/health"),
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      timeouts.Refresh + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	healthChecker := observability.NewHealthChecker(dbPool, redisClient)
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, logger)
	shutdownMgr.RegisterHTTPServer("metrics-server", metricsServer)
	logger.Info("Metrics server started", zap.Int("port", cfg.Server.MetricsPort))

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	shutdownMgr.RegisterHTTPServer("http-server", httpServer)

	if cfg.Refresh.Interval > 0 {
		refresher.Start(ctx, cfg.Refresh.Interval)
		shutdownMgr.Register("first-sale-refresher", refresher.Stop)
	} else {
		logger.Info("Scheduled first-sale refresh disabled; relying on cron and on-demand rebuilds")
	}

	return shutdownMgr.WaitForShutdown(ctx)
}

// initLogger builds a production JSON logger, or a console logger in development
func initLogger(cfg config.LoggerConfig) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// initDatabase initializes the PostgreSQL connection pool
func initDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database.ConnectionString(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return nil, err
	}

	logger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
		zap.Int32("max_conns", cfg.Database.MaxConns),
	)
	return pool, nil
}

// initFirstSaleStore connects Redis when enabled, otherwise keeps the table in memory
func initFirstSaleStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, ports.FirstSaleStore, error) {
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled, first-sale table kept in process memory")
		return nil, cache.NewMemoryFirstSaleStore(), nil
	}

	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Redis connection established",
		zap.String("addr", cfg.Redis.Host+":"+cfg.Redis.Port),
		zap.String("key", cfg.Redis.Key),
	)
	return client, cache.NewRedisFirstSaleStore(client, cfg.Redis.Key, cfg.Redis.TTL, logger), nil
}
