package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apihttp "parking-cloud/internal/api/http"
	"parking-cloud/internal/audit"
	"parking-cloud/internal/auth"
	calendarapp "parking-cloud/internal/calendar/application"
	calendarrepo "parking-cloud/internal/calendar/infrastructure/postgres"
	calendarhttp "parking-cloud/internal/calendar/interfaces/http"
	"parking-cloud/internal/config"
	"parking-cloud/internal/eventing"
	eventingrepo "parking-cloud/internal/eventing/infrastructure/postgres"
	masterdatarepo "parking-cloud/internal/masterdata/infrastructure/postgres"
	"parking-cloud/internal/observability/metrics"
	tariffapp "parking-cloud/internal/tariff/application"
	tariff "parking-cloud/internal/tariff/domain"
	tariffcache "parking-cloud/internal/tariff/infrastructure/cache"
	tariffrepo "parking-cloud/internal/tariff/infrastructure/postgres"
	"parking-cloud/internal/tariff/infrastructure/yamlplan"
	tariffhttp "parking-cloud/internal/tariff/interfaces/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, config.Usage())
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("service stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	metrics.Init(db, logger)

	lotRepo := masterdatarepo.NewLotRepository(db)
	holidayRepo := calendarrepo.NewHolidayRepository(db)
	planRepo := tariffrepo.NewPlanRepository(db)
	configRepo := tariffrepo.NewConfigRepository(db)
	pricingSnapshotRepo := tariffrepo.NewPricingSnapshotRepository(db)
	auditRepo := audit.NewRepository(db)

	bus := eventing.NewInMemoryBus()
	publisher, err := eventing.NewPublisher(bus, eventingrepo.NewOutboxStore(db))
	if err != nil {
		return err
	}

	var snapshots tariff.SnapshotReader = tariffrepo.NewSnapshotReader(db)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, snapshot cache will fall back to postgres", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cache, err := tariffcache.NewSnapshotCache(snapshots, rdb,
			tariffcache.WithTTL(cfg.Tariff.CacheTTL),
			tariffcache.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		tariffapp.SubscribeSnapshotInvalidation(bus, cache)
		snapshots = cache
	}

	calendarService, err := calendarapp.NewService(holidayRepo, logger)
	if err != nil {
		return err
	}
	planService, err := tariffapp.NewPlanService(planRepo, lotRepo, publisher, tariffapp.WithPlanLogger(logger))
	if err != nil {
		return err
	}
	configService, err := tariffapp.NewConfigService(configRepo, lotRepo)
	if err != nil {
		return err
	}
	quoteService, err := tariffapp.NewQuoteService(lotRepo, configRepo, snapshots, calendarService,
		tariffapp.WithCurrency(cfg.Tariff.Currency),
		tariffapp.WithQuoteLogger(logger),
	)
	if err != nil {
		return err
	}
	snapshotService, err := tariffapp.NewSnapshotService(quoteService, pricingSnapshotRepo, tariffapp.SystemClock{}, logger)
	if err != nil {
		return err
	}

	if cfg.Tariff.SeedFile != "" {
		if err := importSeed(ctx, cfg.Tariff.SeedFile, lotRepo, configService, calendarService, planService, logger); err != nil {
			return err
		}
	}

	tariffHandler, err := tariffhttp.NewHandler(quoteService, planService, configService, snapshotService,
		tariffhttp.WithLotChecker(auth.NewLotCheckerWithRepository(lotRepo)),
		tariffhttp.WithAuditLogger(auditRepo),
		tariffhttp.WithLogger(logger),
		tariffhttp.WithMoneyFormat(tariffhttp.MoneyFormat{
			Currency: cfg.Tariff.Currency,
			Exponent: cfg.Tariff.CurrencyExponent,
		}),
	)
	if err != nil {
		return err
	}
	calendarHandler, err := calendarhttp.NewHandler(calendarService, auditRepo, logger)
	if err != nil {
		return err
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	router := apihttp.NewRouter(apihttp.RouterConfig{
		Auth:           auth.NewMiddleware([]byte(cfg.JWTSecret), policy, logger),
		Tariff:         tariffHandler,
		Calendar:       calendarHandler,
		Ready:          db.PingContext,
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}

func importSeed(
	ctx context.Context,
	path string,
	lots yamlplan.LotWriter,
	configs yamlplan.ConfigWriter,
	holidays yamlplan.HolidayWriter,
	plans yamlplan.PlanWriter,
	logger *zap.Logger,
) error {
	file, err := yamlplan.Load(path)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	importer, err := yamlplan.NewImporter(lots, configs, holidays, plans, logger)
	if err != nil {
		return err
	}
	res, err := importer.Import(ctx, file)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	logger.Info("seed imported",
		zap.String("file", path),
		zap.Int("lots", res.Lots),
		zap.Int("holidays", res.Holidays),
		zap.Int("plans_created", res.PlansCreated),
		zap.Int("plans_skipped", res.PlansSkipped),
	)
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	if err := zcfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return zcfg.Build()
}
