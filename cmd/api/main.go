package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/clock"
	"github.com/BruksfildServices01/barber-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-booking/internal/db"
	domainPayment "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/infra/billing"
	infraLock "github.com/BruksfildServices01/barber-booking/internal/infra/lock"
	"github.com/BruksfildServices01/barber-booking/internal/infra/storage"
	"github.com/BruksfildServices01/barber-booking/internal/observability"
	"github.com/BruksfildServices01/barber-booking/internal/routes"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

func main() {

	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ======================================================
	// DATABASE
	// ======================================================
	db, err := dbpkg.NewDB(cfg, logger.Named("gorm"))
	if err != nil {
		return err
	}
	if err := dbpkg.Migrate(db); err != nil {
		return err
	}

	defaults, err := config.LoadBusinessDefaults(cfg.BusinessDefaultsFile)
	if err != nil {
		return err
	}
	if err := dbpkg.SeedSettings(ctx, db, defaults); err != nil {
		return err
	}

	loc := timezone.Location(cfg.Timezone)

	// ======================================================
	// METRICS
	// ======================================================
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics()
	if err := metrics.Register(registry); err != nil {
		return err
	}

	// ======================================================
	// OPTIONAL INTEGRATIONS
	// ======================================================
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infraLock.NewClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
	} else {
		logger.Warn("REDIS_URL not set, booking lock disabled")
	}

	var archiver domainPayment.Archiver
	if cfg.ArchiveBucket != "" {
		a, err := storage.NewS3Archive(storage.S3Config{
			Bucket:       cfg.ArchiveBucket,
			Region:       cfg.AWSRegion,
			AccessKey:    cfg.AWSAccessKey,
			SecretKey:    cfg.AWSSecretKey,
			Endpoint:     cfg.S3Endpoint,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			return err
		}
		archiver = a
	}

	var gateway domainPayment.BillingGateway
	if cfg.MercadoPagoToken != "" {
		mp, err := billing.NewMercadoPago(billing.MercadoPagoConfig{
			AccessToken: cfg.MercadoPagoToken,
			NotifyURL:   cfg.MercadoPagoNotifyURL,
			BackURL:     cfg.MercadoPagoBackURL,
		})
		if err != nil {
			return err
		}
		gateway = mp
	} else {
		logger.Warn("MERCADOPAGO_ACCESS_TOKEN not set, payment intents disabled")
	}

	if cfg.WebhookSecret == "" {
		logger.Warn("WEBHOOK_SECRET not set, webhook signatures are not verified")
	}

	auditDispatcher := audit.NewDispatcher(audit.New(db), logger)
	defer auditDispatcher.Close()

	// ======================================================
	// HTTP
	// ======================================================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		DB:       db,
		Config:   cfg,
		Log:      logger,
		Metrics:  metrics,
		Registry: registry,
		Audit:    auditDispatcher,
		Clock:    clock.NewSystem(loc),
		Location: loc,
		Redis:    rdb,
		Gateway:  gateway,
		Archiver: archiver,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", cfg.Addr()), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
