package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/agriarche/price-intel/internal/analysis"
	"github.com/agriarche/price-intel/internal/api"
	"github.com/agriarche/price-intel/internal/httpclient"
	"github.com/agriarche/price-intel/internal/ingest"
	"github.com/agriarche/price-intel/internal/jobs"
	"github.com/agriarche/price-intel/internal/publisher"
	"github.com/agriarche/price-intel/internal/rate"
	internalsecrets "github.com/agriarche/price-intel/internal/secrets"
	"github.com/agriarche/price-intel/internal/store"
	"github.com/agriarche/price-intel/internal/taxonomy"
	"github.com/agriarche/price-intel/pkg/config"
	"github.com/agriarche/price-intel/pkg/logger"
	"github.com/agriarche/price-intel/pkg/model"
	"github.com/agriarche/price-intel/pkg/secrets"
	"github.com/agriarche/price-intel/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [price-intel]...")

	// --- Resolve Postgres DSN (env var or AWS Secrets Manager) ---
	dsn := cfg.DatabaseURL
	if dsn == "" && cfg.UseAWSSecrets {
		awsProvider, err := secrets.NewAWSProvider(cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to create AWS Secrets Manager provider", "error", err)
		}

		dsnCache := secrets.NewCache[string](cfg.CacheTTL)
		stopCleaner := make(chan struct{})
		defer close(stopCleaner)
		go dsnCache.StartCleaner(cfg.CleanupFreq, stopCleaner)

		resolver := internalsecrets.NewDSNResolver(logg.Desugar(), cfg.Env, awsProvider, dsnCache)
		dsn, err = resolver.Resolve(ctx)
		if err != nil {
			logg.Fatalw("failed to resolve DSN from AWS Secrets Manager", "error", err)
		}
	}
	if dsn != "" {
		logg.Info("connection to DSN: ", utils.MaskDSN(dsn))
	} else {
		logg.Warn("no DATABASE_URL configured; archival and summary projection disabled")
	}

	// --- Connect to NATS ---
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		logg.Fatalw("failed to connect to NATS", "error", err)
	}

	// --- Publisher ---
	pub, err := publisher.New(nc, model.SubjectDatasetReloaded, cfg.ServiceName)
	if err != nil {
		logg.Fatalw("failed to init publisher", "error", err)
	}

	// --- Store (Redis + Postgres hybrid) ---
	st, err := store.NewHybrid(cfg.RedisAddr, cfg.RedisDB, cfg.RedisPass, dsn, store.PGPoolConfig{
		MaxConns:          int32(cfg.PGMaxConns),
		MinConns:          int32(cfg.PGMinConns),
		MaxConnLifetime:   cfg.PGMaxConnLifetime,
		MaxConnIdleTime:   cfg.PGMaxConnIdleTime,
		HealthCheckPeriod: cfg.PGHealthCheckPeriod,
	}, logg.Desugar())
	if err != nil {
		logg.Fatalw("failed to init store", "error", err)
	}

	// --- Source file locations ---
	internalPath := cfg.InternalPath
	if internalPath == "" {
		if found, ok := ingest.LocateInternalFile(cfg.DataDir); ok {
			internalPath = found
		} else {
			logg.Warnw("no pricing workbook found under data dir", "dir", cfg.DataDir)
		}
	}

	// --- Loader + dataset refresher ---
	loader := ingest.NewLoader(logger.L())
	refresher := jobs.NewDatasetRefresher(
		logger.L(),
		loader,
		st,
		pub,
		internalPath,
		cfg.ExternalPath,
		cfg.RefreshInterval,
		cfg.SnapshotTTL,
	)
	go refresher.Start(ctx)

	// --- Market summary projection ---
	summaryJob := jobs.NewSummaryRefresher(
		logger.L(),
		refresher,
		st,
		pub,
		cfg.SummaryRefreshInterval,
	)
	go summaryJob.Start(ctx)

	// --- External export fetcher (optional) ---
	var fetcher *jobs.ExternalFetcher
	if cfg.ExternalFetchURL != "" {
		rateMgr := rate.NewManager(rate.Config{
			RequestsPerSecond: 1,
			Burst:             2,
		})
		executor := httpclient.New(logg.Desugar(), rateMgr, nil, cfg.ExternalFetchRetries, "external")
		fetcher = jobs.NewExternalFetcher(
			logger.L(),
			executor,
			cfg.ExternalFetchURL,
			cfg.ExternalPath,
			cfg.ExternalFetchInterval,
		)
		go fetcher.Start(ctx)
	} else {
		logg.Warn("EXTERNAL_FETCH_URL not configured; serving local scraped export only")
	}

	// --- Bag weight table for cross-source comparison ---
	weights := analysis.BagWeights{
		DefaultKg: cfg.BagWeightDefaultKg,
		Overrides: make(map[taxonomy.CommodityName]float64, len(cfg.BagWeightOverrides)),
	}
	for name, kg := range cfg.BagWeightOverrides {
		weights.Overrides[taxonomy.Normalize(name)] = kg
	}

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})

	handler := &api.Handler{
		Logger:  logger.L(),
		Data:    refresher,
		Weights: weights,
	}
	api.RegisterRoutes(app, handler, st)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[price-intel] running",
		"nats", cfg.NATSURL,
		"env", cfg.Env,
		"internal_path", internalPath,
		"external_path", cfg.ExternalPath,
		"refresh_interval", cfg.RefreshInterval)

	<-ctx.Done()
	logg.Info("shutting down [price-intel]...")

	refresher.Stop()
	summaryJob.Stop()
	if fetcher != nil {
		fetcher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber shutdown failed", "error", err)
	}

	if err := nc.Drain(); err != nil {
		logg.Warnw("NATS drain failed", "error", err)
	}
	st.Close()

	logg.Info("[price-intel] shutdown complete")
}
