package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/agriarche/price-intel/internal/forecast"
	"github.com/agriarche/price-intel/internal/publisher"
	"github.com/agriarche/price-intel/pkg/config"
	"github.com/agriarche/price-intel/pkg/logger"
	"github.com/agriarche/price-intel/pkg/model"
)

func main() {
	dataPath := flag.String("data", "", "training workbook or CSV (default: discover under data dir)")
	outDir := flag.String("out", "", "artifact output directory (default: ARTIFACTS_DIR)")
	noPublish := flag.Bool("no-publish", false, "skip the NATS completion event")
	flag.Parse()

	cfg := config.Load()
	cfg.ServiceName = "forecast-trainer"

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [forecast-trainer]...")

	path := *dataPath
	if path == "" {
		found, ok := forecast.LocateTrainingData(cfg.DataDir)
		if !ok {
			logg.Fatalw("no training data found", "dir", cfg.DataDir)
		}
		path = found
	}

	artifacts := *outDir
	if artifacts == "" {
		artifacts = cfg.ArtifactsDir
	}

	trainer := forecast.NewTrainer(logger.L())
	report, err := trainer.Train(path, artifacts)
	if err != nil {
		if errors.Is(err, forecast.ErrTrainingDataInsufficient) {
			logg.Errorw("not enough training data", "path", path, "error", err)
			os.Exit(2)
		}
		logg.Fatalw("training failed", "path", path, "error", err)
	}

	logg.Infow("training complete",
		"rows_processed", report.RowsProcessed,
		"unique_commodities", report.UniqueCommodities,
		"mae", report.MAE,
		"rmse", report.RMSE,
		"artifacts", artifacts)

	if *noPublish {
		return
	}

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		logg.Warnw("failed to connect to NATS; skipping completion event", "error", err)
		return
	}
	defer nc.Drain()

	pub, err := publisher.New(nc, model.SubjectForecastCompleted, cfg.ServiceName)
	if err != nil {
		logg.Warnw("failed to init publisher; skipping completion event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pub.PublishForecastCompleted(ctx, model.ForecastCompletedEvent{
		RowsProcessed:     report.RowsProcessed,
		UniqueCommodities: report.UniqueCommodities,
		MAE:               report.MAE,
		RMSE:              report.RMSE,
		ArtifactsDir:      artifacts,
		CompletedAt:       time.Now().UTC(),
	}); err != nil {
		logg.Warnw("failed to publish completion event", "error", err)
	}
}
