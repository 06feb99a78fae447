package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"ratesflow/config"
	"ratesflow/logger"
	"ratesflow/processor"
	"ratesflow/reader/cme"
	"ratesflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	logger.InitCloudWatch(cfg.Storage.DynamoDB.Region, "RatesFlow")

	runID := uuid.New().String()
	log.WithFields(logger.Fields{
		"service": cfg.Ratesflow.Name,
		"version": cfg.Ratesflow.Version,
		"run_id":  runID,
		"table":   cfg.Storage.DynamoDB.Table,
	}).Info("starting sofr strip pipeline")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// An unreachable store is the one fatal condition; nothing is fetched
	// before the table probe succeeds.
	store, err := writer.NewStoreWriter(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("store unavailable at startup")
		os.Exit(1)
	}

	resp, raw, err := cme.NewStripReader(cfg).Fetch(ctx)
	if err != nil {
		log.WithError(err).Error("strip-rate fetch failed; continuing with empty payload")
		resp = nil
	}

	archiveRaw(ctx, cfg, log, "cme_sofr_strip", raw)

	points := processor.NewStripNormalizer(cfg).Normalize(resp)

	written, err := store.WriteBatch(ctx, points)
	if err != nil {
		log.WithError(err).Error("batch write failed")
	}

	log.WithFields(logger.Fields{
		"run_id":        runID,
		"points":        len(points),
		"items_written": written,
	}).Info("sofr strip pipeline finished")
}

// archiveRaw uploads the raw payload when the archive is enabled. Failures
// are logged only; archival never blocks the pipeline.
func archiveRaw(ctx context.Context, cfg *config.Config, log *logger.Log, source string, raw []byte) {
	if !cfg.Storage.S3.Enabled || len(raw) == 0 {
		return
	}
	archiver, err := writer.NewRawArchiver(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("raw archiver unavailable")
		return
	}
	if err := archiver.Archive(ctx, source, raw); err != nil {
		log.WithError(err).Warn("raw payload archive failed")
	}
}
