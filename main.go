package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"derivflow/config"
	"derivflow/logger"
	"derivflow/pipeline"
	"derivflow/reader/nse"
	"derivflow/schedule"
	"derivflow/writer"
)

const defaultConfigPath = "config/config.yml"

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(config.ResolveConfigPath(*configPath, defaultConfigPath))
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Derivflow.Name,
		"version": cfg.Derivflow.Version,
		"env":     config.AppEnvironment(),
	}).Info("starting derivflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.InitCloudWatch(cfg.Storage.S3.Region, cfg.Derivflow.Name, cfg.Logging.DashboardName)
		logger.StartReport(ctx, log, 30*time.Second)
	}

	client, err := nse.NewClient(cfg)
	if err != nil {
		log.WithError(err).Error("failed to create provider client")
		os.Exit(1)
	}
	// A failed warm-up is not fatal; the client re-warms on the next fetch.
	if err := client.Warm(ctx); err != nil {
		log.WithError(err).Warn("initial session warm-up failed")
	}

	snapshots, err := writer.NewSnapshotWriter(cfg.Snapshot)
	if err != nil {
		log.WithError(err).Error("failed to create snapshot writer")
		os.Exit(1)
	}

	var table *writer.TableWriter
	if cfg.Table.Enabled {
		table, err = writer.NewTableWriter(ctx, cfg.Table)
		if err != nil {
			log.WithError(err).Error("failed to create table writer")
			os.Exit(1)
		}
		defer table.Close()
	} else {
		log.WithComponent("main").Info("table sink disabled")
	}

	var mirror pipeline.Uploader
	if cfg.Storage.S3.Enabled {
		m, err := writer.NewMirror(cfg.Storage.S3)
		if err != nil {
			log.WithError(err).Error("failed to create S3 mirror")
			os.Exit(1)
		}
		mirror = m
	} else {
		log.WithComponent("main").Info("S3 mirror disabled")
	}

	runner, err := pipeline.NewRunner(cfg, client, snapshots, table, mirror, schedule.RealClock{})
	if err != nil {
		log.WithError(err).Error("failed to build pipeline")
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("pipeline terminated")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")
	cancel()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("derivflow stopped")
}
