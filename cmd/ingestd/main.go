package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"docflow/internal/config"
	"docflow/internal/extractor/remote"
	"docflow/internal/repository/postgres"
	"docflow/internal/service"
	s3storage "docflow/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	profileRepo := postgres.NewProfileRepo(db)
	jobRepo := postgres.NewJobRepo(db)
	itemRepo := postgres.NewItemRepo(db)
	usageRepo := postgres.NewUsageRepo(db)

	// Initialize storage and extractor
	storage, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	extractor := remote.NewExtractor(&cfg.Extractor)

	// Initialize services
	ingestSvc := service.NewIngestService(jobRepo, itemRepo, usageRepo, profileRepo, storage, extractor)

	worker := service.NewIngestQueueWorker(jobRepo, ingestSvc, service.IngestQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		Concurrency:  cfg.Queue.Concurrency,
		JobTimeout:   time.Duration(cfg.Queue.JobTimeoutSecs) * time.Second,
	})
	sweeper := service.NewRetentionSweeper(jobRepo, storage,
		time.Duration(cfg.Retention.SweepIntervalSecs)*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweeper.Start(ctx)

	log.Printf("ingestd: worker starting")
	worker.Start(ctx)

	return nil
}
