package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"docflow/internal/config"
	"docflow/internal/repository/postgres"
	"docflow/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		tenantFlag = flag.String("tenant", "", "tenant id (required)")
		fromFlag   = flag.String("from", "", "range start, YYYY-MM-DD (required)")
		toFlag     = flag.String("to", "", "range end, YYYY-MM-DD, exclusive (required)")
		outFlag    = flag.String("out", "usage.xlsx", "output file")
	)
	flag.Parse()

	tenantID, err := uuid.Parse(*tenantFlag)
	if err != nil {
		return fmt.Errorf("invalid -tenant: %w", err)
	}
	from, err := time.Parse("2006-01-02", *fromFlag)
	if err != nil {
		return fmt.Errorf("invalid -from: %w", err)
	}
	to, err := time.Parse("2006-01-02", *toFlag)
	if err != nil {
		return fmt.Errorf("invalid -to: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	usageSvc := service.NewUsageService(postgres.NewUsageRepo(db))

	f, err := os.Create(*outFlag)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *outFlag, err)
	}
	defer f.Close()

	if err := usageSvc.ExportUsageXLSX(context.Background(), tenantID, from, to, f); err != nil {
		return err
	}

	log.Printf("usagereport: wrote %s for tenant %s (%s to %s)", *outFlag, tenantID, *fromFlag, *toFlag)
	return nil
}
