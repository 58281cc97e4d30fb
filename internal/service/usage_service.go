package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"docflow/internal/domain"
	"docflow/internal/export"
	"docflow/internal/port"
)

// UsageService serves the usage ledger: billing reads and spreadsheet
// exports over a tenant's records in a time range.
type UsageService interface {
	ListUsage(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]domain.UsageRecord, error)
	ExportUsageXLSX(ctx context.Context, tenantID uuid.UUID, from, to time.Time, w io.Writer) error
}

type usageService struct {
	usageRepo port.UsageRepository
}

// NewUsageService creates a new UsageService implementation.
func NewUsageService(usageRepo port.UsageRepository) UsageService {
	return &usageService{usageRepo: usageRepo}
}

func (s *usageService) ListUsage(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]domain.UsageRecord, error) {
	return s.usageRepo.ListByTenant(ctx, tenantID, from, to)
}

// ExportUsageXLSX writes the tenant's ledger rows for [from, to) to w as an
// XLSX workbook for billing reconciliation.
func (s *usageService) ExportUsageXLSX(ctx context.Context, tenantID uuid.UUID, from, to time.Time, w io.Writer) error {
	records, err := s.usageRepo.ListByTenant(ctx, tenantID, from, to)
	if err != nil {
		return fmt.Errorf("listing usage: %w", err)
	}

	if err := export.WriteUsageXLSX(w, records); err != nil {
		return fmt.Errorf("exporting usage: %w", err)
	}

	log.Printf("usageService.ExportUsageXLSX: exported %d records for tenant %s", len(records), tenantID)
	return nil
}
