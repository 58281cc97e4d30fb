// Package export renders usage-ledger records as spreadsheet files for
// billing reconciliation.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"docflow/internal/domain"
)

const usageSheet = "Usage"

// columns defines the header row for the usage export.
var columns = []string{
	"Job ID",
	"Provider",
	"Model Version",
	"Pages Processed",
	"File Size (bytes)",
	"Input Tokens",
	"Output Tokens",
	"Processing (ms)",
	"Cost (cents)",
	"Recorded At",
}

// WriteUsageXLSX writes a tenant's usage records to w as an XLSX workbook,
// one row per ledger entry in the order given.
func WriteUsageXLSX(w io.Writer, records []domain.UsageRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), usageSheet)

	for col, name := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(usageSheet, cell, name); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, rec := range records {
		row := []interface{}{
			rec.JobID.String(),
			rec.Provider,
			rec.ModelVersion,
			rec.PagesProcessed,
			rec.FileSizeBytes,
			rec.InputTokens,
			rec.OutputTokens,
			rec.ProcessingMS,
			rec.CostCents,
			rec.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(usageSheet, cell, value); err != nil {
				return fmt.Errorf("writing row %d: %w", i, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
