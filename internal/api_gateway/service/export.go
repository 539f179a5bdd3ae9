package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/xuri/excelize/v2"
)

const (
	ledgerSheet     = "Ledger"
	exportBatchSize = 500
)

var ledgerHeader = []interface{}{
	"Session ID", "Investor ID", "Startup ID", "Amount", "Currency", "Status", "Source", "Recorded At",
}

// ExportLedger streams every record matching filter into a single sheet.
// Pages are walked by (created_at, id) so concurrent inserts cannot shift
// rows between batches. Amounts are written in major units.
func (s *ReportServiceImpl) ExportLedger(ctx context.Context, filter investment.LedgerFilter, w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close export workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return fmt.Errorf("failed to name export sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(ledgerSheet)
	if err != nil {
		return fmt.Errorf("failed to open export stream: %w", err)
	}
	if err := sw.SetRow("A1", ledgerHeader); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	row := 2
	var cursor *investment.LedgerCursor
	for {
		records, err := s.reportRepo.ListLedgerBefore(ctx, filter, cursor, exportBatchSize)
		if err != nil {
			return err
		}

		for _, rec := range records {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := sw.SetRow(cell, ledgerRow(rec)); err != nil {
				return fmt.Errorf("failed to write export row %d: %w", row, err)
			}
			row++
		}

		if len(records) < exportBatchSize {
			break
		}
		cursor = investment.CursorOf(records[len(records)-1])
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush export stream: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write export workbook: %w", err)
	}

	s.logger.Info("Ledger exported", "rows", row-2)
	return nil
}

func ledgerRow(rec *investment.Record) []interface{} {
	return []interface{}{
		rec.SessionID,
		rec.InvestorID,
		rec.StartupID.String(),
		decimal.New(rec.Amount, -2).InexactFloat64(),
		rec.Currency,
		string(rec.Status),
		string(rec.Source),
		rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}
