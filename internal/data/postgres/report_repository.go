package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/platform/persistence"
)

// ReportRepository implements investment.ReportRepository. Every query is a
// live aggregate over investment records and never reads funding_received.
type ReportRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewReportRepository creates a new PostgreSQL reporting repository
func NewReportRepository(logger *slog.Logger, db *persistence.PostgresDB) investment.ReportRepository {
	return &ReportRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// ListCompletedByInvestor returns an investor's completed investments, newest first
func (r *ReportRepository) ListCompletedByInvestor(ctx context.Context, investorID string) ([]*investment.Record, error) {
	query := `SELECT ` + investmentColumns + `
		FROM investments
		WHERE investor_id = $1 AND status = $2
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, investorID, shared.PaymentStatusCompleted)
	if err != nil {
		r.logger.Error("Failed to list investor investments", "investor_id", investorID, "error", err)
		return nil, fmt.Errorf("failed to list investor investments: %w", err)
	}

	records, err := scanRecords(rows)
	if err != nil {
		r.logger.Error("Failed to scan investor investments", "investor_id", investorID, "error", err)
		return nil, fmt.Errorf("failed to scan investor investments: %w", err)
	}

	return records, nil
}

// StartupNames resolves display names for the given startups
func (r *ReportRepository) StartupNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.querier.Query(ctx, `SELECT id, name FROM startups WHERE id = ANY($1)`, ids)
	if err != nil {
		r.logger.Error("Failed to load startup names", "error", err)
		return nil, fmt.Errorf("failed to load startup names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			r.logger.Error("Failed to scan startup name", "error", err)
			return nil, fmt.Errorf("failed to scan startup name: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over startup names", "error", err)
		return nil, fmt.Errorf("error iterating over startup names: %w", err)
	}

	return names, nil
}

// TotalsByStartup groups all completed investments by startup
func (r *ReportRepository) TotalsByStartup(ctx context.Context) ([]investment.StartupTotals, error) {
	query := `
		SELECT i.startup_id, s.name, COUNT(*), COALESCE(SUM(i.amount), 0)
		FROM investments i
		JOIN startups s ON s.id = i.startup_id
		WHERE i.status = $1
		GROUP BY i.startup_id, s.name
		ORDER BY 4 DESC
	`
	return r.startupTotals(ctx, query, shared.PaymentStatusCompleted)
}

func (r *ReportRepository) startupTotals(ctx context.Context, query string, args ...interface{}) ([]investment.StartupTotals, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to aggregate investments by startup", "error", err)
		return nil, fmt.Errorf("failed to aggregate investments by startup: %w", err)
	}
	defer rows.Close()

	result := []investment.StartupTotals{}
	for rows.Next() {
		var st investment.StartupTotals
		if err := rows.Scan(&st.StartupID, &st.StartupName, &st.Count, &st.TotalInvested); err != nil {
			r.logger.Error("Failed to scan startup totals", "error", err)
			return nil, fmt.Errorf("failed to scan startup totals: %w", err)
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over startup totals", "error", err)
		return nil, fmt.Errorf("error iterating over startup totals: %w", err)
	}

	return result, nil
}

// ListLedger returns a page of ledger records matching filter, newest first
func (r *ReportRepository) ListLedger(ctx context.Context, filter investment.LedgerFilter, limit, offset int) ([]*investment.Record, error) {
	where, args := ledgerWhere(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s
		FROM investments%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, investmentColumns, where, len(args)-1, len(args))

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list ledger", "error", err)
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}

	records, err := scanRecords(rows)
	if err != nil {
		r.logger.Error("Failed to scan ledger", "error", err)
		return nil, fmt.Errorf("failed to scan ledger: %w", err)
	}

	return records, nil
}

// ListLedgerBefore returns up to limit records matching filter that sort
// strictly after cursor in (created_at, id) descending order. A nil cursor
// starts from the newest record. Rows inserted while a caller walks the
// ledger sort before its first cursor and are never returned mid-walk.
func (r *ReportRepository) ListLedgerBefore(ctx context.Context, filter investment.LedgerFilter, cursor *investment.LedgerCursor, limit int) ([]*investment.Record, error) {
	where, args := ledgerWhere(filter)
	if cursor != nil {
		args = append(args, cursor.CreatedAt, cursor.ID)
		keyset := fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args))
		if where == "" {
			where = " WHERE " + keyset
		} else {
			where += " AND " + keyset
		}
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT %s
		FROM investments%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, investmentColumns, where, len(args))

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to walk ledger", "error", err)
		return nil, fmt.Errorf("failed to walk ledger: %w", err)
	}

	records, err := scanRecords(rows)
	if err != nil {
		r.logger.Error("Failed to scan ledger", "error", err)
		return nil, fmt.Errorf("failed to scan ledger: %w", err)
	}

	return records, nil
}

// LedgerTotals counts and sums the records matching filter
func (r *ReportRepository) LedgerTotals(ctx context.Context, filter investment.LedgerFilter) (investment.Totals, error) {
	where, args := ledgerWhere(filter)
	query := `SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM investments` + where

	var totals investment.Totals
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&totals.Count, &totals.TotalInvested); err != nil {
		r.logger.Error("Failed to get ledger totals", "error", err)
		return investment.Totals{}, fmt.Errorf("failed to get ledger totals: %w", err)
	}

	return totals, nil
}

// ledgerWhere builds a positional WHERE clause from the non-zero filter fields
func ledgerWhere(filter investment.LedgerFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.StartupID != uuid.Nil {
		args = append(args, filter.StartupID)
		conds = append(conds, fmt.Sprintf("startup_id = $%d", len(args)))
	}
	if filter.InvestorID != "" {
		args = append(args, filter.InvestorID)
		conds = append(conds, fmt.Sprintf("investor_id = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
