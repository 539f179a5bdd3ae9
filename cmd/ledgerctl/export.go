package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/startup-investment-ledger/internal/api_gateway/service"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

func exportCmd(configName *string) *cobra.Command {
	var out, status, startupID, investorID string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the investment ledger to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := investment.LedgerFilter{
				Status:     shared.PaymentStatus(status),
				InvestorID: investorID,
			}
			if status != "" && !filter.Status.Valid() {
				return fmt.Errorf("invalid status %q", status)
			}
			if startupID != "" {
				id, err := uuid.Parse(startupID)
				if err != nil {
					return fmt.Errorf("invalid startup id %q: %w", startupID, err)
				}
				filter.StartupID = id
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, *configName)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()

			reports := service.NewReportService(a.log, a.repos.Investments, a.reports, a.repos.Startups, a.repos.Journal)
			if err := reports.ExportLedger(ctx, filter, f); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ledger written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "ledger.xlsx", "Output file")
	cmd.Flags().StringVar(&status, "status", "", "Filter by payment status")
	cmd.Flags().StringVar(&startupID, "startup", "", "Filter by startup ID")
	cmd.Flags().StringVar(&investorID, "investor", "", "Filter by investor ID")

	return cmd
}
