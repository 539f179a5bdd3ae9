package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/ledger_writer/components"
	"github.com/startup-investment-ledger/internal/platform/metrics"
)

func reconcileCmd(configName *string) *cobra.Command {
	var startupID string
	var all bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute startup funding counters from the investment ledger",
		Long: `Locks each startup row, sums its completed investments and overwrites
funding_received with the sum. Use --startup for one startup or --all.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (startupID != "") {
				return errors.New("exactly one of --startup or --all is required")
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, *configName)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			reconciler := components.CreateReconcileService(a.postgres.Pool(), a.repos, metrics.Noop(), a.log, a.cfg)

			if all {
				results, err := reconciler.ReconcileAll(ctx)
				for _, result := range results {
					printReconcileResult(cmd, result)
				}
				return err
			}

			id, err := uuid.Parse(startupID)
			if err != nil {
				return fmt.Errorf("invalid startup id %q: %w", startupID, err)
			}
			result, err := reconciler.ReconcileStartup(ctx, id)
			if err != nil {
				return err
			}
			printReconcileResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&startupID, "startup", "", "Startup ID to reconcile")
	cmd.Flags().BoolVar(&all, "all", false, "Reconcile every startup")

	return cmd
}

func printReconcileResult(cmd *cobra.Command, r *shared.ReconcileResult) {
	status := "ok"
	if r.Adjusted {
		status = "adjusted"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s  previous=%s  recomputed=%s  records=%d\n",
		r.StartupID, status, formatMinorUnits(r.Previous), formatMinorUnits(r.Recomputed), r.RecordCount)
}
