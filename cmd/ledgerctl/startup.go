package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/startup-investment-ledger/internal/domain/startup"
)

func startupCmd(configName *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "startup",
		Short: "Manage startup listings",
	}
	cmd.AddCommand(startupCreateCmd(configName))
	return cmd
}

func startupCreateCmd(configName *string) *cobra.Command {
	var name, description, industry, stage, owner, fundingRequired string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a startup that can receive investments",
		RunE: func(cmd *cobra.Command, args []string) error {
			required, err := parseMajorUnits(fundingRequired)
			if err != nil {
				return err
			}

			s, err := startup.NewStartup(owner, name, description, industry, stage, required)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, *configName)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if err := a.repos.Startups.Create(ctx, s); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created startup %s (%s), funding required %s\n",
				s.ID, s.Name, formatMinorUnits(s.FundingRequired))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Startup name")
	cmd.Flags().StringVar(&description, "description", "", "Short description")
	cmd.Flags().StringVar(&industry, "industry", "", "Industry")
	cmd.Flags().StringVar(&stage, "stage", "", "Stage: idea, mvp, seed, series-a or growth")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner user ID")
	cmd.Flags().StringVar(&fundingRequired, "funding-required", "", "Funding target in major units, e.g. 250000")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("funding-required")

	return cmd
}
