package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	var configName string

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operator tool for the investment ledger",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configName, "config", "ledgerctl", "Config name, resolved as ./configs/<name>.env")

	rootCmd.AddCommand(reconcileCmd(&configName))
	rootCmd.AddCommand(startupCmd(&configName))
	rootCmd.AddCommand(exportCmd(&configName))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
