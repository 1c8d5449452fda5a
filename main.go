package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "orgjoin",
		Short:        "Add organization names to scan reports",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default /config/config.yaml, ./config/config.yaml when LOCAL=true)")

	root.AddCommand(newServeCmd(&configPath), newConvertCmd())

	return root
}
