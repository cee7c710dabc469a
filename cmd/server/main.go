package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const serviceName = "driver-completion"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Driver completion report service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: search for config.yaml)")

	root.AddCommand(
		newServeCmd(&configPath),
		newRunCmd(&configPath),
	)
	return root
}
