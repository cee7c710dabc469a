package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fleetcore/driver-completion/internal/domain"
)

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate and mail the report once, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result := app.pipeline.Run(ctx, domain.TriggerCLI)
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %s\n", result.RunID, result.Status)
			if result.FileName != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "report: %s\n", result.FileName)
			}
			if result.Status == domain.RunStatusFailed {
				return fmt.Errorf("report run failed at %s: %w", result.Stage, result.Err)
			}
			return nil
		},
	}
}
