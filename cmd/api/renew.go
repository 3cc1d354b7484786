package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// renewTokensCmd renews every OAuth-managed store once, for running from an
// external scheduler such as cron.
func renewTokensCmd() *cobra.Command {
	var ifDue bool

	cmd := &cobra.Command{
		Use:   "renew-tokens",
		Short: "Renew the Square access tokens of all connected stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if ifDue {
				ran, err := a.renewal.RunDue(ctx)
				if err != nil {
					return err
				}
				if !ran {
					a.logger.Info("token renewal not due yet")
				}
				return nil
			}

			report, err := a.renewal.RenewAll(ctx)
			if err != nil {
				return err
			}
			a.logger.Info("token renewal finished",
				zap.Ints("renewed", report.Renewed),
				zap.Ints("skipped", report.Skipped),
				zap.Ints("failed", report.Failed))

			if len(report.Failed) > 0 {
				return fmt.Errorf("token renewal failed for stores %v", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ifDue, "if-due", false, "only renew when the configured renewal period has elapsed")

	return cmd
}
