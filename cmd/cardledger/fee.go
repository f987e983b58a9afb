package main

import (
	"context"
	"fmt"

	"github.com/benx421/rapidpay/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func feeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fee",
		Short: "Inspect or advance the processing fee timeline",
	}

	cmd.AddCommand(feeSubCmd("current", "Print the current fee", service.FeeManager.CurrentFee))
	cmd.AddCommand(feeSubCmd("evolve", "Append the next step of the fee random walk", service.FeeManager.EvolveFee))
	cmd.AddCommand(feeSubCmd("seed", "Append a fee drawn uniformly from [0, 2)", service.FeeManager.SeedFee))

	return cmd
}

func feeSubCmd(use, short string, op func(service.FeeManager, context.Context) (decimal.Decimal, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			fees := service.NewFeeService(a.db, a.logger, nil)
			fee, err := op(fees, ctx)
			if err != nil {
				return fmt.Errorf("fee %s failed: %w", use, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), fee.StringFixed(2))
			return nil
		},
	}
}
