package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/warp/customer-rewards/report"
)

func newExportCmd() *cobra.Command {
	var (
		filters queryFlags
		out     string
	)
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write rewards to an XLSX workbook",
		Example: "  rewards export --out rewards.xlsx --month March",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return errors.New("--out is required")
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.ComputeRewards(ctx, filters.query(cmd))
			if err != nil {
				return err
			}
			customers, err := a.svc.ListCustomers(ctx)
			if err != nil {
				return err
			}

			if err := report.WriteFile(out, res, report.CustomerNames(customers)); err != nil {
				return err
			}
			a.logger.Info("exported rewards", slog.String("path", out), slog.Int("customers", res.Customers()))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "workbook path")
	return cmd
}
