package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/customer-rewards/api"
	"github.com/warp/customer-rewards/rewards"
)

func newComputeCmd() *cobra.Command {
	var (
		filters queryFlags
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute rewards from the configured store",
		Long: `Computes the three rollups for the optional customer and month filters.

Without --json the rollups print as a table, one row per customer and month
followed by the monthly and customer totals. With --json the output has the
same shape as GET /api/rewards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(api.NewRewardsDTO(res))
			}
			return writeTable(out, res)
		},
	}
	filters.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the API's JSON form")
	return cmd
}

// writeTable prints res with customers by id and months in calendar order.
func writeTable(w io.Writer, res *rewards.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	customers := res.CustomerIDs()

	fmt.Fprintln(tw, "CUSTOMER\tMONTH\tPOINTS")
	for _, c := range customers {
		for _, month := range rewards.SortedMonths(res.PerCustomerPerMonth[c]) {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", c, month, res.PerCustomerPerMonth[c][month].String())
		}
	}

	fmt.Fprintln(tw, "\t\t")
	fmt.Fprintln(tw, "MONTH\tPOINTS\t")
	for _, month := range rewards.SortedMonths(res.PerMonth) {
		fmt.Fprintf(tw, "%s\t%s\t\n", month, res.PerMonth[month].String())
	}

	fmt.Fprintln(tw, "\t\t")
	fmt.Fprintln(tw, "CUSTOMER\tTOTAL\t")
	for _, c := range customers {
		fmt.Fprintf(tw, "%d\t%s\t\n", c, res.TotalPerCustomer[c].String())
	}
	return tw.Flush()
}
