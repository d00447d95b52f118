package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/warp/customer-rewards/rewards"
	"github.com/warp/customer-rewards/seed"
)

func newSeedCmd() *cobra.Command {
	var (
		scenario string
		file     string
		appendTo bool
		list     bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a dataset into the configured store",
		Long: `Loads an embedded scenario (--scenario) or a YAML dataset file (--file).

The store is reset first unless --append is given. Relative dates in the
dataset resolve against the current year.`,
		Example: `  rewards seed --list
  rewards seed --scenario default
  rewards seed --file ./data/march.yaml --append`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				return listScenarios(cmd)
			}
			if (scenario == "") == (file == "") {
				return errors.New("exactly one of --scenario or --file is required")
			}

			ds, err := loadDataset(scenario, file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			apply := ds.Load
			if appendTo {
				apply = ds.Apply
			}
			summary, err := apply(ctx, a.store, rewards.SystemClock)
			if err != nil {
				return err
			}

			a.logger.Info("seeded store",
				slog.String("dataset", ds.Name),
				slog.Bool("append", appendTo),
				slog.Int("customers", summary.Customers),
				slog.Int("transactions", summary.Transactions),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %s: %d customers, %d transactions\n",
				ds.Name, summary.Customers, summary.Transactions)
			return nil
		},
	}
	cmd.Flags().StringVar(&scenario, "scenario", "", "embedded scenario name")
	cmd.Flags().StringVar(&file, "file", "", "path to a YAML dataset")
	cmd.Flags().BoolVar(&appendTo, "append", false, "keep existing data")
	cmd.Flags().BoolVar(&list, "list", false, "list embedded scenarios and exit")
	return cmd
}

func loadDataset(scenario, file string) (*seed.Dataset, error) {
	if scenario != "" {
		return seed.Scenario(scenario)
	}
	ds, err := seed.LoadFile(file)
	if err != nil {
		return nil, err
	}
	if ds.Name == "" {
		ds.Name = file
	}
	return ds, nil
}

func listScenarios(cmd *cobra.Command) error {
	all, err := seed.Scenarios()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, ds := range all {
		fmt.Fprintf(out, "%-12s %s\n", ds.Name, ds.Description)
	}
	return nil
}
