package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gmaps-contacts/internal/harvest"
	"github.com/sells-group/gmaps-contacts/internal/postal"
)

var (
	stateCategories  []string
	stateCode        string
	stateCountry     string
	stateOmitEmails  bool
	stateXLSX        bool
	stateMetricsAddr string
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Harvest every postal code of a US state",
	Long: "Fetches each place type for every postal code of the state, resuming from the " +
		"artifacts and skip log already on disk, then writes the state rollup CSV.",
	Example: "  gmaps-contacts state -e dentist -s NH --xlsx",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("state"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		table, err := postal.LoadTable(cfg.Data.PostalTable)
		if err != nil {
			return err
		}

		env, err := initHarvest(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		addr := stateMetricsAddr
		if addr == "" {
			addr = cfg.Metrics.Addr
		}
		if addr != "" {
			go func() {
				if err := env.Metrics.Serve(ctx, addr); err != nil {
					zap.L().Error("metrics server stopped", zap.Error(err))
				}
			}()
		}

		opts := harvest.StateOptions{Table: table, XLSX: stateXLSX}
		for _, category := range stateCategories {
			report, err := env.Harvester.HarvestState(ctx, category, stateCode, stateCountry, opts)
			if err != nil {
				return err
			}
			printRegionReport(report)

			if stateOmitEmails || report.RollupRows == 0 {
				continue
			}
			if err := enrichFile(ctx, env.Enricher, report.RollupPath, false); err != nil {
				return err
			}
		}
		return nil
	},
}

func printRegionReport(r *harvest.RegionReport) {
	fmt.Fprintf(os.Stdout, "%s/%s: %d postal codes, %d resumed, %d fetched (%d completed, %d empty)\n",
		r.Category, r.State, r.Total, r.Resumed, len(r.Outcomes), r.Counts.Completed, r.Counts.Empty)
	fmt.Fprintf(os.Stdout, "rollup: %s (%d rows)\n", r.RollupPath, r.RollupRows)
	if r.XLSXPath != "" {
		fmt.Fprintf(os.Stdout, "xlsx: %s\n", r.XLSXPath)
	}
}

func init() {
	stateCmd.Flags().StringSliceVarP(&stateCategories, "establishment", "e", nil, "place type to search for (repeatable)")
	stateCmd.Flags().StringVarP(&stateCode, "state", "s", "", "two-letter US state code")
	stateCmd.Flags().StringVarP(&stateCountry, "country", "c", harvest.StateCountry, "country of the state")
	stateCmd.Flags().BoolVar(&stateOmitEmails, "omit-emails", false, "skip scraping websites for email addresses")
	stateCmd.Flags().BoolVar(&stateXLSX, "xlsx", false, "also export the rollup as an XLSX workbook")
	stateCmd.Flags().StringVar(&stateMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	_ = stateCmd.MarkFlagRequired("establishment")
	_ = stateCmd.MarkFlagRequired("state")
	rootCmd.AddCommand(stateCmd)
}
