package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gmaps-contacts/internal/emails"
	"github.com/sells-group/gmaps-contacts/internal/harvest"
)

var (
	grabCategories []string
	grabPostals    []string
	grabCountry    string
	grabOmitEmails bool
)

var grabCmd = &cobra.Command{
	Use:   "grab",
	Short: "Harvest establishments for one or more postal codes",
	Long: "Fetches every establishment of each place type in each postal code and writes " +
		"one CSV per postal code. Postal codes already harvested are skipped.",
	Example: "  gmaps-contacts grab -e dentist -e bakery -p 60601 -p 60602",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("grab"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initHarvest(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Harvester.HarvestPostalCodes(ctx, grabCategories, grabPostals, grabCountry)
		if report != nil {
			printReport(report)
		}
		if err != nil {
			return err
		}

		if grabOmitEmails {
			return nil
		}
		return enrichOutcomes(ctx, env.Enricher, report.Outcomes)
	},
}

// enrichOutcomes appends emails to every artifact written by the run.
func enrichOutcomes(ctx context.Context, enricher *emails.Enricher, outcomes []harvest.KeyOutcome) error {
	for _, o := range outcomes {
		if o.Status != harvest.KeyCompleted || o.Path == "" {
			continue
		}
		if err := enrichFile(ctx, enricher, o.Path, false); err != nil {
			return err
		}
	}
	return nil
}

func enrichFile(ctx context.Context, enricher *emails.Enricher, path string, overwrite bool) error {
	res, err := enricher.Enrich(ctx, path, overwrite)
	if err != nil {
		return err
	}
	zap.L().Info("email enrichment finished",
		zap.String("path", res.Path),
		zap.Stringer("status", res.Status),
		zap.Int("rows", res.Rows),
		zap.Int("with_emails", res.WithEmails),
	)
	fmt.Fprintf(os.Stdout, "%s (%s, %d/%d rows with emails)\n", res.Path, res.Status, res.WithEmails, res.Rows)
	return nil
}

func printReport(report *harvest.Report) {
	for _, o := range report.Outcomes {
		switch o.Status {
		case harvest.KeyCompleted:
			fmt.Fprintf(os.Stdout, "%s\t%s\t%d rows\n", o.Key, o.Status, o.Rows)
		default:
			fmt.Fprintf(os.Stdout, "%s\t%s\n", o.Key, o.Status)
		}
	}
}

func init() {
	grabCmd.Flags().StringSliceVarP(&grabCategories, "establishment", "e", nil, "place type to search for, e.g. dentist (repeatable)")
	grabCmd.Flags().StringSliceVarP(&grabPostals, "postal", "p", nil, "postal code to search (repeatable)")
	grabCmd.Flags().StringVarP(&grabCountry, "country", "c", "US", "ISO 3166-1 alpha-2 country of the postal codes")
	grabCmd.Flags().BoolVar(&grabOmitEmails, "omit-emails", false, "skip scraping websites for email addresses")
	_ = grabCmd.MarkFlagRequired("establishment")
	_ = grabCmd.MarkFlagRequired("postal")
	rootCmd.AddCommand(grabCmd)
}
