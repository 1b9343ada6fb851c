package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gmaps-contacts/internal/metrics"
	"github.com/sells-group/gmaps-contacts/internal/model"
)

var (
	emailsCSV       string
	emailsOverwrite bool
)

var emailsCmd = &cobra.Command{
	Use:   "emails",
	Short: "Append scraped email addresses to an existing CSV",
	Long: "Reads a harvested CSV, visits each establishment's website and contact pages, and " +
		"writes a copy with email_N columns next to it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("emails"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		var runID string
		if st != nil {
			defer st.Close() //nolint:errcheck
			if run, err := st.CreateRun(ctx, model.RunKindEmails, emailsCSV); err != nil {
				zap.L().Warn("create run failed", zap.Error(err))
			} else {
				runID = run.ID
			}
		}

		enrichErr := enrichFile(ctx, newEnricher(metrics.New()), emailsCSV, emailsOverwrite)

		if runID != "" {
			closeCtx := context.WithoutCancel(ctx)
			var err error
			if enrichErr != nil {
				err = st.FailRun(closeCtx, runID, enrichErr)
			} else {
				err = st.CompleteRun(closeCtx, runID, model.RunCounts{})
			}
			if err != nil {
				zap.L().Warn("close run failed", zap.String("run_id", runID), zap.Error(err))
			}
		}
		return enrichErr
	},
}

func init() {
	emailsCmd.Flags().StringVar(&emailsCSV, "csv", "", "harvested CSV to enrich (required)")
	emailsCmd.Flags().BoolVar(&emailsOverwrite, "overwrite", false, "rewrite the emails CSV if it already exists")
	_ = emailsCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(emailsCmd)
}
