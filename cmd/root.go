package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gmaps-contacts/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "gmaps-contacts",
	Short: "Harvest establishment contacts from Google Places",
	Long: "Collects name, phone, address and website for every establishment of a place type in a " +
		"postal code or a whole US state, writes one CSV per postal code, and optionally scrapes " +
		"each website for email addresses. Interrupted state harvests resume where they stopped.\n\n" +
		"Run without a subcommand for the interactive mode.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: runInteractive,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
