package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close() //nolint:errcheck
		if err := enc.Encode(cfg.Redacted()); err != nil {
			return eris.Wrap(err, "encode config")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
