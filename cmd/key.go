package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/gmaps-contacts/internal/credential"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the Google API key",
}

// -- key set --

var keySetCmd = &cobra.Command{
	Use:   "set [api-key]",
	Short: "Store the API key in the key file",
	Long:  "Writes the key to google.key_file with owner-only permissions. Without an argument the key is read from the terminal.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := credential.Save(cfg.Google.KeyFile, args[0]); err != nil {
				return err
			}
		} else {
			p := &credential.Prompting{File: cfg.Google.KeyFile, In: os.Stdin, Out: os.Stderr}
			if _, err := p.APIKey(cmd.Context()); err != nil {
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "API key saved to %s\n", cfg.Google.KeyFile)
		return nil
	},
}

// -- key check --

var keyCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report where the API key would be read from",
	RunE: func(cmd *cobra.Command, args []string) error {
		chain := credential.Chain(
			credential.Static(cfg.Google.APIKey),
			credential.FromFile(cfg.Google.KeyFile),
		)
		_, source, err := chain.Resolve(cmd.Context())
		if err != nil {
			if eris.Is(err, credential.ErrNoKey) {
				return eris.New("no API key configured: set GMAPS_GOOGLE_API_KEY or run 'gmaps-contacts key set'")
			}
			return err
		}
		fmt.Fprintf(os.Stdout, "API key found (%s)\n", source)
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyCheckCmd)
	rootCmd.AddCommand(keyCmd)
}
