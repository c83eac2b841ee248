// Package cli holds the cobra commands of the bot binary.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	// ConfigFile overrides ./configs/<APP_ENV>.yaml.
	ConfigFile string
	Verbose    bool
}

// NewRootCommand creates the root command of the parfum bot.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "parfum-bot",
		Short: "Telegram bot for recording perfume sales and purchases",
		Long: `Records perfume sales and purchases through a guided Telegram conversation
and appends each finished record to the spreadsheet ledger.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default ./configs/<APP_ENV>.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))

	return cmd
}
