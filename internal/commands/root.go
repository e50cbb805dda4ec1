package commands

import (
	"github.com/spf13/cobra"

	"github.com/largestbanks/banketl/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "banketl",
		Short:   "Extract, convert and store the largest banks by market cap",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default ./"+defaultConfigFile+" when present)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newLogCommand())

	return rootCmd
}
