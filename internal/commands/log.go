package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/largestbanks/banketl/internal/progress"
)

func newLogCommand() *cobra.Command {
	var tail int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the progress log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			entries, err := progress.Read(cfg.Log.ProgressPath, cfg.Log.TimestampFormat)
			if err != nil {
				return err
			}
			if tail > 0 && len(entries) > tail {
				entries = entries[len(entries)-tail:]
			}

			format := cfg.Log.TimestampFormat
			if format == "" {
				format = progress.DefaultTimestampFormat
			}
			for _, e := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), progress.FormatEntry(e, format))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&tail, "tail", "n", 0, "show only the last n entries")

	return cmd
}
