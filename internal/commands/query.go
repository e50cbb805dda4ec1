package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/largestbanks/banketl/internal/query"
	"github.com/largestbanks/banketl/internal/sink"
)

func newQueryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query",
		Short: "Print the report queries against the loaded table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !fileExists(cfg.Output.DBPath) {
				return fmt.Errorf("database %s not found, run `banketl run` first", cfg.Output.DBPath)
			}

			db, err := sink.Open(cmd.Context(), cfg.Output.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			return query.Run(cmd.Context(), db, cfg.Output.TableName, cmd.OutOrStdout())
		},
	}
}
