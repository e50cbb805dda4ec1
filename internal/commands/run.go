package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/largestbanks/banketl/internal/buildinfo"
	"github.com/largestbanks/banketl/internal/fetch"
	"github.com/largestbanks/banketl/internal/logger"
	"github.com/largestbanks/banketl/internal/pipeline"
	"github.com/largestbanks/banketl/internal/progress"
)

func newRunCommand() *cobra.Command {
	var queries bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the extract, transform and load job once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			plog := progress.Open(cfg.Log.ProgressPath, progress.Options{
				TimestampFormat: cfg.Log.TimestampFormat,
				MaxSizeMB:       cfg.Log.MaxSizeMB,
			})
			defer plog.Close()

			log := logger.New(cmd.ErrOrStderr(), cfg.Log.Level)
			log.WithField("version", buildinfo.String()).Debug("starting run")

			deps := pipeline.Deps{
				Fetcher:  fetch.New(nil, cfg.Source.UserAgent),
				Progress: plog,
				Logger:   log,
			}
			if queries {
				deps.QueryOutput = cmd.OutOrStdout()
			}

			res, err := pipeline.Run(ctx, cfg, deps)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d banks into %s and %s (run %s)\n",
				len(res.Table), cfg.Output.CSVPath, cfg.Output.DBPath, res.RunID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&queries, "queries", false, "print the report queries after loading")

	return cmd
}
