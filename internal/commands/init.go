package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/largestbanks/banketl/internal/config"
	"github.com/largestbanks/banketl/internal/model"
	"github.com/largestbanks/banketl/internal/rates"
)

// sampleRates mirrors the exchange_rate.csv shipped with the job.
var sampleRates = model.RateTable{
	model.CurrencyEUR: decimal.RequireFromString("0.93"),
	model.CurrencyGBP: decimal.RequireFromString("0.8"),
	model.CurrencyINR: decimal.RequireFromString("82.95"),
}

func newInitCommand() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default config and a sample exchange-rate file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, url); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized banketl project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", config.DefaultURL, "page to extract the bank table from")

	return cmd
}

func runInit(dir, url string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	cfgPath := filepath.Join(dir, defaultConfigFile)
	if fileExists(cfgPath) {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default()
	cfg.Source.URL = url
	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	// Keep an existing rate file; it is user data.
	ratesPath := filepath.Join(dir, cfg.Rates.Path)
	if fileExists(ratesPath) {
		return nil
	}
	f, err := os.Create(ratesPath)
	if err != nil {
		return fmt.Errorf("creating rates file: %w", err)
	}
	if err := rates.Write(f, sampleRates, []string{model.CurrencyEUR, model.CurrencyGBP, model.CurrencyINR}); err != nil {
		f.Close()
		return fmt.Errorf("writing rates file: %w", err)
	}
	return f.Close()
}
