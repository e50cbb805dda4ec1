package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultURL is the archived Wikipedia list of largest banks.
const DefaultURL = "https://web.archive.org/web/20230908091635/https://en.wikipedia.org/wiki/List_of_largest_banks"

// Config represents the top-level banketl.yaml configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Extract ExtractConfig `yaml:"extract"`
	Rates   RatesConfig   `yaml:"rates"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
}

// SourceConfig identifies the page to scrape.
type SourceConfig struct {
	URL       string `yaml:"url"`
	UserAgent string `yaml:"user_agent,omitempty"`
}

// ExtractConfig controls table selection.
type ExtractConfig struct {
	TableIndex int `yaml:"table_index"` // 0 = first tbody in the document
}

// RatesConfig locates the exchange-rate CSV.
type RatesConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig names the CSV file and the database table.
type OutputConfig struct {
	CSVPath      string `yaml:"csv_path"`
	IncludeIndex bool   `yaml:"include_index"`
	DBPath       string `yaml:"db_path"`
	TableName    string `yaml:"table_name"`
}

// LogConfig controls the console logger and the progress log file.
type LogConfig struct {
	Level           string `yaml:"level"`
	ProgressPath    string `yaml:"progress_path"`
	TimestampFormat string `yaml:"timestamp_format"`      // strftime
	MaxSizeMB       int    `yaml:"max_size_mb,omitempty"` // 0 = never rotate
}

// Environment variables read by ApplyEnv.
const (
	EnvSourceURL    = "BANKETL_SOURCE_URL"
	EnvRatesPath    = "BANKETL_RATES_PATH"
	EnvCSVPath      = "BANKETL_CSV_PATH"
	EnvDBPath       = "BANKETL_DB_PATH"
	EnvLogLevel     = "BANKETL_LOG_LEVEL"
	EnvIncludeIndex = "BANKETL_INCLUDE_INDEX"
)

// Load reads a banketl.yaml file from disk. Keys absent from the file keep
// their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns the stock job: the archived page and output paths
// relative to the working directory.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL: DefaultURL,
		},
		Rates: RatesConfig{
			Path: "exchange_rate.csv",
		},
		Output: OutputConfig{
			CSVPath:      "Largest_banks_data.csv",
			IncludeIndex: true,
			DBPath:       "Banks.db",
			TableName:    "Largest_banks",
		},
		Log: LogConfig{
			Level:           "info",
			ProgressPath:    "code_log.txt",
			TimestampFormat: "%Y-%b-%d-%H:%M:%S",
		},
	}
}

// ApplyEnv overrides fields from BANKETL_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvSourceURL); v != "" {
		c.Source.URL = v
	}
	if v := getenv(EnvRatesPath); v != "" {
		c.Rates.Path = v
	}
	if v := getenv(EnvCSVPath); v != "" {
		c.Output.CSVPath = v
	}
	if v := getenv(EnvDBPath); v != "" {
		c.Output.DBPath = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvIncludeIndex); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s=%q: %w", EnvIncludeIndex, v, err)
		}
		c.Output.IncludeIndex = b
	}
	return nil
}

// Validate reports every missing or out-of-range setting.
func (c *Config) Validate() error {
	var problems []string
	require := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			problems = append(problems, name+" is required")
		}
	}
	require("source.url", c.Source.URL)
	require("rates.path", c.Rates.Path)
	require("output.csv_path", c.Output.CSVPath)
	require("output.db_path", c.Output.DBPath)
	require("output.table_name", c.Output.TableName)
	require("log.progress_path", c.Log.ProgressPath)
	if c.Extract.TableIndex < 0 {
		problems = append(problems, "extract.table_index must not be negative")
	}

	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}
