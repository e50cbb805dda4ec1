package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Source.UserAgent = "banketl-test"
	cfg.Extract.TableIndex = 2
	cfg.Output.IncludeIndex = false

	path := filepath.Join(t.TempDir(), "banketl.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultURL, cfg.Source.URL)
	assert.Equal(t, 0, cfg.Extract.TableIndex)
	assert.Equal(t, "exchange_rate.csv", cfg.Rates.Path)
	assert.Equal(t, "Largest_banks_data.csv", cfg.Output.CSVPath)
	assert.True(t, cfg.Output.IncludeIndex)
	assert.Equal(t, "Banks.db", cfg.Output.DBPath)
	assert.Equal(t, "Largest_banks", cfg.Output.TableName)
	assert.Equal(t, "code_log.txt", cfg.Log.ProgressPath)
	assert.Equal(t, "%Y-%b-%d-%H:%M:%S", cfg.Log.TimestampFormat)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banketl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  table_name: Banks_2023\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Banks_2023", cfg.Output.TableName)
	assert.Equal(t, "Banks.db", cfg.Output.DBPath)
	assert.True(t, cfg.Output.IncludeIndex)
	assert.Equal(t, DefaultURL, cfg.Source.URL)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banketl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: [unclosed\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banketl.yaml")
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "table_name: Largest_banks")
	assert.Contains(t, contents, "csv_path: Largest_banks_data.csv")
	assert.Contains(t, contents, "include_index: true")
	assert.NotContains(t, contents, "user_agent", "empty user agent is omitted")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvSourceURL:    "http://localhost:8080/banks.html",
		EnvRatesPath:    "/data/rates.csv",
		EnvCSVPath:      "/out/banks.csv",
		EnvDBPath:       "/out/banks.db",
		EnvLogLevel:     "debug",
		EnvIncludeIndex: "false",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "http://localhost:8080/banks.html", cfg.Source.URL)
	assert.Equal(t, "/data/rates.csv", cfg.Rates.Path)
	assert.Equal(t, "/out/banks.csv", cfg.Output.CSVPath)
	assert.Equal(t, "/out/banks.db", cfg.Output.DBPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Output.IncludeIndex)
	assert.Equal(t, "Largest_banks", cfg.Output.TableName, "untouched fields keep defaults")
}

func TestApplyEnv_BadBool(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) string {
		if k == EnvIncludeIndex {
			return "maybe"
		}
		return ""
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvIncludeIndex)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Source.URL = ""
	cfg.Output.TableName = "  "
	cfg.Extract.TableIndex = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.url is required")
	assert.Contains(t, err.Error(), "output.table_name is required")
	assert.Contains(t, err.Error(), "extract.table_index must not be negative")
	assert.NotContains(t, err.Error(), "rates.path")
}
