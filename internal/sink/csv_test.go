package sink

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/largestbanks/banketl/internal/model"
)

func TestWriteRecords_WithIndex(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, testTable(), CSVOptions{IncludeIndex: true}))

	want := ",Name,MC_USD_Billion,MC_GBP_Billion,MC_EUR_Billion,MC_INR_Billion\n" +
		"0,Bank X,100.5,80.40,90.45,8040.00\n" +
		"1,Bank Y,,,,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteRecords_WithoutIndex(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, testTable(), CSVOptions{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(model.Columns, ","), lines[0])
	assert.Equal(t, "Bank X,100.5,80.40,90.45,8040.00", lines[1])
	assert.Equal(t, "Bank Y,,,,", lines[2])
}

func TestWriteRecords_QuotesNames(t *testing.T) {
	table := model.EnrichedTable{{BankRecord: model.BankRecord{Name: `Banco "Santander", S.A.`}}}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, table, CSVOptions{IncludeIndex: true}))

	got, err := ReadRecords(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, `Banco "Santander", S.A.`, got[0].Name)
}

func TestReadRecords_RoundTrip(t *testing.T) {
	for _, idx := range []bool{true, false} {
		var buf bytes.Buffer
		require.NoError(t, WriteRecords(&buf, testTable(), CSVOptions{IncludeIndex: idx}))

		got, err := ReadRecords(&buf)
		require.NoError(t, err, "include index %v", idx)
		assertTablesEqual(t, testTable(), got)
	}
}

func TestReadRecords_Errors(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("Name,MC_USD_Billion\nA,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 5 columns")

	_, err = ReadRecords(strings.NewReader(strings.Join(model.Columns, ",") + "\nA,x,,,\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing MC_USD_Billion")
}

func TestReadRecords_Empty(t *testing.T) {
	got, err := ReadRecords(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWriteCSV_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Largest_banks_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale contents\nfrom a previous run\n"), 0o644))

	opts := CSVOptions{IncludeIndex: true}
	require.NoError(t, WriteCSV(testTable(), path, opts))
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(first), "stale")

	require.NoError(t, WriteCSV(testTable(), path, opts))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second, "second write must not append")
}

func TestWriteCSV_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, WriteCSV(testTable(), path, CSVOptions{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.csv", entries[0].Name())
}

func TestWriteCSV_CreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "banks.csv")
	require.NoError(t, WriteCSV(testTable(), path, CSVOptions{}))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteCSV_PersistenceError(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be makes the final rename fail.
	path := filepath.Join(dir, "taken")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0o755))

	err := WriteCSV(testTable(), path, CSVOptions{})
	require.Error(t, err)

	var pe *PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, SinkCSV, pe.Sink)
	assert.Equal(t, path, pe.Target)
}
