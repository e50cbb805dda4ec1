// Package sink persists an EnrichedTable to a CSV file and a SQLite table.
package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/largestbanks/banketl/internal/model"
	"github.com/largestbanks/banketl/internal/transform"
)

// CSVOptions controls the CSV layout.
type CSVOptions struct {
	// IncludeIndex prepends a 0-based row index column with an empty header,
	// the layout produced by dataframe exports.
	IncludeIndex bool
}

// WriteCSV replaces the file at path with the table. The data is written to a
// temporary file in the same directory and renamed over path, so a failed
// write leaves any previous file untouched.
func WriteCSV(table model.EnrichedTable, path string, opts CSVOptions) error {
	if err := writeCSVFile(table, path, opts); err != nil {
		return &PersistenceError{Sink: SinkCSV, Target: path, Err: err}
	}
	return nil
}

func writeCSVFile(table model.EnrichedTable, path string, opts CSVOptions) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if err := WriteRecords(tmp, table, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// WriteRecords writes the header and one row per record to w.
func WriteRecords(w io.Writer, table model.EnrichedTable, opts CSVOptions) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header(opts)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, rec := range table {
		row := MarshalRecord(rec)
		if opts.IncludeIndex {
			row = append([]string{strconv.Itoa(i)}, row...)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRecords parses a CSV produced by WriteRecords. The index column, when
// present, is recognised by its empty header cell and dropped.
func ReadRecords(r io.Reader) (model.EnrichedTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading banks CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	offset := 0
	if len(records[0]) == len(model.Columns)+1 && records[0][0] == "" {
		offset = 1
	}
	if len(records[0])-offset != len(model.Columns) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(model.Columns), len(records[0])-offset)
	}

	var table model.EnrichedTable
	for i, rec := range records[1:] {
		if len(rec) != len(records[0]) {
			return nil, fmt.Errorf("row %d: expected %d fields, got %d", i+2, len(records[0]), len(rec))
		}
		er, err := UnmarshalRecord(rec[offset:])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		table = append(table, er)
	}
	return table, nil
}

// MarshalRecord converts a record to a CSV row without the index column.
// Missing values become empty cells.
func MarshalRecord(rec model.EnrichedRecord) []string {
	row := make([]string, len(model.Columns))
	row[0] = rec.Name
	if rec.MarketCapUSD.Valid {
		row[1] = rec.MarketCapUSD.Decimal.String()
	}
	for i, v := range rec.Values()[1:] {
		if v.Valid {
			row[i+2] = v.Decimal.StringFixed(transform.Places)
		}
	}
	return row
}

// UnmarshalRecord converts a CSV row (without index column) to a record.
func UnmarshalRecord(row []string) (model.EnrichedRecord, error) {
	if len(row) != len(model.Columns) {
		return model.EnrichedRecord{}, fmt.Errorf("expected %d fields, got %d", len(model.Columns), len(row))
	}

	vals := make([]decimal.NullDecimal, len(row)-1)
	for i, s := range row[1:] {
		if s == "" {
			continue
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return model.EnrichedRecord{}, fmt.Errorf("parsing %s %q: %w", model.Columns[i+1], s, err)
		}
		vals[i] = decimal.NewNullDecimal(d)
	}

	return model.EnrichedRecord{
		BankRecord:   model.BankRecord{Name: row[0], MarketCapUSD: vals[0]},
		MarketCapGBP: vals[1],
		MarketCapEUR: vals[2],
		MarketCapINR: vals[3],
	}, nil
}

func header(opts CSVOptions) []string {
	if opts.IncludeIndex {
		return append([]string{""}, model.Columns...)
	}
	return append([]string(nil), model.Columns...)
}
