// Package rates loads the USD exchange-rate table from CSV.
package rates

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/largestbanks/banketl/internal/model"
)

// Header column names.
const (
	ColCurrency = "Currency"
	ColRate     = "Rate"
)

// Load reads an exchange-rate CSV from path.
func Load(path string) (model.RateTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening exchange rates: %w", err)
	}
	defer f.Close()

	rates, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading exchange rates %s: %w", path, err)
	}
	return rates, nil
}

// Read parses an exchange-rate CSV. Columns are located by header name, so
// extra columns and any column order are accepted. A repeated currency code
// overrides the earlier row.
func Read(r io.Reader) (model.RateTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rates CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header row")
	}

	colCurrency, colRate := -1, -1
	for i, name := range records[0] {
		switch strings.TrimSpace(name) {
		case ColCurrency:
			colCurrency = i
		case ColRate:
			colRate = i
		}
	}
	if colCurrency < 0 {
		return nil, fmt.Errorf("missing %q column", ColCurrency)
	}
	if colRate < 0 {
		return nil, fmt.Errorf("missing %q column", ColRate)
	}

	rates := make(model.RateTable, len(records)-1)
	for i, rec := range records[1:] {
		code, rate, err := unmarshalRate(rec, colCurrency, colRate)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rates[code] = rate
	}
	return rates, nil
}

// Write emits rates as a Currency,Rate CSV with codes in the given order.
func Write(w io.Writer, rates model.RateTable, codes []string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{ColCurrency, ColRate}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, code := range codes {
		rate, ok := rates[code]
		if !ok {
			return fmt.Errorf("no rate for %s", code)
		}
		if err := cw.Write([]string{code, rate.String()}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func unmarshalRate(rec []string, colCurrency, colRate int) (string, decimal.Decimal, error) {
	if colCurrency >= len(rec) || colRate >= len(rec) {
		return "", decimal.Decimal{}, fmt.Errorf("expected at least %d fields, got %d", max(colCurrency, colRate)+1, len(rec))
	}

	code := strings.ToUpper(strings.TrimSpace(rec[colCurrency]))
	if code == "" {
		return "", decimal.Decimal{}, fmt.Errorf("empty currency code")
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(rec[colRate]))
	if err != nil {
		return "", decimal.Decimal{}, fmt.Errorf("parsing rate %q for %s: %w", rec[colRate], code, err)
	}
	if !rate.IsPositive() {
		return "", decimal.Decimal{}, fmt.Errorf("rate for %s must be positive, got %s", code, rate)
	}
	return code, rate, nil
}
