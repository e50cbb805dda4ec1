package sink

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/largestbanks/banketl/internal/model"
)

// dsn returns a file: URI for path so that '?', '#' and '%' in file names
// reach SQLite percent-encoded instead of starting the query string.
func dsn(path string) string {
	return "file:" + (&url.URL{Path: filepath.ToSlash(path)}).String() + "?_pragma=busy_timeout(5000)"
}

// Open opens (creating if needed) the SQLite database at path.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	// One writer, one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database %s: %w", path, err)
	}
	return db, nil
}

// WriteTable replaces the named table with the contents of table. The drop,
// create and inserts run in one transaction.
func WriteTable(ctx context.Context, db *sql.DB, name string, table model.EnrichedTable) error {
	if err := writeTable(ctx, db, name, table); err != nil {
		return &PersistenceError{Sink: SinkDatabase, Target: name, Err: err}
	}
	return nil
}

func writeTable(ctx context.Context, db *sql.DB, name string, table model.EnrichedTable) error {
	ident, err := QuoteIdent(name)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("dropping table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createStatement(ident)); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertStatement(ident))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range table {
		args := []any{rec.Name}
		for _, v := range rec.Values() {
			args = append(args, nullFloat(v))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting row %d (%s): %w", i, rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// ReadTable returns every row of the named table in insertion order.
func ReadTable(ctx context.Context, db *sql.DB, name string) (model.EnrichedTable, error) {
	ident, err := QuoteIdent(name)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", columnList(), ident))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", name, err)
	}
	defer rows.Close()

	var table model.EnrichedTable
	for rows.Next() {
		var rec model.EnrichedRecord
		var usd, gbp, eur, inr sql.NullFloat64
		if err := rows.Scan(&rec.Name, &usd, &gbp, &eur, &inr); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", name, err)
		}
		rec.MarketCapUSD = fromNullFloat(usd)
		rec.MarketCapGBP = fromNullFloat(gbp)
		rec.MarketCapEUR = fromNullFloat(eur)
		rec.MarketCapINR = fromNullFloat(inr)
		table = append(table, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return table, nil
}

// QuoteIdent returns name as a double-quoted SQL identifier.
func QuoteIdent(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty table name")
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("table name %q contains NUL", name)
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`, nil
}

func createStatement(ident string) string {
	cols := make([]string, len(model.Columns))
	for i, c := range model.Columns {
		typ := "REAL"
		if c == model.ColName {
			typ = "TEXT"
		}
		cols[i] = fmt.Sprintf("%q %s", c, typ)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", ident, strings.Join(cols, ", "))
}

func insertStatement(ident string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(model.Columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", ident, columnList(), marks)
}

func columnList() string {
	quoted := make([]string, len(model.Columns))
	for i, c := range model.Columns {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return strings.Join(quoted, ", ")
}

func nullFloat(v decimal.NullDecimal) sql.NullFloat64 {
	if !v.Valid {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v.Decimal.InexactFloat64(), Valid: true}
}

func fromNullFloat(v sql.NullFloat64) decimal.NullDecimal {
	if !v.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v.Float64))
}
