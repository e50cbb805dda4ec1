// Package query runs the read-only reports over the loaded banks table.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/largestbanks/banketl/internal/model"
	"github.com/largestbanks/banketl/internal/sink"
)

// Statement is a named report query.
type Statement struct {
	Name string
	SQL  string
}

// Result holds the rendered columns and rows of one statement.
type Result struct {
	Columns []string
	Rows    [][]string
}

// Reports returns the standard reports for table: the full table, the
// average GBP market cap, and the names of the first five banks.
func Reports(table string) ([]Statement, error) {
	ident, err := sink.QuoteIdent(table)
	if err != nil {
		return nil, err
	}
	return []Statement{
		{Name: "all banks", SQL: "SELECT * FROM " + ident},
		{Name: "average GBP market cap", SQL: fmt.Sprintf("SELECT AVG(%q) FROM %s", model.ColMCGBP, ident)},
		{Name: "top five names", SQL: fmt.Sprintf("SELECT %q FROM %s LIMIT 5", model.ColName, ident)},
	}, nil
}

// Exec runs one statement and renders every value as text. NULL renders as "NULL".
func Exec(ctx context.Context, db *sql.DB, stmt string) (*Result, error) {
	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("executing %q: %w", stmt, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	res := &Result{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = render(v)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return res, nil
}

// Run executes the reports for table and prints each one to w.
func Run(ctx context.Context, db *sql.DB, table string, w io.Writer) error {
	stmts, err := Reports(table)
	if err != nil {
		return err
	}
	for _, st := range stmts {
		res, err := Exec(ctx, db, st.SQL)
		if err != nil {
			return fmt.Errorf("%s: %w", st.Name, err)
		}
		if err := Print(w, st.SQL, res); err != nil {
			return err
		}
	}
	return nil
}

// Print writes the statement followed by an aligned table of its result.
func Print(w io.Writer, stmt string, res *Result) error {
	if _, err := fmt.Fprintln(w, stmt); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func render(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
