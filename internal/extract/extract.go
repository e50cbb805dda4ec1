// Package extract turns the HTML of the largest-banks page into a BankTable.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/largestbanks/banketl/internal/model"
)

const (
	minCells     = 3
	colName      = 1
	colMarketCap = 2
)

// Stats describes what the extractor saw in the selected table.
type Stats struct {
	Tables  int // tbody tags written in the markup
	Rows    int // data rows after the header
	Skipped int // rows with fewer than minCells cells
	Missing int // records whose market cap did not parse
}

// Extract parses markup and returns the records from its first table body.
// Malformed input never fails: at worst the result is empty.
func Extract(markup string) model.BankTable {
	table, _, _ := ExtractFrom(strings.NewReader(markup), 0)
	return table
}

// ExtractFrom reads markup from r and returns the records of the tbody at
// tableIndex. Only tbody tags written in the markup count, in source order;
// bodies the HTML5 tree builder would imply for a bare <table> do not. An
// out-of-range index yields an empty table.
func ExtractFrom(r io.Reader, tableIndex int) (model.BankTable, Stats, error) {
	var stats Stats

	body, count, err := selectBody(r, tableIndex)
	if err != nil {
		return nil, stats, fmt.Errorf("parsing markup: %w", err)
	}
	stats.Tables = count
	if body == nil {
		return nil, stats, nil
	}

	rows := findAll(body, atom.Tr)
	if len(rows) <= 1 {
		return nil, stats, nil
	}

	// Skip header row.
	var table model.BankTable
	for _, row := range rows[1:] {
		stats.Rows++
		cells := findAll(row, atom.Td)
		if len(cells) < minCells {
			stats.Skipped++
			continue
		}

		rec := parseRow(cells)
		if !rec.MarketCapUSD.Valid {
			stats.Missing++
		}
		table = append(table, rec)
	}
	return table, stats, nil
}

// selectBody scans the token stream for literal <tbody> start tags and
// returns the parsed contents of the one at index, plus the number of
// literal tbody tags in the document. The body ends at its matching
// </tbody>, at the </table> that encloses it, or at end of input.
func selectBody(r io.Reader, index int) (*html.Node, int, error) {
	z := html.NewTokenizer(r)

	var (
		inner     bytes.Buffer
		count     int
		found     bool
		capturing bool
		depth     int // table and tbody tags opened inside the captured body
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, 0, err
			}
			break
		}
		// TagName lowercases the raw buffer in place.
		raw := append([]byte(nil), z.Raw()...)

		var tag atom.Atom
		if tt == html.StartTagToken || tt == html.EndTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			tag = atom.Lookup(name)
		}

		if tag == atom.Tbody && tt != html.EndTagToken {
			count++
		}

		switch {
		case tag == atom.Tbody && tt != html.EndTagToken && !capturing:
			if count-1 == index {
				found = true
				capturing = tt == html.StartTagToken
			}
			continue
		case !capturing:
			continue
		case (tag == atom.Tbody || tag == atom.Table) && tt == html.StartTagToken:
			depth++
		case (tag == atom.Tbody || tag == atom.Table) && tt == html.EndTagToken:
			if depth == 0 {
				capturing = false
				continue
			}
			depth--
		}
		inner.Write(raw)
	}
	if !found {
		return nil, count, nil
	}

	parent := &html.Node{Type: html.ElementNode, Data: "tbody", DataAtom: atom.Tbody}
	nodes, err := html.ParseFragment(bytes.NewReader(inner.Bytes()), parent)
	if err != nil {
		return nil, 0, err
	}
	body := &html.Node{Type: html.ElementNode, Data: "tbody", DataAtom: atom.Tbody}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return body, count, nil
}

func parseRow(cells []*html.Node) model.BankRecord {
	name := cellText(cells[colName])
	raw := strings.ReplaceAll(cellText(cells[colMarketCap]), "\n", "")

	return model.BankRecord{
		Name:         name,
		MarketCapUSD: ParseAmount(raw),
	}
}

// ParseAmount parses a market-cap cell. Text that is not a decimal number
// yields an invalid NullDecimal instead of an error.
func ParseAmount(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// cellText joins the trimmed, non-empty text nodes under n.
func cellText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// findAll returns the descendants of n with the given tag, in document order.
func findAll(n *html.Node, tag atom.Atom) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == tag {
				found = append(found, c)
			}
			walk(c)
		}
	}
	walk(n)
	return found
}
