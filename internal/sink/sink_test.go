package sink

import (
	"github.com/shopspring/decimal"

	"github.com/largestbanks/banketl/internal/model"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func testTable() model.EnrichedTable {
	return model.EnrichedTable{
		{
			BankRecord:   model.BankRecord{Name: "Bank X", MarketCapUSD: dec("100.5")},
			MarketCapGBP: dec("80.4"),
			MarketCapEUR: dec("90.45"),
			MarketCapINR: dec("8040.0"),
		},
		{
			BankRecord: model.BankRecord{Name: "Bank Y"},
		},
	}
}

func assertTablesEqual(t assertT, want, got model.EnrichedTable) {
	if len(want) != len(got) {
		t.Errorf("length: want %d, got %d", len(want), len(got))
		return
	}
	for i := range want {
		if want[i].Name != got[i].Name {
			t.Errorf("row %d name: want %q, got %q", i, want[i].Name, got[i].Name)
		}
		wv, gv := want[i].Values(), got[i].Values()
		for j := range wv {
			if wv[j].Valid != gv[j].Valid || (wv[j].Valid && !wv[j].Decimal.Equal(gv[j].Decimal)) {
				t.Errorf("row %d %s: want %v, got %v", i, model.Columns[j+1], wv[j], gv[j])
			}
		}
	}
}

type assertT interface {
	Errorf(format string, args ...any)
}
