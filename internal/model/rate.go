package model

import "github.com/shopspring/decimal"

// Currency codes the transformer converts into.
const (
	CurrencyGBP = "GBP"
	CurrencyEUR = "EUR"
	CurrencyINR = "INR"
)

// TargetCurrencies lists the conversion targets in output column order.
var TargetCurrencies = []string{CurrencyGBP, CurrencyEUR, CurrencyINR}

// RateTable maps a currency code to units of that currency per one USD.
type RateTable map[string]decimal.Decimal

// Rate returns the rate for code and whether it is present.
func (t RateTable) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t[code]
	return r, ok
}
