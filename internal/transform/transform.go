// Package transform converts USD market caps into the target currencies.
package transform

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/largestbanks/banketl/internal/model"
)

// Places is the number of decimal places kept in converted amounts.
const Places = 2

// MissingRateError reports a target currency absent from the rate table.
type MissingRateError struct {
	Currency string
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("missing exchange rate for %s", e.Currency)
}

// Transform adds GBP, EUR and INR market caps to every record. Each derived
// value is usd*rate computed exactly and rounded half away from zero to
// Places decimals. A missing USD value stays missing in every derived field.
// The input table is not modified.
func Transform(table model.BankTable, rates model.RateTable) (model.EnrichedTable, error) {
	gbp, err := requireRate(rates, model.CurrencyGBP)
	if err != nil {
		return nil, err
	}
	eur, err := requireRate(rates, model.CurrencyEUR)
	if err != nil {
		return nil, err
	}
	inr, err := requireRate(rates, model.CurrencyINR)
	if err != nil {
		return nil, err
	}

	out := make(model.EnrichedTable, len(table))
	for i, rec := range table {
		out[i] = model.EnrichedRecord{
			BankRecord:   rec,
			MarketCapGBP: Convert(rec.MarketCapUSD, gbp),
			MarketCapEUR: Convert(rec.MarketCapUSD, eur),
			MarketCapINR: Convert(rec.MarketCapUSD, inr),
		}
	}
	return out, nil
}

// Convert multiplies usd by rate and rounds to Places decimals.
func Convert(usd decimal.NullDecimal, rate decimal.Decimal) decimal.NullDecimal {
	if !usd.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(usd.Decimal.Mul(rate).Round(Places))
}

func requireRate(rates model.RateTable, code string) (decimal.Decimal, error) {
	rate, ok := rates.Rate(code)
	if !ok {
		return decimal.Decimal{}, &MissingRateError{Currency: code}
	}
	return rate, nil
}
