package model

import "github.com/shopspring/decimal"

// Column names shared by the CSV file and the database table.
const (
	ColName  = "Name"
	ColMCUSD = "MC_USD_Billion"
	ColMCGBP = "MC_GBP_Billion"
	ColMCEUR = "MC_EUR_Billion"
	ColMCINR = "MC_INR_Billion"
)

// Columns lists the output columns in order.
var Columns = []string{ColName, ColMCUSD, ColMCGBP, ColMCEUR, ColMCINR}

// BankRecord is one bank scraped from the source table.
type BankRecord struct {
	Name         string
	MarketCapUSD decimal.NullDecimal // invalid when the cell was not a number
}

// BankTable holds records in source rank order.
type BankTable []BankRecord

// EnrichedRecord is a BankRecord with market cap converted into the target currencies.
type EnrichedRecord struct {
	BankRecord
	MarketCapGBP decimal.NullDecimal
	MarketCapEUR decimal.NullDecimal
	MarketCapINR decimal.NullDecimal
}

// EnrichedTable is the transform output and the sink input.
type EnrichedTable []EnrichedRecord

// Values returns the numeric fields in column order (USD, GBP, EUR, INR).
func (r EnrichedRecord) Values() []decimal.NullDecimal {
	return []decimal.NullDecimal{r.MarketCapUSD, r.MarketCapGBP, r.MarketCapEUR, r.MarketCapINR}
}
