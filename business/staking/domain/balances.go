package domain

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pgrimaud/kwenta/internal/currency"
)

// SynthBalance is one synth holding with its USD valuation.
type SynthBalance struct {
	Key        currency.Key
	Balance    decimal.Decimal
	USDBalance decimal.Decimal
}

// SynthBalanceSheet is a wallet's synth holdings sorted by USD value.
type SynthBalanceSheet struct {
	Balances []SynthBalance
	TotalUSD decimal.Decimal
	// SUSDBalance is broken out because sUSD funds most exchanges.
	SUSDBalance decimal.Decimal
}

// NewSynthBalanceSheet filters zero balances, sorts by USD value
// descending and derives the totals.
func NewSynthBalanceSheet(balances []SynthBalance) SynthBalanceSheet {
	sheet := SynthBalanceSheet{}
	for _, b := range balances {
		if !b.Balance.IsPositive() {
			continue
		}
		sheet.Balances = append(sheet.Balances, b)
		sheet.TotalUSD = sheet.TotalUSD.Add(b.USDBalance)
		if b.Key == currency.KeySUSD {
			sheet.SUSDBalance = b.Balance
		}
	}

	sort.SliceStable(sheet.Balances, func(i, j int) bool {
		return sheet.Balances[i].USDBalance.GreaterThan(sheet.Balances[j].USDBalance)
	})
	return sheet
}
