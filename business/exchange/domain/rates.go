package domain

import (
	"github.com/shopspring/decimal"

	"github.com/pgrimaud/kwenta/internal/currency"
)

// RateTable maps currency keys to their price quoted in the reference unit
// (sUSD). It is rebuilt wholesale on every refresh, never merged.
type RateTable map[currency.Key]decimal.Decimal

// Rate returns the reference-unit price for key.
func (t RateTable) Rate(key currency.Key) (decimal.Decimal, bool) {
	r, ok := t[key]
	return r, ok
}

// CrossRate returns the multiplier applied to a source amount to price it
// in the destination currency: destinationRate / sourceRate. The second
// return is false when either rate is missing or the source rate is zero.
func (t RateTable) CrossRate(src, dst currency.Key) (decimal.Decimal, bool) {
	srcRate, ok := t[src]
	if !ok || srcRate.IsZero() {
		return decimal.Zero, false
	}
	dstRate, ok := t[dst]
	if !ok {
		return decimal.Zero, false
	}
	return dstRate.Div(srcRate), true
}

// Clone returns a copy of the table.
func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
