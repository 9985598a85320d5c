package domain

import (
	"github.com/shopspring/decimal"

	"github.com/pgrimaud/kwenta/internal/apperror"
	"github.com/pgrimaud/kwenta/internal/currency"
)

// Quote is the result of pricing a swap. Ephemeral: recomputed on every
// amount or pair change, never persisted.
type Quote struct {
	Source            currency.Key
	Destination       currency.Key
	SourceAmount      decimal.Decimal
	DestinationAmount decimal.Decimal
	FeeAmount         decimal.Decimal
	SlippagePercent   decimal.Decimal
	Provider          RoutingProvider
}

// IsEmpty reports whether the quote carries no amounts. An empty quote is
// the neutral state for zero input or missing token metadata.
func (q Quote) IsEmpty() bool {
	return q.SourceAmount.IsZero() && q.DestinationAmount.IsZero()
}

// EmptyQuote returns the neutral quote for a pair.
func EmptyQuote(src, dst currency.Key, provider RoutingProvider) Quote {
	return Quote{Source: src, Destination: dst, Provider: provider}
}

// IdentityQuote prices a swap of a currency into itself: output equals
// input and no fee applies.
func IdentityQuote(key currency.Key, amount decimal.Decimal) Quote {
	return Quote{
		Source:            key,
		Destination:       key,
		SourceAmount:      amount,
		DestinationAmount: amount,
		Provider:          NativeExchange,
	}
}

// NativeQuote prices a synth-to-synth swap off the rate table: output is
// amount scaled by the cross rate, and the exchange fee is deducted from
// the output.
func NativeQuote(table RateTable, src, dst currency.Key, amount, feeRate decimal.Decimal) (Quote, error) {
	cross, ok := table.CrossRate(src, dst)
	if !ok {
		return Quote{}, apperror.New(apperror.CodeRateUnavailable,
			apperror.WithContext(src.String()+"/"+dst.String()))
	}

	gross := amount.Mul(cross)
	fee := gross.Mul(feeRate)

	return Quote{
		Source:            src,
		Destination:       dst,
		SourceAmount:      amount,
		DestinationAmount: gross.Sub(fee),
		FeeAmount:         fee,
		Provider:          NativeExchange,
	}, nil
}

// Slippage computes 1 - actual/expected, the aggregator quote's deviation
// from the oracle baseline. Zero when the baseline is unusable.
func Slippage(expected, actual decimal.Decimal) decimal.Decimal {
	if expected.IsZero() || !expected.IsPositive() {
		return decimal.Zero
	}
	return decimal.NewFromInt(1).Sub(actual.Div(expected))
}

// SlippageTolerance returns the default tolerance for building a swap:
// ethTolerance when an aggregator route touches native ETH, otherwise the
// base tolerance.
func SlippageTolerance(provider RoutingProvider, src, dst currency.Key, base, ethTolerance decimal.Decimal) decimal.Decimal {
	if provider == Aggregator && (src.IsETH() || dst.IsETH()) {
		return ethTolerance
	}
	return base
}

// ApplyBridgeFee deducts the fixed bridge fee from a gross output amount
// and returns the net output and the fee taken.
func ApplyBridgeFee(gross, feeFraction decimal.Decimal) (net, fee decimal.Decimal) {
	fee = gross.Mul(feeFraction)
	return gross.Sub(fee), fee
}

// NeedsApproval reports whether a swap on the given route requires an ERC20
// allowance before execution. Native ETH as the source never does, and the
// protocol's own exchange pulls synths without allowance.
func NeedsApproval(provider RoutingProvider, src currency.Key) bool {
	if provider == NativeExchange {
		return false
	}
	return !src.IsETH()
}
