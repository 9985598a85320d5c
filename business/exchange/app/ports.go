// Package app contains the exchange application services and the ports
// they consume.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/pgrimaud/kwenta/business/exchange/domain"
	"github.com/pgrimaud/kwenta/internal/currency"
)

// RateSource provides the on-chain oracle rate table.
type RateSource interface {
	// RateTable returns all synth rates plus the additional tracked
	// currencies, quoted in the reference unit, in one batched read.
	RateTable(ctx context.Context) (domain.RateTable, error)
}

// SpotSource provides external USD spot prices by token address.
type SpotSource interface {
	SpotPrices(ctx context.Context, addrs []common.Address) (map[common.Address]decimal.Decimal, error)
}

// AggregatorAPI is the external swap aggregator.
type AggregatorAPI interface {
	// Tokens fetches the aggregator token list for the active chain.
	Tokens(ctx context.Context) ([]currency.Token, error)
	// Quote prices from→to for an amount denominated in from's units.
	// The returned amount is denominated in to's units.
	Quote(ctx context.Context, from, to common.Address, amount decimal.Decimal, fromDecimals uint8) (decimal.Decimal, error)
	// ApproveSpender returns the router address allowances must target.
	ApproveSpender(ctx context.Context) (common.Address, error)
}

// SwapAggregator submits swaps and allowance grants, tracking each
// transaction to a terminal state.
type SwapAggregator interface {
	// Swap trades amount of from into to with the given slippage
	// percentage (1 = 1%).
	Swap(ctx context.Context, from, to currency.Token, amount, slippage decimal.Decimal) (*domain.TxHandle, error)
	// Approve grants the aggregator router an allowance for the token.
	Approve(ctx context.Context, token currency.Token) (*domain.TxHandle, error)
}

// FeeSource provides protocol fee schedule reads.
type FeeSource interface {
	// ExchangeFeeRate is the effective fee fraction for a swap of src→dst.
	ExchangeFeeRate(ctx context.Context, src, dst currency.Key) (decimal.Decimal, error)
	// BaseFeeRate is the sum of the per-asset fee components for the pair.
	BaseFeeRate(ctx context.Context, src, dst currency.Key) (decimal.Decimal, error)
	// SettlementEntries returns the count of unsettled exchange entries
	// owed to the wallet for a currency.
	SettlementEntries(ctx context.Context, wallet common.Address, key currency.Key) (uint64, error)
	// FeeReclaimSecs returns the seconds left in the fee reclamation
	// waiting period for the wallet and currency.
	FeeReclaimSecs(ctx context.Context, wallet common.Address, key currency.Key) (uint64, error)
}
