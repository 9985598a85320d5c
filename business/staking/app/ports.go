// Package app contains the staking aggregation service and the ports it
// consumes.
package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/pgrimaud/kwenta/business/staking/domain"
	"github.com/pgrimaud/kwenta/internal/currency"
)

// StakingReads is the raw result of the staking batch. Legs that reverted
// are zero-valued and named in FailedLegs.
type StakingReads struct {
	EscrowedBalance   decimal.Decimal
	StakedNonEscrowed decimal.Decimal
	StakedEscrowed    decimal.Decimal
	ClaimableRewards  decimal.Decimal

	KwentaBalance     decimal.Decimal
	KwentaAllowance   decimal.Decimal
	VKwentaBalance    decimal.Decimal
	VKwentaAllowance  decimal.Decimal
	VeKwentaBalance   decimal.Decimal
	VeKwentaAllowance decimal.Decimal

	DecayRate           decimal.Decimal
	InitialWeeklySupply decimal.Decimal
	WeekCounter         uint64
	PoolTotalStaked     decimal.Decimal
	EpochPeriod         uint64

	FailedLegs []string
}

// VestingSchedule is one raw reward escrow schedule entry.
type VestingSchedule struct {
	EntryID      uint64
	EndTime      time.Time
	EscrowAmount decimal.Decimal
}

// VestingClaimable is the contract's claimable/fee split for one entry.
type VestingClaimable struct {
	Quantity decimal.Decimal
	Fee      decimal.Decimal
}

// ChainReader batches staking contract reads.
type ChainReader interface {
	// StakingReads runs the full staking batch with per-leg failure
	// tolerance.
	StakingReads(ctx context.Context, wallet common.Address) (StakingReads, error)
	// VestingSchedules pages the wallet's reward escrow entries, at most
	// maxIDs of them.
	VestingSchedules(ctx context.Context, wallet common.Address, maxIDs uint64) ([]VestingSchedule, error)
	// VestingClaimables resolves the claimable/fee split for the given
	// entry ids, in id order.
	VestingClaimables(ctx context.Context, wallet common.Address, ids []uint64) ([]VestingClaimable, error)
	// SynthBalances reads all synth holdings with USD valuations in one
	// call.
	SynthBalances(ctx context.Context, wallet common.Address) ([]domain.SynthBalance, error)
	// TokenBalances reads ERC20 (or native, for the ETH pseudo-token)
	// balances for the given tokens.
	TokenBalances(ctx context.Context, wallet common.Address, tokens []currency.Token) (map[common.Address]decimal.Decimal, error)
}
