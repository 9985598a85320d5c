// Package domain models the staking dashboard state: balances, rewards,
// supply-schedule yield and escrow entries.
package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// StakingSnapshot is a wallet's staking position, rebuilt wholesale on
// every refresh.
type StakingSnapshot struct {
	Wallet common.Address

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

	// PoolTotalStaked is the staking pool's total supply, the APY
	// denominator.
	PoolTotalStaked decimal.Decimal
	EpochPeriod     uint64
	APY             decimal.Decimal

	// FailedReads counts batch legs that reverted and were zero-defaulted.
	FailedReads int
}

// TotalStaked is the wallet's combined staked position.
func (s StakingSnapshot) TotalStaked() decimal.Decimal {
	return s.StakedNonEscrowed.Add(s.StakedEscrowed)
}

// NeedsKwentaApproval reports whether staking requires a fresh allowance.
func (s StakingSnapshot) NeedsKwentaApproval() bool {
	return s.KwentaBalance.GreaterThan(s.KwentaAllowance)
}

// NeedsVKwentaApproval reports whether redeeming vKWENTA requires a fresh
// allowance.
func (s StakingSnapshot) NeedsVKwentaApproval() bool {
	return s.VKwentaBalance.GreaterThan(s.VKwentaAllowance)
}

// NeedsVeKwentaApproval reports whether redeeming veKWENTA requires a
// fresh allowance.
func (s StakingSnapshot) NeedsVeKwentaApproval() bool {
	return s.VeKwentaBalance.GreaterThan(s.VeKwentaAllowance)
}

// EpochPeriods lists the distribution periods available for claiming,
// 1 through the current epoch plus one.
func (s StakingSnapshot) EpochPeriods() []uint64 {
	periods := make([]uint64, 0, s.EpochPeriod+1)
	for i := uint64(1); i <= s.EpochPeriod+1; i++ {
		periods = append(periods, i)
	}
	return periods
}

var (
	one        = decimal.NewFromInt(1)
	weeksPerYr = decimal.NewFromInt(52)
	oneHundred = decimal.NewFromInt(100)
)

// StakingAPY derives the pool yield from the token supply schedule. The
// weekly emission decays geometrically, so a year of rewards is the
// 52-term geometric series starting from the current week's supply:
//
//	yearly = startWeekly × (1 − r^52) / (1 − r), r = 1 − decayRate
//
// Zero when the pool is empty or the schedule has fully decayed.
func StakingAPY(decayRate, initialWeeklySupply decimal.Decimal, weekCounter uint64, poolTotalStaked decimal.Decimal) decimal.Decimal {
	supplyRate := one.Sub(decayRate)
	if !poolTotalStaked.IsPositive() || !supplyRate.IsPositive() {
		return decimal.Zero
	}

	weeks := decimal.NewFromInt(int64(weekCounter))
	startWeeklySupply := initialWeeklySupply.Mul(supplyRate.Pow(weeks))
	yearlyRewards := startWeeklySupply.
		Mul(one.Sub(supplyRate.Pow(weeksPerYr))).
		Div(one.Sub(supplyRate))

	return yearlyRewards.Div(poolTotalStaked).Div(oneHundred)
}
