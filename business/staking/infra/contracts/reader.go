// Package contracts reads the staking, escrow and balance state from the
// Kwenta protocol contracts through Multicall3.
package contracts

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pgrimaud/kwenta/business/staking/app"
	"github.com/pgrimaud/kwenta/business/staking/domain"
	"github.com/pgrimaud/kwenta/internal/apperror"
	"github.com/pgrimaud/kwenta/internal/circuitbreaker"
	"github.com/pgrimaud/kwenta/internal/currency"
	"github.com/pgrimaud/kwenta/internal/logger"
	"github.com/pgrimaud/kwenta/internal/multicall"
)

const tracerName = "staking-contracts"

// Ensure Reader implements ChainReader.
var _ app.ChainReader = (*Reader)(nil)

// Reader batches staking contract reads.
type Reader struct {
	caller *multicall.Caller

	kwenta           common.Address
	vKwenta          common.Address
	veKwenta         common.Address
	stakingRewards   common.Address
	rewardEscrow     common.Address
	supplySchedule   common.Address
	vKwentaRedeemer  common.Address
	veKwentaRedeemer common.Address
	tradingRewards   common.Address
	synthUtil        common.Address

	erc20ABI       abi.ABI
	stakingABI     abi.ABI
	escrowABI      abi.ABI
	supplyABI      abi.ABI
	distributorABI abi.ABI
	synthUtilABI   abi.ABI
	ethBalanceABI  abi.ABI

	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]multicall.Result]
	tracer trace.Tracer
}

// NewReader creates a staking reader for the given chain. Staking is only
// deployed on Optimism.
func NewReader(client multicall.ContractCaller, chainID uint64, log logger.LoggerInterface) (*Reader, error) {
	if !currency.StakingChain(chainID) {
		return nil, apperror.New(apperror.CodeNetworkMismatch,
			apperror.WithContext(fmt.Sprintf("staking not deployed on chain %d", chainID)))
	}

	caller, err := multicall.NewCaller(client)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		caller: caller,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}

	// The veKwenta contracts only exist on mainnet Optimism. On testnets
	// their legs are addressed to the zero account, which the batch
	// tolerates like any other failed leg.
	for _, c := range []struct {
		name     string
		dst      *common.Address
		optional bool
	}{
		{currency.ContractKwentaToken, &r.kwenta, false},
		{currency.ContractVKwentaToken, &r.vKwenta, false},
		{currency.ContractVeKwentaToken, &r.veKwenta, true},
		{currency.ContractStakingRewards, &r.stakingRewards, false},
		{currency.ContractRewardEscrow, &r.rewardEscrow, false},
		{currency.ContractSupplySchedule, &r.supplySchedule, false},
		{currency.ContractVKwentaRedeemer, &r.vKwentaRedeemer, false},
		{currency.ContractVeKwentaRedeemer, &r.veKwentaRedeemer, true},
		{currency.ContractTradingRewards, &r.tradingRewards, false},
		{currency.ContractSynthUtil, &r.synthUtil, false},
	} {
		addr, ok := currency.AddressFor(c.name, chainID)
		if !ok {
			if c.optional {
				continue
			}
			return nil, apperror.New(apperror.CodeNetworkMismatch,
				apperror.WithContext(fmt.Sprintf("%s not deployed on chain %d", c.name, chainID)))
		}
		*c.dst = addr
	}

	for _, a := range []struct {
		raw string
		dst *abi.ABI
	}{
		{ERC20ABI, &r.erc20ABI},
		{StakingRewardsABI, &r.stakingABI},
		{RewardEscrowABI, &r.escrowABI},
		{SupplyScheduleABI, &r.supplyABI},
		{DistributorABI, &r.distributorABI},
		{SynthUtilBalancesABI, &r.synthUtilABI},
		{EthBalanceABI, &r.ethBalanceABI},
	} {
		parsed, err := abi.JSON(strings.NewReader(a.raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
		}
		*a.dst = parsed
	}

	r.cb = circuitbreaker.New[[]multicall.Result](circuitbreaker.DefaultConfig("staking-reads"))
	return r, nil
}

func (r *Reader) aggregate(ctx context.Context, calls []multicall.Call) ([]multicall.Result, error) {
	return r.cb.Execute(func() ([]multicall.Result, error) {
		return r.caller.Aggregate(ctx, calls)
	})
}

// StakingReads runs the full staking batch. Every leg tolerates failure:
// a reverting contract zeroes its legs instead of losing the dashboard.
func (r *Reader) StakingReads(ctx context.Context, wallet common.Address) (app.StakingReads, error) {
	ctx, span := r.tracer.Start(ctx, "staking.batch_read")
	defer span.End()

	type leg struct {
		name string
		call multicall.Call
	}
	legs := []leg{
		{"rewardEscrow.balanceOf", multicall.MustNewCall(r.rewardEscrow, &r.escrowABI, "balanceOf", wallet)},
		{"stakingRewards.nonEscrowedBalanceOf", multicall.MustNewCall(r.stakingRewards, &r.stakingABI, "nonEscrowedBalanceOf", wallet)},
		{"stakingRewards.escrowedBalanceOf", multicall.MustNewCall(r.stakingRewards, &r.stakingABI, "escrowedBalanceOf", wallet)},
		{"stakingRewards.earned", multicall.MustNewCall(r.stakingRewards, &r.stakingABI, "earned", wallet)},
		{"kwenta.balanceOf", multicall.MustNewCall(r.kwenta, &r.erc20ABI, "balanceOf", wallet)},
		{"supplySchedule.DECAY_RATE", multicall.MustNewCall(r.supplySchedule, &r.supplyABI, "DECAY_RATE")},
		{"supplySchedule.INITIAL_WEEKLY_SUPPLY", multicall.MustNewCall(r.supplySchedule, &r.supplyABI, "INITIAL_WEEKLY_SUPPLY")},
		{"supplySchedule.weekCounter", multicall.MustNewCall(r.supplySchedule, &r.supplyABI, "weekCounter")},
		{"stakingRewards.totalSupply", multicall.MustNewCall(r.stakingRewards, &r.stakingABI, "totalSupply")},
		{"vKwenta.balanceOf", multicall.MustNewCall(r.vKwenta, &r.erc20ABI, "balanceOf", wallet)},
		{"vKwenta.allowance", multicall.MustNewCall(r.vKwenta, &r.erc20ABI, "allowance", wallet, r.vKwentaRedeemer)},
		{"kwenta.allowance", multicall.MustNewCall(r.kwenta, &r.erc20ABI, "allowance", wallet, r.stakingRewards)},
		{"tradingRewards.distributionEpoch", multicall.MustNewCall(r.tradingRewards, &r.distributorABI, "distributionEpoch")},
		{"veKwenta.balanceOf", multicall.MustNewCall(r.veKwenta, &r.erc20ABI, "balanceOf", wallet)},
		{"veKwenta.allowance", multicall.MustNewCall(r.veKwenta, &r.erc20ABI, "allowance", wallet, r.veKwentaRedeemer)},
	}

	calls := make([]multicall.Call, len(legs))
	for i, l := range legs {
		calls[i] = l.call.AllowFailure()
	}

	results, err := r.aggregate(ctx, calls)
	if err != nil {
		span.RecordError(err)
		return app.StakingReads{}, err
	}

	var reads app.StakingReads
	raw := func(i int) *big.Int {
		if !results[i].Success {
			reads.FailedLegs = append(reads.FailedLegs, legs[i].name)
			return nil
		}
		out, err := calls[i].Unpack(results[i].ReturnData)
		if err != nil {
			reads.FailedLegs = append(reads.FailedLegs, legs[i].name)
			return nil
		}
		return out[0].(*big.Int)
	}
	wei := func(i int) decimal.Decimal { return currency.FromWei(raw(i)) }
	count := func(i int) uint64 {
		v := raw(i)
		if v == nil {
			return 0
		}
		return v.Uint64()
	}

	reads.EscrowedBalance = wei(0)
	reads.StakedNonEscrowed = wei(1)
	reads.StakedEscrowed = wei(2)
	reads.ClaimableRewards = wei(3)
	reads.KwentaBalance = wei(4)
	reads.DecayRate = wei(5)
	reads.InitialWeeklySupply = wei(6)
	reads.WeekCounter = count(7)
	reads.PoolTotalStaked = wei(8)
	reads.VKwentaBalance = wei(9)
	reads.VKwentaAllowance = wei(10)
	reads.KwentaAllowance = wei(11)
	reads.EpochPeriod = count(12)
	reads.VeKwentaBalance = wei(13)
	reads.VeKwentaAllowance = wei(14)

	span.SetAttributes(attribute.Int("failed_legs", len(reads.FailedLegs)))
	return reads, nil
}

// vestingEntry mirrors VestingEntries.VestingEntryWithID.
type vestingEntry struct {
	EndTime      uint64
	EscrowAmount *big.Int
	EntryID      *big.Int
}

// VestingSchedules pages the wallet's escrow entries from index 0.
func (r *Reader) VestingSchedules(ctx context.Context, wallet common.Address, maxIDs uint64) ([]app.VestingSchedule, error) {
	ctx, span := r.tracer.Start(ctx, "staking.vesting_schedules")
	defer span.End()

	call, err := multicall.NewCall(r.rewardEscrow, &r.escrowABI, "getVestingSchedules",
		wallet, big.NewInt(0), new(big.Int).SetUint64(maxIDs))
	if err != nil {
		return nil, err
	}

	results, err := r.aggregate(ctx, []multicall.Call{call})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out, err := call.Unpack(results[0].ReturnData)
	if err != nil {
		return nil, err
	}
	raw := *abi.ConvertType(out[0], new([]vestingEntry)).(*[]vestingEntry)

	schedules := make([]app.VestingSchedule, 0, len(raw))
	for _, e := range raw {
		schedules = append(schedules, app.VestingSchedule{
			EntryID:      e.EntryID.Uint64(),
			EndTime:      time.Unix(int64(e.EndTime), 0),
			EscrowAmount: currency.FromWei(e.EscrowAmount),
		})
	}

	span.SetAttributes(attribute.Int("schedules", len(schedules)))
	return schedules, nil
}

// VestingClaimables resolves the claimable/fee split for each entry id in
// a second batch.
func (r *Reader) VestingClaimables(ctx context.Context, wallet common.Address, ids []uint64) ([]app.VestingClaimable, error) {
	ctx, span := r.tracer.Start(ctx, "staking.vesting_claimables",
		trace.WithAttributes(attribute.Int("ids", len(ids))),
	)
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	calls := make([]multicall.Call, len(ids))
	for i, id := range ids {
		call, err := multicall.NewCall(r.rewardEscrow, &r.escrowABI, "getVestingEntryClaimable",
			wallet, new(big.Int).SetUint64(id))
		if err != nil {
			return nil, err
		}
		calls[i] = call
	}

	results, err := r.aggregate(ctx, calls)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	claimables := make([]app.VestingClaimable, len(ids))
	for i := range calls {
		out, err := calls[i].Unpack(results[i].ReturnData)
		if err != nil {
			return nil, err
		}
		claimables[i] = app.VestingClaimable{
			Quantity: currency.FromWei(out[0].(*big.Int)),
			Fee:      currency.FromWei(out[1].(*big.Int)),
		}
	}
	return claimables, nil
}

// SynthBalances reads every synth holding with its sUSD valuation.
func (r *Reader) SynthBalances(ctx context.Context, wallet common.Address) ([]domain.SynthBalance, error) {
	ctx, span := r.tracer.Start(ctx, "staking.synth_balances")
	defer span.End()

	call, err := multicall.NewCall(r.synthUtil, &r.synthUtilABI, "synthsBalances", wallet)
	if err != nil {
		return nil, err
	}

	results, err := r.aggregate(ctx, []multicall.Call{call})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out, err := call.Unpack(results[0].ReturnData)
	if err != nil {
		return nil, err
	}
	keys := *abi.ConvertType(out[0], new([][32]byte)).(*[][32]byte)
	balances := *abi.ConvertType(out[1], new([]*big.Int)).(*[]*big.Int)
	usdBalances := *abi.ConvertType(out[2], new([]*big.Int)).(*[]*big.Int)
	if len(keys) != len(balances) || len(keys) != len(usdBalances) {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithMessage("synthsBalances returned mismatched arrays"))
	}

	synths := make([]domain.SynthBalance, 0, len(keys))
	for i, k := range keys {
		synths = append(synths, domain.SynthBalance{
			Key:        currency.KeyFromBytes32(k),
			Balance:    currency.FromWei(balances[i]),
			USDBalance: currency.FromWei(usdBalances[i]),
		})
	}
	return synths, nil
}

// TokenBalances reads wallet balances for the given tokens. The native
// coin pseudo-token goes through the Multicall3 getEthBalance helper so
// the whole read stays one batch. Reverting tokens are skipped.
func (r *Reader) TokenBalances(ctx context.Context, wallet common.Address, tokens []currency.Token) (map[common.Address]decimal.Decimal, error) {
	ctx, span := r.tracer.Start(ctx, "staking.token_balances",
		trace.WithAttributes(attribute.Int("tokens", len(tokens))),
	)
	defer span.End()

	calls := make([]multicall.Call, len(tokens))
	for i, tok := range tokens {
		var (
			call multicall.Call
			err  error
		)
		if tok.IsNative() {
			call, err = multicall.NewCall(multicall.ContractAddress, &r.ethBalanceABI, "getEthBalance", wallet)
		} else {
			call, err = multicall.NewCall(tok.Address, &r.erc20ABI, "balanceOf", wallet)
		}
		if err != nil {
			return nil, err
		}
		calls[i] = call.AllowFailure()
	}

	results, err := r.aggregate(ctx, calls)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	balances := make(map[common.Address]decimal.Decimal, len(tokens))
	for i, tok := range tokens {
		if !results[i].Success {
			continue
		}
		out, err := calls[i].Unpack(results[i].ReturnData)
		if err != nil {
			continue
		}
		balances[tok.Address] = currency.FromUnits(out[0].(*big.Int), tok.Decimals)
	}
	return balances, nil
}
