package app

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pgrimaud/kwenta/business/staking/domain"
	"github.com/pgrimaud/kwenta/internal/apperror"
	"github.com/pgrimaud/kwenta/internal/currency"
	"github.com/pgrimaud/kwenta/internal/logger"
)

const tracerName = "staking"

// Token addresses excluded from balance reads.
var blockedTokens = map[common.Address]struct{}{
	common.HexToAddress("0x4922a015c4407F87432B179bb209e125432E4a2A"): {},
}

// Config carries the staking aggregator tunables.
type Config struct {
	// MaxVestingIDs caps the escrow schedule page size.
	MaxVestingIDs uint64
}

// StakingService aggregates a wallet's staking, escrow and balance state.
//
// Snapshots are replaced wholesale under a monotonic generation so polls
// racing head-triggered refreshes cannot roll the dashboard backwards.
type StakingService struct {
	reader ChainReader
	cfg    Config
	log    logger.LoggerInterface
	tracer trace.Tracer
	now    func() time.Time

	gen     atomic.Uint64
	mu      sync.RWMutex
	snap    domain.StakingSnapshot
	snapGen uint64
}

// NewStakingService wires the aggregator to its chain reader.
func NewStakingService(reader ChainReader, cfg Config, log logger.LoggerInterface) *StakingService {
	if cfg.MaxVestingIDs == 0 {
		cfg.MaxVestingIDs = 1000
	}
	return &StakingService{
		reader: reader,
		cfg:    cfg,
		log:    log,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
}

// Refresh rebuilds the wallet's staking snapshot from one batched read.
// Legs that fail are zero-defaulted and logged; only a failure of the
// batch itself is an error. An empty wallet yields a zero snapshot.
func (s *StakingService) Refresh(ctx context.Context, wallet common.Address) (domain.StakingSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "staking.refresh",
		trace.WithAttributes(attribute.String("wallet", wallet.Hex())),
	)
	defer span.End()

	gen := s.gen.Add(1)

	if wallet == (common.Address{}) {
		snap := domain.StakingSnapshot{}
		s.store(snap, gen)
		return snap, nil
	}

	reads, err := s.reader.StakingReads(ctx, wallet)
	if err != nil {
		span.RecordError(err)
		return domain.StakingSnapshot{}, err
	}

	snap := domain.StakingSnapshot{
		Wallet:            wallet,
		EscrowedBalance:   reads.EscrowedBalance,
		StakedNonEscrowed: reads.StakedNonEscrowed,
		StakedEscrowed:    reads.StakedEscrowed,
		ClaimableRewards:  reads.ClaimableRewards,
		KwentaBalance:     reads.KwentaBalance,
		KwentaAllowance:   reads.KwentaAllowance,
		VKwentaBalance:    reads.VKwentaBalance,
		VKwentaAllowance:  reads.VKwentaAllowance,
		VeKwentaBalance:   reads.VeKwentaBalance,
		VeKwentaAllowance: reads.VeKwentaAllowance,
		PoolTotalStaked:   reads.PoolTotalStaked,
		EpochPeriod:       reads.EpochPeriod,
		APY: domain.StakingAPY(
			reads.DecayRate,
			reads.InitialWeeklySupply,
			reads.WeekCounter,
			reads.PoolTotalStaked,
		),
		FailedReads: len(reads.FailedLegs),
	}

	if len(reads.FailedLegs) > 0 {
		partial := apperror.New(apperror.CodePartialReadFailure,
			apperror.WithContext(strings.Join(reads.FailedLegs, ",")))
		s.log.Warn(ctx, "staking batch partially failed",
			"failed_legs", reads.FailedLegs,
			"error", partial,
		)
	}

	applied := s.store(snap, gen)
	span.SetAttributes(
		attribute.Bool("applied", applied),
		attribute.Int("failed_legs", len(reads.FailedLegs)),
	)
	return snap, nil
}

// store applies the snapshot last-issued-wins.
func (s *StakingService) store(snap domain.StakingSnapshot, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen <= s.snapGen {
		return false
	}
	s.snap = snap
	s.snapGen = gen
	return true
}

// Snapshot returns the last applied snapshot.
func (s *StakingService) Snapshot() domain.StakingSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// ListVestingEntries builds the wallet's escrow table: page the schedules,
// drop empty entries, derive status from unlock time, then overlay the
// contract's exact claimable/fee split from a second batch.
func (s *StakingService) ListVestingEntries(ctx context.Context, wallet common.Address) ([]domain.EscrowEntry, error) {
	ctx, span := s.tracer.Start(ctx, "staking.list_vesting_entries",
		trace.WithAttributes(attribute.String("wallet", wallet.Hex())),
	)
	defer span.End()

	if wallet == (common.Address{}) {
		return nil, nil
	}

	schedules, err := s.reader.VestingSchedules(ctx, wallet, s.cfg.MaxVestingIDs)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := s.now()
	entries := make([]domain.EscrowEntry, 0, len(schedules))
	ids := make([]uint64, 0, len(schedules))
	for _, sched := range schedules {
		if !sched.EscrowAmount.IsPositive() {
			continue
		}
		entries = append(entries, domain.NewEscrowEntry(sched.EntryID, sched.EndTime, sched.EscrowAmount, now))
		ids = append(ids, sched.EntryID)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	claimables, err := s.reader.VestingClaimables(ctx, wallet, ids)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for i := range entries {
		if i < len(claimables) {
			entries[i] = entries[i].WithClaimable(claimables[i].Quantity, claimables[i].Fee)
		}
	}

	span.SetAttributes(attribute.Int("entries", len(entries)))
	return entries, nil
}

// TotalVestable sums the claimable amounts across the wallet's entries.
func (s *StakingService) TotalVestable(ctx context.Context, wallet common.Address) (decimal.Decimal, error) {
	entries, err := s.ListVestingEntries(ctx, wallet)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.TotalVestable(entries), nil
}

// SynthBalances reads the wallet's synth holdings, sorted by USD value.
func (s *StakingService) SynthBalances(ctx context.Context, wallet common.Address) (domain.SynthBalanceSheet, error) {
	ctx, span := s.tracer.Start(ctx, "staking.synth_balances")
	defer span.End()

	if wallet == (common.Address{}) {
		return domain.SynthBalanceSheet{}, nil
	}

	balances, err := s.reader.SynthBalances(ctx, wallet)
	if err != nil {
		span.RecordError(err)
		return domain.SynthBalanceSheet{}, err
	}
	return domain.NewSynthBalanceSheet(balances), nil
}

// TokenBalances reads wallet balances for the given tokens, skipping the
// blocklist.
func (s *StakingService) TokenBalances(ctx context.Context, wallet common.Address, tokens []currency.Token) (map[common.Address]decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "staking.token_balances")
	defer span.End()

	if wallet == (common.Address{}) {
		return map[common.Address]decimal.Decimal{}, nil
	}

	filtered := make([]currency.Token, 0, len(tokens))
	for _, tok := range tokens {
		if _, blocked := blockedTokens[tok.Address]; blocked {
			continue
		}
		filtered = append(filtered, tok)
	}
	if len(filtered) == 0 {
		return map[common.Address]decimal.Decimal{}, nil
	}

	return s.reader.TokenBalances(ctx, wallet, filtered)
}
