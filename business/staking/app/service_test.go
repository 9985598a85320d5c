package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/pgrimaud/kwenta/business/staking/app"
	"github.com/pgrimaud/kwenta/business/staking/domain"
	"github.com/pgrimaud/kwenta/internal/currency"
	"github.com/pgrimaud/kwenta/internal/logger"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var wallet = common.HexToAddress("0x2222222222222222222222222222222222222222")

type fakeReader struct {
	reads      app.StakingReads
	readsErr   error
	schedules  []app.VestingSchedule
	claimables []app.VestingClaimable
	synths     []domain.SynthBalance

	balanceCalls [][]currency.Token
}

func (f *fakeReader) StakingReads(ctx context.Context, w common.Address) (app.StakingReads, error) {
	if f.readsErr != nil {
		return app.StakingReads{}, f.readsErr
	}
	return f.reads, nil
}

func (f *fakeReader) VestingSchedules(ctx context.Context, w common.Address, maxIDs uint64) ([]app.VestingSchedule, error) {
	return f.schedules, nil
}

func (f *fakeReader) VestingClaimables(ctx context.Context, w common.Address, ids []uint64) ([]app.VestingClaimable, error) {
	return f.claimables, nil
}

func (f *fakeReader) SynthBalances(ctx context.Context, w common.Address) ([]domain.SynthBalance, error) {
	return f.synths, nil
}

func (f *fakeReader) TokenBalances(ctx context.Context, w common.Address, tokens []currency.Token) (map[common.Address]decimal.Decimal, error) {
	f.balanceCalls = append(f.balanceCalls, tokens)
	out := make(map[common.Address]decimal.Decimal, len(tokens))
	for _, tok := range tokens {
		out[tok.Address] = d("1")
	}
	return out, nil
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func newService(t *testing.T, reader *fakeReader) *app.StakingService {
	t.Helper()
	log := logger.New(testWriter{t}, logger.LevelError, "test", nil)
	return app.NewStakingService(reader, app.Config{MaxVestingIDs: 1000}, log)
}

func TestRefresh_EmptyWallet(t *testing.T) {
	svc := newService(t, &fakeReader{})

	snap, err := svc.Refresh(context.Background(), common.Address{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.TotalStaked().IsZero() || snap.Wallet != (common.Address{}) {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}

func TestRefresh_BuildsSnapshot(t *testing.T) {
	reader := &fakeReader{
		reads: app.StakingReads{
			EscrowedBalance:     d("100"),
			StakedNonEscrowed:   d("150"),
			StakedEscrowed:      d("50"),
			ClaimableRewards:    d("7"),
			KwentaBalance:       d("10"),
			KwentaAllowance:     d("5"),
			DecayRate:           d("0.02"),
			InitialWeeklySupply: d("1000"),
			WeekCounter:         4,
			PoolTotalStaked:     d("100000"),
			EpochPeriod:         2,
		},
	}
	svc := newService(t, reader)

	snap, err := svc.Refresh(context.Background(), wallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !snap.TotalStaked().Equal(d("200")) {
		t.Errorf("TotalStaked = %s, want 200", snap.TotalStaked())
	}
	if !snap.NeedsKwentaApproval() {
		t.Error("expected kwenta approval needed")
	}
	if !snap.APY.IsPositive() {
		t.Errorf("expected positive APY, got %s", snap.APY)
	}
	if got := len(snap.EpochPeriods()); got != 3 {
		t.Errorf("expected 3 epoch periods, got %d", got)
	}

	// Refresh is idempotent for identical reads.
	again, err := svc.Refresh(context.Background(), wallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again.APY.Equal(snap.APY) || !again.TotalStaked().Equal(snap.TotalStaked()) {
		t.Error("identical reads produced different snapshots")
	}

	if stored := svc.Snapshot(); stored.Wallet != wallet {
		t.Errorf("snapshot not stored, got wallet %s", stored.Wallet.Hex())
	}
}

func TestRefresh_PartialFailureTolerated(t *testing.T) {
	reader := &fakeReader{
		reads: app.StakingReads{
			StakedNonEscrowed: d("5"),
			FailedLegs:        []string{"supplySchedule.DECAY_RATE", "tradingRewards.distributionEpoch"},
		},
	}
	svc := newService(t, reader)

	snap, err := svc.Refresh(context.Background(), wallet)
	if err != nil {
		t.Fatalf("partial failure must not error: %v", err)
	}
	if snap.FailedReads != 2 {
		t.Errorf("FailedReads = %d, want 2", snap.FailedReads)
	}
	if !snap.APY.IsZero() {
		t.Errorf("zero-defaulted schedule should yield zero APY, got %s", snap.APY)
	}
}

func TestListVestingEntries(t *testing.T) {
	now := time.Now()
	reader := &fakeReader{
		schedules: []app.VestingSchedule{
			{EntryID: 1, EndTime: now.Add(-time.Hour), EscrowAmount: d("30")},
			{EntryID: 2, EndTime: now.Add(time.Hour), EscrowAmount: d("0")},
			{EntryID: 3, EndTime: now.Add(48 * time.Hour), EscrowAmount: d("70")},
		},
		claimables: []app.VestingClaimable{
			{Quantity: d("30"), Fee: d("0")},
			{Quantity: d("14"), Fee: d("56")},
		},
	}
	svc := newService(t, reader)

	entries, err := svc.ListVestingEntries(context.Background(), wallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("zero-amount entry should be dropped, got %d entries", len(entries))
	}

	if entries[0].Status != domain.Vested || !entries[0].Claimable.Equal(d("30")) {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Status != domain.Vesting {
		t.Errorf("future entry should be vesting, got %s", entries[1].Status)
	}
	// Second stage overrides the provisional zero claimable.
	if !entries[1].Claimable.Equal(d("14")) || !entries[1].Fee.Equal(d("56")) {
		t.Errorf("claimable overlay not applied: %+v", entries[1])
	}

	total, err := svc.TotalVestable(context.Background(), wallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !total.Equal(d("44")) {
		t.Errorf("TotalVestable = %s, want 44", total)
	}
}

func TestListVestingEntries_EmptyWallet(t *testing.T) {
	svc := newService(t, &fakeReader{})

	entries, err := svc.ListVestingEntries(context.Background(), common.Address{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries != nil {
		t.Errorf("expected nil entries, got %v", entries)
	}
}

func TestTokenBalances_Blocklist(t *testing.T) {
	reader := &fakeReader{}
	svc := newService(t, reader)

	blocked := currency.Token{Address: common.HexToAddress("0x4922a015c4407F87432B179bb209e125432E4a2A"), Symbol: "YFI"}
	kept := currency.Token{Address: common.HexToAddress("0x4200000000000000000000000000000000000042"), Symbol: "OP"}

	balances, err := svc.TokenBalances(context.Background(), wallet, []currency.Token{blocked, kept})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(balances) != 1 {
		t.Fatalf("expected 1 balance, got %d", len(balances))
	}
	if _, ok := balances[kept.Address]; !ok {
		t.Error("kept token missing from balances")
	}
	if len(reader.balanceCalls) != 1 || len(reader.balanceCalls[0]) != 1 {
		t.Error("blocked token reached the reader")
	}
}

func TestSynthBalances(t *testing.T) {
	reader := &fakeReader{
		synths: []domain.SynthBalance{
			{Key: currency.KeySUSD, Balance: d("100"), USDBalance: d("100")},
			{Key: "sETH", Balance: d("2"), USDBalance: d("3000")},
		},
	}
	svc := newService(t, reader)

	sheet, err := svc.SynthBalances(context.Background(), wallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sheet.Balances[0].Key != "sETH" {
		t.Errorf("expected USD-descending order, got %v", sheet.Balances)
	}
	if !sheet.SUSDBalance.Equal(d("100")) {
		t.Errorf("SUSDBalance = %s, want 100", sheet.SUSDBalance)
	}
}
