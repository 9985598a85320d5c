package domain_test

import (
	"testing"
	"time"

	"github.com/pgrimaud/kwenta/business/staking/domain"
	"github.com/pgrimaud/kwenta/internal/currency"
)

func TestNewEscrowEntry(t *testing.T) {
	now := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	amount := d("100")

	t.Run("future unlock is vesting", func(t *testing.T) {
		e := domain.NewEscrowEntry(1, now.Add(24*time.Hour), amount, now)

		if e.Status != domain.Vesting {
			t.Fatalf("expected Vesting, got %s", e.Status)
		}
		if !e.Claimable.IsZero() {
			t.Errorf("vesting entry claims nothing, got %s", e.Claimable)
		}
		if !e.Fee.Equal(amount) {
			t.Errorf("vesting entry forfeits everything, got fee %s", e.Fee)
		}
	})

	t.Run("past unlock is vested", func(t *testing.T) {
		e := domain.NewEscrowEntry(2, now.Add(-time.Hour), amount, now)

		if e.Status != domain.Vested {
			t.Fatalf("expected Vested, got %s", e.Status)
		}
		if !e.Claimable.Equal(amount) {
			t.Errorf("vested entry claims fully, got %s", e.Claimable)
		}
		if !e.Fee.IsZero() {
			t.Errorf("vested entry pays no fee, got %s", e.Fee)
		}
	})
}

func TestWithClaimable(t *testing.T) {
	now := time.Now()
	e := domain.NewEscrowEntry(3, now.Add(time.Hour), d("100"), now)

	enriched := e.WithClaimable(d("40"), d("60"))
	if !enriched.Claimable.Equal(d("40")) || !enriched.Fee.Equal(d("60")) {
		t.Errorf("overlay not applied: claimable=%s fee=%s", enriched.Claimable, enriched.Fee)
	}
	// The first-stage entry is unchanged.
	if !e.Claimable.IsZero() || !e.Fee.Equal(d("100")) {
		t.Error("WithClaimable mutated the original entry")
	}
}

func TestTotalVestable(t *testing.T) {
	now := time.Now()
	entries := []domain.EscrowEntry{
		domain.NewEscrowEntry(1, now.Add(-time.Hour), d("30"), now),
		domain.NewEscrowEntry(2, now.Add(time.Hour), d("70"), now),
		domain.NewEscrowEntry(3, now.Add(-time.Minute), d("12.5"), now),
	}

	if got := domain.TotalVestable(entries); !got.Equal(d("42.5")) {
		t.Errorf("TotalVestable = %s, want 42.5", got)
	}
}

func TestNewSynthBalanceSheet(t *testing.T) {
	sheet := domain.NewSynthBalanceSheet([]domain.SynthBalance{
		{Key: "sETH", Balance: d("1"), USDBalance: d("1500")},
		{Key: currency.KeySUSD, Balance: d("250"), USDBalance: d("250")},
		{Key: "sBTC", Balance: d("0"), USDBalance: d("0")},
		{Key: "sLINK", Balance: d("500"), USDBalance: d("3000")},
	})

	if len(sheet.Balances) != 3 {
		t.Fatalf("zero balances should be dropped, got %d entries", len(sheet.Balances))
	}
	if sheet.Balances[0].Key != "sLINK" || sheet.Balances[1].Key != "sETH" {
		t.Errorf("expected USD-descending order, got %v", sheet.Balances)
	}
	if !sheet.TotalUSD.Equal(d("4750")) {
		t.Errorf("TotalUSD = %s, want 4750", sheet.TotalUSD)
	}
	if !sheet.SUSDBalance.Equal(d("250")) {
		t.Errorf("SUSDBalance = %s, want 250", sheet.SUSDBalance)
	}
}
