package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pgrimaud/kwenta/business/staking/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTotalStaked(t *testing.T) {
	s := domain.StakingSnapshot{
		StakedNonEscrowed: d("150"),
		StakedEscrowed:    d("50"),
	}
	if !s.TotalStaked().Equal(d("200")) {
		t.Errorf("expected 200, got %s", s.TotalStaked())
	}
}

func TestNeedsApproval(t *testing.T) {
	tests := []struct {
		name      string
		balance   string
		allowance string
		want      bool
	}{
		{"balance exceeds allowance", "10", "5", true},
		{"allowance covers balance", "10", "10", false},
		{"zero balance", "0", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.StakingSnapshot{
				KwentaBalance:   d(tt.balance),
				KwentaAllowance: d(tt.allowance),
			}
			if got := s.NeedsKwentaApproval(); got != tt.want {
				t.Errorf("NeedsKwentaApproval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEpochPeriods(t *testing.T) {
	s := domain.StakingSnapshot{EpochPeriod: 3}

	got := s.EpochPeriods()
	want := []uint64{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %d periods, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("period[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestStakingAPY(t *testing.T) {
	t.Run("zero pool yields zero", func(t *testing.T) {
		got := domain.StakingAPY(d("0.02"), d("1000"), 10, decimal.Zero)
		if !got.IsZero() {
			t.Errorf("expected 0, got %s", got)
		}
	})

	t.Run("fully decayed schedule yields zero", func(t *testing.T) {
		got := domain.StakingAPY(d("1"), d("1000"), 10, d("5000"))
		if !got.IsZero() {
			t.Errorf("expected 0, got %s", got)
		}
	})

	t.Run("geometric series", func(t *testing.T) {
		decay := d("0.02")
		initial := d("1000")
		pool := d("100000")
		var weekCounter uint64 = 4

		// r = 0.98; start = 1000 × 0.98^4; yearly = start × (1 − 0.98^52)/0.02
		r := d("0.98")
		start := initial.Mul(r.Pow(d("4")))
		yearly := start.Mul(d("1").Sub(r.Pow(d("52")))).Div(d("0.02"))
		want := yearly.Div(pool).Div(d("100"))

		got := domain.StakingAPY(decay, initial, weekCounter, pool)
		if !got.Equal(want) {
			t.Errorf("APY = %s, want %s", got, want)
		}
		if !got.IsPositive() {
			t.Error("expected positive APY")
		}
	})
}
