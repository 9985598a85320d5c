package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pgrimaud/kwenta/business/exchange/domain"
	"github.com/pgrimaud/kwenta/internal/apperror"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestIdentityQuote(t *testing.T) {
	q := domain.IdentityQuote("sETH", d("12.5"))

	if !q.DestinationAmount.Equal(q.SourceAmount) {
		t.Errorf("identity quote should echo the amount, got %s", q.DestinationAmount)
	}
	if !q.FeeAmount.IsZero() {
		t.Errorf("identity quote should carry no fee, got %s", q.FeeAmount)
	}
}

func TestNativeQuote(t *testing.T) {
	table := domain.RateTable{
		"A":    d("2"),
		"B":    d("4"),
		"sUSD": d("1"),
	}

	t.Run("cross rate without fee", func(t *testing.T) {
		q, err := domain.NativeQuote(table, "A", "B", d("10"), decimal.Zero)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 10 × (4/2) = 20
		if !q.DestinationAmount.Equal(d("20")) {
			t.Errorf("expected 20, got %s", q.DestinationAmount)
		}
	})

	t.Run("reference unit destination", func(t *testing.T) {
		q, err := domain.NativeQuote(table, "B", "sUSD", d("10"), decimal.Zero)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !q.DestinationAmount.Equal(d("2.5")) {
			t.Errorf("expected 2.5, got %s", q.DestinationAmount)
		}
	})

	t.Run("fee reduces output", func(t *testing.T) {
		noFee, err := domain.NativeQuote(table, "A", "B", d("10"), decimal.Zero)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		withFee, err := domain.NativeQuote(table, "A", "B", d("10"), d("0.003"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !withFee.FeeAmount.IsPositive() {
			t.Error("expected positive fee")
		}
		if withFee.DestinationAmount.GreaterThanOrEqual(noFee.DestinationAmount) {
			t.Errorf("fee should reduce output: %s >= %s",
				withFee.DestinationAmount, noFee.DestinationAmount)
		}
		sum := withFee.DestinationAmount.Add(withFee.FeeAmount)
		if !sum.Equal(noFee.DestinationAmount) {
			t.Errorf("net + fee should equal gross: %s != %s", sum, noFee.DestinationAmount)
		}
	})

	t.Run("missing rate", func(t *testing.T) {
		_, err := domain.NativeQuote(table, "A", "UNKNOWN", d("10"), decimal.Zero)
		if !apperror.HasCode(err, apperror.CodeRateUnavailable) {
			t.Errorf("expected RATE_UNAVAILABLE, got %v", err)
		}
	})
}

func TestSlippage(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		actual   string
		want     string
	}{
		{"no deviation", "100", "100", "0"},
		{"two percent worse", "100", "98", "0.02"},
		{"better than oracle", "100", "101", "-0.01"},
		{"zero baseline", "0", "98", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.Slippage(d(tt.expected), d(tt.actual))
			if !got.Equal(d(tt.want)) {
				t.Errorf("Slippage(%s, %s) = %s, want %s", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}

func TestSlippageTolerance(t *testing.T) {
	base, eth := d("0.01"), d("0.03")

	if got := domain.SlippageTolerance(domain.Aggregator, "ETH", "OP", base, eth); !got.Equal(eth) {
		t.Errorf("ETH leg on aggregator should use eth tolerance, got %s", got)
	}
	if got := domain.SlippageTolerance(domain.Aggregator, "OP", "DAI", base, eth); !got.Equal(base) {
		t.Errorf("non-ETH aggregator pair should use base tolerance, got %s", got)
	}
	if got := domain.SlippageTolerance(domain.BridgeSwap, "ETH", "sUSD", base, eth); !got.Equal(base) {
		t.Errorf("bridge route should use base tolerance even with ETH, got %s", got)
	}
}

func TestApplyBridgeFee(t *testing.T) {
	net, fee := domain.ApplyBridgeFee(d("200"), d("0.006"))

	if !fee.Equal(d("1.2")) {
		t.Errorf("expected fee 1.2, got %s", fee)
	}
	if !net.Equal(d("198.8")) {
		t.Errorf("expected net 198.8, got %s", net)
	}
}

func TestNeedsApproval(t *testing.T) {
	if domain.NeedsApproval(domain.NativeExchange, "sUSD") {
		t.Error("native exchange never needs approval")
	}
	if domain.NeedsApproval(domain.Aggregator, "ETH") {
		t.Error("native ETH source never needs approval")
	}
	if !domain.NeedsApproval(domain.Aggregator, "OP") {
		t.Error("ERC20 source on aggregator needs approval")
	}
	if !domain.NeedsApproval(domain.BridgeSwap, "sUSD") {
		t.Error("bridge route with token source needs approval")
	}
}
