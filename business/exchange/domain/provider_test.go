package domain_test

import (
	"testing"

	"github.com/pgrimaud/kwenta/business/exchange/domain"
	"github.com/pgrimaud/kwenta/internal/apperror"
	"github.com/pgrimaud/kwenta/internal/currency"
)

// fakeMemberships is a static membership oracle for tests.
type fakeMemberships struct {
	synths map[currency.Key]bool
	listed map[currency.Key]bool
}

func (f fakeMemberships) IsSynth(k currency.Key) bool  { return f.synths[k] }
func (f fakeMemberships) IsListed(k currency.Key) bool { return f.listed[k] }

func newFakeMemberships() fakeMemberships {
	return fakeMemberships{
		synths: map[currency.Key]bool{
			"sUSD": true, "sETH": true, "sBTC": true,
		},
		listed: map[currency.Key]bool{
			"sUSD": true, "sETH": true,
			"ETH": true, "OP": true, "DAI": true,
		},
	}
}

func TestSelectProvider(t *testing.T) {
	m := newFakeMemberships()

	tests := []struct {
		name string
		src  currency.Key
		dst  currency.Key
		want domain.RoutingProvider
	}{
		{"both synths", "sUSD", "sETH", domain.NativeExchange},
		{"both synths reversed", "sETH", "sBTC", domain.NativeExchange},
		{"both listed tokens", "ETH", "OP", domain.Aggregator},
		{"listed token and listed synth", "sUSD", "DAI", domain.Aggregator},
		{"synth and unlisted synth pair", "sBTC", "OP", domain.BridgeSwap},
		{"unknown source falls through", "XYZ", "ETH", domain.BridgeSwap},
		{"unknown destination falls through", "ETH", "XYZ", domain.BridgeSwap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.SelectProvider(m, tt.src, tt.dst)
			if got != tt.want {
				t.Errorf("SelectProvider(%s, %s) = %s, want %s", tt.src, tt.dst, got, tt.want)
			}
		})
	}
}

func TestSelectProvider_AllSynthPairsAreNative(t *testing.T) {
	m := newFakeMemberships()
	synths := []currency.Key{"sUSD", "sETH", "sBTC"}

	for _, src := range synths {
		for _, dst := range synths {
			if got := domain.SelectProvider(m, src, dst); got != domain.NativeExchange {
				t.Errorf("SelectProvider(%s, %s) = %s, want NativeExchange", src, dst, got)
			}
		}
	}
}

func TestSelectProviderStrict(t *testing.T) {
	m := newFakeMemberships()

	if _, err := domain.SelectProviderStrict(m, "sUSD", "sETH"); err != nil {
		t.Fatalf("unexpected error for known pair: %v", err)
	}

	_, err := domain.SelectProviderStrict(m, "XYZ", "sETH")
	if err == nil {
		t.Fatal("expected error for unknown source")
	}
	if !apperror.HasCode(err, apperror.CodeUnsupportedPair) {
		t.Errorf("expected UNSUPPORTED_PAIR, got %v", err)
	}

	// Native ETH is valid even when absent from both sets.
	strippedETH := fakeMemberships{synths: m.synths, listed: map[currency.Key]bool{"OP": true}}
	if _, err := domain.SelectProviderStrict(strippedETH, "ETH", "sETH"); err != nil {
		t.Errorf("ETH should pass strict validation, got %v", err)
	}
}
