// Package domain contains the pure exchange logic: route classification,
// rate tables and quote math.
package domain

import (
	"github.com/pgrimaud/kwenta/internal/apperror"
	"github.com/pgrimaud/kwenta/internal/currency"
)

// RoutingProvider identifies which venue executes a swap.
type RoutingProvider int

const (
	// NativeExchange routes synth-to-synth swaps through the protocol's own
	// exchange contracts.
	NativeExchange RoutingProvider = iota
	// Aggregator routes token-to-token swaps through the external swap
	// aggregator.
	Aggregator
	// BridgeSwap routes mixed synth/token swaps through the bridge contract,
	// crossing the reference unit.
	BridgeSwap
)

func (p RoutingProvider) String() string {
	switch p {
	case NativeExchange:
		return "synthetix"
	case Aggregator:
		return "1inch"
	case BridgeSwap:
		return "synthswap"
	default:
		return "unknown"
	}
}

// Memberships answers which routing sets a currency key belongs to.
type Memberships interface {
	IsSynth(key currency.Key) bool
	IsListed(key currency.Key) bool
}

// SelectProvider classifies a pair into a routing provider, in priority
// order: both synths, both on the aggregator token list, everything else
// falls through to the bridge.
func SelectProvider(m Memberships, src, dst currency.Key) RoutingProvider {
	if m.IsSynth(src) && m.IsSynth(dst) {
		return NativeExchange
	}
	if m.IsListed(src) && m.IsListed(dst) {
		return Aggregator
	}
	return BridgeSwap
}

// SelectProviderStrict is SelectProvider with upstream validation: a key
// that belongs to neither set yields UnsupportedPair instead of the silent
// bridge fallthrough.
func SelectProviderStrict(m Memberships, src, dst currency.Key) (RoutingProvider, error) {
	for _, key := range []currency.Key{src, dst} {
		if !m.IsSynth(key) && !m.IsListed(key) && !key.IsETH() {
			return 0, apperror.New(apperror.CodeUnsupportedPair,
				apperror.WithContext(key.String()))
		}
	}
	return SelectProvider(m, src, dst), nil
}
