// Package currency models Synthetix currency keys, ERC20 token metadata and
// the per-chain contract address book.
package currency

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// Key is a currency key as used by the Synthetix protocol ("sUSD", "sETH")
// or a plain token symbol ("ETH", "SNX", "OP").
type Key string

// Well-known currency keys.
const (
	KeyETH  Key = "ETH"
	KeySUSD Key = "sUSD"
	KeySETH Key = "sETH"
	KeySBTC Key = "sBTC"
	KeySNX  Key = "SNX"
	KeyOP   Key = "OP"
)

// Keys priced through ExchangeRates.ratesForCurrencies in addition to the
// synth rates returned by SynthUtil.
var AdditionalRateKeys = []Key{
	"SNX", "XAU", "XAG", "DYDX", "APE", "BNB", "DOGE", "DebtRatio", "XMR", "OP",
}

// String returns the key as a plain string.
func (k Key) String() string {
	return string(k)
}

// Bytes32 encodes the key as a left-aligned, zero-padded bytes32, the
// encoding Synthetix contracts expect for currency key arguments.
func (k Key) Bytes32() [32]byte {
	var out [32]byte
	copy(out[:], k)
	return out
}

// KeyFromBytes32 decodes a bytes32 currency key, trimming the zero padding.
func KeyFromBytes32(b [32]byte) Key {
	return Key(bytes.TrimRight(b[:], "\x00"))
}

// HasSynthPrefix reports whether the key follows the synth naming scheme
// (a lowercase "s" followed by the underlying symbol).
func (k Key) HasSynthPrefix() bool {
	return len(k) > 1 && k[0] == 's'
}

// Unwrapped strips the synth prefix, mapping "sETH" to "ETH". Keys without
// the prefix are returned unchanged.
func (k Key) Unwrapped() Key {
	if k.HasSynthPrefix() {
		return k[1:]
	}
	return k
}

// IsETH reports whether the key denotes the native coin.
func (k Key) IsETH() bool {
	return k == KeyETH
}

// Keys with guaranteed atomic exchange support on L1.
var atomicExchangeKeysL1 = map[Key]struct{}{
	KeySUSD: {},
	KeySETH: {},
	KeySBTC: {},
	"sEUR":  {},
}

// SupportsAtomicExchange reports whether the key can be exchanged atomically
// on Ethereum mainnet.
func (k Key) SupportsAtomicExchange() bool {
	_, ok := atomicExchangeKeysL1[k]
	return ok
}

// NativeTokenAddress is the pseudo-address aggregators use for the chain's
// native coin.
var NativeTokenAddress = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// WETHAddress is the canonical mainnet WETH address, used when an upstream
// needs an ERC20 stand-in for native ETH.
var WETHAddress = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
