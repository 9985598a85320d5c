package currency

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// synthsByChain lists the synths available on each supported chain.
var synthsByChain = map[uint64][]Key{
	ChainIDEthereum: {
		"sUSD", "sEUR", "sJPY", "sAUD", "sGBP", "sKRW", "sCHF",
		"sETH", "sBTC", "sLINK", "sADA", "sAAVE", "sDOT", "sETHBTC",
	},
	ChainIDGoerli: {
		"sUSD", "sETH", "sBTC",
	},
	ChainIDOptimism: {
		"sUSD", "sETH", "sBTC", "sLINK", "sSOL", "sAVAX", "sMATIC",
		"sEUR", "sAAVE", "sUNI", "sINR", "sJPY", "sGBP", "sCHF", "sKRW",
		"sDOT", "sETHBTC", "sDYDX", "sAPE", "sBNB", "sDOGE", "sXMR",
		"sOP", "sDebtRatio",
	},
	ChainIDOptimismGoerli: {
		"sUSD", "sETH", "sBTC",
	},
}

// Registry holds per-chain currency knowledge: the synth set for the active
// chain and the aggregator token list once it has been fetched.
//
// The synth set is fixed at construction. The token list is refreshed at
// runtime, so reads and writes are guarded.
type Registry struct {
	chainID uint64
	synths  map[Key]struct{}

	mu        sync.RWMutex
	bySymbol  map[string]Token // lowercase symbol -> token
	byAddress map[common.Address]Token
}

// NewRegistry creates a registry for the given chain.
func NewRegistry(chainID uint64) *Registry {
	synths := make(map[Key]struct{})
	for _, k := range synthsByChain[chainID] {
		synths[k] = struct{}{}
	}

	return &Registry{
		chainID:   chainID,
		synths:    synths,
		bySymbol:  make(map[string]Token),
		byAddress: make(map[common.Address]Token),
	}
}

// ChainID returns the chain this registry describes.
func (r *Registry) ChainID() uint64 {
	return r.chainID
}

// IsSynth reports whether the key is a synth on the active chain.
func (r *Registry) IsSynth(key Key) bool {
	_, ok := r.synths[key]
	return ok
}

// Synths returns the synth keys available on the active chain.
func (r *Registry) Synths() []Key {
	out := make([]Key, 0, len(r.synths))
	for k := range r.synths {
		out = append(out, k)
	}
	return out
}

// SetTokenList replaces the aggregator token list.
func (r *Registry) SetTokenList(tokens []Token) {
	bySymbol := make(map[string]Token, len(tokens))
	byAddress := make(map[common.Address]Token, len(tokens))
	for _, t := range tokens {
		bySymbol[strings.ToLower(t.Symbol)] = t
		byAddress[t.Address] = t
	}

	r.mu.Lock()
	r.bySymbol = bySymbol
	r.byAddress = byAddress
	r.mu.Unlock()
}

// TokenBySymbol looks up a token list entry by symbol, case-insensitive.
func (r *Registry) TokenBySymbol(symbol string) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.bySymbol[strings.ToLower(symbol)]
	return t, ok
}

// TokenByAddress looks up a token list entry by contract address.
func (r *Registry) TokenByAddress(addr common.Address) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byAddress[addr]
	return t, ok
}

// IsListed reports whether the key's symbol appears in the token list.
func (r *Registry) IsListed(key Key) bool {
	_, ok := r.TokenBySymbol(key.String())
	return ok
}

// TokenCount returns the number of token list entries.
func (r *Registry) TokenCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySymbol)
}
