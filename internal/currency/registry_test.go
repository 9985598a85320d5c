package currency

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestOptimismSynthSet(t *testing.T) {
	r := NewRegistry(ChainIDOptimism)

	synths := []Key{
		"sUSD", "sETH", "sBTC", "sLINK", "sSOL", "sAVAX", "sMATIC",
		"sEUR", "sAAVE", "sUNI", "sINR", "sJPY", "sGBP", "sCHF", "sKRW",
		"sDOT", "sETHBTC", "sDYDX", "sAPE", "sBNB", "sDOGE", "sXMR",
		"sOP", "sDebtRatio",
	}
	for _, k := range synths {
		if !r.IsSynth(k) {
			t.Errorf("expected %s to be a synth on Optimism", k)
		}
	}

	for _, k := range []Key{"DAI", "OP", "ETH", "sXYZ"} {
		if r.IsSynth(k) {
			t.Errorf("did not expect %s to be a synth", k)
		}
	}
}

func TestRegistryTokenLookup(t *testing.T) {
	r := NewRegistry(ChainIDOptimism)

	addr := common.HexToAddress("0x4200000000000000000000000000000000000042")
	r.SetTokenList([]Token{{Address: addr, Symbol: "OP", Decimals: 18}})

	if tok, ok := r.TokenBySymbol("op"); !ok || tok.Address != addr {
		t.Errorf("case-insensitive symbol lookup failed: %+v %v", tok, ok)
	}
	if !r.IsListed("OP") {
		t.Error("expected OP to be listed")
	}
	if r.IsListed("DAI") {
		t.Error("did not expect DAI to be listed")
	}
}
