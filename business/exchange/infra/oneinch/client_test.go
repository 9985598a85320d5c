package oneinch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/pgrimaud/kwenta/internal/config"
	"github.com/pgrimaud/kwenta/internal/currency"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(config.OneInchConfig{
		BaseURL:           baseURL,
		RequestsPerMinute: 600,
	}, currency.ChainIDOptimism, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestQuoteUsesEchoedDecimals(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/10/quote" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"fromTokenAmount": "1000000000000000000",
			"toTokenAmount": "2500000",
			"toToken": {
				"symbol": "USDC",
				"name": "USD Coin",
				"decimals": 6,
				"address": "0x7F5c764cBc14f9669B88837ca1490cCa17c31607"
			},
			"estimatedGas": 200000
		}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	from := common.HexToAddress("0x4200000000000000000000000000000000000042")
	to := common.HexToAddress("0x7F5c764cBc14f9669B88837ca1490cCa17c31607")
	out, err := c.Quote(context.Background(), from, to, decimal.New(1, 0), 18)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	// 2500000 at the echoed 6 decimals, not the 18-decimal fallback.
	if !out.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("quote output = %s, want 2.5", out)
	}
	if got := query.Get("protocols"); got != routeProtocols {
		t.Errorf("protocols param = %q, want route whitelist", got)
	}
	if got := query.Get("amount"); got != "1000000000000000000" {
		t.Errorf("amount param = %q, want raw 18-decimal units", got)
	}
}

func TestQuoteFallsBackWithoutEchoedDecimals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"fromTokenAmount": "1000000000000000000",
			"toTokenAmount": "3000000000000000000"
		}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	out, err := c.Quote(context.Background(), common.Address{}, common.Address{1}, decimal.New(1, 0), 18)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !out.Equal(decimal.RequireFromString("3")) {
		t.Errorf("quote output = %s, want 3", out)
	}
}
