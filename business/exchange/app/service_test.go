package app_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/pgrimaud/kwenta/business/exchange/app"
	"github.com/pgrimaud/kwenta/business/exchange/domain"
	"github.com/pgrimaud/kwenta/internal/apperror"
	"github.com/pgrimaud/kwenta/internal/currency"
	"github.com/pgrimaud/kwenta/internal/logger"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	susdAddr = common.HexToAddress("0x8c6f28f2F1A3C87F0f938b96d27520d9751ec8d9")
	sethAddr = common.HexToAddress("0xE405de8F52ba7559f9df3C368500B6E6ae6Cee49")
	opAddr   = common.HexToAddress("0x4200000000000000000000000000000000000042")
	daiAddr  = common.HexToAddress("0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1")
)

type fakeRates struct {
	table domain.RateTable
	err   error
}

func (f *fakeRates) RateTable(ctx context.Context) (domain.RateTable, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.table.Clone(), nil
}

type fakeSpots struct {
	prices map[common.Address]decimal.Decimal
	err    error
}

func (f *fakeSpots) SpotPrices(ctx context.Context, addrs []common.Address) (map[common.Address]decimal.Decimal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.prices, nil
}

// aggCall records one Quote invocation.
type aggCall struct {
	from, to common.Address
	amount   decimal.Decimal
}

type fakeAggregator struct {
	tokens []currency.Token
	rate   decimal.Decimal // output = amount × rate
	calls  []aggCall
}

func (f *fakeAggregator) Tokens(ctx context.Context) ([]currency.Token, error) {
	return f.tokens, nil
}

func (f *fakeAggregator) Quote(ctx context.Context, from, to common.Address, amount decimal.Decimal, fromDecimals uint8) (decimal.Decimal, error) {
	f.calls = append(f.calls, aggCall{from: from, to: to, amount: amount})
	return amount.Mul(f.rate), nil
}

func (f *fakeAggregator) ApproveSpender(ctx context.Context) (common.Address, error) {
	return common.Address{}, nil
}

type fakeFees struct {
	rate decimal.Decimal
}

func (f *fakeFees) ExchangeFeeRate(ctx context.Context, src, dst currency.Key) (decimal.Decimal, error) {
	return f.rate, nil
}

func (f *fakeFees) BaseFeeRate(ctx context.Context, src, dst currency.Key) (decimal.Decimal, error) {
	return f.rate.Mul(d("2")), nil
}

func (f *fakeFees) SettlementEntries(ctx context.Context, wallet common.Address, key currency.Key) (uint64, error) {
	return 0, nil
}

func (f *fakeFees) FeeReclaimSecs(ctx context.Context, wallet common.Address, key currency.Key) (uint64, error) {
	return 0, nil
}

func newService(t *testing.T, agg *fakeAggregator, rates *fakeRates) (*app.ExchangeService, *currency.Registry) {
	t.Helper()

	registry := currency.NewRegistry(currency.ChainIDOptimism)
	registry.SetTokenList([]currency.Token{
		{Address: susdAddr, Symbol: "sUSD", Decimals: 18},
		{Address: sethAddr, Symbol: "sETH", Decimals: 18},
		{Address: opAddr, Symbol: "OP", Decimals: 18},
		{Address: daiAddr, Symbol: "DAI", Decimals: 18},
	})

	cfg := app.Config{
		BridgeFee:    d("0.006"),
		BaseSlippage: d("0.01"),
		ETHSlippage:  d("0.03"),
	}

	log := logger.New(testWriter{t}, logger.LevelError, "test", nil)
	svc := app.NewExchangeService(rates, &fakeSpots{}, agg, &fakeFees{rate: d("0.003")}, registry, cfg, log)
	return svc, registry
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func defaultTable() domain.RateTable {
	return domain.RateTable{
		"sUSD": d("1"),
		"sETH": d("1500"),
		"sBTC": d("30000"),
		"OP":   d("2"),
	}
}

func TestGetQuote_Identity(t *testing.T) {
	svc, _ := newService(t, &fakeAggregator{rate: d("1")}, &fakeRates{table: defaultTable()})

	q, err := svc.GetQuote(context.Background(), "sETH", "sETH", d("3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.DestinationAmount.Equal(d("3")) || !q.FeeAmount.IsZero() {
		t.Errorf("identity quote mismatch: out=%s fee=%s", q.DestinationAmount, q.FeeAmount)
	}
}

func TestGetQuote_ZeroAmount(t *testing.T) {
	svc, _ := newService(t, &fakeAggregator{rate: d("1")}, &fakeRates{table: defaultTable()})

	q, err := svc.GetQuote(context.Background(), "sUSD", "sETH", decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.IsEmpty() {
		t.Errorf("expected empty quote, got %+v", q)
	}
}

func TestGetQuote_NativeExchange(t *testing.T) {
	svc, _ := newService(t, &fakeAggregator{rate: d("1")}, &fakeRates{table: defaultTable()})

	q, err := svc.GetQuote(context.Background(), "sUSD", "sETH", d("3000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Provider != domain.NativeExchange {
		t.Fatalf("expected NativeExchange, got %s", q.Provider)
	}

	// 3000 × (1500/1) gross, minus 0.3% fee
	gross := d("4500000")
	fee := gross.Mul(d("0.003"))
	if !q.FeeAmount.Equal(fee) {
		t.Errorf("expected fee %s, got %s", fee, q.FeeAmount)
	}
	if !q.DestinationAmount.Equal(gross.Sub(fee)) {
		t.Errorf("expected out %s, got %s", gross.Sub(fee), q.DestinationAmount)
	}
}

func TestGetQuote_AggregatorDirect(t *testing.T) {
	agg := &fakeAggregator{rate: d("0.98")}
	svc, _ := newService(t, agg, &fakeRates{table: defaultTable()})

	q, err := svc.GetQuote(context.Background(), "OP", "DAI", d("100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Provider != domain.Aggregator {
		t.Fatalf("expected Aggregator, got %s", q.Provider)
	}
	if len(agg.calls) != 1 {
		t.Fatalf("expected one aggregator call, got %d", len(agg.calls))
	}
	if agg.calls[0].from != opAddr || agg.calls[0].to != daiAddr {
		t.Errorf("unexpected call addresses: %+v", agg.calls[0])
	}
	if !q.DestinationAmount.Equal(d("98")) {
		t.Errorf("expected 98, got %s", q.DestinationAmount)
	}
}

func TestGetQuote_AggregatorSynthSourceCrossesReference(t *testing.T) {
	agg := &fakeAggregator{rate: d("1")}
	svc, _ := newService(t, agg, &fakeRates{table: defaultTable()})

	// sETH is a synth and listed; OP is listed only. Route is Aggregator,
	// the synth leg crosses sUSD first.
	q, err := svc.GetQuote(context.Background(), "sETH", "OP", d("2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agg.calls) != 1 {
		t.Fatalf("expected one aggregator call, got %d", len(agg.calls))
	}
	call := agg.calls[0]
	if call.from != susdAddr {
		t.Errorf("expected sUSD source leg, got %s", call.from.Hex())
	}
	// 2 sETH × (1/1500 cross into sUSD)... the table quotes the multiplier
	// as dstRate/srcRate, so 2 × (1/1500).
	want := d("2").Mul(d("1").Div(d("1500")))
	if !call.amount.Equal(want) {
		t.Errorf("expected reference amount %s, got %s", want, call.amount)
	}
	if q.Provider != domain.Aggregator {
		t.Errorf("expected Aggregator, got %s", q.Provider)
	}
}

func TestGetQuote_BridgeAppliesFee(t *testing.T) {
	agg := &fakeAggregator{rate: d("1")}
	svc, registry := newService(t, agg, &fakeRates{table: defaultTable()})

	// Shrink the token list so sBTC→DAI cannot route through the aggregator.
	registry.SetTokenList([]currency.Token{
		{Address: susdAddr, Symbol: "sUSD", Decimals: 18},
		{Address: daiAddr, Symbol: "DAI", Decimals: 18},
	})

	q, err := svc.GetQuote(context.Background(), "sBTC", "DAI", d("1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Provider != domain.BridgeSwap {
		t.Fatalf("expected BridgeSwap, got %s", q.Provider)
	}
	if !q.FeeAmount.IsPositive() {
		t.Error("expected positive bridge fee")
	}
	gross := q.DestinationAmount.Add(q.FeeAmount)
	if !q.FeeAmount.Equal(gross.Mul(d("0.006"))) {
		t.Errorf("fee %s is not 0.6%% of gross %s", q.FeeAmount, gross)
	}
}

func TestGetQuote_MissingMetadataYieldsEmptyQuote(t *testing.T) {
	agg := &fakeAggregator{rate: d("1")}
	svc, _ := newService(t, agg, &fakeRates{table: defaultTable()})

	q, err := svc.GetQuote(context.Background(), "XYZ", "DAI", d("5"))
	if err != nil {
		t.Fatalf("expected nil error for unknown token, got %v", err)
	}
	if !q.IsEmpty() {
		t.Errorf("expected empty quote, got %+v", q)
	}
	if len(agg.calls) != 0 {
		t.Errorf("aggregator should not be called without metadata")
	}
}

func TestRefreshTokenList(t *testing.T) {
	agg := &fakeAggregator{
		rate: d("1"),
		tokens: []currency.Token{
			{Address: opAddr, Symbol: "OP", Decimals: 18},
		},
	}
	svc, registry := newService(t, agg, &fakeRates{table: defaultTable()})

	if err := svc.RefreshTokenList(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if registry.TokenCount() != 1 {
		t.Errorf("expected 1 token after refresh, got %d", registry.TokenCount())
	}
}

func newRateService(t *testing.T, spots *fakeSpots) *app.ExchangeService {
	t.Helper()

	registry := currency.NewRegistry(currency.ChainIDOptimism)
	registry.SetTokenList([]currency.Token{
		{Address: sethAddr, Symbol: "sETH", Decimals: 18},
		{Address: daiAddr, Symbol: "DAI", Decimals: 18},
	})

	return app.NewExchangeService(&fakeRates{table: defaultTable()}, spots,
		&fakeAggregator{rate: d("1")}, &fakeFees{}, registry, app.Config{},
		logger.New(testWriter{t}, logger.LevelError, "test", nil))
}

func TestGetRate_SpotPriceFallback(t *testing.T) {
	spots := &fakeSpots{prices: map[common.Address]decimal.Decimal{
		daiAddr: d("2"),
	}}
	svc := newRateService(t, spots)

	// The oracle table has no DAI entry, so its leg resolves through the
	// external spot source: 1500 / 2.
	rate, err := svc.GetRate(context.Background(), "DAI", "sETH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rate.Equal(d("750")) {
		t.Errorf("expected 750, got %s", rate)
	}
}

func TestGetRate_SpotSourceErrorPropagates(t *testing.T) {
	spots := &fakeSpots{err: apperror.New(apperror.CodeUpstreamUnavailable)}
	svc := newRateService(t, spots)

	_, err := svc.GetRate(context.Background(), "DAI", "sETH")
	if !apperror.HasCode(err, apperror.CodeUpstreamUnavailable) {
		t.Errorf("expected UPSTREAM_UNAVAILABLE, got %v", err)
	}
}

func TestGetRate_UnpriceablePairYieldsZero(t *testing.T) {
	svc := newRateService(t, &fakeSpots{})

	rate, err := svc.GetRate(context.Background(), "DAI", "sETH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rate.IsZero() {
		t.Errorf("expected zero rate without a spot price, got %s", rate)
	}
}

// gatedRates lets the test control when each RateTable call returns, to
// exercise the last-issued-wins guarantee.
type gatedRates struct {
	mu      sync.Mutex
	n       int
	gates   []chan domain.RateTable
	started chan int
}

func (g *gatedRates) RateTable(ctx context.Context) (domain.RateTable, error) {
	g.mu.Lock()
	i := g.n
	g.n++
	g.mu.Unlock()

	g.started <- i
	return <-g.gates[i], nil
}

func TestRefreshRates_StaleResponseDiscarded(t *testing.T) {
	rates := &gatedRates{
		gates:   []chan domain.RateTable{make(chan domain.RateTable), make(chan domain.RateTable)},
		started: make(chan int, 2),
	}
	svc := app.NewExchangeService(rates, &fakeSpots{}, &fakeAggregator{rate: d("1")}, &fakeFees{},
		currency.NewRegistry(currency.ChainIDOptimism), app.Config{}, logger.New(testWriter{t}, logger.LevelError, "test", nil))

	oldTable := domain.RateTable{"sETH": d("1000")}
	newTable := domain.RateTable{"sETH": d("2000")}

	done := make(chan struct{}, 2)
	go func() { _ = svc.RefreshRates(context.Background()); done <- struct{}{} }()
	<-rates.started // first refresh holds the older generation

	go func() { _ = svc.RefreshRates(context.Background()); done <- struct{}{} }()
	<-rates.started

	// Newer generation completes first.
	rates.gates[1] <- newTable
	<-done

	// The older generation completes late and must be discarded.
	rates.gates[0] <- oldTable
	<-done

	got, ok := svc.Rates().Rate("sETH")
	if !ok {
		t.Fatal("expected sETH rate")
	}
	if !got.Equal(d("2000")) {
		t.Errorf("stale refresh overwrote newer table: got %s, want 2000", got)
	}
}
