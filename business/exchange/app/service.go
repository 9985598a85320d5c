package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pgrimaud/kwenta/business/exchange/domain"
	"github.com/pgrimaud/kwenta/internal/apperror"
	"github.com/pgrimaud/kwenta/internal/currency"
	"github.com/pgrimaud/kwenta/internal/logger"
)

const tracerName = "exchange"

// Config carries the quote engine tunables.
type Config struct {
	// BridgeFee is the fixed fee fraction applied to bridge swaps.
	BridgeFee decimal.Decimal
	// BaseSlippage is the default slippage tolerance for swap building.
	BaseSlippage decimal.Decimal
	// ETHSlippage is the tolerance when an aggregator route touches ETH.
	ETHSlippage decimal.Decimal
}

// ExchangeService resolves rates and prices swaps across the three routing
// providers.
//
// The rate table is replaced wholesale under a monotonic generation: a
// refresh that completes after a newer one is discarded, so racing poll
// and user-triggered refreshes cannot roll the table backwards.
type ExchangeService struct {
	rates    RateSource
	spots    SpotSource
	agg      AggregatorAPI
	fees     FeeSource
	registry *currency.Registry
	cfg      Config
	log      logger.LoggerInterface
	tracer   trace.Tracer

	gen      atomic.Uint64
	mu       sync.RWMutex
	table    domain.RateTable
	tableGen uint64
}

// NewExchangeService wires the quote engine to its sources.
func NewExchangeService(
	rates RateSource,
	spots SpotSource,
	agg AggregatorAPI,
	fees FeeSource,
	registry *currency.Registry,
	cfg Config,
	log logger.LoggerInterface,
) *ExchangeService {
	return &ExchangeService{
		rates:    rates,
		spots:    spots,
		agg:      agg,
		fees:     fees,
		registry: registry,
		cfg:      cfg,
		log:      log,
		tracer:   otel.Tracer(tracerName),
	}
}

// RefreshTokenList fetches the aggregator token list and installs it in
// the currency registry.
func (s *ExchangeService) RefreshTokenList(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "exchange.refresh_token_list")
	defer span.End()

	tokens, err := s.agg.Tokens(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.registry.SetTokenList(tokens)
	s.log.Info(ctx, "token list refreshed", "tokens", len(tokens))
	return nil
}

// RefreshRates fetches a fresh rate table. Responses are applied
// last-issued-wins: a slow fetch never overwrites a newer table.
func (s *ExchangeService) RefreshRates(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "exchange.refresh_rates")
	defer span.End()

	gen := s.gen.Add(1)

	table, err := s.rates.RateTable(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.mu.Lock()
	applied := gen > s.tableGen
	if applied {
		s.table = table
		s.tableGen = gen
	}
	s.mu.Unlock()

	if !applied {
		s.log.Debug(ctx, "discarded stale rate refresh", "generation", gen)
	}
	span.SetAttributes(
		attribute.Int("rates", len(table)),
		attribute.Bool("applied", applied),
	)
	return nil
}

// Rates returns a snapshot of the current rate table.
func (s *ExchangeService) Rates() domain.RateTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone()
}

// currentRates returns the cached table, fetching it synchronously if no
// refresh has completed yet.
func (s *ExchangeService) currentRates(ctx context.Context) (domain.RateTable, error) {
	s.mu.RLock()
	table := s.table
	s.mu.RUnlock()

	if table != nil {
		return table, nil
	}

	if err := s.RefreshRates(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table, nil
}

// GetQuote prices a swap of amount src into dst.
//
// src==dst is the identity. A non-positive amount or missing token
// metadata yields an empty quote and a nil error so callers can render a
// neutral state.
func (s *ExchangeService) GetQuote(ctx context.Context, src, dst currency.Key, amount decimal.Decimal) (domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "exchange.get_quote",
		trace.WithAttributes(
			attribute.String("source", src.String()),
			attribute.String("destination", dst.String()),
			attribute.String("amount", amount.String()),
		),
	)
	defer span.End()

	if src == dst {
		return domain.IdentityQuote(src, amount), nil
	}

	provider := domain.SelectProvider(s.registry, src, dst)
	span.SetAttributes(attribute.String("provider", provider.String()))

	if !amount.IsPositive() {
		return domain.EmptyQuote(src, dst, provider), nil
	}

	table, err := s.currentRates(ctx)
	if err != nil {
		return domain.Quote{}, err
	}

	switch provider {
	case domain.NativeExchange:
		feeRate, err := s.fees.ExchangeFeeRate(ctx, src, dst)
		if err != nil {
			return domain.Quote{}, err
		}
		return domain.NativeQuote(table, src, dst, amount, feeRate)
	case domain.Aggregator:
		return s.aggregatorQuote(ctx, table, src, dst, amount)
	default:
		return s.bridgeQuote(ctx, table, src, dst, amount)
	}
}

// aggregatorQuote prices a swap through the aggregator. A synth leg
// crosses the reference unit first: the oracle rate must resolve before
// the aggregator leg is queried.
func (s *ExchangeService) aggregatorQuote(ctx context.Context, table domain.RateTable, src, dst currency.Key, amount decimal.Decimal) (domain.Quote, error) {
	out, ok, err := s.routeThroughReference(ctx, table, src, dst, amount)
	if err != nil {
		return domain.Quote{}, err
	}
	if !ok {
		return domain.EmptyQuote(src, dst, domain.Aggregator), nil
	}

	slippage := decimal.Zero
	if cross, hasRate := table.CrossRate(src, dst); hasRate {
		slippage = domain.Slippage(amount.Mul(cross), out)
	}

	return domain.Quote{
		Source:            src,
		Destination:       dst,
		SourceAmount:      amount,
		DestinationAmount: out,
		SlippagePercent:   slippage,
		Provider:          domain.Aggregator,
	}, nil
}

// bridgeQuote prices a mixed synth/token swap: synth leg through the
// oracle, external leg through the aggregator, fixed bridge fee on the
// output.
func (s *ExchangeService) bridgeQuote(ctx context.Context, table domain.RateTable, src, dst currency.Key, amount decimal.Decimal) (domain.Quote, error) {
	gross, ok, err := s.routeThroughReference(ctx, table, src, dst, amount)
	if err != nil {
		return domain.Quote{}, err
	}
	if !ok {
		return domain.EmptyQuote(src, dst, domain.BridgeSwap), nil
	}

	net, fee := domain.ApplyBridgeFee(gross, s.cfg.BridgeFee)

	return domain.Quote{
		Source:            src,
		Destination:       dst,
		SourceAmount:      amount,
		DestinationAmount: net,
		FeeAmount:         fee,
		Provider:          domain.BridgeSwap,
	}, nil
}

// routeThroughReference resolves the aggregator output for a pair,
// crossing sUSD when a leg is a synth. ok is false when token metadata is
// missing, which callers render as an empty quote.
func (s *ExchangeService) routeThroughReference(ctx context.Context, table domain.RateTable, src, dst currency.Key, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	srcSynth := s.registry.IsSynth(src)
	dstSynth := s.registry.IsSynth(dst)

	switch {
	case srcSynth && !dstSynth:
		susd, ok := s.tokenFor(currency.KeySUSD)
		if !ok {
			return decimal.Zero, false, nil
		}
		dstTok, ok := s.tokenFor(dst)
		if !ok {
			return decimal.Zero, false, nil
		}
		cross, ok := table.CrossRate(src, currency.KeySUSD)
		if !ok {
			return decimal.Zero, false, rateUnavailable(src, currency.KeySUSD)
		}
		usdAmount := amount.Mul(cross)
		out, err := s.agg.Quote(ctx, susd.Address, dstTok.Address, usdAmount, susd.Decimals)
		return out, true, err

	case dstSynth && !srcSynth:
		srcTok, ok := s.tokenFor(src)
		if !ok {
			return decimal.Zero, false, nil
		}
		susd, ok := s.tokenFor(currency.KeySUSD)
		if !ok {
			return decimal.Zero, false, nil
		}
		usdOut, err := s.agg.Quote(ctx, srcTok.Address, susd.Address, amount, srcTok.Decimals)
		if err != nil {
			return decimal.Zero, true, err
		}
		cross, ok := table.CrossRate(currency.KeySUSD, dst)
		if !ok {
			return decimal.Zero, false, rateUnavailable(currency.KeySUSD, dst)
		}
		return usdOut.Mul(cross), true, nil

	default:
		srcTok, ok := s.tokenFor(src)
		if !ok {
			return decimal.Zero, false, nil
		}
		dstTok, ok := s.tokenFor(dst)
		if !ok {
			return decimal.Zero, false, nil
		}
		out, err := s.agg.Quote(ctx, srcTok.Address, dstTok.Address, amount, srcTok.Decimals)
		return out, true, err
	}
}

// GetRate returns the quote/base pair rate, falling back to external spot
// prices for legs the oracle does not cover. Zero when either side is
// unpriceable.
func (s *ExchangeService) GetRate(ctx context.Context, base, quote currency.Key) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "exchange.get_rate",
		trace.WithAttributes(
			attribute.String("base", base.String()),
			attribute.String("quote", quote.String()),
		),
	)
	defer span.End()

	table, err := s.currentRates(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	baseRate, _ := table.Rate(base)
	quoteRate, _ := table.Rate(quote)

	if !baseRate.IsPositive() || !quoteRate.IsPositive() {
		baseTok, baseOK := s.tokenFor(base)
		quoteTok, quoteOK := s.tokenFor(quote)
		if !baseOK || !quoteOK {
			return decimal.Zero, nil
		}

		spots, err := s.spots.SpotPrices(ctx, []common.Address{baseTok.Address, quoteTok.Address})
		if err != nil {
			return decimal.Zero, err
		}

		if !baseRate.IsPositive() {
			baseRate = spots[spotKey(baseTok)]
		}
		if !quoteRate.IsPositive() {
			quoteRate = spots[spotKey(quoteTok)]
		}
	}

	if !baseRate.IsPositive() || !quoteRate.IsPositive() {
		return decimal.Zero, nil
	}
	return quoteRate.Div(baseRate), nil
}

// spotKey maps a token to the address spot prices are keyed under. The
// native coin pseudo-address is priced under canonical WETH.
func spotKey(tok currency.Token) common.Address {
	if tok.IsNative() {
		return currency.WETHAddress
	}
	return tok.Address
}

// SlippageTolerance returns the default tolerance for building a swap of
// the pair.
func (s *ExchangeService) SlippageTolerance(src, dst currency.Key) decimal.Decimal {
	provider := domain.SelectProvider(s.registry, src, dst)
	return domain.SlippageTolerance(provider, src, dst, s.cfg.BaseSlippage, s.cfg.ETHSlippage)
}

// NeedsApproval reports whether swapping src→dst requires an allowance.
func (s *ExchangeService) NeedsApproval(src, dst currency.Key) bool {
	provider := domain.SelectProvider(s.registry, src, dst)
	return domain.NeedsApproval(provider, src)
}

// BaseFeeRate returns the summed per-asset fee components for the pair.
func (s *ExchangeService) BaseFeeRate(ctx context.Context, src, dst currency.Key) (decimal.Decimal, error) {
	return s.fees.BaseFeeRate(ctx, src, dst)
}

// SettlementEntries returns the wallet's unsettled exchange entry count
// for a currency.
func (s *ExchangeService) SettlementEntries(ctx context.Context, wallet common.Address, key currency.Key) (uint64, error) {
	return s.fees.SettlementEntries(ctx, wallet, key)
}

// FeeReclaimSecs returns the remaining fee reclamation waiting period.
func (s *ExchangeService) FeeReclaimSecs(ctx context.Context, wallet common.Address, key currency.Key) (uint64, error) {
	return s.fees.FeeReclaimSecs(ctx, wallet, key)
}

// tokenFor resolves a currency key to aggregator token metadata. Native
// ETH maps to the aggregator's pseudo-address.
func (s *ExchangeService) tokenFor(key currency.Key) (currency.Token, bool) {
	if key.IsETH() {
		return currency.Token{
			Address:  currency.NativeTokenAddress,
			Symbol:   "ETH",
			Decimals: 18,
		}, true
	}
	return s.registry.TokenBySymbol(key.String())
}

func rateUnavailable(src, dst currency.Key) error {
	return apperror.New(apperror.CodeRateUnavailable,
		apperror.WithContext(src.String()+"/"+dst.String()))
}
