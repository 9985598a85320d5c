// Package synthetix reads oracle rates and the exchange fee schedule from
// the Synthetix protocol contracts.
package synthetix

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/pgrimaud/kwenta/business/exchange/app"
	"github.com/pgrimaud/kwenta/business/exchange/domain"
	"github.com/pgrimaud/kwenta/internal/apperror"
	"github.com/pgrimaud/kwenta/internal/circuitbreaker"
	"github.com/pgrimaud/kwenta/internal/currency"
	"github.com/pgrimaud/kwenta/internal/logger"
	"github.com/pgrimaud/kwenta/internal/multicall"
)

const (
	tracerName = "synthetix"
	meterName  = "synthetix"
)

// Ensure Provider implements the exchange ports.
var (
	_ app.RateSource = (*Provider)(nil)
	_ app.FeeSource  = (*Provider)(nil)
)

// providerMetrics holds OTEL metric instruments.
type providerMetrics struct {
	readsTotal  metric.Int64Counter
	readLatency metric.Float64Histogram
	readErrors  metric.Int64Counter
}

// Provider batches Synthetix contract reads through Multicall3.
type Provider struct {
	caller  *multicall.Caller
	chainID uint64

	synthUtil      common.Address
	exchangeRates  common.Address
	exchanger      common.Address
	systemSettings common.Address

	synthUtilABI abi.ABI
	ratesABI     abi.ABI
	exchangerABI abi.ABI
	settingsABI  abi.ABI

	extraKeys []currency.Key
	logger    logger.LoggerInterface
	cb        *circuitbreaker.CircuitBreaker[[]multicall.Result]

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a Synthetix provider for the given chain. The chain
// must carry a Synthetix deployment.
func NewProvider(client multicall.ContractCaller, chainID uint64, log logger.LoggerInterface) (*Provider, error) {
	if !currency.SupportedChain(chainID) {
		return nil, apperror.New(apperror.CodeNetworkMismatch,
			apperror.WithContext(fmt.Sprintf("chain %d has no protocol deployment", chainID)))
	}

	caller, err := multicall.NewCaller(client)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		caller:    caller,
		chainID:   chainID,
		extraKeys: currency.AdditionalRateKeys,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}

	for _, c := range []struct {
		name string
		dst  *common.Address
	}{
		{currency.ContractSynthUtil, &p.synthUtil},
		{currency.ContractExchangeRates, &p.exchangeRates},
		{currency.ContractExchanger, &p.exchanger},
		{currency.ContractSystemSettings, &p.systemSettings},
	} {
		addr, ok := currency.AddressFor(c.name, chainID)
		if !ok {
			return nil, apperror.New(apperror.CodeNetworkMismatch,
				apperror.WithContext(fmt.Sprintf("%s not deployed on chain %d", c.name, chainID)))
		}
		*c.dst = addr
	}

	for _, a := range []struct {
		raw string
		dst *abi.ABI
	}{
		{SynthUtilABI, &p.synthUtilABI},
		{ExchangeRatesABI, &p.ratesABI},
		{ExchangerABI, &p.exchangerABI},
		{SystemSettingsABI, &p.settingsABI},
	} {
		parsed, err := abi.JSON(strings.NewReader(a.raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
		}
		*a.dst = parsed
	}

	cbCfg := circuitbreaker.DefaultConfig("synthetix-reads")
	p.cb = circuitbreaker.New[[]multicall.Result](cbCfg)

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &providerMetrics{}

	p.metrics.readsTotal, err = meter.Int64Counter(
		"synthetix_reads_total",
		metric.WithDescription("Total batched contract reads"),
	)
	if err != nil {
		return err
	}

	p.metrics.readLatency, err = meter.Float64Histogram(
		"synthetix_read_latency_ms",
		metric.WithDescription("Batched read latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.metrics.readErrors, err = meter.Int64Counter(
		"synthetix_read_errors_total",
		metric.WithDescription("Total batched read errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// aggregate runs a batch through the circuit breaker.
func (p *Provider) aggregate(ctx context.Context, calls []multicall.Call) ([]multicall.Result, error) {
	start := time.Now()
	p.metrics.readsTotal.Add(ctx, 1)

	results, err := p.cb.Execute(func() ([]multicall.Result, error) {
		return p.caller.Aggregate(ctx, calls)
	})

	p.metrics.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.metrics.readErrors.Add(ctx, 1)
	}
	return results, err
}

// RateTable fetches the full oracle rate table: every listed synth via
// SynthUtil plus the additional tracked keys via ExchangeRates, in a single
// eth_call.
func (p *Provider) RateTable(ctx context.Context) (domain.RateTable, error) {
	ctx, span := p.tracer.Start(ctx, "synthetix.rate_table")
	defer span.End()

	extra := make([][32]byte, len(p.extraKeys))
	for i, k := range p.extraKeys {
		extra[i] = k.Bytes32()
	}

	synthsCall, err := multicall.NewCall(p.synthUtil, &p.synthUtilABI, "synthsRates")
	if err != nil {
		return nil, err
	}
	extraCall, err := multicall.NewCall(p.exchangeRates, &p.ratesABI, "ratesForCurrencies", extra)
	if err != nil {
		return nil, err
	}

	results, err := p.aggregate(ctx, []multicall.Call{synthsCall, extraCall})
	if err != nil {
		span.SetStatus(codes.Error, "batch failed")
		return nil, err
	}

	table := domain.RateTable{}

	out, err := synthsCall.Unpack(results[0].ReturnData)
	if err != nil {
		return nil, err
	}
	keys := *abi.ConvertType(out[0], new([][32]byte)).(*[][32]byte)
	rates := *abi.ConvertType(out[1], new([]*big.Int)).(*[]*big.Int)
	if len(keys) != len(rates) {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithMessage(fmt.Sprintf("synthsRates returned %d keys for %d rates", len(keys), len(rates))))
	}
	for i, raw := range keys {
		table[currency.KeyFromBytes32(raw)] = fromUnit(rates[i])
	}

	out, err = extraCall.Unpack(results[1].ReturnData)
	if err != nil {
		return nil, err
	}
	extraRates := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	for i, k := range p.extraKeys {
		if i < len(extraRates) {
			table[k] = fromUnit(extraRates[i])
		}
	}

	span.SetAttributes(attribute.Int("rates", len(table)))
	p.logger.Debug(ctx, "oracle rates fetched", "rates", len(table))
	return table, nil
}

// ExchangeFeeRate returns the effective fee fraction charged by the
// Exchanger for swapping src into dst.
func (p *Provider) ExchangeFeeRate(ctx context.Context, src, dst currency.Key) (decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "synthetix.exchange_fee_rate",
		trace.WithAttributes(
			attribute.String("source", src.String()),
			attribute.String("destination", dst.String()),
		),
	)
	defer span.End()

	call, err := multicall.NewCall(p.exchanger, &p.exchangerABI, "feeRateForExchange", src.Bytes32(), dst.Bytes32())
	if err != nil {
		return decimal.Zero, err
	}

	results, err := p.aggregate(ctx, []multicall.Call{call})
	if err != nil {
		return decimal.Zero, err
	}

	out, err := call.Unpack(results[0].ReturnData)
	if err != nil {
		return decimal.Zero, err
	}
	return fromUnit(out[0].(*big.Int)), nil
}

// BaseFeeRate sums the per-asset fee components from SystemSettings for
// both sides of the pair.
func (p *Provider) BaseFeeRate(ctx context.Context, src, dst currency.Key) (decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "synthetix.base_fee_rate")
	defer span.End()

	srcCall, err := multicall.NewCall(p.systemSettings, &p.settingsABI, "exchangeFeeRate", src.Bytes32())
	if err != nil {
		return decimal.Zero, err
	}
	dstCall, err := multicall.NewCall(p.systemSettings, &p.settingsABI, "exchangeFeeRate", dst.Bytes32())
	if err != nil {
		return decimal.Zero, err
	}

	results, err := p.aggregate(ctx, []multicall.Call{srcCall, dstCall})
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for i, call := range []multicall.Call{srcCall, dstCall} {
		out, err := call.Unpack(results[i].ReturnData)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(fromUnit(out[0].(*big.Int)))
	}
	return total, nil
}

// SettlementEntries returns the count of unsettled exchange entries owed to
// the wallet for a currency.
func (p *Provider) SettlementEntries(ctx context.Context, wallet common.Address, key currency.Key) (uint64, error) {
	ctx, span := p.tracer.Start(ctx, "synthetix.settlement_entries")
	defer span.End()

	call, err := multicall.NewCall(p.exchanger, &p.exchangerABI, "settlementOwing", wallet, key.Bytes32())
	if err != nil {
		return 0, err
	}

	results, err := p.aggregate(ctx, []multicall.Call{call})
	if err != nil {
		return 0, err
	}

	out, err := call.Unpack(results[0].ReturnData)
	if err != nil {
		return 0, err
	}
	// settlementOwing returns (reclaimAmount, rebateAmount, numEntries).
	return out[2].(*big.Int).Uint64(), nil
}

// FeeReclaimSecs returns the seconds left in the fee reclamation waiting
// period for the wallet and currency.
func (p *Provider) FeeReclaimSecs(ctx context.Context, wallet common.Address, key currency.Key) (uint64, error) {
	ctx, span := p.tracer.Start(ctx, "synthetix.fee_reclaim_secs")
	defer span.End()

	call, err := multicall.NewCall(p.exchanger, &p.exchangerABI, "maxSecsLeftInWaitingPeriod", wallet, key.Bytes32())
	if err != nil {
		return 0, err
	}

	results, err := p.aggregate(ctx, []multicall.Call{call})
	if err != nil {
		return 0, err
	}

	out, err := call.Unpack(results[0].ReturnData)
	if err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

// fromUnit converts an 18-decimal fixed point contract value to a decimal.
func fromUnit(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -18)
}
