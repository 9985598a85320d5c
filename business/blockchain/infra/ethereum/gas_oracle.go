package ethereum

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/pgrimaud/kwenta/business/blockchain/app"
	"github.com/pgrimaud/kwenta/business/blockchain/domain"
	"github.com/pgrimaud/kwenta/internal/apperror"
	"github.com/pgrimaud/kwenta/internal/circuitbreaker"
	"github.com/pgrimaud/kwenta/internal/logger"
)

// Suggested prices are good for roughly one block.
const gasPriceTTL = 4 * time.Second

type gasOracleMetrics struct {
	fetches metric.Int64Counter
	gwei    metric.Float64Gauge
}

// Ensure GasOracle implements the port.
var _ app.GasOracle = (*GasOracle)(nil)

// GasOracle reports the node's suggested gas price with a short-lived
// cache so head-driven reporting does not hammer the RPC.
type GasOracle struct {
	client *ethclient.Client
	logger logger.LoggerInterface

	mu     sync.Mutex
	cached domain.GasPrice

	cb      *circuitbreaker.CircuitBreaker[*big.Int]
	tracer  trace.Tracer
	metrics *gasOracleMetrics
}

// NewGasOracle creates a gas oracle on the shared application client.
func NewGasOracle(client *ethclient.Client, log logger.LoggerInterface) (*GasOracle, error) {
	g := &GasOracle{
		client: client,
		logger: log,
		cb:     circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle")),
		tracer: otel.Tracer(tracerName),
	}

	meter := otel.Meter(meterName)
	g.metrics = &gasOracleMetrics{}

	var err error
	g.metrics.fetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Total gas price fetch attempts"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, err
	}

	g.metrics.gwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Current suggested gas price in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return nil, err
	}

	return g, nil
}

// GasPrice returns the suggested gas price, cached for about one block.
func (g *GasOracle) GasPrice(ctx context.Context) (domain.GasPrice, error) {
	ctx, span := g.tracer.Start(ctx, "eth.gas_price")
	defer span.End()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cached.Wei != nil && !g.cached.Expired(gasPriceTTL) {
		span.AddEvent("cache_hit")
		return g.cached, nil
	}

	g.metrics.fetches.Add(ctx, 1)
	wei, err := g.cb.Execute(func() (*big.Int, error) {
		return g.client.SuggestGasPrice(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return domain.GasPrice{}, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("failed to get gas price"))
	}

	price := domain.NewGasPrice(wei)
	g.cached = price

	gwei, _ := price.Gwei().Float64()
	g.metrics.gwei.Record(ctx, gwei)
	span.SetAttributes(attribute.Float64("gwei", gwei))
	span.SetStatus(codes.Ok, "fetched")

	return price, nil
}
