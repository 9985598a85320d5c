// Package ethereum provides the chain head feed and gas oracle adapters.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker/v2"
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

const (
	tracerName = "blockchain-ethereum"
	meterName  = "blockchain-ethereum"
)

// FeedConfig holds head feed configuration.
type FeedConfig struct {
	WSURL          string        // WebSocket endpoint (primary)
	PollInterval   time.Duration // HTTP fallback polling interval
	InitialBackoff time.Duration // First reconnect delay
	MaxBackoff     time.Duration // Reconnect delay ceiling
	MaxReconnects  int           // 0 = retry forever
	BufferSize     int           // Head channel buffer size
}

// DefaultFeedConfig returns defaults tuned for Optimism block times.
func DefaultFeedConfig(wsURL string) FeedConfig {
	return FeedConfig{
		WSURL:          wsURL,
		PollInterval:   4 * time.Second,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		BufferSize:     16,
	}
}

type feedMetrics struct {
	headsReceived metric.Int64Counter
	feedErrors    metric.Int64Counter
	fallbacks     metric.Int64Counter
	state         metric.Int64Gauge
}

// Ensure HeadFeed implements HeadSource.
var _ app.HeadSource = (*HeadFeed)(nil)

// HeadFeed implements HeadSource over go-ethereum clients. A WebSocket
// subscription is primary; when it cannot be established or keeps
// failing, the feed degrades to polling the shared HTTP client.
type HeadFeed struct {
	cfg    FeedConfig
	logger logger.LoggerInterface

	httpClient *ethclient.Client
	wsClient   *ethclient.Client
	wsMu       sync.Mutex

	state   domain.ConnectionState
	stateMu sync.RWMutex

	polling    atomic.Bool
	lastHead   atomic.Uint64
	reconnects atomic.Int32
	started    atomic.Bool

	heads chan domain.ChainHead

	httpCB *circuitbreaker.CircuitBreaker[*types.Header]

	tracer  trace.Tracer
	metrics *feedMetrics
}

// NewHeadFeed creates a head feed. httpClient is the shared application
// client and is never closed by the feed.
func NewHeadFeed(cfg FeedConfig, httpClient *ethclient.Client, log logger.LoggerInterface) (*HeadFeed, error) {
	if httpClient == nil {
		return nil, errors.New("http client is required")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}

	f := &HeadFeed{
		cfg:        cfg,
		logger:     log,
		httpClient: httpClient,
		state:      domain.StateDisconnected,
		heads:      make(chan domain.ChainHead, cfg.BufferSize),
		tracer:     otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("eth-head-poll")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	f.httpCB = circuitbreaker.New[*types.Header](cbCfg)

	if err := f.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return f, nil
}

func (f *HeadFeed) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	f.metrics = &feedMetrics{}

	f.metrics.headsReceived, err = meter.Int64Counter(
		"chain_heads_received_total",
		metric.WithDescription("Total chain heads received"),
		metric.WithUnit("{head}"),
	)
	if err != nil {
		return err
	}

	f.metrics.feedErrors, err = meter.Int64Counter(
		"chain_head_feed_errors_total",
		metric.WithDescription("Total head feed errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	f.metrics.fallbacks, err = meter.Int64Counter(
		"chain_head_http_fallback_total",
		metric.WithDescription("Times the feed fell back to HTTP polling"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return err
	}

	f.metrics.state, err = meter.Int64Gauge(
		"chain_head_feed_state",
		metric.WithDescription("Head feed state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting)"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Subscribe starts the feed. The returned channel carries strictly
// increasing head numbers; the feed stops emitting when ctx is cancelled.
func (f *HeadFeed) Subscribe(ctx context.Context) (<-chan domain.ChainHead, error) {
	ctx, span := f.tracer.Start(ctx, "eth.head_feed.subscribe",
		trace.WithAttributes(attribute.String("ws_url", f.cfg.WSURL)),
	)
	defer span.End()

	if !f.started.CompareAndSwap(false, true) {
		err := errors.New("feed already subscribed")
		span.RecordError(err)
		return nil, err
	}

	f.setState(domain.StateConnecting)

	if f.cfg.WSURL != "" {
		go f.runWS(ctx)
	} else {
		f.startPolling(ctx)
	}

	span.SetStatus(codes.Ok, "subscribed")
	return f.heads, nil
}

// runWS owns the WebSocket connection: dial, subscribe, drain, reconnect
// with exponential backoff, and hand over to HTTP polling when the
// reconnect budget is exhausted.
func (f *HeadFeed) runWS(ctx context.Context) {
	backoff := f.cfg.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	attempts := 0

	for {
		if ctx.Err() != nil {
			f.shutdown()
			return
		}

		err := f.streamHeads(ctx)
		if err == nil || ctx.Err() != nil {
			f.shutdown()
			return
		}

		f.metrics.feedErrors.Add(ctx, 1)
		attempts++
		f.reconnects.Add(1)

		if f.cfg.MaxReconnects > 0 && attempts >= f.cfg.MaxReconnects {
			f.logger.Warn(ctx, "ws reconnect budget exhausted, switching to http polling",
				"attempts", attempts, "error", err)
			f.startPolling(ctx)
			return
		}

		f.setState(domain.StateReconnecting)
		f.logger.Warn(ctx, "head stream interrupted, reconnecting",
			"attempt", attempts, "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			f.shutdown()
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if f.cfg.MaxBackoff > 0 && backoff > f.cfg.MaxBackoff {
			backoff = f.cfg.MaxBackoff
		}
	}
}

// streamHeads dials the WS endpoint and drains one subscription until it
// errors or ctx ends. A nil return means ctx ended.
func (f *HeadFeed) streamHeads(ctx context.Context) error {
	client, err := ethclient.DialContext(ctx, f.cfg.WSURL)
	if err != nil {
		return fmt.Errorf("dial ws: %w", err)
	}

	f.wsMu.Lock()
	f.wsClient = client
	f.wsMu.Unlock()

	defer func() {
		f.wsMu.Lock()
		f.wsClient = nil
		f.wsMu.Unlock()
		client.Close()
	}()

	headers := make(chan *types.Header, f.cfg.BufferSize)
	sub, err := client.SubscribeNewHead(ctx, headers)
	if err != nil {
		return fmt.Errorf("subscribe new heads: %w", err)
	}
	defer sub.Unsubscribe()

	f.setState(domain.StateConnected)
	f.logger.Info(ctx, "subscribed to new heads via ws")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			return err
		case header := <-headers:
			if header != nil {
				f.emit(ctx, header)
			}
		}
	}
}

// startPolling switches the feed to the HTTP fallback.
func (f *HeadFeed) startPolling(ctx context.Context) {
	if !f.polling.CompareAndSwap(false, true) {
		return
	}
	f.metrics.fallbacks.Add(ctx, 1)
	f.setState(domain.StateConnected)
	go f.runPoller(ctx)
}

func (f *HeadFeed) runPoller(ctx context.Context) {
	interval := f.cfg.PollInterval
	if interval <= 0 {
		interval = 4 * time.Second
	}
	f.logger.Info(ctx, "polling chain heads via http", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.shutdown()
			return
		case <-ticker.C:
			header, err := f.httpCB.Execute(func() (*types.Header, error) {
				return f.httpClient.HeaderByNumber(ctx, nil)
			})
			if err != nil {
				if ctx.Err() == nil {
					f.metrics.feedErrors.Add(ctx, 1)
					f.logger.Warn(ctx, "head poll failed", "error", err)
				}
				continue
			}
			f.emit(ctx, header)
		}
	}
}

// emit converts and publishes a header, dropping stale heads and never
// blocking the feed goroutine.
func (f *HeadFeed) emit(ctx context.Context, header *types.Header) {
	number := header.Number.Uint64()
	for {
		last := f.lastHead.Load()
		if number <= last {
			return
		}
		if f.lastHead.CompareAndSwap(last, number) {
			break
		}
	}

	head := headerToHead(header)
	select {
	case f.heads <- head:
		f.metrics.headsReceived.Add(ctx, 1)
		f.logger.Debug(ctx, "new chain head",
			"number", head.Number, "hash", head.Hash.Hex()[:10])
	default:
		f.logger.Warn(ctx, "head dropped, buffer full", "number", head.Number)
	}
}

func headerToHead(header *types.Header) domain.ChainHead {
	return domain.ChainHead{
		Number:     header.Number.Uint64(),
		Hash:       header.Hash(),
		ParentHash: header.ParentHash,
		Timestamp:  time.Unix(int64(header.Time), 0),
		BaseFee:    header.BaseFee,
	}
}

// LatestHead fetches the current chain head over HTTP.
func (f *HeadFeed) LatestHead(ctx context.Context) (domain.ChainHead, error) {
	ctx, span := f.tracer.Start(ctx, "eth.head_feed.latest")
	defer span.End()

	header, err := f.httpCB.Execute(func() (*types.Header, error) {
		return f.httpClient.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return domain.ChainHead{}, apperror.New(apperror.CodeBlockNotFound,
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch latest head"))
	}

	span.SetStatus(codes.Ok, "fetched")
	return headerToHead(header), nil
}

// Status returns the current feed status.
func (f *HeadFeed) Status() domain.FeedStatus {
	f.stateMu.RLock()
	state := f.state
	f.stateMu.RUnlock()

	return domain.FeedStatus{
		State:      state,
		LastHead:   f.lastHead.Load(),
		Reconnects: int(f.reconnects.Load()),
		Polling:    f.polling.Load(),
	}
}

func (f *HeadFeed) shutdown() {
	f.setState(domain.StateDisconnected)
}

func (f *HeadFeed) setState(state domain.ConnectionState) {
	f.stateMu.Lock()
	f.state = state
	f.stateMu.Unlock()

	value := int64(0)
	switch state {
	case domain.StateConnecting:
		value = 1
	case domain.StateConnected:
		value = 2
	case domain.StateReconnecting:
		value = 3
	}
	f.metrics.state.Record(context.Background(), value)
}
