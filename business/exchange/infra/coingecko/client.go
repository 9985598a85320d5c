// Package coingecko fetches external USD spot prices from the CoinGecko
// public API.
package coingecko

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/pgrimaud/kwenta/business/exchange/app"
	"github.com/pgrimaud/kwenta/internal/apperror"
	"github.com/pgrimaud/kwenta/internal/config"
	"github.com/pgrimaud/kwenta/internal/currency"
	"github.com/pgrimaud/kwenta/internal/httpclient"
	"github.com/pgrimaud/kwenta/internal/logger"
	"github.com/pgrimaud/kwenta/internal/ratelimit"
)

// Ensure Client implements SpotSource.
var _ app.SpotSource = (*Client)(nil)

// Client reads token spot prices from the /simple/token_price endpoint.
type Client struct {
	http     httpclient.Client
	limiter  *ratelimit.Limiter
	platform string
	logger   logger.LoggerInterface
}

// NewClient creates a CoinGecko client for the given chain. The chain maps
// to a CoinGecko asset platform; testnets price against their L1/L2
// mainnet platform.
func NewClient(cfg config.CoinGeckoConfig, chainID uint64, log logger.LoggerInterface) (*Client, error) {
	platform := currency.CoinGeckoPlatform(chainID)
	if platform == "" {
		return nil, apperror.New(apperror.CodeNetworkMismatch,
			apperror.WithContext(fmt.Sprintf("no asset platform for chain %d", chainID)))
	}

	httpClient, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("coingecko"),
		httpclient.WithBaseURL(cfg.BaseURL),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:     httpClient,
		limiter:  ratelimit.New(cfg.RequestsPerMinute),
		platform: platform,
		logger:   log,
	}, nil
}

// SpotPrices fetches USD prices for the given token addresses in one
// request. The native coin pseudo-address is priced as canonical WETH.
// Unknown addresses are simply absent from the result.
func (c *Client) SpotPrices(ctx context.Context, addrs []common.Address) (map[common.Address]decimal.Decimal, error) {
	if len(addrs) == 0 {
		return map[common.Address]decimal.Decimal{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := make([]string, len(addrs))
	for i, addr := range addrs {
		if addr == currency.NativeTokenAddress {
			addr = currency.WETHAddress
		}
		query[i] = strings.ToLower(addr.Hex())
	}

	var result map[string]struct {
		USD decimal.Decimal `json:"usd"`
	}

	resp, err := c.http.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(handleAPIError),
	).
		SetQueryParam("contract_addresses", strings.Join(query, ",")).
		SetQueryParam("vs_currencies", "usd").
		SetResult(&result).
		Get(ctx, "/simple/token_price/"+c.platform)
	if err != nil {
		if apperror.HasCode(err, apperror.CodeRateLimitExceeded) {
			return nil, err
		}
		return nil, apperror.External(apperror.CodeUpstreamUnavailable, "coingecko", err)
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.CodeCoinGeckoAPIError,
			apperror.WithStatusCode(resp.StatusCode),
			apperror.WithContext(resp.String()))
	}

	prices := make(map[common.Address]decimal.Decimal, len(result))
	for addr, entry := range result {
		prices[common.HexToAddress(addr)] = entry.USD
	}

	c.logger.Debug(ctx, "spot prices fetched",
		"requested", len(addrs),
		"priced", len(prices),
	)
	return prices, nil
}

// handleAPIError turns rate-limit responses into typed errors so callers
// can back off instead of retrying immediately.
func handleAPIError(statusCode int, body []byte) error {
	if statusCode == 429 {
		return apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithStatusCode(statusCode),
			apperror.WithContext("coingecko quota exhausted"))
	}
	return nil
}
