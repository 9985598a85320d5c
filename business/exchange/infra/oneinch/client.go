// Package oneinch integrates the 1inch aggregation protocol API: token
// lists, quotes and swap transaction building.
package oneinch

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"

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

// Ensure Client implements AggregatorAPI.
var _ app.AggregatorAPI = (*Client)(nil)

// routeProtocols whitelists the liquidity sources quotes and swaps may
// route through, keeping routes on audited Optimism venues.
const routeProtocols = "OPTIMISM_UNISWAP_V3,OPTIMISM_SYNTHETIX,OPTIMISM_SYNTHETIX_WRAPPER," +
	"OPTIMISM_ONE_INCH_LIMIT_ORDER,OPTIMISM_ONE_INCH_LIMIT_ORDER_V2," +
	"OPTIMISM_CURVE,OPTIMISM_BALANCER_V2,OPTIMISM_VELODROME,OPTIMISM_KYBERSWAP_ELASTIC"

// Client talks to the chain-scoped 1inch endpoints. All paths live under
// {base}/{chainId}/.
type Client struct {
	http        httpclient.Client
	limiter     *ratelimit.Limiter
	chainID     uint64
	referrer    common.Address
	referralFee float64
	logger      logger.LoggerInterface

	mu             sync.RWMutex
	decimalsByAddr map[common.Address]uint8
}

// NewClient creates a 1inch client for the given chain.
func NewClient(cfg config.OneInchConfig, chainID uint64, log logger.LoggerInterface) (*Client, error) {
	opts := []httpclient.ClientOption{
		httpclient.WithProviderName("oneinch"),
		httpclient.WithBaseURL(cfg.BaseURL),
	}
	if cfg.APIKey != "" {
		opts = append(opts, httpclient.WithHeaders(map[string]string{
			"Authorization": "Bearer " + cfg.APIKey,
		}))
	}

	httpClient, err := httpclient.NewInstrumentedClient(opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:           httpClient,
		limiter:        ratelimit.New(cfg.RequestsPerMinute),
		chainID:        chainID,
		referrer:       cfg.ReferralAddressHex(),
		referralFee:    cfg.ReferralFeePct,
		logger:         log,
		decimalsByAddr: make(map[common.Address]uint8),
	}, nil
}

func (c *Client) path(endpoint string) string {
	return fmt.Sprintf("/%d/%s", c.chainID, endpoint)
}

// newRequest builds a request with the shared API error handler.
func (c *Client) newRequest() httpclient.Request {
	return c.http.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(handleAPIError),
	)
}

// handleAPIError decodes the 1inch error envelope into typed errors.
func handleAPIError(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	if statusCode == 429 {
		return apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithStatusCode(statusCode),
			apperror.WithContext("oneinch quota exhausted"))
	}

	var envelope apiError
	detail := string(body)
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Description != "" {
		detail = envelope.Description
	}
	return apperror.New(apperror.CodeAggregatorAPIError,
		apperror.WithStatusCode(statusCode),
		apperror.WithContext(detail))
}

// Tokens fetches the tradeable token list for the chain.
func (c *Client) Tokens(ctx context.Context) ([]currency.Token, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var result tokensResponse
	resp, err := c.newRequest().
		SetResult(&result).
		Get(ctx, c.path("tokens"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.CodeTokenListUnavailable,
			apperror.WithStatusCode(resp.StatusCode))
	}

	tokens := make([]currency.Token, 0, len(result.Tokens))
	decimals := make(map[common.Address]uint8, len(result.Tokens))
	for _, t := range result.Tokens {
		tokens = append(tokens, currency.Token{
			Address:  t.Address,
			Symbol:   t.Symbol,
			Name:     t.Name,
			Decimals: t.Decimals,
			LogoURI:  t.LogoURI,
		})
		decimals[t.Address] = t.Decimals
	}

	c.mu.Lock()
	c.decimalsByAddr = decimals
	c.mu.Unlock()

	c.logger.Debug(ctx, "aggregator token list fetched", "tokens", len(tokens))
	return tokens, nil
}

// Quote prices a from→to swap. The input amount is denominated in from's
// units; the API works in the lowest denomination at both ends.
func (c *Client) Quote(ctx context.Context, from, to common.Address, amount decimal.Decimal, fromDecimals uint8) (decimal.Decimal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	var result quoteResponse
	resp, err := c.newRequest().
		SetQueryParams(map[string]string{
			"fromTokenAddress": from.Hex(),
			"toTokenAddress":   to.Hex(),
			"amount":           currency.ToUnits(amount, fromDecimals).String(),
			"protocols":        routeProtocols,
		}).
		SetResult(&result).
		Get(ctx, c.path("quote"))
	if err != nil {
		return decimal.Zero, err
	}
	if resp.IsError() {
		return decimal.Zero, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithStatusCode(resp.StatusCode))
	}

	out, ok := new(big.Int).SetString(result.ToTokenAmount, 10)
	if !ok {
		return decimal.Zero, apperror.New(apperror.CodeAggregatorAPIError,
			apperror.WithContext("malformed toTokenAmount: "+result.ToTokenAmount))
	}

	// Prefer the decimals echoed on toToken; fall back to the cached token
	// list, then 18, for the rare payload that omits them.
	toDecimals := result.ToToken.Decimals
	if toDecimals == 0 {
		toDecimals = 18
		if dec, ok := c.tokenDecimals(to); ok {
			toDecimals = dec
		}
	}
	return currency.FromUnits(out, toDecimals), nil
}

// tokenDecimals resolves destination decimals from the cached token list.
func (c *Client) tokenDecimals(addr common.Address) (uint8, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dec, ok := c.decimalsByAddr[addr]
	return dec, ok
}

// ApproveSpender returns the 1inch router address allowances must target.
func (c *Client) ApproveSpender(ctx context.Context) (common.Address, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return common.Address{}, err
	}

	var result spenderResponse
	resp, err := c.newRequest().
		SetResult(&result).
		Get(ctx, c.path("approve/spender"))
	if err != nil {
		return common.Address{}, err
	}
	if resp.IsError() {
		return common.Address{}, apperror.New(apperror.CodeAggregatorAPIError,
			apperror.WithStatusCode(resp.StatusCode))
	}
	return result.Address, nil
}

// SwapTransaction builds a ready-to-send swap transaction. slippage is a
// percentage (1 = 1%). The referral address and fee are attached so swap
// volume is attributed; disableEstimate defers gas estimation to the
// sender, which also lets approvals and swaps be built back to back.
func (c *Client) SwapTransaction(ctx context.Context, from, to common.Address, amount decimal.Decimal, fromDecimals uint8, wallet common.Address, slippage decimal.Decimal) (*swapResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var result swapResponse
	resp, err := c.newRequest().
		SetQueryParams(map[string]string{
			"fromTokenAddress": from.Hex(),
			"toTokenAddress":   to.Hex(),
			"amount":           currency.ToUnits(amount, fromDecimals).String(),
			"fromAddress":      wallet.Hex(),
			"slippage":         slippage.String(),
			"protocols":        routeProtocols,
			"referrerAddress":  c.referrer.Hex(),
			"fee":              strconv.FormatFloat(c.referralFee, 'f', -1, 64),
			"disableEstimate":  "true",
		}).
		SetResult(&result).
		Get(ctx, c.path("swap"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.CodeAggregatorAPIError,
			apperror.WithStatusCode(resp.StatusCode),
			apperror.WithContext(strings.TrimSpace(resp.String())))
	}
	return &result, nil
}
