// Package exchange implements the exchange bounded context: oracle rates,
// swap routing, quotes and swap submission.
package exchange

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/pgrimaud/kwenta/business/exchange/app"
	exchangeDI "github.com/pgrimaud/kwenta/business/exchange/di"
	"github.com/pgrimaud/kwenta/business/exchange/infra/coingecko"
	"github.com/pgrimaud/kwenta/business/exchange/infra/oneinch"
	"github.com/pgrimaud/kwenta/business/exchange/infra/synthetix"
	"github.com/pgrimaud/kwenta/internal/config"
	"github.com/pgrimaud/kwenta/internal/currency"
	"github.com/pgrimaud/kwenta/internal/di"
	"github.com/pgrimaud/kwenta/internal/logger"
	"github.com/pgrimaud/kwenta/internal/monolith"
)

// Module implements the exchange bounded context.
type Module struct{}

// RegisterServices registers all exchange services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Synthetix oracle + fee schedule reader - private dependency
	di.RegisterToken(c, exchangeDI.RateSource, func(sr di.ServiceRegistry) app.RateSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		provider, err := synthetix.NewProvider(ethClient, cfg.Ethereum.ChainID, log)
		if err != nil {
			panic("failed to create synthetix provider: " + err.Error())
		}
		return provider
	})

	// The synthetix provider also serves the fee schedule.
	di.RegisterToken(c, exchangeDI.FeeSource, func(sr di.ServiceRegistry) app.FeeSource {
		return exchangeDI.GetRateSource(sr).(app.FeeSource)
	})

	// CoinGecko spot prices - private dependency
	di.RegisterToken(c, exchangeDI.SpotSource, func(sr di.ServiceRegistry) app.SpotSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := coingecko.NewClient(cfg.CoinGecko, cfg.Ethereum.ChainID, log)
		if err != nil {
			panic("failed to create coingecko client: " + err.Error())
		}
		return client
	})

	// 1inch aggregator API - private dependency
	di.RegisterToken(c, exchangeDI.AggregatorAPI, func(sr di.ServiceRegistry) app.AggregatorAPI {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := oneinch.NewClient(cfg.OneInch, cfg.Ethereum.ChainID, log)
		if err != nil {
			panic("failed to create oneinch client: " + err.Error())
		}
		return client
	})

	// Swap submission - private dependency. No signer is bound in the
	// headless deployment; swap attempts fail with WalletNotConnected.
	di.RegisterToken(c, exchangeDI.SwapAggregator, func(sr di.ServiceRegistry) app.SwapAggregator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)
		api := exchangeDI.GetAggregatorAPI(sr).(*oneinch.Client)

		swapper, err := oneinch.NewSwapper(api, ethClient, nil, cfg.Ethereum.ChainID, log)
		if err != nil {
			panic("failed to create swapper: " + err.Error())
		}
		return swapper
	})

	// Register ExchangeService (public - exposed to other modules)
	di.RegisterToken(c, exchangeDI.ExchangeService, func(sr di.ServiceRegistry) *app.ExchangeService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("currencies").(*currency.Registry)

		return app.NewExchangeService(
			exchangeDI.GetRateSource(sr),
			exchangeDI.GetSpotSource(sr),
			exchangeDI.GetAggregatorAPI(sr),
			exchangeDI.GetFeeSource(sr),
			registry,
			app.Config{
				BridgeFee:    cfg.Exchange.BridgeFeeDecimal(),
				BaseSlippage: cfg.Exchange.DefaultSlippageDecimal(),
				ETHSlippage:  cfg.Exchange.EthSlippageDecimal(),
			},
			log,
		)
	})

	return nil
}

// Startup warms the token list and rate table, then keeps rates fresh on a
// fixed interval. Interval refreshes race with head-triggered ones; the
// service's generation guard keeps the newest table.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	svc := exchangeDI.GetExchangeService(mono.Services())

	if err := svc.RefreshTokenList(ctx); err != nil {
		log.Warn(ctx, "initial token list refresh failed", "error", err)
	}
	if err := svc.RefreshRates(ctx); err != nil {
		log.Warn(ctx, "initial rate refresh failed", "error", err)
	}

	interval := mono.Config().Exchange.RefreshInterval
	if interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := svc.RefreshRates(ctx); err != nil {
						log.Warn(ctx, "rate refresh failed", "error", err)
					}
				}
			}
		}()
	}

	log.Info(ctx, "exchange module started")
	return nil
}
