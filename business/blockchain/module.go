// Package blockchain implements the blockchain bounded context: the chain
// head feed and gas oracle driving the other contexts' refreshes.
package blockchain

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/pgrimaud/kwenta/business/blockchain/app"
	blockchainDI "github.com/pgrimaud/kwenta/business/blockchain/di"
	"github.com/pgrimaud/kwenta/business/blockchain/domain"
	"github.com/pgrimaud/kwenta/business/blockchain/infra/ethereum"
	exchangeDI "github.com/pgrimaud/kwenta/business/exchange/di"
	stakingDI "github.com/pgrimaud/kwenta/business/staking/di"
	"github.com/pgrimaud/kwenta/internal/config"
	"github.com/pgrimaud/kwenta/internal/di"
	"github.com/pgrimaud/kwenta/internal/logger"
	"github.com/pgrimaud/kwenta/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Chain head feed - private dependency
	di.RegisterToken(c, blockchainDI.HeadSource, func(sr di.ServiceRegistry) app.HeadSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		feedCfg := ethereum.DefaultFeedConfig(cfg.Ethereum.WebSocketURL)
		feedCfg.InitialBackoff = cfg.Ethereum.InitialBackoff
		feedCfg.MaxBackoff = cfg.Ethereum.MaxBackoff
		feedCfg.MaxReconnects = cfg.Ethereum.MaxReconnects

		feed, err := ethereum.NewHeadFeed(feedCfg, ethClient, log)
		if err != nil {
			panic("failed to create head feed: " + err.Error())
		}
		return feed
	})

	// Gas oracle - private dependency
	di.RegisterToken(c, blockchainDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		oracle, err := ethereum.NewGasOracle(ethClient, log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	// Register ChainService (public - exposed to other modules)
	di.RegisterToken(c, blockchainDI.ChainService, func(sr di.ServiceRegistry) *app.ChainService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewChainService(
			blockchainDI.GetHeadSource(sr),
			blockchainDI.GetGasOracle(sr),
			log,
		)
	})

	return nil
}

// Startup wires new heads into the exchange and staking refreshes and
// starts the feed. Head-triggered refreshes race with each context's
// interval ticker; the generation guards keep the newest data.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	services := mono.Services()

	chain := blockchainDI.GetChainService(services)
	exchange := exchangeDI.GetExchangeService(services)
	staking := stakingDI.GetStakingService(services)

	wallet := cfg.Staking.WalletAddressHex()

	chain.OnHead(func(ctx context.Context, head domain.ChainHead) {
		go func() {
			if err := exchange.RefreshRates(ctx); err != nil {
				log.Warn(ctx, "head-triggered rate refresh failed",
					"head", head.Number, "error", err)
			}
		}()
		go func() {
			if _, err := staking.Refresh(ctx, wallet); err != nil {
				log.Warn(ctx, "head-triggered staking refresh failed",
					"head", head.Number, "error", err)
			}
		}()
	})

	if err := chain.Start(ctx); err != nil {
		// The interval tickers still refresh without the feed.
		log.Error(ctx, "failed to start chain head feed", "error", err)
	}

	log.Info(ctx, "blockchain module started")
	return nil
}
