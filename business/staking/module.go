// Package staking implements the staking bounded context: pool positions,
// reward escrow vesting and wallet balance aggregation.
package staking

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/pgrimaud/kwenta/business/staking/app"
	stakingDI "github.com/pgrimaud/kwenta/business/staking/di"
	"github.com/pgrimaud/kwenta/business/staking/infra/contracts"
	"github.com/pgrimaud/kwenta/internal/config"
	"github.com/pgrimaud/kwenta/internal/di"
	"github.com/pgrimaud/kwenta/internal/logger"
	"github.com/pgrimaud/kwenta/internal/monolith"
)

// Module implements the staking bounded context.
type Module struct{}

// RegisterServices registers all staking services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Batched staking contract reader - private dependency
	di.RegisterToken(c, stakingDI.ChainReader, func(sr di.ServiceRegistry) app.ChainReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		reader, err := contracts.NewReader(ethClient, cfg.Ethereum.ChainID, log)
		if err != nil {
			panic("failed to create staking reader: " + err.Error())
		}
		return reader
	})

	// Register StakingService (public - exposed to other modules)
	di.RegisterToken(c, stakingDI.StakingService, func(sr di.ServiceRegistry) *app.StakingService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewStakingService(
			stakingDI.GetChainReader(sr),
			app.Config{MaxVestingIDs: cfg.Staking.MaxVestingIDs},
			log,
		)
	})

	return nil
}

// Startup takes an initial snapshot of the watched wallet, then keeps it
// fresh on a fixed interval. Interval refreshes race with head-triggered
// ones; the service's generation guard keeps the newest snapshot.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	svc := stakingDI.GetStakingService(mono.Services())

	wallet := cfg.Staking.WalletAddressHex()
	if _, err := svc.Refresh(ctx, wallet); err != nil {
		log.Warn(ctx, "initial staking refresh failed", "error", err)
	}

	interval := cfg.Staking.PollInterval
	if interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if _, err := svc.Refresh(ctx, wallet); err != nil {
						log.Warn(ctx, "staking refresh failed", "error", err)
					}
				}
			}
		}()
	}

	log.Info(ctx, "staking module started")
	return nil
}
