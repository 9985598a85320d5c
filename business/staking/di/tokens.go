// Package di contains dependency injection tokens for the staking context.
package di

import (
	"github.com/pgrimaud/kwenta/business/staking/app"
	"github.com/pgrimaud/kwenta/internal/di"
)

// Public service tokens - exposed to other modules
var (
	StakingService = di.NewToken[*app.StakingService]("staking.StakingService")
)

// Private dependency tokens - internal to staking module
var (
	ChainReader = di.NewToken[app.ChainReader]("staking:chainReader")
)

// Helper functions for type-safe access
func GetStakingService(c di.ServiceRegistry) *app.StakingService {
	return di.GetToken(c, StakingService)
}

func GetChainReader(c di.ServiceRegistry) app.ChainReader {
	return di.GetToken(c, ChainReader)
}
