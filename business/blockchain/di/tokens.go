// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/pgrimaud/kwenta/business/blockchain/app"
	"github.com/pgrimaud/kwenta/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ChainService = di.NewToken[*app.ChainService]("blockchain.ChainService")
)

// Private dependency tokens - internal to blockchain module
var (
	HeadSource = di.NewToken[app.HeadSource]("blockchain:headSource")
	GasOracle  = di.NewToken[app.GasOracle]("blockchain:gasOracle")
)

// Helper functions for type-safe access
func GetChainService(c di.ServiceRegistry) *app.ChainService {
	return di.GetToken(c, ChainService)
}

func GetHeadSource(c di.ServiceRegistry) app.HeadSource {
	return di.GetToken(c, HeadSource)
}

func GetGasOracle(c di.ServiceRegistry) app.GasOracle {
	return di.GetToken(c, GasOracle)
}
