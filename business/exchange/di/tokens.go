// Package di contains dependency injection tokens for the exchange context.
package di

import (
	"github.com/pgrimaud/kwenta/business/exchange/app"
	"github.com/pgrimaud/kwenta/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ExchangeService = di.NewToken[*app.ExchangeService]("exchange.ExchangeService")
)

// Private dependency tokens - internal to exchange module
var (
	RateSource     = di.NewToken[app.RateSource]("exchange:rateSource")
	SpotSource     = di.NewToken[app.SpotSource]("exchange:spotSource")
	AggregatorAPI  = di.NewToken[app.AggregatorAPI]("exchange:aggregatorAPI")
	FeeSource      = di.NewToken[app.FeeSource]("exchange:feeSource")
	SwapAggregator = di.NewToken[app.SwapAggregator]("exchange:swapAggregator")
)

// Helper functions for type-safe access
func GetExchangeService(c di.ServiceRegistry) *app.ExchangeService {
	return di.GetToken(c, ExchangeService)
}

func GetRateSource(c di.ServiceRegistry) app.RateSource {
	return di.GetToken(c, RateSource)
}

func GetSpotSource(c di.ServiceRegistry) app.SpotSource {
	return di.GetToken(c, SpotSource)
}

func GetAggregatorAPI(c di.ServiceRegistry) app.AggregatorAPI {
	return di.GetToken(c, AggregatorAPI)
}

func GetFeeSource(c di.ServiceRegistry) app.FeeSource {
	return di.GetToken(c, FeeSource)
}

func GetSwapAggregator(c di.ServiceRegistry) app.SwapAggregator {
	return di.GetToken(c, SwapAggregator)
}
