package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	blockchainApp "github.com/pgrimaud/kwenta/business/blockchain/app"
	exchangeApp "github.com/pgrimaud/kwenta/business/exchange/app"
	stakingApp "github.com/pgrimaud/kwenta/business/staking/app"
)

// reporter prints a periodic console summary of the watched pair and
// wallet. It reads the services' cached state plus one fresh quote, so a
// slow upstream shows up as a stale line, not a stuck daemon.
type reporter struct {
	exchange *exchangeApp.ExchangeService
	staking  *stakingApp.StakingService
	chain    *blockchainApp.ChainService
	wallet   common.Address
	pair     watchedPair
}

func newReporter(
	exchange *exchangeApp.ExchangeService,
	staking *stakingApp.StakingService,
	chain *blockchainApp.ChainService,
	wallet common.Address,
	pair watchedPair,
) *reporter {
	return &reporter{
		exchange: exchange,
		staking:  staking,
		chain:    chain,
		wallet:   wallet,
		pair:     pair,
	}
}

func (r *reporter) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report(ctx)
		}
	}
}

func (r *reporter) report(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now().Format("15:04:05")
	fmt.Fprintf(os.Stdout, "\n[%s] %s/%s\n", now, r.pair.quote, r.pair.base)

	quote, err := r.exchange.GetQuote(ctx, r.pair.quote, r.pair.base, decimal.NewFromInt(1))
	if err != nil {
		fmt.Fprintf(os.Stdout, "  quote: unavailable (%v)\n", err)
	} else if quote.IsEmpty() {
		fmt.Fprintf(os.Stdout, "  quote: no route\n")
	} else {
		fmt.Fprintf(os.Stdout, "  quote: 1 %s -> %s %s via %s (fee %s, slippage %s%%)\n",
			quote.Source,
			quote.DestinationAmount.StringFixed(6),
			quote.Destination,
			quote.Provider,
			quote.FeeAmount.StringFixed(6),
			quote.SlippagePercent.Mul(decimal.NewFromInt(100)).StringFixed(2),
		)
	}

	if r.wallet != (common.Address{}) {
		snap := r.staking.Snapshot()
		fmt.Fprintf(os.Stdout, "  staking: staked %s KWENTA (escrowed %s), claimable %s, APY %s%%\n",
			snap.TotalStaked().StringFixed(4),
			snap.StakedEscrowed.StringFixed(4),
			snap.ClaimableRewards.StringFixed(4),
			snap.APY.Mul(decimal.NewFromInt(100)).StringFixed(2),
		)
		if snap.FailedReads > 0 {
			fmt.Fprintf(os.Stdout, "  staking: %d reads failed last refresh\n", snap.FailedReads)
		}
	}

	if gas, err := r.chain.GasPrice(ctx); err == nil {
		fmt.Fprintf(os.Stdout, "  gas: %s gwei\n", gas.Gwei().StringFixed(3))
	}

	status := r.chain.FeedStatus()
	feed := string(status.State)
	if status.Polling {
		feed += " (http polling)"
	}
	fmt.Fprintf(os.Stdout, "  feed: %s, head %d\n", feed, status.LastHead)
}
