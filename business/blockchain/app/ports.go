// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"

	"github.com/pgrimaud/kwenta/business/blockchain/domain"
)

// HeadSource feeds new chain heads.
type HeadSource interface {
	// Subscribe starts the feed and returns a channel of heads. Duplicate
	// and stale heads are filtered before they reach the channel.
	Subscribe(ctx context.Context) (<-chan domain.ChainHead, error)

	// LatestHead fetches the current chain head.
	LatestHead(ctx context.Context) (domain.ChainHead, error)

	// Status returns the current feed status.
	Status() domain.FeedStatus
}

// GasOracle reports the node's suggested gas price.
type GasOracle interface {
	GasPrice(ctx context.Context) (domain.GasPrice, error)
}
