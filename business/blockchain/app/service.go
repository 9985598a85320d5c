package app

import (
	"context"
	"sync"

	"github.com/pgrimaud/kwenta/business/blockchain/domain"
	"github.com/pgrimaud/kwenta/internal/logger"
)

// HeadListener is invoked for every new chain head. Listeners run on the
// feed goroutine and must not block.
type HeadListener func(ctx context.Context, head domain.ChainHead)

// ChainService fans chain heads out to the other contexts and exposes the
// gas price.
type ChainService struct {
	feed   HeadSource
	oracle GasOracle
	log    logger.LoggerInterface

	mu        sync.Mutex
	listeners []HeadListener
	running   bool
}

// NewChainService creates a ChainService.
func NewChainService(feed HeadSource, oracle GasOracle, log logger.LoggerInterface) *ChainService {
	return &ChainService{feed: feed, oracle: oracle, log: log}
}

// OnHead registers a listener for new heads. Registration after Start is
// ignored.
func (s *ChainService) OnHead(fn HeadListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.log.Warn(context.Background(), "head listener registered after start, ignoring")
		return
	}
	s.listeners = append(s.listeners, fn)
}

// Start subscribes to the head feed and dispatches heads to the
// registered listeners until ctx is cancelled.
func (s *ChainService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	listeners := s.listeners
	s.mu.Unlock()

	heads, err := s.feed.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case head, ok := <-heads:
				if !ok {
					return
				}
				for _, fn := range listeners {
					fn(ctx, head)
				}
			}
		}
	}()
	return nil
}

// LatestHead fetches the current chain head.
func (s *ChainService) LatestHead(ctx context.Context) (domain.ChainHead, error) {
	return s.feed.LatestHead(ctx)
}

// GasPrice reports the node's suggested gas price.
func (s *ChainService) GasPrice(ctx context.Context) (domain.GasPrice, error) {
	return s.oracle.GasPrice(ctx)
}

// FeedStatus returns the current head feed status.
func (s *ChainService) FeedStatus() domain.FeedStatus {
	return s.feed.Status()
}
