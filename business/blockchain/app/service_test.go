package app_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/pgrimaud/kwenta/business/blockchain/app"
	"github.com/pgrimaud/kwenta/business/blockchain/domain"
	"github.com/pgrimaud/kwenta/internal/logger"
)

type fakeFeed struct {
	heads chan domain.ChainHead
}

func (f *fakeFeed) Subscribe(ctx context.Context) (<-chan domain.ChainHead, error) {
	return f.heads, nil
}

func (f *fakeFeed) LatestHead(ctx context.Context) (domain.ChainHead, error) {
	return domain.ChainHead{Number: 42}, nil
}

func (f *fakeFeed) Status() domain.FeedStatus {
	return domain.FeedStatus{State: domain.StateConnected}
}

type fakeOracle struct{}

func (fakeOracle) GasPrice(ctx context.Context) (domain.GasPrice, error) {
	return domain.NewGasPrice(big.NewInt(1_500_000_000)), nil
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func newService(t *testing.T, feed app.HeadSource) *app.ChainService {
	t.Helper()
	log := logger.New(testWriter{t}, logger.LevelError, "test", nil)
	return app.NewChainService(feed, fakeOracle{}, log)
}

func TestStartDispatchesHeads(t *testing.T) {
	feed := &fakeFeed{heads: make(chan domain.ChainHead, 4)}
	svc := newService(t, feed)

	var mu sync.Mutex
	var seen []uint64
	done := make(chan struct{}, 1)
	svc.OnHead(func(ctx context.Context, head domain.ChainHead) {
		mu.Lock()
		seen = append(seen, head.Number)
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	feed.heads <- domain.ChainHead{Number: 100}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("head not dispatched")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != 100 {
		t.Errorf("seen = %v, want [100]", seen)
	}
}

func TestOnHeadAfterStartIgnored(t *testing.T) {
	feed := &fakeFeed{heads: make(chan domain.ChainHead, 4)}
	svc := newService(t, feed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	called := make(chan struct{}, 1)
	svc.OnHead(func(ctx context.Context, head domain.ChainHead) {
		called <- struct{}{}
	})

	feed.heads <- domain.ChainHead{Number: 7}
	select {
	case <-called:
		t.Error("late listener should not receive heads")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGasPriceGwei(t *testing.T) {
	svc := newService(t, &fakeFeed{heads: make(chan domain.ChainHead)})

	price, err := svc.GasPrice(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := price.Gwei().String(); got != "1.5" {
		t.Errorf("Gwei = %s, want 1.5", got)
	}
}
