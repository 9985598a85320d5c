package oneinch

import (
	"context"
	"encoding/hex"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/pgrimaud/kwenta/business/exchange/domain"
	"github.com/pgrimaud/kwenta/internal/apperror"
	"github.com/pgrimaud/kwenta/internal/config"
	"github.com/pgrimaud/kwenta/internal/currency"
	"github.com/pgrimaud/kwenta/internal/logger"
)

var testWallet = common.HexToAddress("0x1111111111111111111111111111111111111111")

type fakeSigner struct{}

func (fakeSigner) Address() common.Address { return testWallet }

func (fakeSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return tx, nil
}

type fakeBackend struct {
	mu      sync.Mutex
	sent    []*types.Transaction
	receipt *types.Receipt
	inPool  bool
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 7, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.receipt == nil {
		return nil, ethereum.NotFound
	}
	return b.receipt, nil
}

func (b *fakeBackend) TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inPool {
		return nil, false, ethereum.NotFound
	}
	return types.NewTx(&types.LegacyTx{}), true, nil
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func newTestSwapper(t *testing.T, api *Client, eth EthBackend, signer TxSigner) *Swapper {
	t.Helper()
	s, err := NewSwapper(api, eth, signer, currency.ChainIDOptimism, testLogger())
	if err != nil {
		t.Fatalf("NewSwapper: %v", err)
	}
	s.pollInterval = 5 * time.Millisecond
	s.dropAfter = 25 * time.Millisecond
	s.watchTimeout = 2 * time.Second
	return s
}

func TestSwapRequiresSigner(t *testing.T) {
	s := newTestSwapper(t, nil, &fakeBackend{}, nil)

	_, err := s.Swap(context.Background(), currency.Token{}, currency.Token{}, decimal.New(1, 0), decimal.New(1, 0))
	if !apperror.HasCode(err, apperror.CodeWalletNotConnected) {
		t.Errorf("expected WALLET_NOT_CONNECTED, got %v", err)
	}
}

func TestSwapRescalesSlippageForAPI(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/10/swap" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"toTokenAmount": "980000000000000000",
			"tx": {
				"from": "0x1111111111111111111111111111111111111111",
				"to": "0x1111111254fb6c44bac0bed2854e76f90643097d",
				"data": "0xdeadbeef",
				"value": "0",
				"gasPrice": "2000000000",
				"gas": 250000
			}
		}`)
	}))
	defer srv.Close()

	api, err := NewClient(config.OneInchConfig{
		BaseURL:           srv.URL,
		RequestsPerMinute: 600,
	}, currency.ChainIDOptimism, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	backend := &fakeBackend{
		receipt: &types.Receipt{
			Status:      types.ReceiptStatusSuccessful,
			BlockNumber: big.NewInt(100),
		},
	}
	s := newTestSwapper(t, api, backend, fakeSigner{})

	op := currency.Token{
		Address:  common.HexToAddress("0x4200000000000000000000000000000000000042"),
		Symbol:   "OP",
		Decimals: 18,
	}
	dai := currency.Token{
		Address:  common.HexToAddress("0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1"),
		Symbol:   "DAI",
		Decimals: 18,
	}

	// A 0.01 fraction must reach the API as 1 whole percent.
	handle, err := s.Swap(context.Background(), op, dai, decimal.New(1, 0), decimal.RequireFromString("0.01"))
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}

	if got := query.Get("slippage"); got != "1" {
		t.Errorf("slippage param = %q, want \"1\"", got)
	}
	if got := query.Get("protocols"); got != routeProtocols {
		t.Errorf("protocols param = %q, want route whitelist", got)
	}
	if got := query.Get("disableEstimate"); got != "true" {
		t.Errorf("disableEstimate param = %q, want \"true\"", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	status, err := handle.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if status != domain.TxConfirmed {
		t.Errorf("expected confirmed, got %s", status)
	}
}

func TestApproveSubmitsAndConfirms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/10/approve/spender" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"address":"0x1111111254fb6c44bac0bed2854e76f90643097d"}`)
	}))
	defer srv.Close()

	api, err := NewClient(config.OneInchConfig{
		BaseURL:           srv.URL,
		RequestsPerMinute: 600,
	}, currency.ChainIDOptimism, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	backend := &fakeBackend{}
	s := newTestSwapper(t, api, backend, fakeSigner{})

	token := currency.Token{
		Address:  common.HexToAddress("0x4200000000000000000000000000000000000042"),
		Symbol:   "OP",
		Decimals: 18,
	}
	handle, err := s.Approve(context.Background(), token)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	backend.mu.Lock()
	if len(backend.sent) != 1 {
		backend.mu.Unlock()
		t.Fatalf("expected one broadcast, got %d", len(backend.sent))
	}
	sent := backend.sent[0]
	backend.receipt = &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(100),
	}
	backend.mu.Unlock()

	if *sent.To() != token.Address {
		t.Errorf("approve targets %s, want token address", sent.To().Hex())
	}
	if got := hex.EncodeToString(sent.Data()[:4]); got != "095ea7b3" {
		t.Errorf("unexpected selector %s", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	status, err := handle.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if status != domain.TxConfirmed {
		t.Errorf("expected confirmed, got %s", status)
	}
}

func TestWatchRevertedTransaction(t *testing.T) {
	backend := &fakeBackend{
		receipt: &types.Receipt{
			Status:      types.ReceiptStatusFailed,
			BlockNumber: big.NewInt(42),
		},
	}
	s := newTestSwapper(t, nil, backend, fakeSigner{})

	handle := domain.NewTxHandle(common.HexToHash("0xdead"))
	go s.watch(handle)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	status, err := handle.Wait(ctx)
	if status != domain.TxFailed {
		t.Fatalf("expected failed, got %s", status)
	}
	if !apperror.HasCode(err, apperror.CodeTransactionFailed) {
		t.Errorf("expected TRANSACTION_FAILED, got %v", err)
	}
}

func TestWatchDroppedTransaction(t *testing.T) {
	backend := &fakeBackend{inPool: false}
	s := newTestSwapper(t, nil, backend, fakeSigner{})

	handle := domain.NewTxHandle(common.HexToHash("0xbeef"))
	go s.watch(handle)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	status, err := handle.Wait(ctx)
	if status != domain.TxDropped {
		t.Fatalf("expected dropped, got %s", status)
	}
	if !apperror.HasCode(err, apperror.CodeTransactionDropped) {
		t.Errorf("expected TRANSACTION_DROPPED, got %v", err)
	}
}
