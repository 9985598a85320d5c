package oneinch

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/pgrimaud/kwenta/business/exchange/app"
	"github.com/pgrimaud/kwenta/business/exchange/domain"
	"github.com/pgrimaud/kwenta/internal/apperror"
	"github.com/pgrimaud/kwenta/internal/currency"
	"github.com/pgrimaud/kwenta/internal/logger"
)

const (
	defaultPollInterval = 4 * time.Second
	defaultDropAfter    = 2 * time.Minute
	defaultWatchTimeout = 15 * time.Minute
	defaultSwapGas      = 700_000
)

// erc20ApproveABI is the single fragment needed to grant router allowances.
const erc20ApproveABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "spender", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [
			{"internalType": "bool", "name": "", "type": "bool"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// maxUint256 grants an unlimited allowance.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// EthBackend is the client subset used to submit and track transactions.
type EthBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error)
}

// TxSigner signs transactions for a bound wallet.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Ensure Swapper implements SwapAggregator.
var _ app.SwapAggregator = (*Swapper)(nil)

// Swapper builds swap transactions through the 1inch API and submits them
// with a bound signer, tracking each to a terminal state.
type Swapper struct {
	api     *Client
	eth     EthBackend
	signer  TxSigner
	chainID *big.Int
	erc20   abi.ABI
	logger  logger.LoggerInterface

	pollInterval time.Duration
	dropAfter    time.Duration
	watchTimeout time.Duration
}

// NewSwapper creates a Swapper. The signer may be nil for a read-only
// deployment; swap attempts then fail with WalletNotConnected.
func NewSwapper(api *Client, eth EthBackend, signer TxSigner, chainID uint64, log logger.LoggerInterface) (*Swapper, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ApproveABI))
	if err != nil {
		return nil, err
	}

	return &Swapper{
		api:          api,
		eth:          eth,
		signer:       signer,
		chainID:      new(big.Int).SetUint64(chainID),
		erc20:        parsed,
		logger:       log,
		pollInterval: defaultPollInterval,
		dropAfter:    defaultDropAfter,
		watchTimeout: defaultWatchTimeout,
	}, nil
}

// Swap builds, signs and submits a swap of amount from→to. slippage is a
// fraction (0.01 = 1%); the API boundary rescales it to the whole
// percentage points 1inch expects. The returned handle settles to
// confirmed, failed or dropped.
func (s *Swapper) Swap(ctx context.Context, from, to currency.Token, amount, slippage decimal.Decimal) (*domain.TxHandle, error) {
	if s.signer == nil {
		return nil, apperror.New(apperror.CodeWalletNotConnected)
	}
	wallet := s.signer.Address()

	built, err := s.api.SwapTransaction(ctx, from.Address, to.Address, amount, from.Decimals, wallet, slippage.Shift(2))
	if err != nil {
		return nil, err
	}

	value, ok := new(big.Int).SetString(built.Tx.Value, 10)
	if !ok {
		value = big.NewInt(0)
	}
	gasPrice, ok := new(big.Int).SetString(built.Tx.GasPrice, 10)
	if !ok || gasPrice.Sign() == 0 {
		gasPrice, err = s.eth.SuggestGasPrice(ctx)
		if err != nil {
			return nil, apperror.External(apperror.CodeEthereumRPCError, "gas price", err)
		}
	}
	gas := built.Tx.Gas
	if gas == 0 {
		gas = defaultSwapGas
	}

	return s.submit(ctx, wallet, built.Tx.To, value, gas, gasPrice, built.Tx.Data)
}

// Approve grants the 1inch router an unlimited allowance for the token.
func (s *Swapper) Approve(ctx context.Context, token currency.Token) (*domain.TxHandle, error) {
	if s.signer == nil {
		return nil, apperror.New(apperror.CodeWalletNotConnected)
	}
	if token.IsNative() {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("native coin needs no allowance"))
	}
	wallet := s.signer.Address()

	spender, err := s.api.ApproveSpender(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.erc20.Pack("approve", spender, maxUint256)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithMessage("failed to pack approve call"),
			apperror.WithCause(err))
	}

	gasPrice, err := s.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, apperror.External(apperror.CodeEthereumRPCError, "gas price", err)
	}

	return s.submit(ctx, wallet, token.Address, big.NewInt(0), 100_000, gasPrice, data)
}

// submit signs and broadcasts a transaction and starts the receipt watcher.
func (s *Swapper) submit(ctx context.Context, wallet, to common.Address, value *big.Int, gas uint64, gasPrice *big.Int, data []byte) (*domain.TxHandle, error) {
	nonce, err := s.eth.PendingNonceAt(ctx, wallet)
	if err != nil {
		return nil, apperror.External(apperror.CodeEthereumRPCError, "nonce", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := s.signer.SignTx(tx, s.chainID)
	if err != nil {
		return nil, apperror.New(apperror.CodeTransactionFailed,
			apperror.WithMessage("failed to sign transaction"),
			apperror.WithCause(err))
	}

	if err := s.eth.SendTransaction(ctx, signed); err != nil {
		return nil, apperror.External(apperror.CodeTransactionFailed, "broadcast", err)
	}

	handle := domain.NewTxHandle(signed.Hash())
	go s.watch(handle)

	s.logger.Info(ctx, "transaction submitted",
		"hash", signed.Hash().Hex(),
		"to", to.Hex(),
		"nonce", nonce,
	)
	return handle, nil
}

// watch polls for the receipt until the transaction settles. A transaction
// absent from both the chain and the mempool for dropAfter is considered
// dropped, as is one still pending when watchTimeout elapses.
func (s *Swapper) watch(handle *domain.TxHandle) {
	ctx, cancel := context.WithTimeout(context.Background(), s.watchTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var missingSince time.Time

	for {
		select {
		case <-ctx.Done():
			handle.Resolve(domain.TxDropped, apperror.New(apperror.CodeTransactionDropped,
				apperror.WithContext("not mined within "+s.watchTimeout.String())))
			return
		case <-ticker.C:
		}

		receipt, err := s.eth.TransactionReceipt(ctx, handle.Hash)
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusSuccessful {
				handle.Resolve(domain.TxConfirmed, nil)
			} else {
				handle.Resolve(domain.TxFailed, apperror.New(apperror.CodeTransactionFailed,
					apperror.WithContext("reverted in block "+receipt.BlockNumber.String())))
			}
			return
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			s.logger.Warn(ctx, "receipt poll failed", "hash", handle.Hash.Hex(), "error", err)
			continue
		}

		// No receipt. Check whether the transaction is still known to
		// the node at all.
		_, _, err = s.eth.TransactionByHash(ctx, handle.Hash)
		switch {
		case err == nil:
			missingSince = time.Time{}
		case errors.Is(err, ethereum.NotFound):
			if missingSince.IsZero() {
				missingSince = time.Now()
			} else if time.Since(missingSince) > s.dropAfter {
				handle.Resolve(domain.TxDropped, apperror.New(apperror.CodeTransactionDropped,
					apperror.WithContext("evicted from mempool")))
				return
			}
		default:
			s.logger.Warn(ctx, "mempool lookup failed", "hash", handle.Hash.Hex(), "error", err)
		}
	}
}
