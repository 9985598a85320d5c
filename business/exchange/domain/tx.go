package domain

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// TxStatus is the lifecycle state of a submitted transaction.
type TxStatus int

const (
	// TxPending means the transaction is submitted but not yet terminal.
	TxPending TxStatus = iota
	// TxConfirmed means the transaction was mined and succeeded.
	TxConfirmed
	// TxFailed means the transaction was mined and reverted.
	TxFailed
	// TxDropped means the transaction left the mempool without being mined.
	TxDropped
)

func (s TxStatus) String() string {
	switch s {
	case TxConfirmed:
		return "confirmed"
	case TxFailed:
		return "failed"
	case TxDropped:
		return "dropped"
	default:
		return "pending"
	}
}

// Terminal reports whether the status is final.
func (s TxStatus) Terminal() bool {
	return s != TxPending
}

// TxHandle tracks a submitted transaction to one of exactly three terminal
// states: confirmed, failed or dropped. Resolution is one-shot.
type TxHandle struct {
	Hash common.Hash

	once   sync.Once
	done   chan struct{}
	status TxStatus
	err    error
}

// NewTxHandle creates a pending handle for the given transaction hash.
func NewTxHandle(hash common.Hash) *TxHandle {
	return &TxHandle{
		Hash: hash,
		done: make(chan struct{}),
	}
}

// Resolve records the terminal status. Subsequent calls are no-ops, so a
// racing watcher and canceller cannot flip a settled handle.
func (h *TxHandle) Resolve(status TxStatus, err error) {
	if !status.Terminal() {
		return
	}
	h.once.Do(func() {
		h.status = status
		h.err = err
		close(h.done)
	})
}

// Done is closed when the handle reaches a terminal state.
func (h *TxHandle) Done() <-chan struct{} {
	return h.done
}

// Status returns the current status. TxPending until Done is closed.
func (h *TxHandle) Status() TxStatus {
	select {
	case <-h.done:
		return h.status
	default:
		return TxPending
	}
}

// Err returns the failure cause for failed or dropped transactions.
func (h *TxHandle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the handle settles or the context is cancelled.
func (h *TxHandle) Wait(ctx context.Context) (TxStatus, error) {
	select {
	case <-h.done:
		return h.status, h.err
	case <-ctx.Done():
		return TxPending, ctx.Err()
	}
}
