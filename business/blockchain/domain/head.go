// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ChainHead is a new chain head as seen by the feed.
type ChainHead struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
	Timestamp  time.Time
	BaseFee    *big.Int
}

// ConnectionState represents the state of the head feed connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// FeedStatus contains detailed head feed information.
type FeedStatus struct {
	State      ConnectionState
	LastHead   uint64
	Reconnects int
	Polling    bool // true when on the HTTP fallback
}
