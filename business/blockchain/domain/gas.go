package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// GasPrice is the node's suggested gas price.
type GasPrice struct {
	Wei       *big.Int
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(wei *big.Int) GasPrice {
	return GasPrice{Wei: wei, Timestamp: time.Now()}
}

// Gwei returns the price in gwei.
func (p GasPrice) Gwei() decimal.Decimal {
	if p.Wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(p.Wei, -9)
}

// Expired reports whether the price is older than ttl.
func (p GasPrice) Expired(ttl time.Duration) bool {
	return time.Since(p.Timestamp) > ttl
}

// CostWei returns the total cost of gasLimit units at this price.
func (p GasPrice) CostWei(gasLimit uint64) *big.Int {
	if p.Wei == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(p.Wei, new(big.Int).SetUint64(gasLimit))
}
