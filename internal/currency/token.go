package currency

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Token is ERC20 token metadata, as published in aggregator token lists.
type Token struct {
	Address  common.Address
	Symbol   string
	Name     string
	Decimals uint8
	LogoURI  string
}

// IsNative reports whether the token is the aggregator pseudo-entry for the
// chain's native coin.
func (t Token) IsNative() bool {
	return t.Address == NativeTokenAddress
}

// FromWei converts an 18-decimal raw value to a decimal.
func FromWei(raw *big.Int) decimal.Decimal {
	return FromUnits(raw, 18)
}

// FromUnits converts a raw value with the given decimals to a decimal.
func FromUnits(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// ToWei converts a decimal to an 18-decimal raw value, truncating any
// precision beyond 18 places.
func ToWei(d decimal.Decimal) *big.Int {
	return ToUnits(d, 18)
}

// ToUnits converts a decimal to a raw value with the given decimals.
func ToUnits(d decimal.Decimal, decimals uint8) *big.Int {
	return d.Shift(int32(decimals)).Truncate(0).BigInt()
}
