package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowStatus is the vesting state of a reward escrow entry.
type EscrowStatus int

const (
	// Vesting means the unlock time is still in the future.
	Vesting EscrowStatus = iota
	// Vested means the entry can be claimed in full.
	Vested
)

func (s EscrowStatus) String() string {
	if s == Vested {
		return "VESTED"
	}
	return "VESTING"
}

// EscrowEntry is one reward escrow position. Entries are built in two pure
// stages: NewEscrowEntry derives the status and provisional amounts from
// the schedule alone, WithClaimable overlays the contract's exact
// claimable/fee split once the second batch resolves.
type EscrowEntry struct {
	ID         uint64
	UnlockTime time.Time
	Amount     decimal.Decimal
	Claimable  decimal.Decimal
	Fee        decimal.Decimal
	Status     EscrowStatus
}

// NewEscrowEntry builds an entry from its vesting schedule. An entry still
// vesting claims nothing and forfeits everything; a vested entry claims
// everything fee-free.
func NewEscrowEntry(id uint64, unlock time.Time, amount decimal.Decimal, now time.Time) EscrowEntry {
	e := EscrowEntry{
		ID:         id,
		UnlockTime: unlock,
		Amount:     amount,
	}

	if unlock.After(now) {
		e.Status = Vesting
		e.Claimable = decimal.Zero
		e.Fee = amount
	} else {
		e.Status = Vested
		e.Claimable = amount
		e.Fee = decimal.Zero
	}
	return e
}

// WithClaimable returns a copy with the contract-reported claimable amount
// and early-vest fee.
func (e EscrowEntry) WithClaimable(claimable, fee decimal.Decimal) EscrowEntry {
	e.Claimable = claimable
	e.Fee = fee
	return e
}

// TotalVestable sums the claimable amount across entries.
func TotalVestable(entries []EscrowEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Claimable)
	}
	return total
}
