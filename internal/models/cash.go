package models

import "github.com/shopspring/decimal"

// CashEntryType is the direction of a cash movement.
type CashEntryType string

const (
	CashDeposit    CashEntryType = "DEPOSIT"
	CashWithdrawal CashEntryType = "WITHDRAWAL"
)

// Valid reports whether t is a known entry type.
func (t CashEntryType) Valid() bool {
	return t == CashDeposit || t == CashWithdrawal
}

// CashRegisterEntry is one immutable movement of the cash drawer.
// Entries are append-only; the balance is derived from all of them.
type CashRegisterEntry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string

	Type CashEntryType

	// Amount is always positive; Type gives the direction.
	Amount decimal.Decimal

	Description string

	// PaymentID weakly references the cash Payment that produced this entry.
	// It is a lookup key only: removing the payment leaves the entry intact.
	PaymentID string

	// CreatedBy is the staff user ID who recorded the entry, if known.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the entry was recorded.
	CreatedAt int64
}
