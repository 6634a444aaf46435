package calculator

import "github.com/shopspring/decimal"

// PaymentStatus is the derived payment state of a booking.
type PaymentStatus string

const (
	NoPayment      PaymentStatus = "NO_PAYMENT"
	PartialPayment PaymentStatus = "PARTIAL_PAYMENT"
	FullyPaid      PaymentStatus = "FULLY_PAID"
)

// LedgerEntry represents a payment or refund with the minimal information
// needed for balance calculations. Refund amounts are negative.
type LedgerEntry struct {
	Amount    decimal.Decimal
	Completed bool
}

// CompletedTotal sums the completed entries. Refunds reduce the total.
func CompletedTotal(entries []LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Completed {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// PendingDebt is what the guest still owes: totalPrice - collected.
func PendingDebt(totalPrice, collected decimal.Decimal) decimal.Decimal {
	return totalPrice.Sub(collected)
}

// Excess returns how far amount goes past the pending debt, or zero.
func Excess(amount, pendingDebt decimal.Decimal) decimal.Decimal {
	if amount.GreaterThan(pendingDebt) {
		return amount.Sub(pendingDebt)
	}
	return decimal.Zero
}

// StatusFor derives the payment status of a booking:
//
//	collected <= 0              -> NO_PAYMENT
//	0 < collected < totalPrice  -> PARTIAL_PAYMENT
//	collected >= totalPrice     -> FULLY_PAID
func StatusFor(totalPrice, collected decimal.Decimal) PaymentStatus {
	switch {
	case !collected.IsPositive():
		return NoPayment
	case collected.LessThan(totalPrice):
		return PartialPayment
	default:
		return FullyPaid
	}
}

// CashMovement represents a cash register entry for balance calculations.
// Amount is always positive; Deposit gives the direction.
type CashMovement struct {
	Deposit bool
	Amount  decimal.Decimal
}

// CashBalance computes Σdeposits - Σwithdrawals over all movements.
func CashBalance(moves []CashMovement) decimal.Decimal {
	balance := decimal.Zero
	for _, m := range moves {
		if m.Deposit {
			balance = balance.Add(m.Amount)
		} else {
			balance = balance.Sub(m.Amount)
		}
	}
	return balance
}
