package models

import "github.com/shopspring/decimal"

// PaymentType distinguishes money received from money returned.
type PaymentType string

const (
	PaymentTypePayment PaymentType = "PAYMENT"
	PaymentTypeRefund  PaymentType = "REFUND"
)

// PaymentMethod is how the money moved.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodCreditCard   PaymentMethod = "CREDIT_CARD"
	MethodDebitCard    PaymentMethod = "DEBIT_CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodPayPal       PaymentMethod = "PAYPAL"
	MethodQR           PaymentMethod = "QR"
	MethodOther        PaymentMethod = "OTHER"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCreditCard, MethodDebitCard, MethodBankTransfer,
		MethodPayPal, MethodQR, MethodOther:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of a single ledger entry.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment is a signed monetary entry against a Booking.
// Payments carry a positive Amount, refunds a negative one.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	BookingID string

	Type   PaymentType
	Amount decimal.Decimal
	Method PaymentMethod
	Status PaymentStatus

	// TransactionID is the external reference for electronic payments.
	TransactionID string

	Notes string

	// OriginalPaymentID is set on refunds and points at the refunded payment.
	OriginalPaymentID string

	// CreatedBy is the staff user ID who recorded the entry, if known.
	CreatedBy string

	// PaymentDate is the Unix timestamp when the entry was recorded.
	PaymentDate int64

	// UpdatedAt is the Unix timestamp of the last status change.
	UpdatedAt int64
}

// IsCash reports whether the entry moved physical cash.
func (p *Payment) IsCash() bool {
	return p.Method == MethodCash
}

// Completed reports whether the entry counts toward the booking's ledger.
func (p *Payment) Completed() bool {
	return p.Status == PaymentCompleted
}

// IsRefund reports whether the entry returns money to the guest.
func (p *Payment) IsRefund() bool {
	return p.Type == PaymentTypeRefund
}
