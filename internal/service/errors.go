package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pms/internal/models"
)

// ErrUnitNotAvailable is returned when a stay overlaps an occupying booking on the same unit.
var ErrUnitNotAvailable = errors.New("unit is not available for the selected dates")

// ValidationError reports malformed or contradictory input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError reports a lifecycle action not allowed from the current status.
type InvalidTransitionError struct {
	From   models.BookingStatus
	Action models.BookingAction
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a booking in status %s", e.Action, e.From)
}

// DebtExceededError reports a payment larger than what the guest still owes.
type DebtExceededError struct {
	Excess      decimal.Decimal
	PendingDebt decimal.Decimal
}

func (e *DebtExceededError) Error() string {
	return fmt.Sprintf("payment exceeds pending debt by %s (pending debt %s)",
		e.Excess.StringFixed(2), e.PendingDebt.StringFixed(2))
}

// RefundExceedsOriginalError reports a refund larger than what is left to refund.
type RefundExceedsOriginalError struct {
	Requested  decimal.Decimal
	Refundable decimal.Decimal
}

func (e *RefundExceedsOriginalError) Error() string {
	return fmt.Sprintf("refund of %s exceeds refundable amount %s",
		e.Requested.StringFixed(2), e.Refundable.StringFixed(2))
}

// InsufficientFundsError reports a cash withdrawal larger than the register balance.
type InsufficientFundsError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient cash: requested %s, available %s",
		e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

// rejectionReason is the metrics label for a business-rule rejection.
func rejectionReason(err error) string {
	var (
		validation *ValidationError
		transition *InvalidTransitionError
		debt       *DebtExceededError
		refund     *RefundExceedsOriginalError
		funds      *InsufficientFundsError
	)
	switch {
	case errors.Is(err, ErrUnitNotAvailable):
		return "unit_not_available"
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &transition):
		return "invalid_transition"
	case errors.As(err, &debt):
		return "debt_exceeded"
	case errors.As(err, &refund):
		return "refund_exceeds_original"
	case errors.As(err, &funds):
		return "insufficient_funds"
	}
	return ""
}
