package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pms/internal/calculator"
	"github.com/mmynk/pms/internal/events"
	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/storage"
)

// PaymentService is the payment ledger of bookings.
//
// Completed entries of a booking always sum to between zero and its total
// price. Writes lock the booking row; completed cash entries write their
// cash register entry in the same transaction.
type PaymentService struct {
	store storage.Store
	cash  *CashRegister
	opts  options
}

// NewPaymentService creates a new PaymentService. Cash entries are reported through cash.
func NewPaymentService(store storage.Store, cash *CashRegister, opts ...Option) *PaymentService {
	return &PaymentService{store: store, cash: cash, opts: newOptions(opts)}
}

// RecordPaymentInput holds a payment against a booking.
// Status defaults to COMPLETED; cash payments are always COMPLETED.
type RecordPaymentInput struct {
	BookingID     string
	Amount        decimal.Decimal
	Method        models.PaymentMethod
	Status        models.PaymentStatus
	TransactionID string
	Notes         string
	CreatedBy     string
}

// RecordPayment adds a PAYMENT entry to a booking's ledger.
func (s *PaymentService) RecordPayment(ctx context.Context, in RecordPaymentInput) (*models.Payment, error) {
	if !in.Amount.IsPositive() {
		return s.reject("record", invalid("amount", "must be positive"))
	}
	if !in.Method.Valid() {
		return s.reject("record", invalid("method", "unknown payment method %q", in.Method))
	}
	status := in.Status
	if status == "" {
		status = models.PaymentCompleted
	}
	if status != models.PaymentPending && status != models.PaymentCompleted {
		return s.reject("record", invalid("status", "must be PENDING or COMPLETED"))
	}
	if in.Method == models.MethodCash && status != models.PaymentCompleted {
		return s.reject("record", invalid("status", "cash payments are always COMPLETED"))
	}

	var (
		payment  *models.Payment
		emission *cashEmission
	)
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		booking, err := tx.LockBooking(ctx, in.BookingID)
		if err != nil {
			return err
		}
		if booking.Status == models.BookingCancelled {
			return invalid("booking_id", "booking is cancelled")
		}

		amount := in.Amount.Round(2)
		if err := checkDebt(ctx, tx, booking, amount); err != nil {
			return err
		}

		now := s.opts.now().Unix()
		payment = &models.Payment{
			BookingID:     booking.ID,
			Type:          models.PaymentTypePayment,
			Amount:        amount,
			Method:        in.Method,
			Status:        status,
			TransactionID: in.TransactionID,
			Notes:         in.Notes,
			CreatedBy:     in.CreatedBy,
			PaymentDate:   now,
			UpdatedAt:     now,
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return err
		}

		emission, err = emitCashEntry(ctx, tx, payment, now)
		return err
	})
	if err != nil {
		return s.reject("record", err)
	}

	s.committed(ctx, events.PaymentRecorded, payment, emission)
	return payment, nil
}

// RefundInput holds a refund of a completed payment.
// A nil Amount refunds everything still refundable from the original amount;
// an empty Method inherits the original payment's method.
type RefundInput struct {
	PaymentID     string
	Amount        *decimal.Decimal
	Method        models.PaymentMethod
	TransactionID string
	Notes         string
	CreatedBy     string
}

// Refund adds a REFUND entry referencing a completed payment.
// Cash refunds complete immediately and withdraw from the register;
// other refunds start PENDING.
func (s *PaymentService) Refund(ctx context.Context, in RefundInput) (*models.Payment, error) {
	var (
		refund   *models.Payment
		emission *cashEmission
	)
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		original, err := lockPayment(ctx, tx, in.PaymentID)
		if err != nil {
			return err
		}
		if original.IsRefund() {
			return invalid("payment_id", "cannot refund a refund")
		}
		if !original.Completed() {
			return invalid("payment_id", "only completed payments can be refunded")
		}

		amount := original.Amount
		if in.Amount != nil {
			amount = in.Amount.Abs().Round(2)
		}
		if !amount.IsPositive() {
			return invalid("amount", "must be positive")
		}
		if amount.GreaterThan(original.Amount) {
			return &RefundExceedsOriginalError{Requested: amount, Refundable: original.Amount}
		}

		refunded, err := refundedAmount(ctx, tx, original.ID)
		if err != nil {
			return err
		}
		refundable := original.Amount.Sub(refunded)
		if amount.GreaterThan(refundable) {
			return &RefundExceedsOriginalError{Requested: amount, Refundable: refundable}
		}

		method := in.Method
		if method == "" {
			method = original.Method
		}
		if !method.Valid() {
			return invalid("method", "unknown payment method %q", method)
		}
		status := models.PaymentPending
		if method == models.MethodCash {
			status = models.PaymentCompleted
		}

		now := s.opts.now().Unix()
		refund = &models.Payment{
			BookingID:         original.BookingID,
			Type:              models.PaymentTypeRefund,
			Amount:            amount.Neg(),
			Method:            method,
			Status:            status,
			TransactionID:     in.TransactionID,
			Notes:             in.Notes,
			OriginalPaymentID: original.ID,
			CreatedBy:         in.CreatedBy,
			PaymentDate:       now,
			UpdatedAt:         now,
		}
		if err := tx.CreatePayment(ctx, refund); err != nil {
			return err
		}

		emission, err = emitCashEntry(ctx, tx, refund, now)
		return err
	})
	if err != nil {
		return s.reject("refund", err)
	}

	s.committed(ctx, events.PaymentRefunded, refund, emission)
	return refund, nil
}

// MarkCompleted settles a PENDING entry. Payments re-check the booking's
// pending debt and are refused once the booking is cancelled. Completing an
// already COMPLETED entry only makes sure its cash register entry exists.
func (s *PaymentService) MarkCompleted(ctx context.Context, id string) (*models.Payment, error) {
	var (
		payment  *models.Payment
		emission *cashEmission
	)
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		p, err := lockPayment(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.opts.now().Unix()
		switch p.Status {
		case models.PaymentFailed:
			return invalid("status", "a failed payment cannot be completed")
		case models.PaymentPending:
			if !p.IsRefund() {
				booking, err := tx.GetBooking(ctx, p.BookingID)
				if err != nil {
					return err
				}
				if booking.Status == models.BookingCancelled {
					return invalid("booking_id", "booking is cancelled")
				}
				if err := checkDebt(ctx, tx, booking, p.Amount); err != nil {
					return err
				}
			}
			if err := tx.UpdatePaymentStatus(ctx, p.ID, models.PaymentCompleted, now); err != nil {
				return err
			}
			p.Status = models.PaymentCompleted
			p.UpdatedAt = now
		}

		payment = p
		emission, err = emitCashEntry(ctx, tx, p, now)
		return err
	})
	if err != nil {
		return s.reject("complete", err)
	}

	s.committed(ctx, events.PaymentCompleted, payment, emission)
	return payment, nil
}

// MarkFailed marks a PENDING entry as FAILED. Failed entries never count
// toward the ledger.
func (s *PaymentService) MarkFailed(ctx context.Context, id string) (*models.Payment, error) {
	var payment *models.Payment
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		p, err := lockPayment(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.Status != models.PaymentPending {
			return invalid("status", "only pending payments can fail, payment is %s", p.Status)
		}
		now := s.opts.now().Unix()
		if err := tx.UpdatePaymentStatus(ctx, p.ID, models.PaymentFailed, now); err != nil {
			return err
		}
		p.Status = models.PaymentFailed
		p.UpdatedAt = now
		payment = p
		return nil
	})
	if err != nil {
		return s.reject("fail", err)
	}

	s.committed(ctx, events.PaymentFailed, payment, nil)
	return payment, nil
}

// DeletePayment removes a PENDING or FAILED entry. Completed entries are
// part of the audit trail and are reversed with a refund instead.
func (s *PaymentService) DeletePayment(ctx context.Context, id string) error {
	var payment *models.Payment
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		p, err := lockPayment(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.Completed() {
			return invalid("payment_id", "completed payments cannot be deleted")
		}
		payment = p
		return tx.DeletePayment(ctx, p.ID)
	})
	if err != nil {
		_, err = s.reject("delete", err)
		return err
	}

	slog.Info("Payment deleted", "payment_id", id, "booking_id", payment.BookingID)
	e := s.paymentEvent(events.PaymentDeleted, payment)
	events.PublishAll(ctx, s.opts.publisher, []events.Event{e})
	return nil
}

// GetPayment retrieves a ledger entry by ID.
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var payment *models.Payment
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		payment, err = tx.GetPayment(ctx, id)
		return err
	})
	return payment, err
}

// PaymentDetail is a ledger entry with the amount refunded against it so far.
type PaymentDetail struct {
	*models.Payment
	Refunded decimal.Decimal
}

// ListPayments returns a booking's ledger, oldest first.
func (s *PaymentService) ListPayments(ctx context.Context, bookingID string) ([]PaymentDetail, error) {
	var details []PaymentDetail
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetBooking(ctx, bookingID); err != nil {
			return err
		}
		payments, err := tx.ListPaymentsByBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		refunded := make(map[string]decimal.Decimal)
		for _, p := range payments {
			if p.IsRefund() && p.Status != models.PaymentFailed {
				refunded[p.OriginalPaymentID] = refunded[p.OriginalPaymentID].Add(p.Amount.Abs())
			}
		}
		details = make([]PaymentDetail, len(payments))
		for i, p := range payments {
			details[i] = PaymentDetail{Payment: p, Refunded: refunded[p.ID]}
		}
		return nil
	})
	return details, err
}

// lockPayment locks the payment's booking, then reads the payment under that lock.
func lockPayment(ctx context.Context, tx storage.Tx, id string) (*models.Payment, error) {
	p, err := tx.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := tx.LockBooking(ctx, p.BookingID); err != nil {
		return nil, err
	}
	return tx.GetPayment(ctx, id)
}

// checkDebt rejects a payment that would collect more than the booking's total price.
func checkDebt(ctx context.Context, tx storage.Tx, booking *models.Booking, amount decimal.Decimal) error {
	collected, err := collectedAmount(ctx, tx, booking.ID)
	if err != nil {
		return err
	}
	pending := calculator.PendingDebt(booking.TotalPrice, collected)
	if excess := calculator.Excess(amount, pending); excess.IsPositive() {
		return &DebtExceededError{Excess: excess, PendingDebt: pending}
	}
	return nil
}

// refundedAmount sums the non-failed refunds of a payment as a positive amount.
func refundedAmount(ctx context.Context, tx storage.Tx, paymentID string) (decimal.Decimal, error) {
	refunds, err := tx.ListRefunds(ctx, paymentID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range refunds {
		if r.Status != models.PaymentFailed {
			total = total.Add(r.Amount.Abs())
		}
	}
	return total, nil
}

func (s *PaymentService) reject(op string, err error) (*models.Payment, error) {
	if reason := rejectionReason(err); reason != "" {
		s.opts.metrics.LedgerRejected(reason)
		slog.Warn("Payment rejected", "operation", op, "reason", reason, "error", err)
	}
	return nil, err
}

// committed reports a ledger write after its transaction commits.
func (s *PaymentService) committed(ctx context.Context, eventType string, p *models.Payment, emission *cashEmission) {
	if eventType != events.PaymentCompleted && eventType != events.PaymentFailed {
		s.opts.metrics.PaymentRecorded(string(p.Type), string(p.Method))
	}
	slog.Info("Payment saved",
		"payment_id", p.ID,
		"booking_id", p.BookingID,
		"type", p.Type,
		"method", p.Method,
		"status", p.Status,
		"amount", p.Amount.StringFixed(2),
	)
	events.PublishAll(ctx, s.opts.publisher, []events.Event{s.paymentEvent(eventType, p)})
	if emission != nil && emission.created && s.cash != nil {
		s.cash.committed(ctx, emission.entry, emission.balance)
	}
}

func (s *PaymentService) paymentEvent(eventType string, p *models.Payment) events.Event {
	e := s.opts.event(eventType)
	e.BookingID = p.BookingID
	e.PaymentID = p.ID
	e.Status = string(p.Status)
	e.Amount = p.Amount.StringFixed(2)
	e.Method = string(p.Method)
	e.Actor = p.CreatedBy
	return e
}
