package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pms/internal/calculator"
	"github.com/mmynk/pms/internal/events"
	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/storage"
)

func TestRecordPaymentValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.book(t, date(2025, time.January, 10), date(2025, time.January, 13))

	tests := []struct {
		name      string
		amount    string
		method    models.PaymentMethod
		status    models.PaymentStatus
		wantField string
	}{
		{"zero amount", "0", models.MethodCash, "", "amount"},
		{"negative amount", "-5", models.MethodCash, "", "amount"},
		{"unknown method", "10", "BITCOIN", "", "method"},
		{"pending cash", "10", models.MethodCash, models.PaymentPending, "status"},
		{"failed on creation", "10", models.MethodCreditCard, models.PaymentFailed, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Payments.RecordPayment(ctx, RecordPaymentInput{
				BookingID: b.ID,
				Amount:    dec(tt.amount),
				Method:    tt.method,
				Status:    tt.status,
			})
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}

	t.Run("cancelled booking", func(t *testing.T) {
		c := f.book(t, date(2025, time.February, 10), date(2025, time.February, 11))
		f.svc.Bookings.Cancel(ctx, c.ID)
		_, err := f.svc.Payments.RecordPayment(ctx, RecordPaymentInput{BookingID: c.ID, Amount: dec("5"), Method: models.MethodCash})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("expected ValidationError, got %v", err)
		}
	})

	t.Run("pending payment above the debt", func(t *testing.T) {
		_, err := f.svc.Payments.RecordPayment(ctx, RecordPaymentInput{
			BookingID: b.ID, Amount: dec("1000"), Method: models.MethodCreditCard, Status: models.PaymentPending,
		})
		var debt *DebtExceededError
		if !errors.As(err, &debt) {
			t.Fatalf("expected DebtExceededError, got %v", err)
		}
		assertDecimal(t, "excess", debt.Excess, "940")
		assertDecimal(t, "pending_debt", debt.PendingDebt, "60")

		payments, err := f.svc.Payments.ListPayments(ctx, b.ID)
		if err != nil {
			t.Fatalf("ListPayments failed: %v", err)
		}
		if len(payments) != 0 {
			t.Errorf("got %d payments, want none saved", len(payments))
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, err := f.svc.Payments.RecordPayment(ctx, RecordPaymentInput{BookingID: "missing", Amount: dec("5"), Method: models.MethodCash})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rejections leave no cash entry", func(t *testing.T) {
		assertDecimal(t, "balance", f.balance(t), "0")
	})
}

func TestCashPaymentEmitsDeposit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.book(t, date(2025, time.January, 10), date(2025, time.January, 13))

	p := f.pay(t, b.ID, "30", models.MethodCash)
	if p.Status != models.PaymentCompleted {
		t.Errorf("status = %s, want COMPLETED", p.Status)
	}
	assertDecimal(t, "balance", f.balance(t), "30")

	f.pay(t, b.ID, "20", models.MethodDebitCard)
	assertDecimal(t, "balance after card payment", f.balance(t), "30")

	entries, err := f.svc.Cash.ListEntries(ctx)
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d cash entries, want 1", len(entries))
	}
	if entries[0].Type != models.CashDeposit || entries[0].PaymentID != p.ID {
		t.Errorf("unexpected entry %+v", entries[0])
	}

	want := []string{events.PaymentRecorded, events.CashDeposit, events.PaymentRecorded}
	var got []string
	for _, typ := range f.events.Types() {
		if typ != events.BookingCreated {
			got = append(got, typ)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRefund(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("partial cash refund withdraws exactly the amount", func(t *testing.T) {
		b := f.book(t, date(2025, time.January, 10), date(2025, time.January, 13))
		p := f.pay(t, b.ID, "30", models.MethodCash)
		before := f.balance(t)

		r, err := f.svc.Payments.Refund(ctx, RefundInput{PaymentID: p.ID, Amount: decPtr("10")})
		if err != nil {
			t.Fatalf("Refund failed: %v", err)
		}
		assertDecimal(t, "refund amount", r.Amount, "-10")
		if r.Type != models.PaymentTypeRefund || r.OriginalPaymentID != p.ID {
			t.Errorf("unexpected refund %+v", r)
		}
		if r.Status != models.PaymentCompleted || r.Method != models.MethodCash {
			t.Errorf("cash refund should be COMPLETED CASH, got %s %s", r.Status, r.Method)
		}
		assertDecimal(t, "balance drop", before.Sub(f.balance(t)), "10")

		summary, _ := f.svc.Bookings.PaymentStatus(ctx, b.ID)
		assertDecimal(t, "collected", summary.Collected, "20")
	})

	t.Run("non-cash refund leaves the register untouched", func(t *testing.T) {
		b := f.book(t, date(2025, time.February, 10), date(2025, time.February, 13))
		p := f.pay(t, b.ID, "30", models.MethodCreditCard)
		before := f.balance(t)

		r, err := f.svc.Payments.Refund(ctx, RefundInput{PaymentID: p.ID, Amount: decPtr("10")})
		if err != nil {
			t.Fatalf("Refund failed: %v", err)
		}
		if r.Status != models.PaymentPending {
			t.Errorf("status = %s, want PENDING", r.Status)
		}
		assertDecimal(t, "balance", f.balance(t), before.String())

		if _, err := f.svc.Payments.MarkCompleted(ctx, r.ID); err != nil {
			t.Fatalf("MarkCompleted failed: %v", err)
		}
		assertDecimal(t, "balance after completion", f.balance(t), before.String())
		summary, _ := f.svc.Bookings.PaymentStatus(ctx, b.ID)
		assertDecimal(t, "collected", summary.Collected, "20")
	})

	t.Run("defaults to the full amount", func(t *testing.T) {
		b := f.book(t, date(2025, time.March, 10), date(2025, time.March, 11))
		p := f.pay(t, b.ID, "20", models.MethodBankTransfer)
		r, err := f.svc.Payments.Refund(ctx, RefundInput{PaymentID: p.ID})
		if err != nil {
			t.Fatalf("Refund failed: %v", err)
		}
		assertDecimal(t, "refund amount", r.Amount, "-20")
	})

	t.Run("method override", func(t *testing.T) {
		b := f.book(t, date(2025, time.March, 12), date(2025, time.March, 13))
		p := f.pay(t, b.ID, "20", models.MethodCreditCard)
		r, err := f.svc.Payments.Refund(ctx, RefundInput{PaymentID: p.ID, Method: models.MethodCash, Amount: decPtr("5")})
		if err != nil {
			t.Fatalf("Refund failed: %v", err)
		}
		if r.Method != models.MethodCash || r.Status != models.PaymentCompleted {
			t.Errorf("got %s %s, want CASH COMPLETED", r.Method, r.Status)
		}
	})

	t.Run("exceeding the original is rejected", func(t *testing.T) {
		b := f.book(t, date(2025, time.April, 10), date(2025, time.April, 13))
		p := f.pay(t, b.ID, "30", models.MethodCreditCard)

		_, err := f.svc.Payments.Refund(ctx, RefundInput{PaymentID: p.ID, Amount: decPtr("30.01")})
		var rerr *RefundExceedsOriginalError
		if !errors.As(err, &rerr) {
			t.Fatalf("expected RefundExceedsOriginalError, got %v", err)
		}
		assertDecimal(t, "refundable", rerr.Refundable, "30")
	})

	t.Run("cumulative refunds cannot exceed the original", func(t *testing.T) {
		b := f.book(t, date(2025, time.April, 20), date(2025, time.April, 23))
		p := f.pay(t, b.ID, "30", models.MethodCreditCard)
		if _, err := f.svc.Payments.Refund(ctx, RefundInput{PaymentID: p.ID, Amount: decPtr("20")}); err != nil {
			t.Fatalf("first Refund failed: %v", err)
		}

		_, err := f.svc.Payments.Refund(ctx, RefundInput{PaymentID: p.ID, Amount: decPtr("15")})
		var rerr *RefundExceedsOriginalError
		if !errors.As(err, &rerr) {
			t.Fatalf("expected RefundExceedsOriginalError, got %v", err)
		}
		assertDecimal(t, "refundable", rerr.Refundable, "10")
	})

	t.Run("pending payments and refunds cannot be refunded", func(t *testing.T) {
		b := f.book(t, date(2025, time.May, 1), date(2025, time.May, 3))
		pending, err := f.svc.Payments.RecordPayment(ctx, RecordPaymentInput{
			BookingID: b.ID, Amount: dec("10"), Method: models.MethodPayPal, Status: models.PaymentPending,
		})
		if err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}
		var verr *ValidationError
		if _, err := f.svc.Payments.Refund(ctx, RefundInput{PaymentID: pending.ID}); !errors.As(err, &verr) {
			t.Errorf("expected ValidationError for pending payment, got %v", err)
		}

		p := f.pay(t, b.ID, "10", models.MethodCash)
		r, err := f.svc.Payments.Refund(ctx, RefundInput{PaymentID: p.ID, Amount: decPtr("1")})
		if err != nil {
			t.Fatalf("Refund failed: %v", err)
		}
		if _, err := f.svc.Payments.Refund(ctx, RefundInput{PaymentID: r.ID}); !errors.As(err, &verr) {
			t.Errorf("expected ValidationError for refund of refund, got %v", err)
		}
	})
}

func TestCashRefundInsufficientFundsRollsBack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.book(t, date(2025, time.January, 10), date(2025, time.January, 13))
	p := f.pay(t, b.ID, "30", models.MethodCash)

	// The drawer is emptied for an expense before the guest asks for money back.
	if _, err := f.svc.Cash.Record(ctx, RecordCashInput{Type: models.CashWithdrawal, Amount: dec("25"), Description: "Supplies"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	_, err := f.svc.Payments.Refund(ctx, RefundInput{PaymentID: p.ID, Amount: decPtr("10")})
	var ferr *InsufficientFundsError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	assertDecimal(t, "available", ferr.Available, "5")

	details, err := f.svc.Payments.ListPayments(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(details) != 1 {
		t.Errorf("refund should have been rolled back, ledger has %d entries", len(details))
	}
	assertDecimal(t, "balance", f.balance(t), "5")
}

func TestMarkCompleted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("completing a cash payment twice keeps one cash entry", func(t *testing.T) {
		b := f.book(t, date(2025, time.January, 10), date(2025, time.January, 13))
		p := f.pay(t, b.ID, "30", models.MethodCash)

		for i := 0; i < 2; i++ {
			if _, err := f.svc.Payments.MarkCompleted(ctx, p.ID); err != nil {
				t.Fatalf("MarkCompleted #%d failed: %v", i+1, err)
			}
		}

		entries, _ := f.svc.Cash.ListEntries(ctx)
		count := 0
		for _, e := range entries {
			if e.PaymentID == p.ID {
				count++
			}
		}
		if count != 1 {
			t.Errorf("got %d cash entries for the payment, want 1", count)
		}
		assertDecimal(t, "balance", f.balance(t), "30")
	})

	t.Run("pending payment re-checks the debt", func(t *testing.T) {
		b := f.book(t, date(2025, time.February, 10), date(2025, time.February, 13))
		pending, err := f.svc.Payments.RecordPayment(ctx, RecordPaymentInput{
			BookingID: b.ID, Amount: dec("40"), Method: models.MethodBankTransfer, Status: models.PaymentPending,
		})
		if err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}
		f.pay(t, b.ID, "30", models.MethodCash)

		_, err = f.svc.Payments.MarkCompleted(ctx, pending.ID)
		var debt *DebtExceededError
		if !errors.As(err, &debt) {
			t.Fatalf("expected DebtExceededError, got %v", err)
		}
		assertDecimal(t, "excess", debt.Excess, "10")
		assertDecimal(t, "pending_debt", debt.PendingDebt, "30")

		stored, _ := f.svc.Payments.GetPayment(ctx, pending.ID)
		if stored.Status != models.PaymentPending {
			t.Errorf("status = %s, want PENDING after rejection", stored.Status)
		}
	})

	t.Run("pending payment on a cancelled booking", func(t *testing.T) {
		b := f.book(t, date(2025, time.April, 10), date(2025, time.April, 13))
		pending, err := f.svc.Payments.RecordPayment(ctx, RecordPaymentInput{
			BookingID: b.ID, Amount: dec("30"), Method: models.MethodCreditCard, Status: models.PaymentPending,
		})
		if err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}
		if _, err := f.svc.Bookings.Cancel(ctx, b.ID); err != nil {
			t.Fatalf("Cancel failed: %v", err)
		}

		var verr *ValidationError
		if _, err := f.svc.Payments.MarkCompleted(ctx, pending.ID); !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Field != "booking_id" {
			t.Errorf("field = %q, want booking_id", verr.Field)
		}
		stored, _ := f.svc.Payments.GetPayment(ctx, pending.ID)
		if stored.Status != models.PaymentPending {
			t.Errorf("status = %s, want PENDING", stored.Status)
		}
	})

	t.Run("failed payment cannot be completed", func(t *testing.T) {
		b := f.book(t, date(2025, time.March, 10), date(2025, time.March, 13))
		pending, _ := f.svc.Payments.RecordPayment(ctx, RecordPaymentInput{
			BookingID: b.ID, Amount: dec("10"), Method: models.MethodQR, Status: models.PaymentPending,
		})
		if _, err := f.svc.Payments.MarkFailed(ctx, pending.ID); err != nil {
			t.Fatalf("MarkFailed failed: %v", err)
		}
		var verr *ValidationError
		if _, err := f.svc.Payments.MarkCompleted(ctx, pending.ID); !errors.As(err, &verr) {
			t.Errorf("expected ValidationError, got %v", err)
		}
		if _, err := f.svc.Payments.MarkFailed(ctx, pending.ID); !errors.As(err, &verr) {
			t.Errorf("expected ValidationError on second MarkFailed, got %v", err)
		}
	})
}

func TestDeletePayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.book(t, date(2025, time.January, 10), date(2025, time.January, 13))

	completed := f.pay(t, b.ID, "10", models.MethodCash)
	var verr *ValidationError
	if err := f.svc.Payments.DeletePayment(ctx, completed.ID); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError deleting a completed payment, got %v", err)
	}

	pending, _ := f.svc.Payments.RecordPayment(ctx, RecordPaymentInput{
		BookingID: b.ID, Amount: dec("10"), Method: models.MethodOther, Status: models.PaymentPending,
	})
	if err := f.svc.Payments.DeletePayment(ctx, pending.ID); err != nil {
		t.Fatalf("DeletePayment failed: %v", err)
	}
	if _, err := f.svc.Payments.GetPayment(ctx, pending.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListPaymentsRefunded(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.book(t, date(2025, time.January, 10), date(2025, time.January, 13))
	p := f.pay(t, b.ID, "30", models.MethodCash)
	f.svc.Payments.Refund(ctx, RefundInput{PaymentID: p.ID, Amount: decPtr("5")})
	f.svc.Payments.Refund(ctx, RefundInput{PaymentID: p.ID, Amount: decPtr("7.50")})

	details, err := f.svc.Payments.ListPayments(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(details) != 3 {
		t.Fatalf("got %d entries, want 3", len(details))
	}
	assertDecimal(t, "refunded", details[0].Refunded, "12.50")
	assertDecimal(t, "balance", f.balance(t), "17.50")
}

// TestLedgerInvariant drives random payments, refunds and completions and
// checks that the completed sum stays within [0, total_price] and the cash
// register never goes negative.
func TestLedgerInvariant(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.book(t, date(2025, time.January, 10), date(2025, time.January, 15)) // 100.00

	methods := []models.PaymentMethod{models.MethodCash, models.MethodCreditCard, models.MethodBankTransfer}
	rng := rand.New(rand.NewSource(42))
	var payments []*models.Payment

	for i := 0; i < 60; i++ {
		amount := decimal.New(int64(rng.Intn(4000)+1), -2) // 0.01 .. 40.00
		switch op := rng.Intn(4); {
		case op <= 1:
			method := methods[rng.Intn(len(methods))]
			status := models.PaymentCompleted
			if method != models.MethodCash && rng.Intn(2) == 0 {
				status = models.PaymentPending
			}
			p, err := f.svc.Payments.RecordPayment(ctx, RecordPaymentInput{BookingID: b.ID, Amount: amount, Method: method, Status: status})
			if err == nil {
				payments = append(payments, p)
			}
		case op == 2 && len(payments) > 0:
			p := payments[rng.Intn(len(payments))]
			if r, err := f.svc.Payments.Refund(ctx, RefundInput{PaymentID: p.ID, Amount: &amount}); err == nil {
				payments = append(payments, r)
			}
		case op == 3 && len(payments) > 0:
			f.svc.Payments.MarkCompleted(ctx, payments[rng.Intn(len(payments))].ID)
		}

		summary, err := f.svc.Bookings.PaymentStatus(ctx, b.ID)
		if err != nil {
			t.Fatalf("PaymentStatus failed: %v", err)
		}
		if summary.Collected.IsNegative() || summary.Collected.GreaterThan(summary.TotalPrice) {
			t.Fatalf("step %d: collected %s outside [0, %s]", i, summary.Collected, summary.TotalPrice)
		}
		if summary.Status == calculator.FullyPaid && summary.Collected.LessThan(summary.TotalPrice) {
			t.Fatalf("step %d: FULLY_PAID with collected %s", i, summary.Collected)
		}
		if f.balance(t).IsNegative() {
			t.Fatalf("step %d: negative cash balance", i)
		}
	}
}
