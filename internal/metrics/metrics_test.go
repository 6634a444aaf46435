package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.BookingCreated()
	m.BookingRejected("unavailable")
	m.BookingTransition("confirm")
	m.PaymentRecorded("PAYMENT", "CASH")
	m.LedgerRejected("debt_exceeded")
	m.CashEntry("DEPOSIT", decimal.NewFromInt(10))
	m.TxRetried()
}

func TestCounters(t *testing.T) {
	m := New()

	m.BookingCreated()
	m.BookingCreated()
	m.BookingRejected("unavailable")
	m.PaymentRecorded("PAYMENT", "CASH")
	m.CashEntry("DEPOSIT", decimal.RequireFromString("150.50"))

	if got := testutil.ToFloat64(m.bookingsCreated); got != 2 {
		t.Errorf("bookings_created_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.bookingRejections.WithLabelValues("unavailable")); got != 1 {
		t.Errorf("booking_rejections_total{unavailable} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.cashBalance); got != 150.5 {
		t.Errorf("cash_register_balance = %v, want 150.5", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.BookingTransition("check_in")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `pms_booking_transitions_total{action="check_in"} 1`) {
		t.Errorf("metrics output missing transition counter:\n%s", body)
	}
}
