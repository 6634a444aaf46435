// Package metrics exposes Prometheus collectors for the booking core.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "pms"

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	bookingsCreated   prometheus.Counter
	bookingRejections *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	payments          *prometheus.CounterVec
	ledgerRejections  *prometheus.CounterVec
	cashEntries       *prometheus.CounterVec
	cashBalance       prometheus.Gauge
	txRetries         prometheus.Counter
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created.",
		}),
		bookingRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_rejections_total",
			Help:      "Booking writes rejected, by reason.",
		}, []string{"reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking lifecycle transitions applied, by action.",
		}, []string{"action"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Ledger entries recorded, by type and method.",
		}, []string{"type", "method"}),
		ledgerRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_rejections_total",
			Help:      "Payments, refunds and cash entries rejected, by reason.",
		}, []string{"reason"}),
		cashEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cash_entries_total",
			Help:      "Cash register entries written, by type.",
		}, []string{"type"}),
		cashBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cash_register_balance",
			Help:      "Cash register balance after the last committed cash entry.",
		}),
		txRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_tx_retries_total",
			Help:      "Transactions retried after a transient storage error.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.bookingsCreated,
		m.bookingRejections,
		m.transitions,
		m.payments,
		m.ledgerRejections,
		m.cashEntries,
		m.cashBalance,
		m.txRetries,
	)
	return m
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) BookingCreated() {
	if m == nil {
		return
	}
	m.bookingsCreated.Inc()
}

func (m *Metrics) BookingRejected(reason string) {
	if m == nil {
		return
	}
	m.bookingRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) BookingTransition(action string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action).Inc()
}

func (m *Metrics) PaymentRecorded(paymentType, method string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(paymentType, method).Inc()
}

func (m *Metrics) LedgerRejected(reason string) {
	if m == nil {
		return
	}
	m.ledgerRejections.WithLabelValues(reason).Inc()
}

// CashEntry counts a committed cash entry and records the resulting balance.
func (m *Metrics) CashEntry(entryType string, balance decimal.Decimal) {
	if m == nil {
		return
	}
	m.cashEntries.WithLabelValues(entryType).Inc()
	m.cashBalance.Set(balance.InexactFloat64())
}

// TxRetried counts a retried transaction.
func (m *Metrics) TxRetried() {
	if m == nil {
		return
	}
	m.txRetries.Inc()
}
