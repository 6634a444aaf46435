// Package events publishes domain events after their transaction commits.
//
// Events are a notification feed, not a source of truth: consumers such as
// the cash reconciliation job re-read state through the API when needed.
// Publishing never fails a business operation.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types. The type doubles as the AMQP routing key.
const (
	BookingCreated    = "booking.created"
	BookingUpdated    = "booking.updated"
	BookingConfirmed  = "booking.confirm"
	BookingCheckedIn  = "booking.check_in"
	BookingCheckedOut = "booking.check_out"
	BookingCancelled  = "booking.cancel"
	PaymentRecorded   = "payment.recorded"
	PaymentRefunded   = "payment.refunded"
	PaymentCompleted  = "payment.completed"
	PaymentFailed     = "payment.failed"
	PaymentDeleted    = "payment.deleted"
	CashDeposit       = "cash.deposit"
	CashWithdrawal    = "cash.withdrawal"
)

// Event is the envelope of every message on the feed.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`

	BookingID string `json:"booking_id,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
	EntryID   string `json:"entry_id,omitempty"`

	// Status is the booking or payment status after the change.
	Status string `json:"status,omitempty"`

	// Amount is a decimal string; signed for refunds.
	Amount string `json:"amount,omitempty"`
	Method string `json:"method,omitempty"`

	// Balance is the cash register balance after a cash movement.
	Balance string `json:"balance,omitempty"`

	Actor string `json:"actor,omitempty"`
}

// New returns an event of the given type stamped with a fresh ID.
func New(eventType string, at time.Time) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: at.UTC(),
	}
}

// Publisher delivers events to the outside world.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublishAll delivers events in order and logs failures.
// It is called after commit, so a failure here cannot be rolled back.
func PublishAll(ctx context.Context, p Publisher, evts []Event) {
	if p == nil {
		return
	}
	for _, e := range evts {
		if err := p.Publish(ctx, e); err != nil {
			slog.Error("Failed to publish event", "type", e.Type, "event_id", e.ID, "error", err)
		}
	}
}

// LogPublisher writes events to the structured log. Used when no broker is configured.
type LogPublisher struct {
	Logger *slog.Logger
}

// Publish logs the event at debug level.
func (p LogPublisher) Publish(ctx context.Context, e Event) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "Event",
		"type", e.Type,
		"event_id", e.ID,
		"booking_id", e.BookingID,
		"payment_id", e.PaymentID,
		"entry_id", e.EntryID,
		"amount", e.Amount,
	)
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends the event.
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the types of everything published so far, in order.
func (r *Recorder) Types() []string {
	var types []string
	for _, e := range r.Events() {
		types = append(types, e.Type)
	}
	return types
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
