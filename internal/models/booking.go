package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a Booking.
//
//	PENDING -> CONFIRMED -> CHECKED_IN -> CHECKED_OUT
//	PENDING | CONFIRMED -> CANCELLED
type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCheckedIn  BookingStatus = "CHECKED_IN"
	BookingCheckedOut BookingStatus = "CHECKED_OUT"
	BookingCancelled  BookingStatus = "CANCELLED"
)

// OccupyingStatuses are the statuses that block a Unit for their date range.
var OccupyingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingCheckedIn}

// Occupying reports whether a booking in this status counts toward availability conflicts.
func (s BookingStatus) Occupying() bool {
	for _, o := range OccupyingStatuses {
		if s == o {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == BookingCheckedOut || s == BookingCancelled
}

// BookingAction names a lifecycle transition.
type BookingAction string

const (
	ActionConfirm  BookingAction = "confirm"
	ActionCheckIn  BookingAction = "check_in"
	ActionCheckOut BookingAction = "check_out"
	ActionCancel   BookingAction = "cancel"
)

var transitions = map[BookingAction]struct {
	from []BookingStatus
	to   BookingStatus
}{
	ActionConfirm:  {from: []BookingStatus{BookingPending}, to: BookingConfirmed},
	ActionCheckIn:  {from: []BookingStatus{BookingConfirmed}, to: BookingCheckedIn},
	ActionCheckOut: {from: []BookingStatus{BookingCheckedIn}, to: BookingCheckedOut},
	ActionCancel:   {from: []BookingStatus{BookingPending, BookingConfirmed}, to: BookingCancelled},
}

// Valid reports whether a is a known action.
func (a BookingAction) Valid() bool {
	_, ok := transitions[a]
	return ok
}

// Next returns the status reached by applying a to s.
// ok is false when the transition is not allowed from s.
func (s BookingStatus) Next(a BookingAction) (next BookingStatus, ok bool) {
	t, known := transitions[a]
	if !known {
		return s, false
	}
	for _, from := range t.from {
		if s == from {
			return t.to, true
		}
	}
	return s, false
}

// Booking links a Guest to a Unit for [CheckIn, CheckOut).
// CheckOut is exclusive: the guest sleeps the nights CheckIn .. CheckOut-1.
type Booking struct {
	// ID is the unique identifier for the booking (UUID format).
	ID string

	GuestID string
	UnitID  string

	CheckIn  time.Time
	CheckOut time.Time

	Status BookingStatus

	// TotalPrice is what the guest owes for the stay. Never negative.
	// When left zero at creation it is derived from the unit's rate.
	TotalPrice decimal.Decimal

	Notes string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// Nights is the number of nights of the stay (check-out exclusive).
func (b *Booking) Nights() int {
	return DaysBetween(b.CheckIn, b.CheckOut)
}
