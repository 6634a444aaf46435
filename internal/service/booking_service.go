package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pms/internal/calculator"
	"github.com/mmynk/pms/internal/events"
	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/storage"
)

// BookingService owns the booking lifecycle: availability, pricing and
// status transitions.
//
// Every write runs in one transaction that first locks the unit row, so two
// requests for the same unit cannot both pass the availability check.
type BookingService struct {
	store storage.Store
	opts  options
}

// NewBookingService creates a new BookingService with the given storage backend.
func NewBookingService(store storage.Store, opts ...Option) *BookingService {
	return &BookingService{store: store, opts: newOptions(opts)}
}

// CreateBookingInput holds the fields of a new booking.
// A zero TotalPrice is derived from the unit's rate for the stay.
type CreateBookingInput struct {
	GuestID    string
	UnitID     string
	CheckIn    time.Time
	CheckOut   time.Time
	TotalPrice decimal.Decimal
	Notes      string
}

// CreateBooking validates and persists a PENDING booking.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	booking, err := s.createBooking(ctx, in)
	if err != nil {
		s.rejected("create", err)
		return nil, err
	}

	s.opts.metrics.BookingCreated()
	slog.Info("Booking created",
		"booking_id", booking.ID,
		"unit_id", booking.UnitID,
		"check_in", models.FormatDate(booking.CheckIn),
		"check_out", models.FormatDate(booking.CheckOut),
		"total_price", booking.TotalPrice.StringFixed(2),
	)
	events.PublishAll(ctx, s.opts.publisher, []events.Event{s.bookingEvent(events.BookingCreated, booking)})
	return booking, nil
}

func (s *BookingService) createBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	if err := validateStay(in.CheckIn, in.CheckOut); err != nil {
		return nil, err
	}
	if in.CheckIn.Before(s.opts.today()) {
		return nil, invalid("check_in", "cannot be in the past")
	}
	if in.TotalPrice.IsNegative() {
		return nil, invalid("total_price", "cannot be negative")
	}

	now := s.opts.now().Unix()
	booking := &models.Booking{
		GuestID:    in.GuestID,
		UnitID:     in.UnitID,
		CheckIn:    in.CheckIn,
		CheckOut:   in.CheckOut,
		Status:     models.BookingPending,
		TotalPrice: in.TotalPrice.Round(2),
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetGuest(ctx, booking.GuestID); err != nil {
			return err
		}
		unit, err := lockBookableUnit(ctx, tx, booking.UnitID)
		if err != nil {
			return err
		}
		if err := ensureAvailable(ctx, tx, unit.ID, booking.CheckIn, booking.CheckOut, ""); err != nil {
			return err
		}
		if booking.TotalPrice.IsZero() {
			q, err := quoteStay(ctx, tx, unit, booking.CheckIn, booking.CheckOut)
			if err != nil {
				return err
			}
			booking.TotalPrice = q.Total
		}
		return tx.CreateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// UpdateBookingInput carries the fields to change; nil fields are kept.
// The price is re-derived when TotalPrice is zero, or when the stay or unit
// changes and no TotalPrice is given.
type UpdateBookingInput struct {
	ID         string
	UnitID     *string
	CheckIn    *time.Time
	CheckOut   *time.Time
	TotalPrice *decimal.Decimal
	Notes      *string
}

// UpdateBooking changes the stay, unit, price or notes of a non-terminal booking.
func (s *BookingService) UpdateBooking(ctx context.Context, in UpdateBookingInput) (*models.Booking, error) {
	var booking *models.Booking
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		b, err := tx.LockBooking(ctx, in.ID)
		if err != nil {
			return err
		}
		if b.Status.Terminal() {
			return &InvalidTransitionError{From: b.Status, Action: "update"}
		}

		checkInChanged := in.CheckIn != nil && !in.CheckIn.Equal(b.CheckIn)
		stayChanged := checkInChanged ||
			(in.CheckOut != nil && !in.CheckOut.Equal(b.CheckOut)) ||
			(in.UnitID != nil && *in.UnitID != b.UnitID)

		if in.CheckIn != nil {
			b.CheckIn = *in.CheckIn
		}
		if in.CheckOut != nil {
			b.CheckOut = *in.CheckOut
		}
		if in.Notes != nil {
			b.Notes = *in.Notes
		}
		if err := validateStay(b.CheckIn, b.CheckOut); err != nil {
			return err
		}
		if checkInChanged && b.CheckIn.Before(s.opts.today()) {
			return invalid("check_in", "cannot be in the past")
		}

		if in.TotalPrice != nil && in.TotalPrice.IsNegative() {
			return invalid("total_price", "cannot be negative")
		}
		priceGiven := in.TotalPrice != nil && !in.TotalPrice.IsZero()
		rederive := !priceGiven && (stayChanged || in.TotalPrice != nil)

		var unit *models.Unit
		if stayChanged {
			if in.UnitID != nil {
				b.UnitID = *in.UnitID
			}
			if unit, err = lockBookableUnit(ctx, tx, b.UnitID); err != nil {
				return err
			}
			if err := ensureAvailable(ctx, tx, unit.ID, b.CheckIn, b.CheckOut, b.ID); err != nil {
				return err
			}
		}

		switch {
		case priceGiven:
			b.TotalPrice = in.TotalPrice.Round(2)
		case rederive:
			if unit == nil {
				if unit, err = tx.GetUnit(ctx, b.UnitID); err != nil {
					return err
				}
			}
			q, err := quoteStay(ctx, tx, unit, b.CheckIn, b.CheckOut)
			if err != nil {
				return err
			}
			b.TotalPrice = q.Total
		}

		collected, err := collectedAmount(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		if b.TotalPrice.LessThan(collected) {
			return invalid("total_price", "%s is below the %s already collected",
				b.TotalPrice.StringFixed(2), collected.StringFixed(2))
		}

		b.UpdatedAt = s.opts.now().Unix()
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		s.rejected("update", err)
		return nil, err
	}

	slog.Info("Booking updated", "booking_id", booking.ID, "total_price", booking.TotalPrice.StringFixed(2))
	events.PublishAll(ctx, s.opts.publisher, []events.Event{s.bookingEvent(events.BookingUpdated, booking)})
	return booking, nil
}

// Transition applies a lifecycle action to a booking.
func (s *BookingService) Transition(ctx context.Context, id string, action models.BookingAction) (*models.Booking, error) {
	if !action.Valid() {
		return nil, invalid("action", "unknown action %q", action)
	}

	var booking *models.Booking
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		b, err := tx.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		next, ok := b.Status.Next(action)
		if !ok {
			return &InvalidTransitionError{From: b.Status, Action: action}
		}
		b.Status = next
		b.UpdatedAt = s.opts.now().Unix()
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		s.rejected(string(action), err)
		return nil, err
	}

	s.opts.metrics.BookingTransition(string(action))
	slog.Info("Booking transitioned", "booking_id", booking.ID, "action", action, "status", booking.Status)
	events.PublishAll(ctx, s.opts.publisher, []events.Event{s.bookingEvent("booking."+string(action), booking)})
	return booking, nil
}

// Confirm moves a PENDING booking to CONFIRMED.
func (s *BookingService) Confirm(ctx context.Context, id string) (*models.Booking, error) {
	return s.Transition(ctx, id, models.ActionConfirm)
}

// CheckIn moves a CONFIRMED booking to CHECKED_IN.
func (s *BookingService) CheckIn(ctx context.Context, id string) (*models.Booking, error) {
	return s.Transition(ctx, id, models.ActionCheckIn)
}

// CheckOut moves a CHECKED_IN booking to CHECKED_OUT.
func (s *BookingService) CheckOut(ctx context.Context, id string) (*models.Booking, error) {
	return s.Transition(ctx, id, models.ActionCheckOut)
}

// Cancel moves a PENDING or CONFIRMED booking to CANCELLED.
func (s *BookingService) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	return s.Transition(ctx, id, models.ActionCancel)
}

// GetBooking retrieves a booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking *models.Booking
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		booking, err = tx.GetBooking(ctx, id)
		return err
	})
	return booking, err
}

// ListBookingsByGuest returns a guest's bookings, earliest stay first.
func (s *BookingService) ListBookingsByGuest(ctx context.Context, guestID string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetGuest(ctx, guestID); err != nil {
			return err
		}
		var err error
		bookings, err = tx.ListBookingsByGuest(ctx, guestID)
		return err
	})
	return bookings, err
}

// IsAvailable reports whether a unit is free for [checkIn, checkOut),
// ignoring the booking excludeID (if non-empty).
func (s *BookingService) IsAvailable(ctx context.Context, unitID string, checkIn, checkOut time.Time, excludeID string) (bool, error) {
	if err := validateStay(checkIn, checkOut); err != nil {
		return false, err
	}
	available := false
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetUnit(ctx, unitID); err != nil {
			return err
		}
		conflicts, err := tx.ListConflictingBookings(ctx, unitID, checkIn, checkOut, excludeID)
		if err != nil {
			return err
		}
		available = len(conflicts) == 0
		return nil
	})
	return available, err
}

// PaymentSummary is the derived payment position of a booking.
type PaymentSummary struct {
	Status      calculator.PaymentStatus
	TotalPrice  decimal.Decimal
	Collected   decimal.Decimal
	PendingDebt decimal.Decimal
}

// PaymentStatus derives a booking's payment status from its completed ledger entries.
func (s *BookingService) PaymentStatus(ctx context.Context, bookingID string) (*PaymentSummary, error) {
	var summary *PaymentSummary
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		collected, err := collectedAmount(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		summary = &PaymentSummary{
			Status:      calculator.StatusFor(b.TotalPrice, collected),
			TotalPrice:  b.TotalPrice,
			Collected:   collected,
			PendingDebt: calculator.PendingDebt(b.TotalPrice, collected),
		}
		return nil
	})
	return summary, err
}

func (s *BookingService) rejected(op string, err error) {
	reason := rejectionReason(err)
	if reason == "" {
		return
	}
	s.opts.metrics.BookingRejected(reason)
	slog.Warn("Booking rejected", "operation", op, "reason", reason, "error", err)
}

func (s *BookingService) bookingEvent(eventType string, b *models.Booking) events.Event {
	e := s.opts.event(eventType)
	e.BookingID = b.ID
	e.Status = string(b.Status)
	e.Amount = b.TotalPrice.StringFixed(2)
	return e
}

// lockBookableUnit locks a unit row and checks it accepts bookings.
func lockBookableUnit(ctx context.Context, tx storage.Tx, unitID string) (*models.Unit, error) {
	unit, err := tx.LockUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if !unit.Active {
		return nil, invalid("unit_id", "unit %s is not active", unitID)
	}
	return unit, nil
}

// ensureAvailable must run after the unit row is locked.
func ensureAvailable(ctx context.Context, tx storage.Tx, unitID string, checkIn, checkOut time.Time, excludeID string) error {
	conflicts, err := tx.ListConflictingBookings(ctx, unitID, checkIn, checkOut, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return ErrUnitNotAvailable
	}
	return nil
}

// collectedAmount sums the completed ledger entries of a booking.
func collectedAmount(ctx context.Context, tx storage.Tx, bookingID string) (decimal.Decimal, error) {
	payments, err := tx.ListPaymentsByBooking(ctx, bookingID)
	if err != nil {
		return decimal.Zero, err
	}
	return calculator.CompletedTotal(ledgerEntries(payments)), nil
}

func ledgerEntries(payments []*models.Payment) []calculator.LedgerEntry {
	out := make([]calculator.LedgerEntry, len(payments))
	for i, p := range payments {
		out[i] = calculator.LedgerEntry{Amount: p.Amount, Completed: p.Completed()}
	}
	return out
}
