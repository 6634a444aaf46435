// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/pms/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a uniqueness constraint is violated.
	ErrAlreadyExists = errors.New("already exists")
)

// Store is the entry point to persistent state.
// Every business operation runs inside exactly one transaction so that its
// validation reads and resulting writes commit or roll back together.
type Store interface {
	// WithTx runs fn inside a single database transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	// Transient failures (lock contention, busy database) are retried with
	// backoff; errors returned by fn itself are never retried.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}

// Tx exposes every repository operation bound to one transaction.
type Tx interface {
	GuestStore
	InventoryStore
	BookingStore
	PaymentStore
	CashStore
	UserStore
}

// GuestStore persists guests.
type GuestStore interface {
	// CreateGuest inserts a guest. ID and CreatedAt are populated when empty.
	// Returns ErrAlreadyExists when the document pair is taken.
	CreateGuest(ctx context.Context, guest *models.Guest) error
	GetGuest(ctx context.Context, id string) (*models.Guest, error)
}

// InventoryStore persists properties, rooms, units and plans.
type InventoryStore interface {
	CreateProperty(ctx context.Context, property *models.Property) error
	GetProperty(ctx context.Context, id string) (*models.Property, error)

	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)

	// LockRoom reads a room and holds a write lock on its row until the
	// transaction ends. Plan writes for the room serialise on this lock.
	LockRoom(ctx context.Context, id string) (*models.Room, error)

	CreateUnit(ctx context.Context, unit *models.Unit) error
	GetUnit(ctx context.Context, id string) (*models.Unit, error)

	// LockUnit reads a unit and holds a write lock on its row until the
	// transaction ends. Booking writes for the unit serialise on this lock.
	LockUnit(ctx context.Context, id string) (*models.Unit, error)
	SetUnitActive(ctx context.Context, id string, active bool) error

	CreatePlan(ctx context.Context, plan *models.Plan) error
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	SetPlanActive(ctx context.Context, id string, active bool) error

	// ListPlansInRange returns the room's active plans whose inclusive range
	// intersects [start, end], ordered by start date.
	ListPlansInRange(ctx context.Context, roomID string, start, end time.Time) ([]*models.Plan, error)
}

// BookingStore persists bookings.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)

	// LockBooking reads a booking and holds a write lock on its row until the
	// transaction ends. Ledger writes for the booking serialise on this lock.
	LockBooking(ctx context.Context, id string) (*models.Booking, error)

	// UpdateBooking overwrites the mutable columns of an existing booking.
	UpdateBooking(ctx context.Context, booking *models.Booking) error

	// ListConflictingBookings returns bookings on the unit in an occupying
	// status whose [check_in, check_out) overlaps the given range.
	// The booking with excludeID (if non-empty) is ignored.
	ListConflictingBookings(ctx context.Context, unitID string, checkIn, checkOut time.Time, excludeID string) ([]*models.Booking, error)

	ListBookingsByGuest(ctx context.Context, guestID string) ([]*models.Booking, error)
}

// PaymentStore persists the payment ledger.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, updatedAt int64) error
	DeletePayment(ctx context.Context, id string) error

	// ListPaymentsByBooking returns every ledger entry of the booking,
	// oldest first.
	ListPaymentsByBooking(ctx context.Context, bookingID string) ([]*models.Payment, error)

	// ListRefunds returns the refunds that reference originalID.
	ListRefunds(ctx context.Context, originalID string) ([]*models.Payment, error)
}

// CashStore persists the cash register.
type CashStore interface {
	// LockCashRegister serialises cash writes until the transaction ends.
	LockCashRegister(ctx context.Context) error

	CreateCashEntry(ctx context.Context, entry *models.CashRegisterEntry) error

	// GetCashEntryByPayment returns the entry emitted for a payment, or
	// ErrNotFound when none exists yet.
	GetCashEntryByPayment(ctx context.Context, paymentID string) (*models.CashRegisterEntry, error)

	// ListCashEntries returns all entries, oldest first.
	ListCashEntries(ctx context.Context) ([]*models.CashRegisterEntry, error)
}

// UserStore persists staff accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
