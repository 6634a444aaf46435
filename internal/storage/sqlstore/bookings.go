package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/storage"
)

const bookingColumns = `id, guest_id, unit_id, check_in, check_out, status, total_price, notes, created_at, updated_at`

// CreateBooking persists a new booking.
func (t *txStore) CreateBooking(ctx context.Context, b *models.Booking) error {
	if b.ID == "" {
		b.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now().Unix()
	if b.CreatedAt == 0 {
		b.CreatedAt = now
	}
	if b.UpdatedAt == 0 {
		b.UpdatedAt = b.CreatedAt
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.GuestID, b.UnitID, formatDate(b.CheckIn), formatDate(b.CheckOut),
		string(b.Status), b.TotalPrice.StringFixed(2), b.Notes, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return t.writeErr(err, "booking")
	}
	return nil
}

const bookingSelect = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

// GetBooking retrieves a booking by ID.
func (t *txStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return t.getBooking(ctx, bookingSelect, id)
}

// LockBooking retrieves a booking by ID and locks its row.
func (t *txStore) LockBooking(ctx context.Context, id string) (*models.Booking, error) {
	return t.getBooking(ctx, t.forUpdate(bookingSelect), id)
}

func (t *txStore) getBooking(ctx context.Context, query, id string) (*models.Booking, error) {
	b, err := scanBooking(t.tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// UpdateBooking overwrites the mutable columns of a booking, updated_at included.
func (t *txStore) UpdateBooking(ctx context.Context, b *models.Booking) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE bookings
		 SET unit_id = ?, check_in = ?, check_out = ?, status = ?, total_price = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		b.UnitID, formatDate(b.CheckIn), formatDate(b.CheckOut), string(b.Status),
		b.TotalPrice.StringFixed(2), b.Notes, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	return requireAffected(res, "booking", b.ID)
}

// ListConflictingBookings returns occupying bookings on the unit that
// overlap [checkIn, checkOut).
func (t *txStore) ListConflictingBookings(ctx context.Context, unitID string, checkIn, checkOut time.Time, excludeID string) ([]*models.Booking, error) {
	args := []interface{}{unitID}
	for _, s := range models.OccupyingStatuses {
		args = append(args, string(s))
	}
	args = append(args, formatDate(checkOut), formatDate(checkIn), excludeID)

	return t.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE unit_id = ? AND status IN (?, ?, ?)
		   AND check_in < ? AND check_out > ?
		   AND id <> ?
		 ORDER BY check_in`,
		args...,
	)
}

// ListBookingsByGuest returns the guest's bookings, earliest stay first.
func (t *txStore) ListBookingsByGuest(ctx context.Context, guestID string) ([]*models.Booking, error) {
	return t.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE guest_id = ? ORDER BY check_in, created_at`,
		guestID,
	)
}

func (t *txStore) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	var checkIn, checkOut, status string
	var notes sql.NullString

	if err := row.Scan(&b.ID, &b.GuestID, &b.UnitID, &checkIn, &checkOut, &status,
		&b.TotalPrice, &notes, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if b.CheckIn, err = parseDate(checkIn); err != nil {
		return nil, err
	}
	if b.CheckOut, err = parseDate(checkOut); err != nil {
		return nil, err
	}
	b.Status = models.BookingStatus(status)
	if notes.Valid {
		b.Notes = notes.String
	}
	return b, nil
}
