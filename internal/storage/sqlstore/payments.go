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

const paymentColumns = `id, booking_id, payment_type, amount, method, status, transaction_id, notes,
	original_payment_id, created_by, payment_date, updated_at`

// CreatePayment persists a new ledger entry.
func (t *txStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}
	if p.PaymentDate == 0 {
		p.PaymentDate = time.Now().Unix()
	}
	if p.UpdatedAt == 0 {
		p.UpdatedAt = p.PaymentDate
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.BookingID, string(p.Type), p.Amount.StringFixed(2), string(p.Method), string(p.Status),
		nullString(p.TransactionID), nullString(p.Notes), nullString(p.OriginalPaymentID),
		nullString(p.CreatedBy), p.PaymentDate, p.UpdatedAt,
	)
	if err != nil {
		return t.writeErr(err, "payment")
	}
	return nil
}

// GetPayment retrieves a ledger entry by ID.
func (t *txStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	p, err := scanPayment(t.tx.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// UpdatePaymentStatus changes the status of a ledger entry.
func (t *txStore) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, updatedAt int64) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE payments SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), updatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return requireAffected(res, "payment", id)
}

// DeletePayment removes a ledger entry. Cash register entries that
// reference it are left untouched.
func (t *txStore) DeletePayment(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return requireAffected(res, "payment", id)
}

// ListPaymentsByBooking returns the booking's ledger, oldest first.
func (t *txStore) ListPaymentsByBooking(ctx context.Context, bookingID string) ([]*models.Payment, error) {
	return t.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = ? ORDER BY payment_date, id`,
		bookingID,
	)
}

// ListRefunds returns the refunds of a payment, oldest first.
func (t *txStore) ListRefunds(ctx context.Context, originalID string) ([]*models.Payment, error) {
	return t.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE original_payment_id = ? AND payment_type = ?
		 ORDER BY payment_date, id`,
		originalID, string(models.PaymentTypeRefund),
	)
}

func (t *txStore) queryPayments(ctx context.Context, query string, args ...interface{}) ([]*models.Payment, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	p := &models.Payment{}
	var paymentType, method, status string
	var transactionID, notes, originalID, createdBy sql.NullString

	if err := row.Scan(&p.ID, &p.BookingID, &paymentType, &p.Amount, &method, &status,
		&transactionID, &notes, &originalID, &createdBy, &p.PaymentDate, &p.UpdatedAt); err != nil {
		return nil, err
	}

	p.Type = models.PaymentType(paymentType)
	p.Method = models.PaymentMethod(method)
	p.Status = models.PaymentStatus(status)
	p.TransactionID = transactionID.String
	p.Notes = notes.String
	p.OriginalPaymentID = originalID.String
	p.CreatedBy = createdBy.String
	return p, nil
}
