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

const cashColumns = `id, entry_type, amount, description, payment_id, created_by, created_at`

// LockCashRegister takes the register's row lock for the rest of the transaction.
func (t *txStore) LockCashRegister(ctx context.Context) error {
	var name string
	err := t.tx.QueryRowContext(ctx,
		t.forUpdate(`SELECT name FROM register_locks WHERE name = ?`), "cash",
	).Scan(&name)
	if err != nil {
		return fmt.Errorf("failed to lock cash register: %w", err)
	}
	return nil
}

// CreateCashEntry appends a cash register entry.
func (t *txStore) CreateCashEntry(ctx context.Context, e *models.CashRegisterEntry) error {
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO cash_register_entries (`+cashColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Type), e.Amount.StringFixed(2), e.Description,
		nullString(e.PaymentID), nullString(e.CreatedBy), e.CreatedAt,
	)
	if err != nil {
		return t.writeErr(err, "cash register entry")
	}
	return nil
}

// GetCashEntryByPayment returns the entry emitted for a payment.
func (t *txStore) GetCashEntryByPayment(ctx context.Context, paymentID string) (*models.CashRegisterEntry, error) {
	e, err := scanCashEntry(t.tx.QueryRowContext(ctx,
		`SELECT `+cashColumns+` FROM cash_register_entries WHERE payment_id = ?`, paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cash entry for payment %s: %w", paymentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cash entry: %w", err)
	}
	return e, nil
}

// ListCashEntries returns every register entry, oldest first.
func (t *txStore) ListCashEntries(ctx context.Context) ([]*models.CashRegisterEntry, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+cashColumns+` FROM cash_register_entries ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.CashRegisterEntry
	for rows.Next() {
		e, err := scanCashEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cash entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cash entries: %w", err)
	}
	return entries, nil
}

func scanCashEntry(row rowScanner) (*models.CashRegisterEntry, error) {
	e := &models.CashRegisterEntry{}
	var entryType string
	var description, paymentID, createdBy sql.NullString

	if err := row.Scan(&e.ID, &entryType, &e.Amount, &description, &paymentID, &createdBy, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Type = models.CashEntryType(entryType)
	e.Description = description.String
	e.PaymentID = paymentID.String
	e.CreatedBy = createdBy.String
	return e, nil
}
