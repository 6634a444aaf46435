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

const guestColumns = `id, name, document_type, document_number, birth_date, phone, email, nationality, user_id, created_at`

// CreateGuest persists a new guest.
func (t *txStore) CreateGuest(ctx context.Context, guest *models.Guest) error {
	if guest.ID == "" {
		guest.ID = uuid.Must(uuid.NewV7()).String()
	}
	if guest.CreatedAt == 0 {
		guest.CreatedAt = time.Now().Unix()
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO guests (`+guestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		guest.ID, guest.Name, string(guest.DocumentType), guest.DocumentNumber,
		nullDate(guest.BirthDate), guest.Phone, nullString(guest.Email), guest.Nationality,
		nullString(guest.UserID), guest.CreatedAt,
	)
	if err != nil {
		return t.writeErr(err, "guest")
	}
	return nil
}

// GetGuest retrieves a guest by ID.
func (t *txStore) GetGuest(ctx context.Context, id string) (*models.Guest, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+guestColumns+` FROM guests WHERE id = ?`, id)
	guest, err := scanGuest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("guest %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}
	return guest, nil
}

func scanGuest(row rowScanner) (*models.Guest, error) {
	guest := &models.Guest{}
	var docType string
	var birthDate, email, userID sql.NullString

	if err := row.Scan(&guest.ID, &guest.Name, &docType, &guest.DocumentNumber,
		&birthDate, &guest.Phone, &email, &guest.Nationality, &userID, &guest.CreatedAt); err != nil {
		return nil, err
	}

	guest.DocumentType = models.DocumentType(docType)
	if birthDate.Valid && birthDate.String != "" {
		d, err := parseDate(birthDate.String)
		if err != nil {
			return nil, err
		}
		guest.BirthDate = d
	}
	if email.Valid {
		guest.Email = email.String
	}
	if userID.Valid {
		guest.UserID = userID.String
	}
	return guest, nil
}
