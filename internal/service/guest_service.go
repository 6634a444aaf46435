package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/storage"
)

// GuestService registers and looks up guests.
type GuestService struct {
	store storage.Store
	opts  options
}

// NewGuestService creates a new GuestService with the given storage backend.
func NewGuestService(store storage.Store, opts ...Option) *GuestService {
	return &GuestService{store: store, opts: newOptions(opts)}
}

// CreateGuestInput holds the fields of a new guest.
type CreateGuestInput struct {
	Name           string
	DocumentType   models.DocumentType
	DocumentNumber string
	BirthDate      time.Time
	Phone          string
	Email          string
	Nationality    string
	UserID         string
}

// CreateGuest registers a guest. The document pair must be unique.
func (s *GuestService) CreateGuest(ctx context.Context, in CreateGuestInput) (*models.Guest, error) {
	guest := &models.Guest{
		Name:           strings.TrimSpace(in.Name),
		DocumentType:   in.DocumentType,
		DocumentNumber: strings.TrimSpace(in.DocumentNumber),
		BirthDate:      in.BirthDate,
		Phone:          in.Phone,
		Email:          in.Email,
		Nationality:    in.Nationality,
		UserID:         in.UserID,
		CreatedAt:      s.opts.now().Unix(),
	}

	if guest.Name == "" {
		return nil, invalid("name", "is required")
	}
	if !guest.DocumentType.Valid() {
		return nil, invalid("document_type", "must be DNI or PASSPORT")
	}
	if guest.DocumentNumber == "" {
		return nil, invalid("document_number", "is required")
	}
	if !guest.BirthDate.IsZero() && guest.BirthDate.After(s.opts.today()) {
		return nil, invalid("birth_date", "cannot be in the future")
	}

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.CreateGuest(ctx, guest)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Guest created", "guest_id", guest.ID, "document_type", guest.DocumentType)
	return guest, nil
}

// GetGuest retrieves a guest by ID.
func (s *GuestService) GetGuest(ctx context.Context, id string) (*models.Guest, error) {
	var guest *models.Guest
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		guest, err = tx.GetGuest(ctx, id)
		return err
	})
	return guest, err
}
