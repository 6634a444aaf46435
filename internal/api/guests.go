package api

import (
	"context"

	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/service"
)

const (
	CreateGuestProcedure = "/pms.v1.GuestService/CreateGuest"
	GetGuestProcedure    = "/pms.v1.GuestService/GetGuest"
)

// Guest is the wire form of a guest.
type Guest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	BirthDate      string `json:"birth_date,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}

func toGuest(g *models.Guest) *Guest {
	return &Guest{
		ID:             g.ID,
		Name:           g.Name,
		DocumentType:   string(g.DocumentType),
		DocumentNumber: g.DocumentNumber,
		BirthDate:      models.FormatDate(g.BirthDate),
		Phone:          g.Phone,
		Email:          g.Email,
		Nationality:    g.Nationality,
		CreatedAt:      g.CreatedAt,
	}
}

// CreateGuestRequest registers a guest. birth_date is YYYY-MM-DD.
type CreateGuestRequest struct {
	Name           string `json:"name" validate:"required"`
	DocumentType   string `json:"document_type" validate:"required,oneof=DNI PASSPORT"`
	DocumentNumber string `json:"document_number" validate:"required"`
	BirthDate      string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Phone          string `json:"phone"`
	Email          string `json:"email" validate:"omitempty,email"`
	Nationality    string `json:"nationality"`
}

// GetGuestRequest fetches one guest.
type GetGuestRequest struct {
	ID string `json:"id" validate:"required"`
}

// GuestResponse wraps a single guest.
type GuestResponse struct {
	Guest *Guest `json:"guest"`
}

func (s *Server) registerGuests() {
	handle(s, CreateGuestProcedure, s.createGuest)
	handle(s, GetGuestProcedure, s.getGuest)
}

func (s *Server) createGuest(ctx context.Context, req *CreateGuestRequest) (*GuestResponse, error) {
	birth, err := parseDate("birth_date", req.BirthDate)
	if err != nil {
		return nil, err
	}
	g, err := s.svc.Guests.CreateGuest(ctx, service.CreateGuestInput{
		Name:           req.Name,
		DocumentType:   models.DocumentType(req.DocumentType),
		DocumentNumber: req.DocumentNumber,
		BirthDate:      birth,
		Phone:          req.Phone,
		Email:          req.Email,
		Nationality:    req.Nationality,
	})
	if err != nil {
		return nil, err
	}
	return &GuestResponse{Guest: toGuest(g)}, nil
}

func (s *Server) getGuest(ctx context.Context, req *GetGuestRequest) (*GuestResponse, error) {
	g, err := s.svc.Guests.GetGuest(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &GuestResponse{Guest: toGuest(g)}, nil
}
