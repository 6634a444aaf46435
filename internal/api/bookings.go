package api

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/service"
)

const (
	CreateBookingProcedure     = "/pms.v1.BookingService/CreateBooking"
	GetBookingProcedure        = "/pms.v1.BookingService/GetBooking"
	UpdateBookingProcedure     = "/pms.v1.BookingService/UpdateBooking"
	TransitionBookingProcedure = "/pms.v1.BookingService/TransitionBooking"
	ListBookingsProcedure      = "/pms.v1.BookingService/ListBookings"
	CheckAvailabilityProcedure = "/pms.v1.BookingService/CheckAvailability"
	GetPaymentStatusProcedure  = "/pms.v1.BookingService/GetPaymentStatus"
)

// Booking is the wire form of a booking. Dates are YYYY-MM-DD and money is a two-decimal string.
type Booking struct {
	ID         string `json:"id"`
	GuestID    string `json:"guest_id"`
	UnitID     string `json:"unit_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Nights     int    `json:"nights"`
	Status     string `json:"status"`
	TotalPrice string `json:"total_price"`
	Notes      string `json:"notes,omitempty"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

func toBooking(b *models.Booking) *Booking {
	return &Booking{
		ID:         b.ID,
		GuestID:    b.GuestID,
		UnitID:     b.UnitID,
		CheckIn:    models.FormatDate(b.CheckIn),
		CheckOut:   models.FormatDate(b.CheckOut),
		Nights:     b.Nights(),
		Status:     string(b.Status),
		TotalPrice: money(b.TotalPrice),
		Notes:      b.Notes,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

// CreateBookingRequest reserves a unit. An empty total_price is derived from the rate plans.
type CreateBookingRequest struct {
	GuestID  string `json:"guest_id" validate:"required"`
	UnitID   string `json:"unit_id" validate:"required"`
	CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
	// TotalPrice overrides the derived price when set.
	TotalPrice *decimal.Decimal `json:"total_price"`
	Notes      string           `json:"notes"`
}

// UpdateBookingRequest changes a booking; omitted fields are kept.
type UpdateBookingRequest struct {
	ID         string           `json:"id" validate:"required"`
	UnitID     *string          `json:"unit_id" validate:"omitempty,min=1"`
	CheckIn    *string          `json:"check_in" validate:"omitempty,datetime=2006-01-02"`
	CheckOut   *string          `json:"check_out" validate:"omitempty,datetime=2006-01-02"`
	TotalPrice *decimal.Decimal `json:"total_price"`
	Notes      *string          `json:"notes"`
}

// TransitionBookingRequest applies a lifecycle action to a booking.
type TransitionBookingRequest struct {
	ID     string `json:"id" validate:"required"`
	Action string `json:"action" validate:"required,oneof=confirm check_in check_out cancel"`
}

// GetBookingRequest fetches one booking.
type GetBookingRequest struct {
	ID string `json:"id" validate:"required"`
}

// BookingResponse wraps a single booking.
type BookingResponse struct {
	Booking *Booking `json:"booking"`
}

// ListBookingsRequest lists the bookings of a guest.
type ListBookingsRequest struct {
	GuestID string `json:"guest_id" validate:"required"`
}

// ListBookingsResponse holds bookings, oldest first.
type ListBookingsResponse struct {
	Bookings []*Booking `json:"bookings"`
}

// CheckAvailabilityRequest asks whether a unit is free for a stay.
type CheckAvailabilityRequest struct {
	UnitID   string `json:"unit_id" validate:"required"`
	CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
	// ExcludeBookingID ignores one booking, for moving an existing stay.
	ExcludeBookingID string `json:"exclude_booking_id"`
}

// CheckAvailabilityResponse reports unit availability.
type CheckAvailabilityResponse struct {
	Available bool `json:"available"`
}

// GetPaymentStatusRequest asks for the ledger summary of a booking.
type GetPaymentStatusRequest struct {
	BookingID string `json:"booking_id" validate:"required"`
}

// GetPaymentStatusResponse summarises what has been collected against a booking.
type GetPaymentStatusResponse struct {
	Status      string `json:"status"`
	TotalPrice  string `json:"total_price"`
	Collected   string `json:"collected"`
	PendingDebt string `json:"pending_debt"`
}

func (s *Server) registerBookings() {
	handle(s, CreateBookingProcedure, s.createBooking)
	handle(s, GetBookingProcedure, s.getBooking)
	handle(s, UpdateBookingProcedure, s.updateBooking)
	handle(s, TransitionBookingProcedure, s.transitionBooking)
	handle(s, ListBookingsProcedure, s.listBookings)
	handle(s, CheckAvailabilityProcedure, s.checkAvailability)
	handle(s, GetPaymentStatusProcedure, s.paymentStatus)
}

func (s *Server) createBooking(ctx context.Context, req *CreateBookingRequest) (*BookingResponse, error) {
	checkIn, err := parseDate("check_in", req.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := parseDate("check_out", req.CheckOut)
	if err != nil {
		return nil, err
	}
	in := service.CreateBookingInput{
		GuestID:  req.GuestID,
		UnitID:   req.UnitID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Notes:    req.Notes,
	}
	if req.TotalPrice != nil {
		in.TotalPrice = *req.TotalPrice
	}

	b, err := s.svc.Bookings.CreateBooking(ctx, in)
	if err != nil {
		return nil, err
	}
	return &BookingResponse{Booking: toBooking(b)}, nil
}

func (s *Server) getBooking(ctx context.Context, req *GetBookingRequest) (*BookingResponse, error) {
	b, err := s.svc.Bookings.GetBooking(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &BookingResponse{Booking: toBooking(b)}, nil
}

func (s *Server) updateBooking(ctx context.Context, req *UpdateBookingRequest) (*BookingResponse, error) {
	checkIn, err := parseOptionalDate("check_in", req.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := parseOptionalDate("check_out", req.CheckOut)
	if err != nil {
		return nil, err
	}

	b, err := s.svc.Bookings.UpdateBooking(ctx, service.UpdateBookingInput{
		ID:         req.ID,
		UnitID:     req.UnitID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		TotalPrice: req.TotalPrice,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &BookingResponse{Booking: toBooking(b)}, nil
}

func (s *Server) transitionBooking(ctx context.Context, req *TransitionBookingRequest) (*BookingResponse, error) {
	b, err := s.svc.Bookings.Transition(ctx, req.ID, models.BookingAction(req.Action))
	if err != nil {
		return nil, err
	}
	return &BookingResponse{Booking: toBooking(b)}, nil
}

func (s *Server) listBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error) {
	bookings, err := s.svc.Bookings.ListBookingsByGuest(ctx, req.GuestID)
	if err != nil {
		return nil, err
	}
	res := &ListBookingsResponse{Bookings: make([]*Booking, len(bookings))}
	for i, b := range bookings {
		res.Bookings[i] = toBooking(b)
	}
	return res, nil
}

func (s *Server) checkAvailability(ctx context.Context, req *CheckAvailabilityRequest) (*CheckAvailabilityResponse, error) {
	checkIn, err := parseDate("check_in", req.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := parseDate("check_out", req.CheckOut)
	if err != nil {
		return nil, err
	}
	ok, err := s.svc.Bookings.IsAvailable(ctx, req.UnitID, checkIn, checkOut, req.ExcludeBookingID)
	if err != nil {
		return nil, err
	}
	return &CheckAvailabilityResponse{Available: ok}, nil
}

func (s *Server) paymentStatus(ctx context.Context, req *GetPaymentStatusRequest) (*GetPaymentStatusResponse, error) {
	summary, err := s.svc.Bookings.PaymentStatus(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	return &GetPaymentStatusResponse{
		Status:      string(summary.Status),
		TotalPrice:  money(summary.TotalPrice),
		Collected:   money(summary.Collected),
		PendingDebt: money(summary.PendingDebt),
	}, nil
}
