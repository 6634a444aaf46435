package api

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/service"
)

const (
	RecordPaymentProcedure        = "/pms.v1.PaymentService/RecordPayment"
	RefundPaymentProcedure        = "/pms.v1.PaymentService/RefundPayment"
	MarkPaymentCompletedProcedure = "/pms.v1.PaymentService/MarkPaymentCompleted"
	MarkPaymentFailedProcedure    = "/pms.v1.PaymentService/MarkPaymentFailed"
	DeletePaymentProcedure        = "/pms.v1.PaymentService/DeletePayment"
	ListPaymentsProcedure         = "/pms.v1.PaymentService/ListPayments"
)

// Payment is the wire form of a ledger entry. Refunds carry negative amounts.
type Payment struct {
	ID                string `json:"id"`
	BookingID         string `json:"booking_id"`
	PaymentType       string `json:"payment_type"`
	Amount            string `json:"amount"`
	Method            string `json:"method"`
	Status            string `json:"status"`
	TransactionID     string `json:"transaction_id,omitempty"`
	Notes             string `json:"notes,omitempty"`
	OriginalPaymentID string `json:"original_payment_id,omitempty"`
	Refunded          string `json:"refunded,omitempty"`
	CreatedBy         string `json:"created_by,omitempty"`
	PaymentDate       int64  `json:"payment_date"`
}

func toPayment(p *models.Payment) *Payment {
	return &Payment{
		ID:                p.ID,
		BookingID:         p.BookingID,
		PaymentType:       string(p.Type),
		Amount:            money(p.Amount),
		Method:            string(p.Method),
		Status:            string(p.Status),
		TransactionID:     p.TransactionID,
		Notes:             p.Notes,
		OriginalPaymentID: p.OriginalPaymentID,
		CreatedBy:         p.CreatedBy,
		PaymentDate:       p.PaymentDate,
	}
}

// RecordPaymentRequest records a payment against a booking.
type RecordPaymentRequest struct {
	BookingID     string          `json:"booking_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method" validate:"required,oneof=CASH CREDIT_CARD DEBIT_CARD BANK_TRANSFER PAYPAL QR OTHER"`
	Status        string          `json:"status" validate:"omitempty,oneof=PENDING COMPLETED"`
	TransactionID string          `json:"transaction_id"`
	Notes         string          `json:"notes"`
}

// RefundPaymentRequest refunds a completed payment. An empty amount refunds what is left.
type RefundPaymentRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
	// Amount defaults to everything still refundable.
	Amount        *decimal.Decimal `json:"amount"`
	Method        string           `json:"method" validate:"omitempty,oneof=CASH CREDIT_CARD DEBIT_CARD BANK_TRANSFER PAYPAL QR OTHER"`
	TransactionID string           `json:"transaction_id"`
	Notes         string           `json:"notes"`
}

// PaymentIDRequest names a single ledger entry.
type PaymentIDRequest struct {
	ID string `json:"id" validate:"required"`
}

// PaymentResponse wraps a single ledger entry.
type PaymentResponse struct {
	Payment *Payment `json:"payment"`
}

// DeletePaymentResponse is empty.
type DeletePaymentResponse struct{}

// ListPaymentsRequest lists the ledger of a booking.
type ListPaymentsRequest struct {
	BookingID string `json:"booking_id" validate:"required"`
}

// ListPaymentsResponse holds ledger entries, oldest first.
type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

func (s *Server) registerPayments() {
	handle(s, RecordPaymentProcedure, s.recordPayment)
	handle(s, RefundPaymentProcedure, s.refundPayment)
	handle(s, MarkPaymentCompletedProcedure, s.markCompleted)
	handle(s, MarkPaymentFailedProcedure, s.markFailed)
	handle(s, DeletePaymentProcedure, s.deletePayment)
	handle(s, ListPaymentsProcedure, s.listPayments)
}

func (s *Server) recordPayment(ctx context.Context, req *RecordPaymentRequest) (*PaymentResponse, error) {
	p, err := s.svc.Payments.RecordPayment(ctx, service.RecordPaymentInput{
		BookingID:     req.BookingID,
		Amount:        req.Amount,
		Method:        models.PaymentMethod(req.Method),
		Status:        models.PaymentStatus(req.Status),
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
		CreatedBy:     actor(ctx),
	})
	if err != nil {
		return nil, err
	}
	return &PaymentResponse{Payment: toPayment(p)}, nil
}

func (s *Server) refundPayment(ctx context.Context, req *RefundPaymentRequest) (*PaymentResponse, error) {
	p, err := s.svc.Payments.Refund(ctx, service.RefundInput{
		PaymentID:     req.PaymentID,
		Amount:        req.Amount,
		Method:        models.PaymentMethod(req.Method),
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
		CreatedBy:     actor(ctx),
	})
	if err != nil {
		return nil, err
	}
	return &PaymentResponse{Payment: toPayment(p)}, nil
}

func (s *Server) markCompleted(ctx context.Context, req *PaymentIDRequest) (*PaymentResponse, error) {
	p, err := s.svc.Payments.MarkCompleted(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &PaymentResponse{Payment: toPayment(p)}, nil
}

func (s *Server) markFailed(ctx context.Context, req *PaymentIDRequest) (*PaymentResponse, error) {
	p, err := s.svc.Payments.MarkFailed(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &PaymentResponse{Payment: toPayment(p)}, nil
}

func (s *Server) deletePayment(ctx context.Context, req *PaymentIDRequest) (*DeletePaymentResponse, error) {
	if err := s.svc.Payments.DeletePayment(ctx, req.ID); err != nil {
		return nil, err
	}
	return &DeletePaymentResponse{}, nil
}

func (s *Server) listPayments(ctx context.Context, req *ListPaymentsRequest) (*ListPaymentsResponse, error) {
	details, err := s.svc.Payments.ListPayments(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	res := &ListPaymentsResponse{Payments: make([]*Payment, len(details))}
	for i, d := range details {
		p := toPayment(d.Payment)
		if d.Refunded.IsPositive() {
			p.Refunded = money(d.Refunded)
		}
		res.Payments[i] = p
	}
	return res, nil
}
