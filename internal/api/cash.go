package api

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/service"
)

const (
	GetBalanceProcedure      = "/pms.v1.CashRegisterService/GetBalance"
	RecordCashEntryProcedure = "/pms.v1.CashRegisterService/RecordEntry"
	ListCashEntriesProcedure = "/pms.v1.CashRegisterService/ListEntries"
)

// CashEntry is one movement of the cash register.
type CashEntry struct {
	ID          string `json:"id"`
	EntryType   string `json:"entry_type"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	PaymentID   string `json:"payment_id,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

func toCashEntry(e *models.CashRegisterEntry) *CashEntry {
	return &CashEntry{
		ID:          e.ID,
		EntryType:   string(e.Type),
		Amount:      money(e.Amount),
		Description: e.Description,
		PaymentID:   e.PaymentID,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
}

// GetBalanceRequest takes no fields.
type GetBalanceRequest struct{}

// GetBalanceResponse carries the current cash register balance.
type GetBalanceResponse struct {
	Balance string `json:"balance"`
}

// RecordCashEntryRequest records a manual deposit or withdrawal.
type RecordCashEntryRequest struct {
	EntryType   string          `json:"entry_type" validate:"required,oneof=DEPOSIT WITHDRAWAL"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"required"`
}

// CashEntryResponse wraps a recorded entry.
type CashEntryResponse struct {
	Entry *CashEntry `json:"entry"`
}

// ListCashEntriesRequest takes no fields.
type ListCashEntriesRequest struct{}

// ListCashEntriesResponse holds register entries, oldest first.
type ListCashEntriesResponse struct {
	Entries []*CashEntry `json:"entries"`
}

func (s *Server) registerCash() {
	handle(s, GetBalanceProcedure, s.cashBalance)
	handle(s, RecordCashEntryProcedure, s.recordCashEntry)
	handle(s, ListCashEntriesProcedure, s.listCashEntries)
}

func (s *Server) cashBalance(ctx context.Context, _ *GetBalanceRequest) (*GetBalanceResponse, error) {
	balance, err := s.svc.Cash.Balance(ctx)
	if err != nil {
		return nil, err
	}
	return &GetBalanceResponse{Balance: money(balance)}, nil
}

func (s *Server) recordCashEntry(ctx context.Context, req *RecordCashEntryRequest) (*CashEntryResponse, error) {
	e, err := s.svc.Cash.Record(ctx, service.RecordCashInput{
		Type:        models.CashEntryType(req.EntryType),
		Amount:      req.Amount,
		Description: req.Description,
		CreatedBy:   actor(ctx),
	})
	if err != nil {
		return nil, err
	}
	return &CashEntryResponse{Entry: toCashEntry(e)}, nil
}

func (s *Server) listCashEntries(ctx context.Context, _ *ListCashEntriesRequest) (*ListCashEntriesResponse, error) {
	entries, err := s.svc.Cash.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	res := &ListCashEntriesResponse{Entries: make([]*CashEntry, len(entries))}
	for i, e := range entries {
		res.Entries[i] = toCashEntry(e)
	}
	return res, nil
}
