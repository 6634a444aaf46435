package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pms/internal/calculator"
	"github.com/mmynk/pms/internal/events"
	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/storage"
)

// CashRegister is the append-only cash drawer. Its balance is always
// recomputed from the entries and never goes negative.
type CashRegister struct {
	store storage.Store
	opts  options
}

// NewCashRegister creates a new CashRegister with the given storage backend.
func NewCashRegister(store storage.Store, opts ...Option) *CashRegister {
	return &CashRegister{store: store, opts: newOptions(opts)}
}

// Balance returns Σdeposits − Σwithdrawals over all entries.
func (c *CashRegister) Balance(ctx context.Context) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := c.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		balance, err = currentBalance(ctx, tx)
		return err
	})
	return balance, err
}

// ListEntries returns every entry, oldest first.
func (c *CashRegister) ListEntries(ctx context.Context) ([]*models.CashRegisterEntry, error) {
	var entries []*models.CashRegisterEntry
	err := c.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		entries, err = tx.ListCashEntries(ctx)
		return err
	})
	return entries, err
}

// RecordCashInput holds a manual cash movement, such as a float top-up or an expense.
type RecordCashInput struct {
	Type        models.CashEntryType
	Amount      decimal.Decimal
	Description string
	PaymentID   string
	CreatedBy   string
}

// Record appends an entry. Withdrawals may not exceed the current balance.
func (c *CashRegister) Record(ctx context.Context, in RecordCashInput) (*models.CashRegisterEntry, error) {
	if !in.Type.Valid() {
		return nil, invalid("entry_type", "must be DEPOSIT or WITHDRAWAL")
	}
	if !in.Amount.IsPositive() {
		return nil, invalid("amount", "must be positive")
	}

	var (
		entry   *models.CashRegisterEntry
		balance decimal.Decimal
	)
	err := c.store.WithTx(ctx, func(tx storage.Tx) error {
		entry = &models.CashRegisterEntry{
			Type:        in.Type,
			Amount:      in.Amount.Round(2),
			Description: in.Description,
			PaymentID:   in.PaymentID,
			CreatedBy:   in.CreatedBy,
			CreatedAt:   c.opts.now().Unix(),
		}
		var err error
		balance, err = appendCashEntry(ctx, tx, entry)
		return err
	})
	if err != nil {
		if reason := rejectionReason(err); reason != "" {
			c.opts.metrics.LedgerRejected(reason)
			slog.Warn("Cash entry rejected", "entry_type", in.Type, "reason", reason, "error", err)
		}
		return nil, err
	}

	c.committed(ctx, entry, balance)
	return entry, nil
}

// committed updates metrics and publishes the entry after its transaction commits.
func (c *CashRegister) committed(ctx context.Context, entry *models.CashRegisterEntry, balance decimal.Decimal) {
	c.opts.metrics.CashEntry(string(entry.Type), balance)
	slog.Info("Cash entry recorded",
		"entry_id", entry.ID,
		"entry_type", entry.Type,
		"amount", entry.Amount.StringFixed(2),
		"payment_id", entry.PaymentID,
		"balance", balance.StringFixed(2),
	)
	events.PublishAll(ctx, c.opts.publisher, []events.Event{c.cashEvent(entry, balance)})
}

func (c *CashRegister) cashEvent(entry *models.CashRegisterEntry, balance decimal.Decimal) events.Event {
	eventType := events.CashDeposit
	if entry.Type == models.CashWithdrawal {
		eventType = events.CashWithdrawal
	}
	e := c.opts.event(eventType)
	e.EntryID = entry.ID
	e.PaymentID = entry.PaymentID
	e.Amount = entry.Amount.StringFixed(2)
	e.Balance = balance.StringFixed(2)
	e.Actor = entry.CreatedBy
	return e
}

// cashEmission is the outcome of emitCashEntry.
type cashEmission struct {
	entry   *models.CashRegisterEntry
	balance decimal.Decimal
	created bool
}

// emitCashEntry writes the register entry of a completed cash payment or
// refund, at most once per payment. Non-cash or unsettled entries emit nothing.
func emitCashEntry(ctx context.Context, tx storage.Tx, p *models.Payment, at int64) (*cashEmission, error) {
	if !p.IsCash() || !p.Completed() {
		return nil, nil
	}

	// Taking the register lock first keeps the existence check and the insert atomic.
	if err := tx.LockCashRegister(ctx); err != nil {
		return nil, err
	}
	existing, err := tx.GetCashEntryByPayment(ctx, p.ID)
	if err == nil {
		return &cashEmission{entry: existing}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	entry := &models.CashRegisterEntry{
		Type:      models.CashDeposit,
		Amount:    p.Amount.Abs(),
		PaymentID: p.ID,
		CreatedBy: p.CreatedBy,
		CreatedAt: at,
	}
	if p.IsRefund() {
		entry.Type = models.CashWithdrawal
		entry.Description = fmt.Sprintf("Refund of payment %s (booking %s)", p.OriginalPaymentID, p.BookingID)
	} else {
		entry.Description = fmt.Sprintf("Cash payment for booking %s", p.BookingID)
	}

	balance, err := appendCashEntry(ctx, tx, entry)
	if err != nil {
		return nil, err
	}
	return &cashEmission{entry: entry, balance: balance, created: true}, nil
}

// appendCashEntry inserts an entry under the register lock and returns the new balance.
func appendCashEntry(ctx context.Context, tx storage.Tx, entry *models.CashRegisterEntry) (decimal.Decimal, error) {
	if err := tx.LockCashRegister(ctx); err != nil {
		return decimal.Zero, err
	}
	balance, err := currentBalance(ctx, tx)
	if err != nil {
		return decimal.Zero, err
	}
	if entry.Type == models.CashWithdrawal && entry.Amount.GreaterThan(balance) {
		return decimal.Zero, &InsufficientFundsError{Requested: entry.Amount, Available: balance}
	}
	if err := tx.CreateCashEntry(ctx, entry); err != nil {
		return decimal.Zero, err
	}

	if entry.Type == models.CashWithdrawal {
		return balance.Sub(entry.Amount), nil
	}
	return balance.Add(entry.Amount), nil
}

func currentBalance(ctx context.Context, tx storage.Tx) (decimal.Decimal, error) {
	entries, err := tx.ListCashEntries(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	moves := make([]calculator.CashMovement, len(entries))
	for i, e := range entries {
		moves[i] = calculator.CashMovement{Deposit: e.Type == models.CashDeposit, Amount: e.Amount}
	}
	return calculator.CashBalance(moves), nil
}
