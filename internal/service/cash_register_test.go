package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/pms/internal/events"
	"github.com/mmynk/pms/internal/models"
)

func TestCashRegisterRecord(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.Cash.Record(ctx, RecordCashInput{Type: models.CashDeposit, Amount: dec("100"), Description: "Float"}); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := f.svc.Cash.Record(ctx, RecordCashInput{Type: models.CashWithdrawal, Amount: dec("35.50"), Description: "Cleaning"}); err != nil {
		t.Fatalf("withdrawal failed: %v", err)
	}
	assertDecimal(t, "balance", f.balance(t), "64.50")

	tests := []struct {
		name    string
		input   RecordCashInput
		wantErr func(error) bool
	}{
		{
			name:  "withdrawal above balance",
			input: RecordCashInput{Type: models.CashWithdrawal, Amount: dec("64.51")},
			wantErr: func(err error) bool {
				var ferr *InsufficientFundsError
				return errors.As(err, &ferr) && ferr.Available.Equal(dec("64.50"))
			},
		},
		{
			name:  "zero amount",
			input: RecordCashInput{Type: models.CashDeposit, Amount: dec("0")},
			wantErr: func(err error) bool {
				var verr *ValidationError
				return errors.As(err, &verr) && verr.Field == "amount"
			},
		},
		{
			name:  "unknown type",
			input: RecordCashInput{Type: "TRANSFER", Amount: dec("1")},
			wantErr: func(err error) bool {
				var verr *ValidationError
				return errors.As(err, &verr) && verr.Field == "entry_type"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Cash.Record(ctx, tt.input)
			if !tt.wantErr(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	t.Run("withdrawing the whole balance", func(t *testing.T) {
		if _, err := f.svc.Cash.Record(ctx, RecordCashInput{Type: models.CashWithdrawal, Amount: dec("64.50")}); err != nil {
			t.Fatalf("withdrawal failed: %v", err)
		}
		assertDecimal(t, "balance", f.balance(t), "0")
	})

	entries, err := f.svc.Cash.ListEntries(ctx)
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}

	types := f.events.Types()
	if len(types) == 0 || types[len(types)-1] != events.CashWithdrawal {
		t.Errorf("last event = %v, want %s", types, events.CashWithdrawal)
	}
	count, err := testutil.GatherAndCount(f.metrics.Registry(), "pms_cash_entries_total")
	if err != nil {
		t.Fatalf("GatherAndCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("got %d cash entry series, want DEPOSIT and WITHDRAWAL", count)
	}
}
