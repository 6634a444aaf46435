package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/pms/internal/auth"
	"github.com/mmynk/pms/internal/events"
	"github.com/mmynk/pms/internal/metrics"
	"github.com/mmynk/pms/internal/service"
	"github.com/mmynk/pms/internal/storage/sqlite"
)

type testServer struct {
	url    string
	client *http.Client
	token  string
	events *events.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	recorder := &events.Recorder{}
	m := metrics.New()
	svc := service.New(store,
		service.WithClock(func() time.Time { return time.Date(2025, time.January, 5, 12, 0, 0, 0, time.UTC) }),
		service.WithPublisher(recorder),
		service.WithMetrics(m),
	)
	tokens := auth.NewJWTManager("test-secret", time.Hour)
	srv := New(svc, auth.NewPasswordAuthenticator(store, bcrypt.MinCost), tokens)

	ts := httptest.NewServer(NewRouter(srv.Handler(), m.Handler(), store.DB()))
	t.Cleanup(ts.Close)
	return &testServer{url: ts.URL, client: ts.Client(), events: recorder}
}

func call[Req, Res any](ts *testServer, procedure string, msg *Req) (*Res, error) {
	client := connect.NewClient[Req, Res](ts.client, ts.url+procedure, connect.WithCodec(JSONCodec{}))
	req := connect.NewRequest(msg)
	if ts.token != "" {
		req.Header().Set("Authorization", "Bearer "+ts.token)
	}
	res, err := client.CallUnary(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// mustCall fails the test on error.
func mustCall[Req, Res any](t *testing.T, ts *testServer, procedure string, msg *Req) *Res {
	t.Helper()
	res, err := call[Req, Res](ts, procedure, msg)
	if err != nil {
		t.Fatalf("%s failed: %v", procedure, err)
	}
	return res
}

func wantCode(t *testing.T, err error, code connect.Code) *connect.Error {
	t.Helper()
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected connect error %v, got %v", code, err)
	}
	if cerr.Code() != code {
		t.Fatalf("code = %v, want %v (%v)", cerr.Code(), code, err)
	}
	return cerr
}

func (ts *testServer) login(t *testing.T) *Session {
	t.Helper()
	session := mustCall[RegisterRequest, Session](t, ts, RegisterProcedure, &RegisterRequest{
		Email:       "desk@hostel.example",
		DisplayName: "Front Desk",
		Password:    "s3cret-pass",
	})
	ts.token = session.Token
	return session
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		path     string
		wantBody string
	}{
		{"/healthz", "ok"},
		{"/metrics", "go_goroutines"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := ts.client.Get(ts.url + tt.path)
			if err != nil {
				t.Fatalf("GET failed: %v", err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("GET %s = %d %q", tt.path, resp.StatusCode, body)
			}
		})
	}
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t)

	_, err := call[GetCurrentUserRequest, GetCurrentUserResponse](ts, GetCurrentUserProcedure, &GetCurrentUserRequest{})
	wantCode(t, err, connect.CodeUnauthenticated)

	session := ts.login(t)

	me := mustCall[GetCurrentUserRequest, GetCurrentUserResponse](t, ts, GetCurrentUserProcedure, &GetCurrentUserRequest{})
	if me.User.ID != session.User.ID || me.User.DisplayName != "Front Desk" {
		t.Errorf("unexpected user %+v", me.User)
	}

	tests := []struct {
		name string
		req  *RegisterRequest
		code connect.Code
	}{
		{"duplicate email", &RegisterRequest{Email: "desk@hostel.example", DisplayName: "X", Password: "another-pass"}, connect.CodeAlreadyExists},
		{"weak password", &RegisterRequest{Email: "night@hostel.example", DisplayName: "X", Password: "short"}, connect.CodeInvalidArgument},
		{"missing display name", &RegisterRequest{Email: "night@hostel.example", Password: "long-enough"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call[RegisterRequest, Session](ts, RegisterProcedure, tt.req)
			wantCode(t, err, tt.code)
		})
	}

	t.Run("login", func(t *testing.T) {
		anon := &testServer{url: ts.url, client: ts.client}
		_, err := call[LoginRequest, Session](anon, LoginProcedure, &LoginRequest{Email: "desk@hostel.example", Password: "wrong-pass"})
		wantCode(t, err, connect.CodeUnauthenticated)

		s := mustCall[LoginRequest, Session](t, anon, LoginProcedure, &LoginRequest{Email: "desk@hostel.example", Password: "s3cret-pass"})
		if s.Token == "" || s.User.ID != session.User.ID {
			t.Errorf("unexpected session %+v", s)
		}
	})
}

// TestBookingLifecycle walks one stay from inventory setup to check-out,
// with payments and a refund on the way.
func TestBookingLifecycle(t *testing.T) {
	ts := newTestServer(t)
	session := ts.login(t)

	property := mustCall[CreatePropertyRequest, CreatePropertyResponse](t, ts, CreatePropertyProcedure,
		&CreatePropertyRequest{Name: "Hostel Sur", PropertyType: "hostel"})
	room := mustCall[CreateRoomRequest, CreateRoomResponse](t, ts, CreateRoomProcedure,
		&CreateRoomRequest{PropertyID: property.Property.ID, Name: "Dorm 1", BasePrice: decimal.NewFromInt(20), Capacity: 4})
	unit := mustCall[CreateUnitRequest, UnitResponse](t, ts, CreateUnitProcedure,
		&CreateUnitRequest{RoomID: room.Room.ID, Name: "Bed A"})
	mustCall[CreatePlanRequest, PlanResponse](t, ts, CreatePlanProcedure, &CreatePlanRequest{
		RoomID: room.Room.ID, Name: "Summer", StartDate: "2025-01-10", EndDate: "2025-01-31", Price: decimal.NewFromInt(15),
	})
	guest := mustCall[CreateGuestRequest, GuestResponse](t, ts, CreateGuestProcedure, &CreateGuestRequest{
		Name: "Ana Gomez", DocumentType: "DNI", DocumentNumber: "30111222", BirthDate: "1994-07-02",
	})

	quote := mustCall[QuotePriceRequest, QuotePriceResponse](t, ts, QuotePriceProcedure,
		&QuotePriceRequest{UnitID: unit.Unit.ID, CheckIn: "2025-01-10", CheckOut: "2025-01-13"})
	if quote.Total != "45.00" || quote.Nights != 3 {
		t.Fatalf("unexpected quote %+v", quote)
	}

	created := mustCall[CreateBookingRequest, BookingResponse](t, ts, CreateBookingProcedure, &CreateBookingRequest{
		GuestID: guest.Guest.ID, UnitID: unit.Unit.ID, CheckIn: "2025-01-10", CheckOut: "2025-01-13",
	})
	booking := created.Booking
	if booking.Status != "PENDING" || booking.TotalPrice != "45.00" || booking.Nights != 3 {
		t.Fatalf("unexpected booking %+v", booking)
	}

	t.Run("overlapping stay", func(t *testing.T) {
		_, err := call[CreateBookingRequest, BookingResponse](ts, CreateBookingProcedure, &CreateBookingRequest{
			GuestID: guest.Guest.ID, UnitID: unit.Unit.ID, CheckIn: "2025-01-12", CheckOut: "2025-01-14",
		})
		wantCode(t, err, connect.CodeAlreadyExists)

		avail := mustCall[CheckAvailabilityRequest, CheckAvailabilityResponse](t, ts, CheckAvailabilityProcedure,
			&CheckAvailabilityRequest{UnitID: unit.Unit.ID, CheckIn: "2025-01-13", CheckOut: "2025-01-14"})
		if !avail.Available {
			t.Error("back-to-back stay should be available")
		}
	})

	t.Run("malformed date", func(t *testing.T) {
		_, err := call[CreateBookingRequest, BookingResponse](ts, CreateBookingProcedure, &CreateBookingRequest{
			GuestID: guest.Guest.ID, UnitID: unit.Unit.ID, CheckIn: "10/01/2025", CheckOut: "2025-01-13",
		})
		cerr := wantCode(t, err, connect.CodeInvalidArgument)
		if field := cerr.Meta().Get(errorFieldHeader); field != "check_in" {
			t.Errorf("error field = %q, want check_in", field)
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, err := call[GetBookingRequest, BookingResponse](ts, GetBookingProcedure, &GetBookingRequest{ID: "missing"})
		wantCode(t, err, connect.CodeNotFound)
	})

	cash := mustCall[RecordPaymentRequest, PaymentResponse](t, ts, RecordPaymentProcedure, &RecordPaymentRequest{
		BookingID: booking.ID, Amount: decimal.NewFromInt(30), Method: "CASH",
	})
	if cash.Payment.Status != "COMPLETED" || cash.Payment.CreatedBy != session.User.ID {
		t.Errorf("unexpected payment %+v", cash.Payment)
	}

	t.Run("overpayment", func(t *testing.T) {
		_, err := call[RecordPaymentRequest, PaymentResponse](ts, RecordPaymentProcedure, &RecordPaymentRequest{
			BookingID: booking.ID, Amount: decimal.RequireFromString("15.01"), Method: "CREDIT_CARD",
		})
		wantCode(t, err, connect.CodeFailedPrecondition)
	})

	refund := mustCall[RefundPaymentRequest, PaymentResponse](t, ts, RefundPaymentProcedure, &RefundPaymentRequest{
		PaymentID: cash.Payment.ID, Amount: func() *decimal.Decimal { d := decimal.NewFromInt(10); return &d }(),
	})
	if refund.Payment.Amount != "-10.00" || refund.Payment.PaymentType != "REFUND" {
		t.Errorf("unexpected refund %+v", refund.Payment)
	}

	balance := mustCall[GetBalanceRequest, GetBalanceResponse](t, ts, GetBalanceProcedure, &GetBalanceRequest{})
	if balance.Balance != "20.00" {
		t.Errorf("balance = %s, want 20.00", balance.Balance)
	}
	entries := mustCall[ListCashEntriesRequest, ListCashEntriesResponse](t, ts, ListCashEntriesProcedure, &ListCashEntriesRequest{})
	if len(entries.Entries) != 2 || entries.Entries[1].EntryType != "WITHDRAWAL" {
		t.Errorf("unexpected cash entries %+v", entries.Entries)
	}

	payments := mustCall[ListPaymentsRequest, ListPaymentsResponse](t, ts, ListPaymentsProcedure, &ListPaymentsRequest{BookingID: booking.ID})
	if len(payments.Payments) != 2 || payments.Payments[0].Refunded != "10.00" {
		t.Errorf("unexpected ledger %+v", payments.Payments)
	}

	status := mustCall[GetPaymentStatusRequest, GetPaymentStatusResponse](t, ts, GetPaymentStatusProcedure, &GetPaymentStatusRequest{BookingID: booking.ID})
	if status.Status != "PARTIAL_PAYMENT" || status.Collected != "20.00" || status.PendingDebt != "25.00" {
		t.Errorf("unexpected payment status %+v", status)
	}

	for _, action := range []string{"confirm", "check_in"} {
		res := mustCall[TransitionBookingRequest, BookingResponse](t, ts, TransitionBookingProcedure,
			&TransitionBookingRequest{ID: booking.ID, Action: action})
		booking = res.Booking
	}
	if booking.Status != "CHECKED_IN" {
		t.Errorf("status = %s, want CHECKED_IN", booking.Status)
	}

	t.Run("cancel after check-in", func(t *testing.T) {
		_, err := call[TransitionBookingRequest, BookingResponse](ts, TransitionBookingProcedure,
			&TransitionBookingRequest{ID: booking.ID, Action: "cancel"})
		wantCode(t, err, connect.CodeFailedPrecondition)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := call[TransitionBookingRequest, BookingResponse](ts, TransitionBookingProcedure,
			&TransitionBookingRequest{ID: booking.ID, Action: "teleport"})
		wantCode(t, err, connect.CodeInvalidArgument)
	})

	list := mustCall[ListBookingsRequest, ListBookingsResponse](t, ts, ListBookingsProcedure, &ListBookingsRequest{GuestID: guest.Guest.ID})
	if len(list.Bookings) != 1 {
		t.Errorf("got %d bookings, want 1", len(list.Bookings))
	}

	if len(ts.events.Events()) == 0 {
		t.Error("no domain events were published")
	}
}

func TestCashRegisterProcedures(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	mustCall[RecordCashEntryRequest, CashEntryResponse](t, ts, RecordCashEntryProcedure, &RecordCashEntryRequest{
		EntryType: "DEPOSIT", Amount: decimal.NewFromInt(50), Description: "Opening float",
	})

	_, err := call[RecordCashEntryRequest, CashEntryResponse](ts, RecordCashEntryProcedure, &RecordCashEntryRequest{
		EntryType: "WITHDRAWAL", Amount: decimal.NewFromInt(51), Description: "Supplies",
	})
	wantCode(t, err, connect.CodeFailedPrecondition)

	_, err = call[RecordCashEntryRequest, CashEntryResponse](ts, RecordCashEntryProcedure, &RecordCashEntryRequest{
		EntryType: "TRANSFER", Amount: decimal.NewFromInt(1), Description: "?",
	})
	cerr := wantCode(t, err, connect.CodeInvalidArgument)
	if field := cerr.Meta().Get(errorFieldHeader); field != "entry_type" {
		t.Errorf("error field = %q, want entry_type", field)
	}
}
