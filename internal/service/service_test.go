package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pms/internal/events"
	"github.com/mmynk/pms/internal/metrics"
	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/storage/sqlite"
)

// testClock is a settable wall clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fixture is a property with one room (base price 20.00) holding two units,
// and one registered guest. "Today" is 2025-01-05.
type fixture struct {
	svc     *Services
	events  *events.Recorder
	metrics *metrics.Metrics
	clock   *testClock
	room    *models.Room
	unit    *models.Unit
	unit2   *models.Unit
	guest   *models.Guest
}

func setup(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		events:  &events.Recorder{},
		metrics: metrics.New(),
		clock:   &testClock{now: time.Date(2025, time.January, 5, 10, 0, 0, 0, time.UTC)},
	}
	f.svc = New(store,
		WithClock(f.clock.Now),
		WithPublisher(f.events),
		WithMetrics(f.metrics),
	)

	ctx := context.Background()
	property, err := f.svc.Inventory.CreateProperty(ctx, CreatePropertyInput{Name: "Hostel Sur", PropertyType: "hostel"})
	if err != nil {
		t.Fatalf("CreateProperty failed: %v", err)
	}
	f.room, err = f.svc.Inventory.CreateRoom(ctx, CreateRoomInput{
		PropertyID: property.ID,
		Name:       "Dorm 1",
		RoomType:   "dorm",
		BasePrice:  dec("20"),
		Capacity:   4,
	})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	f.unit, err = f.svc.Inventory.CreateUnit(ctx, CreateUnitInput{RoomID: f.room.ID, Name: "Bed A"})
	if err != nil {
		t.Fatalf("CreateUnit failed: %v", err)
	}
	f.unit2, err = f.svc.Inventory.CreateUnit(ctx, CreateUnitInput{RoomID: f.room.ID, Name: "Bed B"})
	if err != nil {
		t.Fatalf("CreateUnit failed: %v", err)
	}
	f.guest, err = f.svc.Guests.CreateGuest(ctx, CreateGuestInput{
		Name:           "Ana Gomez",
		DocumentType:   models.DocumentDNI,
		DocumentNumber: "30111222",
	})
	if err != nil {
		t.Fatalf("CreateGuest failed: %v", err)
	}
	return f
}

// book creates a booking on the fixture's first unit with a derived price.
func (f *fixture) book(t *testing.T, checkIn, checkOut time.Time) *models.Booking {
	t.Helper()
	b, err := f.svc.Bookings.CreateBooking(context.Background(), CreateBookingInput{
		GuestID:  f.guest.ID,
		UnitID:   f.unit.ID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
	})
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	return b
}

func (f *fixture) pay(t *testing.T, bookingID, amount string, method models.PaymentMethod) *models.Payment {
	t.Helper()
	p, err := f.svc.Payments.RecordPayment(context.Background(), RecordPaymentInput{
		BookingID: bookingID,
		Amount:    dec(amount),
		Method:    method,
	})
	if err != nil {
		t.Fatalf("RecordPayment(%s %s) failed: %v", amount, method, err)
	}
	return p
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := f.svc.Cash.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	return b
}

func date(y int, m time.Month, d int) time.Time {
	return models.NewDate(y, m, d)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got.StringFixed(2), want)
	}
}
