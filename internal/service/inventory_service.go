package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pms/internal/calculator"
	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/storage"
)

// InventoryService manages properties, rooms, units and rate plans, and
// prices stays against them.
type InventoryService struct {
	store storage.Store
	opts  options
}

// NewInventoryService creates a new InventoryService with the given storage backend.
func NewInventoryService(store storage.Store, opts ...Option) *InventoryService {
	return &InventoryService{store: store, opts: newOptions(opts)}
}

// CreatePropertyInput holds the fields of a new property.
type CreatePropertyInput struct {
	Name         string
	PropertyType string
	Address      string
}

// CreateProperty registers an active property.
func (s *InventoryService) CreateProperty(ctx context.Context, in CreatePropertyInput) (*models.Property, error) {
	p := &models.Property{
		Name:         strings.TrimSpace(in.Name),
		PropertyType: strings.ToUpper(strings.TrimSpace(in.PropertyType)),
		Address:      in.Address,
		Active:       true,
		CreatedAt:    s.opts.now().Unix(),
	}
	if p.Name == "" {
		return nil, invalid("name", "is required")
	}
	if p.PropertyType == "" {
		p.PropertyType = "HOSTEL"
	}

	if err := s.store.WithTx(ctx, func(tx storage.Tx) error { return tx.CreateProperty(ctx, p) }); err != nil {
		return nil, err
	}
	slog.Info("Property created", "property_id", p.ID, "name", p.Name)
	return p, nil
}

// CreateRoomInput holds the fields of a new room.
type CreateRoomInput struct {
	PropertyID string
	Name       string
	RoomType   string
	BasePrice  decimal.Decimal
	Capacity   int
}

// CreateRoom adds an active room to a property. Capacity defaults to 1.
func (s *InventoryService) CreateRoom(ctx context.Context, in CreateRoomInput) (*models.Room, error) {
	r := &models.Room{
		PropertyID: in.PropertyID,
		Name:       strings.TrimSpace(in.Name),
		RoomType:   strings.ToUpper(strings.TrimSpace(in.RoomType)),
		BasePrice:  in.BasePrice.Round(2),
		Capacity:   in.Capacity,
		Active:     true,
		CreatedAt:  s.opts.now().Unix(),
	}
	if r.Name == "" {
		return nil, invalid("name", "is required")
	}
	if r.BasePrice.IsNegative() {
		return nil, invalid("base_price", "cannot be negative")
	}
	if r.Capacity == 0 {
		r.Capacity = 1
	}
	if r.Capacity < 1 {
		return nil, invalid("capacity", "must be at least 1")
	}

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetProperty(ctx, r.PropertyID); err != nil {
			return err
		}
		return tx.CreateRoom(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Room created", "room_id", r.ID, "property_id", r.PropertyID, "base_price", r.BasePrice.StringFixed(2))
	return r, nil
}

// CreateUnitInput holds the fields of a new unit.
type CreateUnitInput struct {
	RoomID   string
	Name     string
	UnitType string
}

// CreateUnit adds an active bookable unit to a room.
func (s *InventoryService) CreateUnit(ctx context.Context, in CreateUnitInput) (*models.Unit, error) {
	u := &models.Unit{
		RoomID:    in.RoomID,
		Name:      strings.TrimSpace(in.Name),
		UnitType:  strings.ToUpper(strings.TrimSpace(in.UnitType)),
		Active:    true,
		CreatedAt: s.opts.now().Unix(),
	}
	if u.Name == "" {
		return nil, invalid("name", "is required")
	}
	if u.UnitType == "" {
		u.UnitType = models.DefaultUnitType
	}

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetRoom(ctx, u.RoomID); err != nil {
			return err
		}
		return tx.CreateUnit(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Unit created", "unit_id", u.ID, "room_id", u.RoomID)
	return u, nil
}

// SetUnitActive opens or closes a unit for new bookings. Existing bookings are kept.
func (s *InventoryService) SetUnitActive(ctx context.Context, id string, active bool) (*models.Unit, error) {
	var unit *models.Unit
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		u, err := tx.LockUnit(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.SetUnitActive(ctx, id, active); err != nil {
			return err
		}
		u.Active = active
		unit = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Unit updated", "unit_id", id, "active", active)
	return unit, nil
}

// CreatePlanInput holds the fields of a new rate plan.
type CreatePlanInput struct {
	RoomID      string
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Price       decimal.Decimal
}

// CreatePlan adds an active rate plan to a room. Its inclusive date range
// may not intersect another active plan of the same room.
func (s *InventoryService) CreatePlan(ctx context.Context, in CreatePlanInput) (*models.Plan, error) {
	p := &models.Plan{
		RoomID:      in.RoomID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Price:       in.Price.Round(2),
		Active:      true,
		CreatedAt:   s.opts.now().Unix(),
	}
	if p.Name == "" {
		return nil, invalid("name", "is required")
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return nil, invalid("start_date", "start and end dates are required")
	}
	if p.StartDate.After(p.EndDate) {
		return nil, invalid("end_date", "must not be before start_date")
	}
	if !p.Price.IsPositive() {
		return nil, invalid("price", "must be positive")
	}

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.LockRoom(ctx, p.RoomID); err != nil {
			return err
		}
		if err := ensureNoPlanOverlap(ctx, tx, p); err != nil {
			return err
		}
		return tx.CreatePlan(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Plan created",
		"plan_id", p.ID,
		"room_id", p.RoomID,
		"start_date", models.FormatDate(p.StartDate),
		"end_date", models.FormatDate(p.EndDate),
		"price", p.Price.StringFixed(2),
	)
	return p, nil
}

// SetPlanActive activates or deactivates a plan. Activation re-checks overlap.
func (s *InventoryService) SetPlanActive(ctx context.Context, id string, active bool) (*models.Plan, error) {
	var plan *models.Plan
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		p, err := tx.GetPlan(ctx, id)
		if err != nil {
			return err
		}
		if _, err := tx.LockRoom(ctx, p.RoomID); err != nil {
			return err
		}
		if active && !p.Active {
			if err := ensureNoPlanOverlap(ctx, tx, p); err != nil {
				return err
			}
		}
		if err := tx.SetPlanActive(ctx, id, active); err != nil {
			return err
		}
		p.Active = active
		plan = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Plan updated", "plan_id", id, "active", active)
	return plan, nil
}

func ensureNoPlanOverlap(ctx context.Context, tx storage.Tx, p *models.Plan) error {
	existing, err := tx.ListPlansInRange(ctx, p.RoomID, p.StartDate, p.EndDate)
	if err != nil {
		return err
	}
	if conflicts := calculator.ConflictingPlans(ratePlans(existing), p.StartDate, p.EndDate, p.ID); len(conflicts) > 0 {
		return invalid("start_date", "overlaps active plan %s", conflicts[0].ID)
	}
	return nil
}

// GetRoom retrieves a room by ID.
func (s *InventoryService) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	var room *models.Room
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		room, err = tx.GetRoom(ctx, id)
		return err
	})
	return room, err
}

// GetUnit retrieves a unit by ID.
func (s *InventoryService) GetUnit(ctx context.Context, id string) (*models.Unit, error) {
	var unit *models.Unit
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		unit, err = tx.GetUnit(ctx, id)
		return err
	})
	return unit, err
}

// ResolvePrice returns the nightly price of a room over the inclusive range
// [start, end]: the active plan's price, or the room's base price.
func (s *InventoryService) ResolvePrice(ctx context.Context, roomID string, start, end time.Time) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		room, err := tx.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		plans, err := tx.ListPlansInRange(ctx, roomID, start, end)
		if err != nil {
			return err
		}
		price = calculator.ResolvePrice(room.BasePrice, ratePlans(plans), start, end)
		return nil
	})
	return price, err
}

// ResolveTotal returns the price of staying in a unit for [checkIn, checkOut).
func (s *InventoryService) ResolveTotal(ctx context.Context, unitID string, checkIn, checkOut time.Time) (decimal.Decimal, error) {
	q, err := s.QuotePrice(ctx, unitID, checkIn, checkOut)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Total, nil
}

// QuotePrice prices a stay without booking it.
func (s *InventoryService) QuotePrice(ctx context.Context, unitID string, checkIn, checkOut time.Time) (calculator.Quote, error) {
	if err := validateStay(checkIn, checkOut); err != nil {
		return calculator.Quote{}, err
	}

	var q calculator.Quote
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		unit, err := tx.GetUnit(ctx, unitID)
		if err != nil {
			return err
		}
		q, err = quoteStay(ctx, tx, unit, checkIn, checkOut)
		return err
	})
	return q, err
}

// quoteStay prices [checkIn, checkOut) for a unit inside an open transaction.
func quoteStay(ctx context.Context, tx storage.Tx, unit *models.Unit, checkIn, checkOut time.Time) (calculator.Quote, error) {
	room, err := tx.GetRoom(ctx, unit.RoomID)
	if err != nil {
		return calculator.Quote{}, fmt.Errorf("failed to load room of unit %s: %w", unit.ID, err)
	}
	plans, err := tx.ListPlansInRange(ctx, room.ID, checkIn, checkOut.Add(-models.Day))
	if err != nil {
		return calculator.Quote{}, err
	}
	return calculator.QuoteStay(room.BasePrice, ratePlans(plans), checkIn, checkOut), nil
}

func ratePlans(plans []*models.Plan) []calculator.RatePlan {
	out := make([]calculator.RatePlan, len(plans))
	for i, p := range plans {
		out[i] = calculator.RatePlan{
			ID:        p.ID,
			StartDate: p.StartDate,
			EndDate:   p.EndDate,
			Price:     p.Price,
			Active:    p.Active,
		}
	}
	return out
}

// validateStay checks that both dates are present and check-in precedes check-out.
func validateStay(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() {
		return invalid("check_in", "is required")
	}
	if checkOut.IsZero() {
		return invalid("check_out", "is required")
	}
	if !checkIn.Before(checkOut) {
		return invalid("check_out", "must be after check_in")
	}
	return nil
}
