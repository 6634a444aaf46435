package api

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/service"
)

const (
	CreatePropertyProcedure = "/pms.v1.InventoryService/CreateProperty"
	CreateRoomProcedure     = "/pms.v1.InventoryService/CreateRoom"
	CreateUnitProcedure     = "/pms.v1.InventoryService/CreateUnit"
	SetUnitActiveProcedure  = "/pms.v1.InventoryService/SetUnitActive"
	CreatePlanProcedure     = "/pms.v1.InventoryService/CreatePlan"
	SetPlanActiveProcedure  = "/pms.v1.InventoryService/SetPlanActive"
	QuotePriceProcedure     = "/pms.v1.InventoryService/QuotePrice"
)

// money renders an amount with two decimals.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Property is the wire form of a property.
type Property struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PropertyType string `json:"property_type"`
	Address      string `json:"address,omitempty"`
	Active       bool   `json:"active"`
}

// Room is the wire form of a room.
type Room struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	Name       string `json:"name"`
	RoomType   string `json:"room_type"`
	BasePrice  string `json:"base_price"`
	Capacity   int    `json:"capacity"`
	Active     bool   `json:"active"`
}

// Unit is a bookable bed or room.
type Unit struct {
	ID       string `json:"id"`
	RoomID   string `json:"room_id"`
	Name     string `json:"name"`
	UnitType string `json:"unit_type"`
	Active   bool   `json:"active"`
}

// Plan is a nightly rate valid over an inclusive date range.
type Plan struct {
	ID          string `json:"id"`
	RoomID      string `json:"room_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Price       string `json:"price"`
	Active      bool   `json:"active"`
}

func toUnit(u *models.Unit) *Unit {
	return &Unit{ID: u.ID, RoomID: u.RoomID, Name: u.Name, UnitType: u.UnitType, Active: u.Active}
}

func toPlan(p *models.Plan) *Plan {
	return &Plan{
		ID:          p.ID,
		RoomID:      p.RoomID,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   models.FormatDate(p.StartDate),
		EndDate:     models.FormatDate(p.EndDate),
		Price:       money(p.Price),
		Active:      p.Active,
	}
}

// CreatePropertyRequest adds a property.
type CreatePropertyRequest struct {
	Name         string `json:"name" validate:"required"`
	PropertyType string `json:"property_type"`
	Address      string `json:"address"`
}

// CreatePropertyResponse wraps the created property.
type CreatePropertyResponse struct {
	Property *Property `json:"property"`
}

// CreateRoomRequest adds a room to a property.
type CreateRoomRequest struct {
	PropertyID string          `json:"property_id" validate:"required"`
	Name       string          `json:"name" validate:"required"`
	RoomType   string          `json:"room_type"`
	BasePrice  decimal.Decimal `json:"base_price"`
	Capacity   int             `json:"capacity" validate:"gte=0"`
}

// CreateRoomResponse wraps the created room.
type CreateRoomResponse struct {
	Room *Room `json:"room"`
}

// CreateUnitRequest adds a unit to a room.
type CreateUnitRequest struct {
	RoomID   string `json:"room_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	UnitType string `json:"unit_type"`
}

// SetActiveRequest toggles a unit or plan on or off.
type SetActiveRequest struct {
	ID     string `json:"id" validate:"required"`
	Active bool   `json:"active"`
}

// UnitResponse wraps a single unit.
type UnitResponse struct {
	Unit *Unit `json:"unit"`
}

// CreatePlanRequest adds a rate plan to a room.
type CreatePlanRequest struct {
	RoomID      string          `json:"room_id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	StartDate   string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string          `json:"end_date" validate:"required,datetime=2006-01-02"`
	Price       decimal.Decimal `json:"price"`
}

// PlanResponse wraps a single plan.
type PlanResponse struct {
	Plan *Plan `json:"plan"`
}

// QuotePriceRequest prices a stay on a unit without booking it.
type QuotePriceRequest struct {
	UnitID   string `json:"unit_id" validate:"required"`
	CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
}

// QuotePriceResponse carries the quoted total and the plan that priced it.
type QuotePriceResponse struct {
	PlanID        string `json:"plan_id,omitempty"`
	PricePerNight string `json:"price_per_night"`
	Nights        int    `json:"nights"`
	Total         string `json:"total"`
}

func (s *Server) registerInventory() {
	handle(s, CreatePropertyProcedure, s.createProperty)
	handle(s, CreateRoomProcedure, s.createRoom)
	handle(s, CreateUnitProcedure, s.createUnit)
	handle(s, SetUnitActiveProcedure, s.setUnitActive)
	handle(s, CreatePlanProcedure, s.createPlan)
	handle(s, SetPlanActiveProcedure, s.setPlanActive)
	handle(s, QuotePriceProcedure, s.quotePrice)
}

func (s *Server) createProperty(ctx context.Context, req *CreatePropertyRequest) (*CreatePropertyResponse, error) {
	p, err := s.svc.Inventory.CreateProperty(ctx, service.CreatePropertyInput{
		Name:         req.Name,
		PropertyType: req.PropertyType,
		Address:      req.Address,
	})
	if err != nil {
		return nil, err
	}
	return &CreatePropertyResponse{Property: &Property{
		ID:           p.ID,
		Name:         p.Name,
		PropertyType: p.PropertyType,
		Address:      p.Address,
		Active:       p.Active,
	}}, nil
}

func (s *Server) createRoom(ctx context.Context, req *CreateRoomRequest) (*CreateRoomResponse, error) {
	r, err := s.svc.Inventory.CreateRoom(ctx, service.CreateRoomInput{
		PropertyID: req.PropertyID,
		Name:       req.Name,
		RoomType:   req.RoomType,
		BasePrice:  req.BasePrice,
		Capacity:   req.Capacity,
	})
	if err != nil {
		return nil, err
	}
	return &CreateRoomResponse{Room: &Room{
		ID:         r.ID,
		PropertyID: r.PropertyID,
		Name:       r.Name,
		RoomType:   r.RoomType,
		BasePrice:  money(r.BasePrice),
		Capacity:   r.Capacity,
		Active:     r.Active,
	}}, nil
}

func (s *Server) createUnit(ctx context.Context, req *CreateUnitRequest) (*UnitResponse, error) {
	u, err := s.svc.Inventory.CreateUnit(ctx, service.CreateUnitInput{
		RoomID:   req.RoomID,
		Name:     req.Name,
		UnitType: req.UnitType,
	})
	if err != nil {
		return nil, err
	}
	return &UnitResponse{Unit: toUnit(u)}, nil
}

func (s *Server) setUnitActive(ctx context.Context, req *SetActiveRequest) (*UnitResponse, error) {
	u, err := s.svc.Inventory.SetUnitActive(ctx, req.ID, req.Active)
	if err != nil {
		return nil, err
	}
	return &UnitResponse{Unit: toUnit(u)}, nil
}

func (s *Server) createPlan(ctx context.Context, req *CreatePlanRequest) (*PlanResponse, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}
	p, err := s.svc.Inventory.CreatePlan(ctx, service.CreatePlanInput{
		RoomID:      req.RoomID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		Price:       req.Price,
	})
	if err != nil {
		return nil, err
	}
	return &PlanResponse{Plan: toPlan(p)}, nil
}

func (s *Server) setPlanActive(ctx context.Context, req *SetActiveRequest) (*PlanResponse, error) {
	p, err := s.svc.Inventory.SetPlanActive(ctx, req.ID, req.Active)
	if err != nil {
		return nil, err
	}
	return &PlanResponse{Plan: toPlan(p)}, nil
}

func (s *Server) quotePrice(ctx context.Context, req *QuotePriceRequest) (*QuotePriceResponse, error) {
	checkIn, err := parseDate("check_in", req.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := parseDate("check_out", req.CheckOut)
	if err != nil {
		return nil, err
	}
	q, err := s.svc.Inventory.QuotePrice(ctx, req.UnitID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	return &QuotePriceResponse{
		PlanID:        q.PlanID,
		PricePerNight: money(q.PricePerNight),
		Nights:        q.Nights,
		Total:         money(q.Total),
	}, nil
}
