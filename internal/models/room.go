package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property is an establishment that owns rooms.
type Property struct {
	// ID is the unique identifier for the property (UUID format).
	ID string

	// Name is unique across properties.
	Name string

	// PropertyType is a free-form category such as HOSTEL, HOTEL or CAMPING.
	PropertyType string

	Address string
	Active  bool

	// CreatedAt is the Unix timestamp when the property was created.
	CreatedAt int64
}

// Room is a physical space inside a Property. It owns Units and Plans.
type Room struct {
	// ID is the unique identifier for the room (UUID format).
	ID string

	// PropertyID is the owning property. Name is unique within it.
	PropertyID string
	Name       string

	// RoomType is a category such as DORM or PRIVATE_ROOM.
	RoomType string

	// BasePrice is the nightly price used when no Plan applies.
	BasePrice decimal.Decimal

	// Capacity is the number of people the room holds (at least 1).
	Capacity int

	Active bool

	// CreatedAt is the Unix timestamp when the room was created.
	CreatedAt int64
}

// Unit is the bookable resource inside a Room: a bed, a whole room, a pitch.
type Unit struct {
	// ID is the unique identifier for the unit (UUID format).
	ID string

	// RoomID is the owning room. Name is unique within it.
	RoomID string
	Name   string

	// UnitType is a category such as SINGLE_BED or BUNK_BED.
	UnitType string

	// Active units accept new bookings; inactive ones keep their history.
	Active bool

	// CreatedAt is the Unix timestamp when the unit was created.
	CreatedAt int64
}

// DefaultUnitType is used when a unit is created without a type.
const DefaultUnitType = "SINGLE_BED"

// Plan is a priced override for a Room over [StartDate, EndDate], both inclusive.
// Active plans on the same room never overlap.
type Plan struct {
	// ID is the unique identifier for the plan (UUID format).
	ID string

	// Name is unique across plans.
	Name string

	RoomID      string
	Description string

	StartDate time.Time
	EndDate   time.Time

	// Price is the nightly price while the plan applies. Always positive.
	Price decimal.Decimal

	Active bool

	// CreatedAt is the Unix timestamp when the plan was created.
	CreatedAt int64
}

// Covers reports whether the plan's inclusive range intersects [start, end].
func (p *Plan) Covers(start, end time.Time) bool {
	return !p.StartDate.After(end) && !p.EndDate.Before(start)
}
