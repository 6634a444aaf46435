package calculator

import (
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// RatePlan represents a plan with the minimal information needed for pricing.
// StartDate and EndDate are inclusive calendar dates.
type RatePlan struct {
	ID        string
	StartDate time.Time
	EndDate   time.Time
	Price     decimal.Decimal
	Active    bool
}

// Quote is the priced breakdown of a stay.
type Quote struct {
	PlanID        string // empty when the base price applied
	PricePerNight decimal.Decimal
	Nights        int
	Total         decimal.Decimal
}

// RangesIntersect reports whether the inclusive ranges [aStart, aEnd] and
// [bStart, bEnd] share at least one day.
func RangesIntersect(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// Overlaps reports whether the half-open stays [aIn, aOut) and [bIn, bOut)
// share a night: aIn < bOut AND aOut > bIn.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && aOut.After(bIn)
}

// Nights returns the number of nights between check-in and check-out.
// Check-out is exclusive, so a same-day range has zero nights.
func Nights(checkIn, checkOut time.Time) int {
	return int(checkOut.Sub(checkIn).Round(time.Hour) / day)
}

// FindPlan returns the active plan whose inclusive range intersects [start, end].
// When several match, the one starting earliest wins.
func FindPlan(plans []RatePlan, start, end time.Time) (RatePlan, bool) {
	var best RatePlan
	found := false
	for _, p := range plans {
		if !p.Active || !RangesIntersect(p.StartDate, p.EndDate, start, end) {
			continue
		}
		if !found || p.StartDate.Before(best.StartDate) {
			best = p
			found = true
		}
	}
	return best, found
}

// ResolvePrice returns the nightly price for [start, end] (inclusive):
// the matching plan's price, or basePrice when no plan applies.
func ResolvePrice(basePrice decimal.Decimal, plans []RatePlan, start, end time.Time) decimal.Decimal {
	if p, ok := FindPlan(plans, start, end); ok {
		return p.Price
	}
	return basePrice
}

// QuoteStay prices the stay [checkIn, checkOut).
//
// The plan lookup runs over the nights actually slept, checkIn .. checkOut-1,
// and the total is price_per_night × nights with the same exclusive count a
// booking uses. A plan starting on the check-out day therefore never applies.
func QuoteStay(basePrice decimal.Decimal, plans []RatePlan, checkIn, checkOut time.Time) Quote {
	nights := Nights(checkIn, checkOut)
	if nights <= 0 {
		return Quote{PricePerNight: basePrice, Total: decimal.Zero}
	}
	lastNight := checkOut.Add(-day)

	q := Quote{PricePerNight: basePrice, Nights: nights}
	if p, ok := FindPlan(plans, checkIn, lastNight); ok {
		q.PlanID = p.ID
		q.PricePerNight = p.Price
	}
	q.Total = q.PricePerNight.Mul(decimal.NewFromInt(int64(nights))).Round(2)
	return q
}

// ConflictingPlans returns the active plans, other than excludeID, whose
// ranges intersect [start, end]. Used to keep active plans on a room disjoint.
func ConflictingPlans(plans []RatePlan, start, end time.Time, excludeID string) []RatePlan {
	var out []RatePlan
	for _, p := range plans {
		if p.ID == excludeID || !p.Active {
			continue
		}
		if RangesIntersect(p.StartDate, p.EndDate, start, end) {
			out = append(out, p)
		}
	}
	return out
}
