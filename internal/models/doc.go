// Package models defines the core domain models for the property management
// backend.
//
// # Inventory
//
//   - Property: an establishment (hostel, hotel, camping) owning Rooms
//   - Room: a physical space with a base nightly price
//   - Unit: the bookable resource inside a Room (a bed, a whole room, a slot)
//   - Plan: a date-bounded price override for a Room
//
// # Bookings and money
//
//   - Guest: the person a Booking is made for
//   - Booking: a Guest occupying a Unit for [CheckIn, CheckOut)
//   - Payment: a signed ledger entry against a Booking (payments positive, refunds negative)
//   - CashRegisterEntry: an append-only DEPOSIT or WITHDRAWAL in the cash drawer
//
// # Design Principles
//
// 1. **Derived state is never stored**: payment status, refunded amounts and the
// cash balance are computed from the ledger on read
// 2. **IDs, not pointers**: relationships are ID strings to avoid circular references
// 3. **Money is decimal**: all amounts are shopspring decimals, never floats
// 4. **Dates are calendar days**: UTC midnight time.Time values, see Date helpers
package models
