// Package service implements the booking and payment core on top of a
// storage.Store.
//
// Each state-changing operation follows the same pipeline: validate input,
// then inside one transaction lock, re-validate against stored state, derive
// prices and write, and only after commit update metrics and publish events.
package service

import "github.com/mmynk/pms/internal/storage"

// Services bundles the core services sharing one store and option set.
type Services struct {
	Guests    *GuestService
	Inventory *InventoryService
	Bookings  *BookingService
	Payments  *PaymentService
	Cash      *CashRegister
}

// New wires every service against store.
func New(store storage.Store, opts ...Option) *Services {
	cash := NewCashRegister(store, opts...)
	return &Services{
		Guests:    NewGuestService(store, opts...),
		Inventory: NewInventoryService(store, opts...),
		Bookings:  NewBookingService(store, opts...),
		Payments:  NewPaymentService(store, cash, opts...),
		Cash:      cash,
	}
}
