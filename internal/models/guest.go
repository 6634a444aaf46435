package models

import "time"

// DocumentType identifies the kind of identity document a Guest presented.
type DocumentType string

const (
	DocumentDNI      DocumentType = "DNI"
	DocumentPassport DocumentType = "PASSPORT"
)

// Valid reports whether d is a known document type.
func (d DocumentType) Valid() bool {
	return d == DocumentDNI || d == DocumentPassport
}

// Guest represents a person staying at the property.
type Guest struct {
	// ID is the unique identifier for the guest (UUID format).
	ID string

	// Name is the guest's full name.
	Name string

	// DocumentType and DocumentNumber together identify the guest.
	// The pair is unique across all guests.
	DocumentType   DocumentType
	DocumentNumber string

	// BirthDate is optional; the zero value means unknown.
	BirthDate time.Time

	// Phone, Email and Nationality are contact details.
	Phone       string
	Email       string
	Nationality string

	// UserID optionally links the guest to a staff or self-service account.
	UserID string

	// CreatedAt is the Unix timestamp when the guest was registered.
	CreatedAt int64
}

// Age returns the guest's age in whole years on the given day,
// or -1 when the birth date is unknown.
func (g *Guest) Age(on time.Time) int {
	if g.BirthDate.IsZero() {
		return -1
	}
	years := on.Year() - g.BirthDate.Year()
	if on.Month() < g.BirthDate.Month() ||
		(on.Month() == g.BirthDate.Month() && on.Day() < g.BirthDate.Day()) {
		years--
	}
	return years
}
