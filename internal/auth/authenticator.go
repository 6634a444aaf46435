// Package auth verifies front desk staff and issues their session tokens.
package auth

import (
	"context"

	"github.com/mmynk/pms/internal/models"
)

// Authenticator verifies staff credentials.
// Implementations decide what a credential is; the API only passes it through.
type Authenticator interface {
	// Register creates a staff account and returns it.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the account whose credential matches, or ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// Lookup returns the account behind a validated session.
	Lookup(ctx context.Context, userID string) (*models.User, error)
}
