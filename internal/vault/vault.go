// Package vault defines the external secret store consulted for agent tokens
// and provides an Azure Key Vault implementation.
package vault

import (
	"context"

	"github.com/cockroachdb/errors"
)

var (
	// ErrAuthentication is returned when the service principal cannot authenticate.
	ErrAuthentication = errors.New("vault authentication failed")

	// ErrSecretNotFound is returned when the requested secret does not exist.
	ErrSecretNotFound = errors.New("vault secret not found")
)

// AuthRequest carries the service principal credentials used to reach a vault.
type AuthRequest struct {
	Tenant       string
	ClientID     string
	ClientSecret string
	// URL is the vault endpoint.
	URL string
}

// Vault authenticates service principals against an external secret store.
type Vault interface {
	Authenticate(ctx context.Context, req AuthRequest) (Session, error)
}

// Session is an authenticated connection to a vault.
type Session interface {
	GetSecret(ctx context.Context, name string) (string, error)
}
