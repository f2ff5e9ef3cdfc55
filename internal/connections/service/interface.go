// Package service implements ConnectionService: validated, encrypted CRUD
// over vault connections, backed by a ConnectionStore and the CryptoEngine.
package service

import (
	"context"

	connectionsDomain "github.com/allisson/secrets/internal/connections/domain"
	"github.com/allisson/secrets/internal/database"
)

// ConnectionStore is the persistence abstraction ConnectionService depends
// on, grounded on §4.2's ConnectionStore contract.
type ConnectionStore interface {
	// Create inserts a new connection row. Fails connectionsDomain.ErrConnectionConflict
	// on a duplicate public id.
	Create(ctx context.Context, q database.Querier, conn *connectionsDomain.VaultConnection) error

	// Update applies a coalescing update: integrationType, sha256Hex,
	// encryptedConfig and dekID only change when non-nil; ttlSeconds is
	// always written verbatim, including a nil to clear it.
	Update(
		ctx context.Context,
		q database.Querier,
		publicID string,
		integrationType *string,
		sha256Hex *string,
		encryptedConfig *string,
		dekID *int64,
		ttlSeconds *int,
	) error

	ByPublicID(ctx context.Context, q database.Querier, publicID string) (*connectionsDomain.VaultConnection, error)
	ByID(ctx context.Context, q database.Querier, id int64) (*connectionsDomain.VaultConnection, error)

	// DeleteByPublicID deletes the row and reports whether one was affected.
	DeleteByPublicID(ctx context.Context, q database.Querier, publicID string) (int64, error)
}

// PlaintextConnection is a connection's metadata plus its decrypted config.
// Callers must Zero(Config) once done with it.
type PlaintextConnection struct {
	Connection *connectionsDomain.VaultConnection
	Config     []byte
}

// CreateInput is the validated payload for creating a connection.
type CreateInput struct {
	PublicID        string
	IntegrationType string
	Config          []byte
	TTLSeconds      *int
}

// UpdateInput is the validated payload for rotating a connection.
// IntegrationType and Config are both-or-neither per §4.3; TTLSeconds
// flows through verbatim via TTLSet/TTLSeconds.
type UpdateInput struct {
	IntegrationType *string
	Config          []byte
	TTLSet          bool
	TTLSeconds      *int
}

// ConnectionService implements §4.3's create/update/read/resolve_by_id/delete.
type ConnectionService interface {
	Create(ctx context.Context, input CreateInput) (*connectionsDomain.VaultConnection, error)
	Update(ctx context.Context, publicID string, input UpdateInput) (*connectionsDomain.VaultConnection, error)
	Read(ctx context.Context, publicID string) (*PlaintextConnection, error)
	ResolveByID(ctx context.Context, id int64) (*PlaintextConnection, error)
	Delete(ctx context.Context, publicID string) (bool, error)
}
