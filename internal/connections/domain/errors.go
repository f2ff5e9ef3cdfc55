// Package domain defines core domain models and errors for vault connections.
package domain

import (
	"github.com/allisson/secrets/internal/errors"
)

// Vault connection-specific error definitions.
var (
	// ErrConnectionNotFound indicates no connection exists with the given
	// public id or internal id.
	ErrConnectionNotFound = errors.Wrap(errors.ErrNotFound, "vault connection not found")

	// ErrConnectionConflict indicates a connection with this public id
	// already exists.
	ErrConnectionConflict = errors.Wrap(errors.ErrConflict, "vault connection public id already exists")
)
