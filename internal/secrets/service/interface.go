// Package service implements SecretService: the local/proxied secret state
// machine described in §4.4, backed by a SecretStore, the CryptoEngine, a
// ConnectionService (to resolve proxied secrets' vault connections) and a
// providers.Registry (to fetch upstream values).
package service

import (
	"context"
	"time"

	"github.com/allisson/secrets/internal/database"
	secretsDomain "github.com/allisson/secrets/internal/secrets/domain"
)

// SecretStore is the persistence abstraction SecretService depends on,
// grounded on §4.2's SecretStore contract.
type SecretStore interface {
	// CreateSecret inserts a new secret row. Fails secretsDomain.ErrSecretNameConflict
	// on a duplicate name.
	CreateSecret(ctx context.Context, q database.Querier, secret *secretsDomain.Secret) error

	// GetByName loads a secret with a plain (unlocked) read.
	GetByName(ctx context.Context, q database.Querier, name string) (*secretsDomain.Secret, error)

	// GetByNameForUpdate loads a secret with a row lock (SELECT ... FOR UPDATE).
	GetByNameForUpdate(ctx context.Context, q database.Querier, name string) (*secretsDomain.Secret, error)

	// CreateVersion inserts a new version row. Fails
	// secretsDomain.ErrVersionTagConflict on a duplicate (secret_id, tag).
	CreateVersion(ctx context.Context, q database.Querier, version *secretsDomain.SecretVersion) error

	// VersionByTag loads one version by (secret_id, tag).
	VersionByTag(ctx context.Context, q database.Querier, secretID int64, tag string) (*secretsDomain.SecretVersion, error)

	// SetVersions advances current/previous version pointers.
	SetVersions(ctx context.Context, q database.Querier, secretID int64, current, previous *string) error

	// SetVersionsWithExpiry advances the pointers and sets expire_at in one statement.
	SetVersionsWithExpiry(ctx context.Context, q database.Querier, secretID int64, current, previous *string, expireAt time.Time) error

	// TouchVersionExpiry bumps a version's expire_at in place.
	TouchVersionExpiry(ctx context.Context, q database.Querier, versionID int64, expireAt time.Time) error

	// TouchSecretExpiry bumps a secret's expire_at in place.
	TouchSecretExpiry(ctx context.Context, q database.Querier, secretID int64, expireAt time.Time) error
}

// CreateSecretInput is the validated payload for create_secret (§4.4.1).
// Exactly one of VaultConnectionPublicID and Value must be set.
type CreateSecretInput struct {
	Name                    string
	VaultConnectionPublicID *string
	Value                   []byte
	VersionTag              string
}

// VersionResult is what every read/write operation returns: a secret's name,
// the resolved version tag, and the decrypted value.
type VersionResult struct {
	Name       string
	VersionTag string
	Value      []byte
}

// SecretService implements §4.4's create_secret/create_secret_version/
// get_current_version/get_version operations.
type SecretService interface {
	CreateSecret(ctx context.Context, input CreateSecretInput) (*VersionResult, error)
	CreateSecretVersion(ctx context.Context, name string, versionTag string, value []byte) (*VersionResult, error)
	GetCurrentVersion(ctx context.Context, name string) (*VersionResult, error)
	GetVersion(ctx context.Context, name string, tag string) (*VersionResult, error)
}
