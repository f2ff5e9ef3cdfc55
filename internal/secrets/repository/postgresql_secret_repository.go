// Package repository implements secrets service.SecretStore for PostgreSQL.
//
// Secrets and their versions are split across two tables: secrets holds the
// name, regime (vault_connection_id set or not) and the current/previous
// version pointers; secret_versions holds one immutable content snapshot
// each, except for expire_at which the proxied refresh state machine bumps
// in place when upstream content is unchanged (§4.4.4).
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/allisson/secrets/internal/database"
	apperrors "github.com/allisson/secrets/internal/errors"
	secretsDomain "github.com/allisson/secrets/internal/secrets/domain"
)

const uniqueViolation = "23505"

// PostgreSQLSecretRepository implements service.SecretStore for PostgreSQL.
type PostgreSQLSecretRepository struct {
	db *sql.DB
}

// NewPostgreSQLSecretRepository creates a new PostgreSQL secret repository instance.
func NewPostgreSQLSecretRepository(db *sql.DB) *PostgreSQLSecretRepository {
	return &PostgreSQLSecretRepository{db: db}
}

// CreateSecret inserts a new secret row. Fails secretsDomain.ErrSecretNameConflict
// on a duplicate name.
func (p *PostgreSQLSecretRepository) CreateSecret(ctx context.Context, q database.Querier, secret *secretsDomain.Secret) error {
	query := `INSERT INTO secrets
			  (name, vault_connection_id, current_version_tag, previous_version_tag, expire_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, now(), now())
			  RETURNING id, created_at, updated_at`

	err := q.QueryRowContext(
		ctx, query,
		secret.Name, secret.VaultConnectionID, secret.CurrentVersionTag, secret.PreviousVersionTag, secret.ExpireAt,
	).Scan(&secret.ID, &secret.CreatedAt, &secret.UpdatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return secretsDomain.ErrSecretNameConflict
	}
	if err != nil {
		return apperrors.Wrap(err, "failed to create secret")
	}
	return nil
}

// GetByName loads a secret by name with a plain (unlocked) read.
func (p *PostgreSQLSecretRepository) GetByName(ctx context.Context, q database.Querier, name string) (*secretsDomain.Secret, error) {
	query := `SELECT id, name, vault_connection_id, current_version_tag, previous_version_tag, expire_at, created_at, updated_at
			  FROM secrets WHERE name = $1`

	return p.scanSecret(q.QueryRowContext(ctx, query, name))
}

// GetByNameForUpdate loads a secret by name with a row lock (SELECT ... FOR
// UPDATE), serializing concurrent version-succession transactions on the
// same secret (§5).
func (p *PostgreSQLSecretRepository) GetByNameForUpdate(ctx context.Context, q database.Querier, name string) (*secretsDomain.Secret, error) {
	query := `SELECT id, name, vault_connection_id, current_version_tag, previous_version_tag, expire_at, created_at, updated_at
			  FROM secrets WHERE name = $1 FOR UPDATE`

	return p.scanSecret(q.QueryRowContext(ctx, query, name))
}

func (p *PostgreSQLSecretRepository) scanSecret(row *sql.Row) (*secretsDomain.Secret, error) {
	var secret secretsDomain.Secret
	err := row.Scan(
		&secret.ID, &secret.Name, &secret.VaultConnectionID, &secret.CurrentVersionTag,
		&secret.PreviousVersionTag, &secret.ExpireAt, &secret.CreatedAt, &secret.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, secretsDomain.ErrSecretNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to select secret")
	}
	return &secret, nil
}

// CreateVersion inserts a new secret version row. Fails
// secretsDomain.ErrVersionTagConflict on a duplicate (secret_id, tag).
func (p *PostgreSQLSecretRepository) CreateVersion(ctx context.Context, q database.Querier, version *secretsDomain.SecretVersion) error {
	query := `INSERT INTO secret_versions
			  (secret_id, version_tag, sha256, encrypted_key, dek_id, deleted, expire_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			  RETURNING id, created_at, updated_at`

	err := q.QueryRowContext(
		ctx, query,
		version.SecretID, version.VersionTag, version.Sha256, version.EncryptedKey, version.DekID,
		version.Deleted, version.ExpireAt,
	).Scan(&version.ID, &version.CreatedAt, &version.UpdatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return secretsDomain.ErrVersionTagConflict
	}
	if err != nil {
		return apperrors.Wrap(err, "failed to create secret version")
	}
	return nil
}

// VersionByTag loads one secret version by (secret_id, tag).
func (p *PostgreSQLSecretRepository) VersionByTag(ctx context.Context, q database.Querier, secretID int64, tag string) (*secretsDomain.SecretVersion, error) {
	query := `SELECT id, secret_id, version_tag, sha256, encrypted_key, dek_id, deleted, expire_at, created_at, updated_at
			  FROM secret_versions WHERE secret_id = $1 AND version_tag = $2`

	var version secretsDomain.SecretVersion
	err := q.QueryRowContext(ctx, query, secretID, tag).Scan(
		&version.ID, &version.SecretID, &version.VersionTag, &version.Sha256, &version.EncryptedKey,
		&version.DekID, &version.Deleted, &version.ExpireAt, &version.CreatedAt, &version.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, secretsDomain.ErrVersionNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to select secret version by tag")
	}
	return &version, nil
}

// SetVersions advances a secret's current/previous version pointers.
func (p *PostgreSQLSecretRepository) SetVersions(ctx context.Context, q database.Querier, secretID int64, current, previous *string) error {
	query := `UPDATE secrets SET current_version_tag = $2, previous_version_tag = $3, updated_at = now() WHERE id = $1`

	_, err := q.ExecContext(ctx, query, secretID, current, previous)
	if err != nil {
		return apperrors.Wrap(err, "failed to set secret versions")
	}
	return nil
}

// SetVersionsWithExpiry advances the version pointers and sets expire_at in
// one statement, used when the refresh state machine mints a new version.
func (p *PostgreSQLSecretRepository) SetVersionsWithExpiry(ctx context.Context, q database.Querier, secretID int64, current, previous *string, expireAt time.Time) error {
	query := `UPDATE secrets SET current_version_tag = $2, previous_version_tag = $3, expire_at = $4, updated_at = now() WHERE id = $1`

	_, err := q.ExecContext(ctx, query, secretID, current, previous, expireAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to set secret versions with expiry")
	}
	return nil
}

// TouchVersionExpiry bumps a version's expire_at in place, used when a
// refresh finds the upstream content unchanged (§4.4.4).
func (p *PostgreSQLSecretRepository) TouchVersionExpiry(ctx context.Context, q database.Querier, versionID int64, expireAt time.Time) error {
	query := `UPDATE secret_versions SET expire_at = $2, updated_at = now() WHERE id = $1`

	_, err := q.ExecContext(ctx, query, versionID, expireAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to touch secret version expiry")
	}
	return nil
}

// TouchSecretExpiry bumps a secret's expire_at in place.
func (p *PostgreSQLSecretRepository) TouchSecretExpiry(ctx context.Context, q database.Querier, secretID int64, expireAt time.Time) error {
	query := `UPDATE secrets SET expire_at = $2, updated_at = now() WHERE id = $1`

	_, err := q.ExecContext(ctx, query, secretID, expireAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to touch secret expiry")
	}
	return nil
}
