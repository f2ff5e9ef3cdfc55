// Package repository implements service.ConnectionStore for PostgreSQL.
package repository

import (
	"context"
	"database/sql"

	connectionsDomain "github.com/allisson/secrets/internal/connections/domain"
	"github.com/allisson/secrets/internal/database"
	apperrors "github.com/allisson/secrets/internal/errors"
	"github.com/lib/pq"
)

// uniqueViolation is PostgreSQL's SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// PostgreSQLConnectionRepository implements service.ConnectionStore for
// PostgreSQL.
type PostgreSQLConnectionRepository struct {
	db *sql.DB
}

// NewPostgreSQLConnectionRepository creates a new PostgreSQL vault connection
// repository instance.
func NewPostgreSQLConnectionRepository(db *sql.DB) *PostgreSQLConnectionRepository {
	return &PostgreSQLConnectionRepository{db: db}
}

// Create inserts a new connection row. Fails connectionsDomain.ErrConnectionConflict
// on a duplicate public id.
func (p *PostgreSQLConnectionRepository) Create(ctx context.Context, q database.Querier, conn *connectionsDomain.VaultConnection) error {
	query := `INSERT INTO vault_connections
			  (public_id, integration_type, sha256, encrypted_config, dek_id, ttl_seconds, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			  RETURNING id, created_at, updated_at`

	err := q.QueryRowContext(
		ctx, query,
		conn.PublicID, conn.IntegrationType, conn.Sha256, conn.EncryptedConfig, conn.DekID, conn.TTLSeconds,
	).Scan(&conn.ID, &conn.CreatedAt, &conn.UpdatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return connectionsDomain.ErrConnectionConflict
	}
	if err != nil {
		return apperrors.Wrap(err, "failed to create vault connection")
	}
	return nil
}

// Update applies a coalescing update: integrationType, sha256Hex,
// encryptedConfig and dekID only change when non-nil; ttlSeconds is always
// written verbatim, including a nil to clear it.
func (p *PostgreSQLConnectionRepository) Update(
	ctx context.Context,
	q database.Querier,
	publicID string,
	integrationType *string,
	sha256Hex *string,
	encryptedConfig *string,
	dekID *int64,
	ttlSeconds *int,
) error {
	query := `UPDATE vault_connections
			  SET integration_type = COALESCE($2, integration_type),
				  sha256 = COALESCE($3, sha256),
				  encrypted_config = COALESCE($4, encrypted_config),
				  dek_id = COALESCE($5, dek_id),
				  ttl_seconds = $6,
				  updated_at = now()
			  WHERE public_id = $1`

	result, err := q.ExecContext(ctx, query, publicID, integrationType, sha256Hex, encryptedConfig, dekID, ttlSeconds)
	if err != nil {
		return apperrors.Wrap(err, "failed to update vault connection")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read rows affected")
	}
	if rows == 0 {
		return connectionsDomain.ErrConnectionNotFound
	}
	return nil
}

// ByPublicID looks up a connection by its public id.
func (p *PostgreSQLConnectionRepository) ByPublicID(ctx context.Context, q database.Querier, publicID string) (*connectionsDomain.VaultConnection, error) {
	query := `SELECT id, public_id, integration_type, sha256, encrypted_config, dek_id, ttl_seconds, created_at, updated_at
			  FROM vault_connections WHERE public_id = $1`

	return p.scanRow(q.QueryRowContext(ctx, query, publicID))
}

// ByID looks up a connection by its internal row id.
func (p *PostgreSQLConnectionRepository) ByID(ctx context.Context, q database.Querier, id int64) (*connectionsDomain.VaultConnection, error) {
	query := `SELECT id, public_id, integration_type, sha256, encrypted_config, dek_id, ttl_seconds, created_at, updated_at
			  FROM vault_connections WHERE id = $1`

	return p.scanRow(q.QueryRowContext(ctx, query, id))
}

func (p *PostgreSQLConnectionRepository) scanRow(row *sql.Row) (*connectionsDomain.VaultConnection, error) {
	var conn connectionsDomain.VaultConnection
	err := row.Scan(
		&conn.ID, &conn.PublicID, &conn.IntegrationType, &conn.Sha256, &conn.EncryptedConfig,
		&conn.DekID, &conn.TTLSeconds, &conn.CreatedAt, &conn.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, connectionsDomain.ErrConnectionNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to select vault connection")
	}
	return &conn, nil
}

// DeleteByPublicID deletes the row and reports whether one was affected.
func (p *PostgreSQLConnectionRepository) DeleteByPublicID(ctx context.Context, q database.Querier, publicID string) (int64, error) {
	query := `DELETE FROM vault_connections WHERE public_id = $1`

	result, err := q.ExecContext(ctx, query, publicID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete vault connection")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read rows affected")
	}
	return rows, nil
}
