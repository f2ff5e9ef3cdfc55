// Package repository implements data persistence for KEKs and DEKs against
// PostgreSQL, using database.GetTx() to transparently participate in the
// caller's transaction when one is present.
package repository

import (
	"context"
	"database/sql"

	cryptoDomain "github.com/allisson/secrets/internal/crypto/domain"
	"github.com/allisson/secrets/internal/database"
	apperrors "github.com/allisson/secrets/internal/errors"
)

// PostgreSQLKekRepository implements service.KekSource for PostgreSQL.
//
// KEKs are provisioned out-of-band by an operator (see cmd/app's create-kek
// command) and are read-only to the running service: there is no Update or
// Delete here, only RandomKek (to mint a new DEK under) and KekByID (to
// decrypt an existing one).
type PostgreSQLKekRepository struct {
	db *sql.DB
}

// NewPostgreSQLKekRepository creates a new PostgreSQL KEK repository.
func NewPostgreSQLKekRepository(db *sql.DB) *PostgreSQLKekRepository {
	return &PostgreSQLKekRepository{db: db}
}

// Create inserts a new, operator-provisioned KEK referencing an external
// KMS key. Used only by the create-kek CLI command.
func (p *PostgreSQLKekRepository) Create(ctx context.Context, kek *cryptoDomain.Kek) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO keks (kms_key_ref, created_at) VALUES ($1, $2) RETURNING id`

	if err := querier.QueryRowContext(ctx, query, kek.KMSKeyRef, kek.CreatedAt).Scan(&kek.ID); err != nil {
		return apperrors.Wrap(err, "failed to create kek")
	}
	return nil
}

// RandomKek returns an arbitrarily selected, provisioned KEK. Returns
// cryptoDomain.ErrNoKekAvailable if none are provisioned.
func (p *PostgreSQLKekRepository) RandomKek(ctx context.Context, q database.Querier) (*cryptoDomain.Kek, error) {
	query := `SELECT id, kms_key_ref, created_at FROM keks ORDER BY RANDOM() LIMIT 1`

	var kek cryptoDomain.Kek
	err := q.QueryRowContext(ctx, query).Scan(&kek.ID, &kek.KMSKeyRef, &kek.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, cryptoDomain.ErrNoKekAvailable
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to select random kek")
	}
	return &kek, nil
}

// KekByID looks up a KEK by its row id.
func (p *PostgreSQLKekRepository) KekByID(ctx context.Context, q database.Querier, id int64) (*cryptoDomain.Kek, error) {
	query := `SELECT id, kms_key_ref, created_at FROM keks WHERE id = $1`

	var kek cryptoDomain.Kek
	err := q.QueryRowContext(ctx, query, id).Scan(&kek.ID, &kek.KMSKeyRef, &kek.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, cryptoDomain.ErrKekNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to select kek by id")
	}
	return &kek, nil
}

// List retrieves all provisioned KEKs, newest first.
func (p *PostgreSQLKekRepository) List(ctx context.Context) ([]*cryptoDomain.Kek, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, kms_key_ref, created_at FROM keks ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list keks")
	}
	defer func() {
		_ = rows.Close()
	}()

	var keks []*cryptoDomain.Kek
	for rows.Next() {
		var kek cryptoDomain.Kek
		if err := rows.Scan(&kek.ID, &kek.KMSKeyRef, &kek.CreatedAt); err != nil {
			return nil, err
		}
		keks = append(keks, &kek)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keks, nil
}
