package repository

import (
	"context"
	"database/sql"

	cryptoDomain "github.com/allisson/secrets/internal/crypto/domain"
	"github.com/allisson/secrets/internal/database"
	apperrors "github.com/allisson/secrets/internal/errors"
)

// PostgreSQLDekRepository implements service.DekSource for PostgreSQL.
//
// DEKs are immutable once minted: there is no Update, only CreateDek and
// DekByID. Both participate transparently in the caller's transaction via
// database.GetTx() when the passed-in Querier is the result of that call.
type PostgreSQLDekRepository struct {
	db *sql.DB
}

// NewPostgreSQLDekRepository creates a new PostgreSQL DEK repository instance.
func NewPostgreSQLDekRepository(db *sql.DB) *PostgreSQLDekRepository {
	return &PostgreSQLDekRepository{db: db}
}

// CreateDek persists a newly minted DEK and assigns it an id.
func (p *PostgreSQLDekRepository) CreateDek(ctx context.Context, q database.Querier, dek *cryptoDomain.Dek) error {
	query := `INSERT INTO deks (key_id, kek_id, algorithm, encrypted_key, created_at)
			  VALUES ($1, $2, $3, $4, $5) RETURNING id`

	err := q.QueryRowContext(ctx, query, dek.KeyID, dek.KekID, dek.Algorithm, dek.EncryptedKey, dek.CreatedAt).
		Scan(&dek.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to create dek")
	}
	return nil
}

// DekByID looks up a DEK by its row id.
func (p *PostgreSQLDekRepository) DekByID(ctx context.Context, q database.Querier, id int64) (*cryptoDomain.Dek, error) {
	query := `SELECT id, key_id, kek_id, algorithm, encrypted_key, created_at FROM deks WHERE id = $1`

	var dek cryptoDomain.Dek
	err := q.QueryRowContext(ctx, query, id).
		Scan(&dek.ID, &dek.KeyID, &dek.KekID, &dek.Algorithm, &dek.EncryptedKey, &dek.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, cryptoDomain.ErrDekNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to select dek by id")
	}
	return &dek, nil
}
