package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	connectionsDomain "github.com/allisson/secrets/internal/connections/domain"
)

func TestPostgreSQLConnectionRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLConnectionRepository(db)
	ttl := 3600
	conn := &connectionsDomain.VaultConnection{
		PublicID:        "conn-abcdefgh",
		IntegrationType: "vaultkv",
		Sha256:          "deadbeef",
		EncryptedConfig: "ct",
		DekID:           1,
		TTLSeconds:      &ttl,
	}

	t.Run("success", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectQuery("INSERT INTO vault_connections").
			WithArgs(conn.PublicID, conn.IntegrationType, conn.Sha256, conn.EncryptedConfig, conn.DekID, conn.TTLSeconds).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, now, now))

		err := repo.Create(context.Background(), db, conn)
		require.NoError(t, err)
		assert.Equal(t, int64(1), conn.ID)
	})

	t.Run("conflict", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO vault_connections").
			WithArgs(conn.PublicID, conn.IntegrationType, conn.Sha256, conn.EncryptedConfig, conn.DekID, conn.TTLSeconds).
			WillReturnError(&pq.Error{Code: uniqueViolation})

		err := repo.Create(context.Background(), db, conn)
		assert.ErrorIs(t, err, connectionsDomain.ErrConnectionConflict)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLConnectionRepository_ByPublicID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLConnectionRepository(db)

	t.Run("found", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectQuery("SELECT (.+) FROM vault_connections WHERE public_id = \\$1").
			WithArgs("conn-abcdefgh").
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "public_id", "integration_type", "sha256", "encrypted_config", "dek_id", "ttl_seconds", "created_at", "updated_at"},
			).AddRow(1, "conn-abcdefgh", "vaultkv", "deadbeef", "ct", 1, nil, now, now))

		conn, err := repo.ByPublicID(context.Background(), db, "conn-abcdefgh")
		require.NoError(t, err)
		assert.Equal(t, "vaultkv", conn.IntegrationType)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM vault_connections WHERE public_id = \\$1").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.ByPublicID(context.Background(), db, "missing")
		assert.ErrorIs(t, err, connectionsDomain.ErrConnectionNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLConnectionRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLConnectionRepository(db)

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("UPDATE vault_connections").
			WithArgs("conn-abcdefgh", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Update(context.Background(), db, "conn-abcdefgh", nil, nil, nil, nil, nil)
		require.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec("UPDATE vault_connections").
			WithArgs("missing", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), db, "missing", nil, nil, nil, nil, nil)
		assert.ErrorIs(t, err, connectionsDomain.ErrConnectionNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLConnectionRepository_DeleteByPublicID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLConnectionRepository(db)

	mock.ExpectExec("DELETE FROM vault_connections WHERE public_id = \\$1").
		WithArgs("conn-abcdefgh").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.DeleteByPublicID(context.Background(), db, "conn-abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	require.NoError(t, mock.ExpectationsWereMet())
}
