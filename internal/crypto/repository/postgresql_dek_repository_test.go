package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/secrets/internal/crypto/domain"
)

func TestPostgreSQLDekRepository_CreateDek(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLDekRepository(db)
	dek := &cryptoDomain.Dek{
		KeyID:        uuid.New(),
		KekID:        1,
		Algorithm:    cryptoDomain.AESGCM,
		EncryptedKey: []byte("wrapped"),
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectQuery("INSERT INTO deks").
		WithArgs(dek.KeyID, dek.KekID, dek.Algorithm, dek.EncryptedKey, dek.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	err = repo.CreateDek(context.Background(), db, dek)
	require.NoError(t, err)
	assert.Equal(t, int64(42), dek.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLDekRepository_DekByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLDekRepository(db)
	keyID := uuid.New()

	t.Run("found", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectQuery("SELECT id, key_id, kek_id, algorithm, encrypted_key, created_at FROM deks WHERE id = \\$1").
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "key_id", "kek_id", "algorithm", "encrypted_key", "created_at"}).
				AddRow(42, keyID, 1, cryptoDomain.AESGCM, []byte("wrapped"), now))

		dek, err := repo.DekByID(context.Background(), db, 42)
		require.NoError(t, err)
		assert.Equal(t, int64(42), dek.ID)
		assert.Equal(t, keyID, dek.KeyID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, key_id, kek_id, algorithm, encrypted_key, created_at FROM deks WHERE id = \\$1").
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.DekByID(context.Background(), db, 99)
		assert.ErrorIs(t, err, cryptoDomain.ErrDekNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
