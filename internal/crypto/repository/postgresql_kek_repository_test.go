package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/secrets/internal/crypto/domain"
)

func TestPostgreSQLKekRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLKekRepository(db)
	kek := &cryptoDomain.Kek{KMSKeyRef: "arn:aws:kms:us-east-1:000000000000:key/abc", CreatedAt: time.Now().UTC()}

	mock.ExpectQuery("INSERT INTO keks").
		WithArgs(kek.KMSKeyRef, kek.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	err = repo.Create(context.Background(), kek)
	require.NoError(t, err)
	assert.Equal(t, int64(1), kek.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLKekRepository_RandomKek(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLKekRepository(db)

	t.Run("returns a kek", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectQuery("SELECT id, kms_key_ref, created_at FROM keks ORDER BY RANDOM\\(\\) LIMIT 1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "kms_key_ref", "created_at"}).AddRow(1, "ref", now))

		kek, err := repo.RandomKek(context.Background(), db)
		require.NoError(t, err)
		assert.Equal(t, int64(1), kek.ID)
		assert.Equal(t, "ref", kek.KMSKeyRef)
	})

	t.Run("no kek provisioned", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, kms_key_ref, created_at FROM keks ORDER BY RANDOM\\(\\) LIMIT 1").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.RandomKek(context.Background(), db)
		assert.ErrorIs(t, err, cryptoDomain.ErrNoKekAvailable)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLKekRepository_KekByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLKekRepository(db)

	t.Run("found", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectQuery("SELECT id, kms_key_ref, created_at FROM keks WHERE id = \\$1").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "kms_key_ref", "created_at"}).AddRow(1, "ref", now))

		kek, err := repo.KekByID(context.Background(), db, 1)
		require.NoError(t, err)
		assert.Equal(t, "ref", kek.KMSKeyRef)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, kms_key_ref, created_at FROM keks WHERE id = \\$1").
			WithArgs(int64(2)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.KekByID(context.Background(), db, 2)
		assert.ErrorIs(t, err, cryptoDomain.ErrKekNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
