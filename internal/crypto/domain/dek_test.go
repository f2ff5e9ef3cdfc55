package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDek(t *testing.T) {
	keyID := uuid.New()
	now := time.Now()
	encryptedKey := []byte("wrapped-key-bytes")

	dek := Dek{
		ID:           1,
		KeyID:        keyID,
		KekID:        1,
		Algorithm:    AESGCM,
		EncryptedKey: encryptedKey,
		CreatedAt:    now,
	}

	assert.Equal(t, int64(1), dek.ID)
	assert.Equal(t, keyID, dek.KeyID)
	assert.Equal(t, int64(1), dek.KekID)
	assert.Equal(t, AESGCM, dek.Algorithm)
	assert.Equal(t, encryptedKey, dek.EncryptedKey)
	assert.Equal(t, now, dek.CreatedAt)
}
