package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKek(t *testing.T) {
	now := time.Now()
	kek := Kek{
		ID:        1,
		KMSKeyRef: "arn:aws:kms:us-east-1:000000000000:key/11111111-2222-3333-4444-555555555555",
		CreatedAt: now,
	}

	assert.Equal(t, int64(1), kek.ID)
	assert.Equal(t, "arn:aws:kms:us-east-1:000000000000:key/11111111-2222-3333-4444-555555555555", kek.KMSKeyRef)
	assert.Equal(t, now, kek.CreatedAt)
}
