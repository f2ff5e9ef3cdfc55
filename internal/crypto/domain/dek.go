package domain

import (
	"time"

	"github.com/google/uuid"
)

// Dek represents a Data Encryption Key minted per ciphertext blob.
//
// A DEK is an AES-256 key generated fresh for each call to CryptoEngine's
// encrypt operation. It is wrapped (encrypted) by the external KMS under a
// randomly selected KEK before being persisted — EncryptedKey holds that
// wrapped blob, never the plaintext key. A DEK is immutable once created:
// its lifetime is the lifetime of any ciphertext that references it by id.
//
// Fields:
//   - ID: numeric identifier, assigned by the store on insert
//   - KeyID: opaque uuid identifying this DEK independent of its row id
//   - KekID: the KEK this DEK's key material is wrapped under
//   - EncryptedKey: the KMS-wrapped DEK, hex-decoded into bytes for storage
//   - Algorithm: fixed to AESGCM for every DEK this core mints
//   - CreatedAt: timestamp of minting
type Dek struct {
	ID           int64
	KeyID        uuid.UUID
	KekID        int64
	Algorithm    Algorithm
	EncryptedKey []byte
	CreatedAt    time.Time
}
