// Package service provides cryptographic service interfaces and implementations
// for envelope encryption.
//
// # Services Overview
//
// AEADManager: Factory for creating AEAD cipher instances (AES-256-GCM).
//
// KMSClient: Talks to an external KMS to mint and unwrap DEKs. The core never
// generates or holds KEK key material itself — it only asks the KMS to
// generate a data key under a KEK reference, or to decrypt (unwrap) one back.
//
// CryptoEngine: The envelope-encryption entry point used by the secrets
// domain. Encrypt mints a fresh DEK via KMSClient under a randomly selected
// KEK, encrypts the plaintext with AES-256-GCM, and returns a ciphertext
// envelope plus the DEK's row id. Decrypt looks up the DEK and its KEK,
// unwraps the DEK via KMSClient, and opens the envelope.
//
// # Thread Safety
//
// All service implementations are stateless and thread-safe.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/secrets/internal/crypto/domain"
	"github.com/allisson/secrets/internal/database"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
//
// Security requirements:
//   - Nonces must be unique for each encryption with the same key
//   - Keys must be 256 bits
//   - The same AAD used during encryption must be provided during decryption
//
// Implementation: AESGCMCipher.
type AEAD interface {
	// Encrypt encrypts plaintext with optional additional authenticated data (AAD).
	// A unique nonce is generated for each call and returned alongside the ciphertext.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD, verifying
	// the authentication tag before returning plaintext.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager creates AEAD cipher instances for a 32-byte key.
//
// Implementation: AEADManagerService.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	// Returns ErrInvalidKeySize if key is not 32 bytes, or
	// ErrUnsupportedAlgorithm if alg isn't AESGCM.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KMSClient mints and unwraps Data Encryption Keys against an external KMS.
//
// The plaintext DEK this returns must be used immediately to build an AEAD
// cipher and then zeroed with cryptoDomain.Zero — it is never persisted.
// Only the wrapped form (wrappedDEK) is stored, alongside the KEK reference
// it was wrapped under.
//
// Implementations: AWSKMSClient (production, talks to AWS KMS directly),
// GCloudKMSClient (local/dev, generates the DEK locally and wraps it via a
// gocloud.dev/secrets.Keeper).
type KMSClient interface {
	// GenerateDataKey asks the KMS to mint a new 32-byte data key under the
	// KEK identified by kmsKeyRef. Returns both the plaintext key (to use
	// immediately) and its wrapped form (to persist).
	GenerateDataKey(ctx context.Context, kmsKeyRef string) (plaintextDEK, wrappedDEK []byte, err error)

	// Decrypt unwraps a previously wrapped data key under the KEK identified
	// by kmsKeyRef, returning the plaintext key.
	Decrypt(ctx context.Context, kmsKeyRef string, wrappedDEK []byte) (plaintextDEK []byte, err error)
}

// KekSource resolves which KEK backs a newly minted DEK and looks up an
// existing KEK by id for decryption. It is implemented by the crypto
// repository layer; CryptoEngine depends on this interface rather than a
// concrete repository so it can run within the caller's transaction.
type KekSource interface {
	// RandomKek returns an arbitrarily selected, provisioned KEK.
	// Returns cryptoDomain.ErrNoKekAvailable if none are provisioned.
	RandomKek(ctx context.Context, q database.Querier) (*cryptoDomain.Kek, error)

	// KekByID looks up a KEK by its row id.
	KekByID(ctx context.Context, q database.Querier, id int64) (*cryptoDomain.Kek, error)
}

// DekSource persists and retrieves DEK rows. Implemented by the crypto
// repository layer.
type DekSource interface {
	// CreateDek persists a newly minted DEK and assigns it an id.
	CreateDek(ctx context.Context, q database.Querier, dek *cryptoDomain.Dek) error

	// DekByID looks up a DEK by its row id.
	DekByID(ctx context.Context, q database.Querier, id int64) (*cryptoDomain.Dek, error)
}

// CryptoEngine is the envelope-encryption entry point used by the secrets
// domain. Encrypt takes a transaction-bound Querier because it must persist
// the newly minted DEK row in the same transaction as the ciphertext that
// references it; Decrypt takes a plain Querier since it only reads.
type CryptoEngine interface {
	// Encrypt mints a new DEK under a randomly selected KEK, persists the
	// DEK row via q, and encrypts plaintext with AES-256-GCM. Returns the
	// persisted DEK's id and a hex-encoded envelope of nonce‖ciphertext.
	Encrypt(ctx context.Context, q database.Querier, plaintext []byte) (dekID int64, ciphertextHex string, err error)

	// Decrypt looks up the DEK by id and its KEK, unwraps the DEK via the
	// configured KMSClient, and opens the hex-encoded ciphertext envelope.
	Decrypt(ctx context.Context, q database.Querier, dekID int64, ciphertextHex string) (plaintext []byte, err error)
}
