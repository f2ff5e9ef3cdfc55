// Package domain defines core cryptographic domain models for envelope
// encryption. Implements a KEK (external KMS) → DEK → data hierarchy with
// AES-256-GCM.
package domain

import (
	"github.com/allisson/secrets/internal/errors"
)

// Cryptographic operation errors.
var (
	// ErrInvalidKeySize indicates a DEK did not unwrap to a 32-byte key.
	ErrInvalidKeySize = errors.Wrap(errors.ErrCryptoError, "invalid key size")

	// ErrUnsupportedAlgorithm indicates a cipher was requested for an
	// algorithm tag other than AESGCM.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrCryptoError, "unsupported algorithm")

	// ErrDecryptionFailed indicates a GCM open failed: wrong key, wrong nonce,
	// or a tampered/corrupted ciphertext envelope.
	ErrDecryptionFailed = errors.Wrap(errors.ErrCryptoError, "decryption failed")

	// ErrDekNotFound indicates a DEK with the specified id was not found.
	ErrDekNotFound = errors.Wrap(errors.ErrNotFound, "dek not found")

	// ErrKekNotFound indicates a KEK with the specified id was not found.
	ErrKekNotFound = errors.Wrap(errors.ErrNotFound, "kek not found")

	// ErrNoKekAvailable indicates no KEK row is provisioned to serve a new
	// DEK. An operator must provision at least one KEK before secrets can
	// be written.
	ErrNoKekAvailable = errors.Wrap(errors.ErrKmsError, "no kek provisioned")

	// ErrKMSProviderNotSet indicates the KMS_PROVIDER environment variable
	// is not configured.
	ErrKMSProviderNotSet = errors.Wrap(
		errors.ErrInvalidInput,
		"KMS_PROVIDER is required but not configured (use 'gcloudkms' for local development)",
	)

	// ErrKMSOperationFailed indicates the external KMS rejected a
	// GenerateDataKey or Decrypt call.
	ErrKMSOperationFailed = errors.Wrap(errors.ErrKmsError, "kms operation failed")
)
