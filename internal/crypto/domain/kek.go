// Package domain defines the cryptographic domain models for envelope encryption.
// Implements a two-tier KEK → DEK hierarchy: the KEK lives in an external KMS and
// is referenced by id, never held here as key material; the DEK is generated per
// ciphertext and stored wrapped.
package domain

import "time"

// Kek represents a Key Encryption Key provisioned out-of-band in an external KMS.
//
// The core never holds KEK key material directly — KMSKeyRef is the opaque
// reference (e.g. an AWS KMS key id/ARN) the KMS client uses to generate and
// unwrap DEKs under this key. KEKs are read-only to the core: they are
// provisioned by an operator and selected at random when a new DEK is
// minted. This core never creates, rotates, or retires a KEK.
type Kek struct {
	ID        int64
	KMSKeyRef string
	CreatedAt time.Time
}
