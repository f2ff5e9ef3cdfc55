// Package domain defines the core domain model for vault connections: named,
// encrypted bindings to an upstream secret integration that proxied secrets
// read through.
package domain

import "time"

// VaultConnection is an operator-managed binding to one upstream secret
// integration. PublicID is caller-chosen at creation and immutable
// thereafter; EncryptedConfig is the only persisted form of its plaintext
// config, which is never returned except by an explicit read.
type VaultConnection struct {
	ID              int64
	PublicID        string
	IntegrationType string
	Sha256          string
	EncryptedConfig string // hex(nonce ‖ AES-256-GCM ciphertext)
	DekID           int64
	TTLSeconds      *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
