// Package domain defines the core domain models for secret management.
//
// A Secret is either local (operator-supplied values, explicit client-named
// versions) or proxied (bound to a VaultConnection; its versions are cached
// copies of whatever the upstream integration returns, refreshed on read
// once they expire). The regime is fixed at creation by whether
// VaultConnectionID is set.
package domain

import (
	"time"
)

// Secret is the named, versioned root of either a local secret or a proxied
// secret's local cache. CurrentVersionTag and PreviousVersionTag name
// SecretVersion rows by their (secret_id, version_tag) key; ExpireAt is only
// meaningful for proxied secrets.
type Secret struct {
	ID                 int64
	Name               string
	VaultConnectionID  *int64
	CurrentVersionTag  *string
	PreviousVersionTag *string
	ExpireAt           *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsProxied reports whether this secret is bound to a VaultConnection rather
// than holding operator-supplied values directly.
func (s *Secret) IsProxied() bool {
	return s.VaultConnectionID != nil
}

// SecretVersion is one immutable content snapshot of a Secret, except for
// ExpireAt which is bumped in place by the refresh state machine when the
// upstream content is unchanged.
type SecretVersion struct {
	ID           int64
	SecretID     int64
	VersionTag   string
	Sha256       *string
	EncryptedKey string // hex(nonce ‖ AES-256-GCM ciphertext)
	DekID        int64
	Deleted      bool
	ExpireAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
