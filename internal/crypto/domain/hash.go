package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256Hex returns the hex-encoded SHA-256 digest of data. Used to detect
// unchanged content across a proxied secret refresh (§4.4.4) and to record a
// connection config's content hash (§4.3) without persisting the plaintext
// itself.
func Sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
