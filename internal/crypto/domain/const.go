package domain

// Algorithm identifies the authenticated encryption algorithm tagged against
// a DEK or a ciphertext envelope.
type Algorithm string

const (
	// AESGCM is the only algorithm this core mints DEKs under: AES-256 in
	// Galois/Counter Mode, 12-byte random nonce, 16-byte authentication tag.
	AESGCM Algorithm = "AES-256-GCM"
)
