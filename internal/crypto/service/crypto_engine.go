package service

import (
	"context"
	"encoding/hex"
	"fmt"

	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/secrets/internal/crypto/domain"
	"github.com/allisson/secrets/internal/database"
)

// cryptoEngine implements CryptoEngine by composing a KMSClient (talks to
// the external KMS), a KekSource/DekSource (persistence), and an
// AEADManager (local AES-256-GCM).
type cryptoEngine struct {
	kmsClient   KMSClient
	keks        KekSource
	deks        DekSource
	aeadManager AEADManager
}

// NewCryptoEngine builds a CryptoEngine.
func NewCryptoEngine(kmsClient KMSClient, keks KekSource, deks DekSource, aeadManager AEADManager) CryptoEngine {
	return &cryptoEngine{
		kmsClient:   kmsClient,
		keks:        keks,
		deks:        deks,
		aeadManager: aeadManager,
	}
}

// Encrypt mints a DEK under a randomly selected KEK, persists it via q, and
// seals plaintext with AES-256-GCM. The returned ciphertextHex is
// hex(nonce ‖ GCM-ciphertext-with-tag).
func (e *cryptoEngine) Encrypt(ctx context.Context, q database.Querier, plaintext []byte) (int64, string, error) {
	kek, err := e.keks.RandomKek(ctx, q)
	if err != nil {
		return 0, "", err
	}

	plaintextDEK, wrappedDEK, err := e.kmsClient.GenerateDataKey(ctx, kek.KMSKeyRef)
	if err != nil {
		return 0, "", err
	}
	defer cryptoDomain.Zero(plaintextDEK)

	cipher, err := e.aeadManager.CreateCipher(plaintextDEK, cryptoDomain.AESGCM)
	if err != nil {
		return 0, "", err
	}

	ciphertext, nonce, err := cipher.Encrypt(plaintext, nil)
	if err != nil {
		return 0, "", fmt.Errorf("failed to encrypt: %w", err)
	}

	dek := &cryptoDomain.Dek{
		KeyID:        uuid.Must(uuid.NewV7()),
		KekID:        kek.ID,
		Algorithm:    cryptoDomain.AESGCM,
		EncryptedKey: wrappedDEK,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.deks.CreateDek(ctx, q, dek); err != nil {
		return 0, "", err
	}

	envelope := make([]byte, 0, len(nonce)+len(ciphertext))
	envelope = append(envelope, nonce...)
	envelope = append(envelope, ciphertext...)

	return dek.ID, hex.EncodeToString(envelope), nil
}

// Decrypt looks up the DEK and its KEK, unwraps the DEK via the KMSClient,
// and opens the hex-encoded ciphertext envelope.
func (e *cryptoEngine) Decrypt(ctx context.Context, q database.Querier, dekID int64, ciphertextHex string) ([]byte, error) {
	dek, err := e.deks.DekByID(ctx, q, dekID)
	if err != nil {
		return nil, err
	}

	kek, err := e.keks.KekByID(ctx, q, dek.KekID)
	if err != nil {
		return nil, err
	}

	plaintextDEK, err := e.kmsClient.Decrypt(ctx, kek.KMSKeyRef, dek.EncryptedKey)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(plaintextDEK)

	envelope, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	cipher, err := e.aeadManager.CreateCipher(plaintextDEK, dek.Algorithm)
	if err != nil {
		return nil, err
	}

	nonceSize := 12
	if len(envelope) < nonceSize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	nonce, ciphertext := envelope[:nonceSize], envelope[nonceSize:]

	plaintext, err := cipher.Decrypt(ciphertext, nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
