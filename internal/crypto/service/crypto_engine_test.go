package service

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/secrets/internal/crypto/domain"
	"github.com/allisson/secrets/internal/database"
)

// fakeKMSClient wraps/unwraps data keys with a fixed local AES-GCM key,
// standing in for a real KMS in tests.
type fakeKMSClient struct {
	wrapKey []byte
}

func newFakeKMSClient(t *testing.T) *fakeKMSClient {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return &fakeKMSClient{wrapKey: key}
}

func (f *fakeKMSClient) GenerateDataKey(ctx context.Context, kmsKeyRef string) ([]byte, []byte, error) {
	plaintext := make([]byte, 32)
	if _, err := rand.Read(plaintext); err != nil {
		return nil, nil, err
	}
	cipher, err := NewAESGCM(f.wrapKey)
	if err != nil {
		return nil, nil, err
	}
	ct, nonce, err := cipher.Encrypt(plaintext, nil)
	if err != nil {
		return nil, nil, err
	}
	return plaintext, append(nonce, ct...), nil
}

func (f *fakeKMSClient) Decrypt(ctx context.Context, kmsKeyRef string, wrapped []byte) ([]byte, error) {
	cipher, err := NewAESGCM(f.wrapKey)
	if err != nil {
		return nil, err
	}
	nonce, ct := wrapped[:12], wrapped[12:]
	return cipher.Decrypt(ct, nonce, nil)
}

// fakeKekSource/fakeDekSource are in-memory stand-ins for the repository layer.
type fakeKekSource struct {
	kek *cryptoDomain.Kek
}

func (f *fakeKekSource) RandomKek(ctx context.Context, q database.Querier) (*cryptoDomain.Kek, error) {
	if f.kek == nil {
		return nil, cryptoDomain.ErrNoKekAvailable
	}
	return f.kek, nil
}

func (f *fakeKekSource) KekByID(ctx context.Context, q database.Querier, id int64) (*cryptoDomain.Kek, error) {
	if f.kek == nil || f.kek.ID != id {
		return nil, cryptoDomain.ErrKekNotFound
	}
	return f.kek, nil
}

type fakeDekSource struct {
	deks map[int64]*cryptoDomain.Dek
	next int64
}

func newFakeDekSource() *fakeDekSource {
	return &fakeDekSource{deks: make(map[int64]*cryptoDomain.Dek)}
}

func (f *fakeDekSource) CreateDek(ctx context.Context, q database.Querier, dek *cryptoDomain.Dek) error {
	f.next++
	dek.ID = f.next
	dek.CreatedAt = time.Now().UTC()
	f.deks[dek.ID] = dek
	return nil
}

func (f *fakeDekSource) DekByID(ctx context.Context, q database.Querier, id int64) (*cryptoDomain.Dek, error) {
	dek, ok := f.deks[id]
	if !ok {
		return nil, cryptoDomain.ErrDekNotFound
	}
	return dek, nil
}

func TestCryptoEngine_EncryptDecrypt(t *testing.T) {
	kek := &cryptoDomain.Kek{ID: 1, KMSKeyRef: "test-kek", CreatedAt: time.Now().UTC()}
	engine := NewCryptoEngine(newFakeKMSClient(t), &fakeKekSource{kek: kek}, newFakeDekSource(), NewAEADManager())

	ctx := context.Background()
	plaintext := []byte("super secret value")

	dekID, ciphertextHex, err := engine.Encrypt(ctx, nil, plaintext)
	require.NoError(t, err)
	assert.NotZero(t, dekID)
	assert.NotEmpty(t, ciphertextHex)

	decrypted, err := engine.Decrypt(ctx, nil, dekID, ciphertextHex)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestCryptoEngine_Decrypt_TamperedCiphertext(t *testing.T) {
	kek := &cryptoDomain.Kek{ID: 1, KMSKeyRef: "test-kek", CreatedAt: time.Now().UTC()}
	engine := NewCryptoEngine(newFakeKMSClient(t), &fakeKekSource{kek: kek}, newFakeDekSource(), NewAEADManager())

	ctx := context.Background()
	dekID, ciphertextHex, err := engine.Encrypt(ctx, nil, []byte("data"))
	require.NoError(t, err)

	tampered := ciphertextHex[:len(ciphertextHex)-2] + "00"
	_, err = engine.Decrypt(ctx, nil, dekID, tampered)
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
}

func TestCryptoEngine_Encrypt_NoKekAvailable(t *testing.T) {
	engine := NewCryptoEngine(newFakeKMSClient(t), &fakeKekSource{}, newFakeDekSource(), NewAEADManager())

	_, _, err := engine.Encrypt(context.Background(), nil, []byte("data"))
	assert.ErrorIs(t, err, cryptoDomain.ErrNoKekAvailable)
}
