package service

import (
	"context"
	"crypto/rand"
	"fmt"

	"gocloud.dev/secrets"

	// Register the gocloud KMS provider drivers this client can open.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/localsecrets"

	cryptoDomain "github.com/allisson/secrets/internal/crypto/domain"
)

// GCloudKMSClient implements KMSClient for local development: it generates
// the 256-bit data key itself with crypto/rand and wraps it through a
// gocloud.dev/secrets.Keeper, rather than asking a managed KMS to generate
// the key server-side. This keeps development and CI independent of a real
// cloud KMS while exercising the same wrap/unwrap envelope shape.
//
// A single Keeper backs every call; kmsKeyRef is accepted for interface
// symmetry with AWSKMSClient but is not used to select among keepers — local
// development provisions exactly one KEK.
type GCloudKMSClient struct {
	keeper *secrets.Keeper
}

// NewGCloudKMSClient opens a secrets.Keeper for keyURI (e.g.
// "base64key://", "gcpkms://...", or a local "awskms://..." override) and
// returns a GCloudKMSClient backed by it.
func NewGCloudKMSClient(ctx context.Context, keyURI string) (*GCloudKMSClient, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open kms keeper: %w", err)
	}
	return &GCloudKMSClient{keeper: keeper}, nil
}

// Close releases the underlying Keeper.
func (c *GCloudKMSClient) Close() error {
	return c.keeper.Close()
}

// GenerateDataKey generates a 256-bit key locally and wraps it via the Keeper.
func (c *GCloudKMSClient) GenerateDataKey(ctx context.Context, kmsKeyRef string) (plaintextDEK, wrappedDEK []byte, err error) {
	plaintextDEK = make([]byte, 32)
	if _, err := rand.Read(plaintextDEK); err != nil {
		return nil, nil, fmt.Errorf("failed to generate dek: %w", err)
	}

	wrappedDEK, err = c.keeper.Encrypt(ctx, plaintextDEK)
	if err != nil {
		return nil, nil, cryptoDomain.ErrKMSOperationFailed
	}
	return plaintextDEK, wrappedDEK, nil
}

// Decrypt unwraps a data key via the Keeper.
func (c *GCloudKMSClient) Decrypt(ctx context.Context, kmsKeyRef string, wrappedDEK []byte) ([]byte, error) {
	plaintextDEK, err := c.keeper.Decrypt(ctx, wrappedDEK)
	if err != nil {
		return nil, cryptoDomain.ErrKMSOperationFailed
	}
	return plaintextDEK, nil
}
