package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"

	cryptoDomain "github.com/allisson/secrets/internal/crypto/domain"
)

// awsKMSAPI is the subset of the AWS KMS client this package depends on,
// narrowed for testability.
type awsKMSAPI interface {
	GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, optFns ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// AWSKMSClient implements KMSClient against AWS KMS directly: GenerateDataKey
// mints a 256-bit AES data key wrapped under the given KEK key id/ARN,
// Decrypt unwraps one. This is the production KMSClient.
type AWSKMSClient struct {
	client awsKMSAPI
}

// NewAWSKMSClient builds an AWSKMSClient from the standard AWS SDK
// credential chain. region selects the KMS endpoint's region; endpoint, if
// non-empty, overrides the resolved endpoint (for local KMS emulators such
// as localstack).
func NewAWSKMSClient(ctx context.Context, region, endpoint string) (*AWSKMSClient, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	var kmsOpts []func(*kms.Options)
	if endpoint != "" {
		kmsOpts = append(kmsOpts, func(o *kms.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &AWSKMSClient{client: kms.NewFromConfig(cfg, kmsOpts...)}, nil
}

// GenerateDataKey asks AWS KMS to mint a new 256-bit data key under kmsKeyRef.
func (c *AWSKMSClient) GenerateDataKey(ctx context.Context, kmsKeyRef string) (plaintextDEK, wrappedDEK []byte, err error) {
	out, err := c.client.GenerateDataKey(ctx, &kms.GenerateDataKeyInput{
		KeyId:   aws.String(kmsKeyRef),
		KeySpec: types.DataKeySpecAes256,
	})
	if err != nil {
		return nil, nil, cryptoDomain.ErrKMSOperationFailed
	}
	return out.Plaintext, out.CiphertextBlob, nil
}

// Decrypt unwraps a data key previously wrapped under kmsKeyRef.
func (c *AWSKMSClient) Decrypt(ctx context.Context, kmsKeyRef string, wrappedDEK []byte) ([]byte, error) {
	out, err := c.client.Decrypt(ctx, &kms.DecryptInput{
		KeyId:          aws.String(kmsKeyRef),
		CiphertextBlob: wrappedDEK,
	})
	if err != nil {
		return nil, cryptoDomain.ErrKMSOperationFailed
	}
	return out.Plaintext, nil
}
