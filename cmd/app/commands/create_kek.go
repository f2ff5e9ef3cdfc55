package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/allisson/secrets/internal/app"
	"github.com/allisson/secrets/internal/config"
	cryptoDomain "github.com/allisson/secrets/internal/crypto/domain"
)

// kekCreator is the subset of the KEK repository this command depends on.
type kekCreator interface {
	Create(ctx context.Context, kek *cryptoDomain.Kek) error
}

// RunCreateKek provisions a new Key Encryption Key record referencing an
// external KMS key. KEKs are never generated or rotated by the service
// itself — this command registers a key an operator has already created in
// AWS KMS or Google Cloud KMS so CryptoEngine can select it when minting
// DEKs.
func RunCreateKek(ctx context.Context, kmsKeyRef string) error {
	if kmsKeyRef == "" {
		return fmt.Errorf("kms-key-ref is required")
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	kekRepository, err := container.KekRepository()
	if err != nil {
		return fmt.Errorf("failed to initialize kek repository: %w", err)
	}

	return runCreateKek(ctx, kekRepository, logger, kmsKeyRef)
}

func runCreateKek(ctx context.Context, repo kekCreator, logger *slog.Logger, kmsKeyRef string) error {
	kek := &cryptoDomain.Kek{
		KMSKeyRef: kmsKeyRef,
		CreatedAt: time.Now(),
	}

	if err := repo.Create(ctx, kek); err != nil {
		return fmt.Errorf("failed to create kek: %w", err)
	}

	logger.Info("kek created successfully",
		slog.Int64("kek_id", kek.ID),
		slog.String("kms_key_ref", kek.KMSKeyRef),
	)

	return nil
}
