package service

import (
	"context"
	"database/sql"
	"unicode/utf8"

	connectionsDomain "github.com/allisson/secrets/internal/connections/domain"
	cryptoDomain "github.com/allisson/secrets/internal/crypto/domain"
	cryptoService "github.com/allisson/secrets/internal/crypto/service"
	"github.com/allisson/secrets/internal/database"
	"github.com/allisson/secrets/internal/errors"
	"github.com/allisson/secrets/internal/providers"
)

// connectionService implements ConnectionService.
type connectionService struct {
	db        *sql.DB
	txManager database.TxManager
	store     ConnectionStore
	registry  *providers.Registry
	engine    cryptoService.CryptoEngine
}

// NewConnectionService builds a ConnectionService backed by store for
// persistence, registry to validate/build upstream providers per integration
// type, and engine for envelope-encrypting connection config at rest.
func NewConnectionService(
	db *sql.DB,
	txManager database.TxManager,
	store ConnectionStore,
	registry *providers.Registry,
	engine cryptoService.CryptoEngine,
) ConnectionService {
	return &connectionService{
		db:        db,
		txManager: txManager,
		store:     store,
		registry:  registry,
		engine:    engine,
	}
}

// Create validates input.Config against the named integration's factory,
// encrypts it, and persists a new connection row, all within one transaction.
func (s *connectionService) Create(ctx context.Context, input CreateInput) (*connectionsDomain.VaultConnection, error) {
	factory, err := s.registry.Factory(input.IntegrationType)
	if err != nil {
		return nil, err
	}
	if err := factory.Validate(string(input.Config)); err != nil {
		return nil, err
	}

	conn := &connectionsDomain.VaultConnection{
		PublicID:        input.PublicID,
		IntegrationType: input.IntegrationType,
		TTLSeconds:      input.TTLSeconds,
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		q := database.GetTx(ctx, s.db)

		dekID, ciphertextHex, err := s.engine.Encrypt(ctx, q, input.Config)
		if err != nil {
			return err
		}

		conn.Sha256 = cryptoDomain.Sha256Hex(input.Config)
		conn.EncryptedConfig = ciphertextHex
		conn.DekID = dekID

		return s.store.Create(ctx, q, conn)
	})
	cryptoDomain.Zero(input.Config)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// Update applies the both-or-neither config/integration_type rule: either
// both are present and re-validated/re-encrypted together, or neither is and
// the existing encrypted config is left untouched. TTLSeconds is always
// written verbatim when input.TTLSet, including clearing it to nil.
func (s *connectionService) Update(ctx context.Context, publicID string, input UpdateInput) (*connectionsDomain.VaultConnection, error) {
	hasIntegrationType := input.IntegrationType != nil
	hasConfig := len(input.Config) > 0
	if hasIntegrationType != hasConfig {
		return nil, errors.Wrap(errors.ErrInvalidInput, "integration_type and config must be present together")
	}

	var integrationType *string
	var sha256Hex *string
	var encryptedConfig *string
	var dekID *int64

	if hasIntegrationType {
		factory, err := s.registry.Factory(*input.IntegrationType)
		if err != nil {
			return nil, err
		}
		if err := factory.Validate(string(input.Config)); err != nil {
			return nil, err
		}
	}

	var ttlSeconds *int
	if input.TTLSet {
		ttlSeconds = input.TTLSeconds
	}

	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		q := database.GetTx(ctx, s.db)

		existing, err := s.store.ByPublicID(ctx, q, publicID)
		if err != nil {
			return err
		}

		if !input.TTLSet {
			ttlSeconds = existing.TTLSeconds
		}

		if hasIntegrationType {
			id, ciphertextHex, err := s.engine.Encrypt(ctx, q, input.Config)
			if err != nil {
				return err
			}
			hash := cryptoDomain.Sha256Hex(input.Config)
			integrationType = input.IntegrationType
			sha256Hex = &hash
			encryptedConfig = &ciphertextHex
			dekID = &id
		}

		return s.store.Update(ctx, q, publicID, integrationType, sha256Hex, encryptedConfig, dekID, ttlSeconds)
	})
	cryptoDomain.Zero(input.Config)
	if err != nil {
		return nil, err
	}

	return s.store.ByPublicID(ctx, database.GetTx(ctx, s.db), publicID)
}

// Read loads a connection and decrypts its config.
func (s *connectionService) Read(ctx context.Context, publicID string) (*PlaintextConnection, error) {
	q := database.GetTx(ctx, s.db)

	conn, err := s.store.ByPublicID(ctx, q, publicID)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.engine.Decrypt(ctx, q, conn.DekID, conn.EncryptedConfig)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(plaintext) {
		cryptoDomain.Zero(plaintext)
		return nil, errors.Wrap(errors.ErrCryptoError, "decrypted connection config is not valid utf-8")
	}

	return &PlaintextConnection{Connection: conn, Config: plaintext}, nil
}

// ResolveByID is Read keyed by internal id, used by the secrets service to
// follow a proxied secret's vault_connection_id without knowing its public id.
func (s *connectionService) ResolveByID(ctx context.Context, id int64) (*PlaintextConnection, error) {
	q := database.GetTx(ctx, s.db)

	conn, err := s.store.ByID(ctx, q, id)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.engine.Decrypt(ctx, q, conn.DekID, conn.EncryptedConfig)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(plaintext) {
		cryptoDomain.Zero(plaintext)
		return nil, errors.Wrap(errors.ErrCryptoError, "decrypted connection config is not valid utf-8")
	}

	return &PlaintextConnection{Connection: conn, Config: plaintext}, nil
}

// Delete removes a connection by public id and reports whether one existed.
func (s *connectionService) Delete(ctx context.Context, publicID string) (bool, error) {
	q := database.GetTx(ctx, s.db)

	affected, err := s.store.DeleteByPublicID(ctx, q, publicID)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
