package service

import (
	"context"
	"database/sql"
	"regexp"
	"strconv"
	"time"

	connectionsService "github.com/allisson/secrets/internal/connections/service"
	cryptoDomain "github.com/allisson/secrets/internal/crypto/domain"
	cryptoService "github.com/allisson/secrets/internal/crypto/service"
	"github.com/allisson/secrets/internal/database"
	"github.com/allisson/secrets/internal/providers"
	secretsDomain "github.com/allisson/secrets/internal/secrets/domain"
)

// trailingDigitsRegex matches a run of decimal digits at the end of a
// version tag, used by the version-bump rule (§4.4.4).
var trailingDigitsRegex = regexp.MustCompile(`[0-9]+$`)

// bumpVersionTag derives the next version tag from the current one: if it
// ends in a decimal run, that run is incremented in place; otherwise "-1" is
// appended. A secret with no prior tag seeds at "v", so its first bump
// yields "v-1".
func bumpVersionTag(current string) string {
	loc := trailingDigitsRegex.FindStringIndex(current)
	if loc == nil {
		return current + "-1"
	}

	digits := current[loc[0]:loc[1]]
	n, err := strconv.Atoi(digits)
	if err != nil {
		return current + "-1"
	}

	next := strconv.Itoa(n + 1)
	return current[:loc[0]] + next
}

// secretService implements SecretService.
type secretService struct {
	db                *sql.DB
	txManager         database.TxManager
	store             SecretStore
	engine            cryptoService.CryptoEngine
	connectionService connectionsService.ConnectionService
	registry          *providers.Registry
	defaultProxiedTTL time.Duration
}

// NewSecretService builds a SecretService. defaultProxiedTTL is applied when
// a vault connection carries no explicit ttl_seconds (§4.4.4 step 3: "ttl ??
// 3600s" defaults to this value).
func NewSecretService(
	db *sql.DB,
	txManager database.TxManager,
	store SecretStore,
	engine cryptoService.CryptoEngine,
	connectionService connectionsService.ConnectionService,
	registry *providers.Registry,
	defaultProxiedTTL time.Duration,
) SecretService {
	return &secretService{
		db:                db,
		txManager:         txManager,
		store:             store,
		engine:            engine,
		connectionService: connectionService,
		registry:          registry,
		defaultProxiedTTL: defaultProxiedTTL,
	}
}

// CreateSecret implements §4.4.1.
func (s *secretService) CreateSecret(ctx context.Context, input CreateSecretInput) (*VersionResult, error) {
	hasConnection := input.VaultConnectionPublicID != nil
	hasValue := len(input.Value) > 0
	if hasConnection == hasValue {
		return nil, secretsDomain.ErrAmbiguousSecretSource
	}

	versionTag := input.VersionTag
	if versionTag == "" {
		versionTag = "v"
	}

	var result VersionResult
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		q := database.GetTx(ctx, s.db)

		value := input.Value
		var vaultConnectionID *int64

		if hasConnection {
			pc, err := s.connectionService.Read(ctx, *input.VaultConnectionPublicID)
			if err != nil {
				return err
			}
			defer cryptoDomain.Zero(pc.Config)

			upstream, err := s.fetchUpstream(ctx, pc, input.Name)
			if err != nil {
				return err
			}
			value = upstream.Value
			vaultConnectionID = &pc.Connection.ID
		}

		dekID, ciphertextHex, err := s.engine.Encrypt(ctx, q, value)
		if err != nil {
			return err
		}

		secret := &secretsDomain.Secret{
			Name:              input.Name,
			VaultConnectionID: vaultConnectionID,
			CurrentVersionTag: &versionTag,
		}
		if err := s.store.CreateSecret(ctx, q, secret); err != nil {
			return err
		}

		sha := cryptoDomain.Sha256Hex(value)
		version := &secretsDomain.SecretVersion{
			SecretID:     secret.ID,
			VersionTag:   versionTag,
			Sha256:       &sha,
			EncryptedKey: ciphertextHex,
			DekID:        dekID,
		}
		if err := s.store.CreateVersion(ctx, q, version); err != nil {
			return err
		}

		result = VersionResult{Name: input.Name, VersionTag: versionTag, Value: value}
		return nil
	})
	cryptoDomain.Zero(input.Value)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateSecretVersion implements §4.4.2. Local secrets only.
func (s *secretService) CreateSecretVersion(ctx context.Context, name string, versionTag string, value []byte) (*VersionResult, error) {
	var result VersionResult
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		q := database.GetTx(ctx, s.db)

		secret, err := s.store.GetByNameForUpdate(ctx, q, name)
		if err != nil {
			return err
		}
		if secret.IsProxied() {
			return secretsDomain.ErrProxiedSecretNotWritable
		}

		dekID, ciphertextHex, err := s.engine.Encrypt(ctx, q, value)
		if err != nil {
			return err
		}

		sha := cryptoDomain.Sha256Hex(value)
		version := &secretsDomain.SecretVersion{
			SecretID:     secret.ID,
			VersionTag:   versionTag,
			Sha256:       &sha,
			EncryptedKey: ciphertextHex,
			DekID:        dekID,
		}
		if err := s.store.CreateVersion(ctx, q, version); err != nil {
			return err
		}

		previous := secret.CurrentVersionTag
		current := versionTag
		if err := s.store.SetVersions(ctx, q, secret.ID, &current, previous); err != nil {
			return err
		}

		result = VersionResult{Name: name, VersionTag: versionTag, Value: value}
		return nil
	})
	cryptoDomain.Zero(value)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCurrentVersion implements §4.4.3, the refresh-triggering read.
func (s *secretService) GetCurrentVersion(ctx context.Context, name string) (*VersionResult, error) {
	q := database.GetTx(ctx, s.db)

	secret, err := s.store.GetByName(ctx, q, name)
	if err != nil {
		return nil, err
	}

	if secret.IsProxied() {
		shouldRefresh := secret.ExpireAt == nil || time.Now().After(*secret.ExpireAt)
		if shouldRefresh {
			return s.refresh(ctx, secret)
		}
	}

	if secret.CurrentVersionTag == nil {
		return nil, secretsDomain.ErrVersionNotFound
	}

	version, err := s.store.VersionByTag(ctx, q, secret.ID, *secret.CurrentVersionTag)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.engine.Decrypt(ctx, q, version.DekID, version.EncryptedKey)
	if err != nil {
		return nil, err
	}

	return &VersionResult{Name: name, VersionTag: version.VersionTag, Value: plaintext}, nil
}

// refresh implements §4.4.4.
func (s *secretService) refresh(ctx context.Context, secret *secretsDomain.Secret) (*VersionResult, error) {
	pc, err := s.connectionService.ResolveByID(ctx, *secret.VaultConnectionID)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(pc.Config)

	upstream, err := s.fetchUpstream(ctx, pc, secret.Name)
	if err != nil {
		return nil, err
	}

	ttl := s.defaultProxiedTTL
	if pc.Connection.TTLSeconds != nil {
		ttl = time.Duration(*pc.Connection.TTLSeconds) * time.Second
	}
	expireAt := time.Now().Add(ttl)
	newSha := cryptoDomain.Sha256Hex(upstream.Value)

	var result VersionResult
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		q := database.GetTx(ctx, s.db)

		if secret.CurrentVersionTag != nil {
			currentVersion, err := s.store.VersionByTag(ctx, q, secret.ID, *secret.CurrentVersionTag)
			if err != nil {
				return err
			}

			if currentVersion.Sha256 != nil && *currentVersion.Sha256 == newSha {
				if err := s.store.TouchVersionExpiry(ctx, q, currentVersion.ID, expireAt); err != nil {
					return err
				}
				if err := s.store.TouchSecretExpiry(ctx, q, secret.ID, expireAt); err != nil {
					return err
				}
				result = VersionResult{Name: secret.Name, VersionTag: currentVersion.VersionTag, Value: upstream.Value}
				return nil
			}
		}

		seedTag := "v"
		if secret.CurrentVersionTag != nil {
			seedTag = *secret.CurrentVersionTag
		}
		newTag := bumpVersionTag(seedTag)

		dekID, ciphertextHex, err := s.engine.Encrypt(ctx, q, upstream.Value)
		if err != nil {
			return err
		}

		newVersion := &secretsDomain.SecretVersion{
			SecretID:     secret.ID,
			VersionTag:   newTag,
			Sha256:       &newSha,
			EncryptedKey: ciphertextHex,
			DekID:        dekID,
			ExpireAt:     &expireAt,
		}
		if err := s.store.CreateVersion(ctx, q, newVersion); err != nil {
			return err
		}

		previous := secret.CurrentVersionTag
		if err := s.store.SetVersionsWithExpiry(ctx, q, secret.ID, &newTag, previous, expireAt); err != nil {
			return err
		}

		result = VersionResult{Name: secret.Name, VersionTag: newTag, Value: upstream.Value}
		return nil
	})
	if err != nil {
		cryptoDomain.Zero(upstream.Value)
		return nil, err
	}
	return &result, nil
}

// GetVersion implements §4.4.5. No refresh is triggered.
func (s *secretService) GetVersion(ctx context.Context, name string, tag string) (*VersionResult, error) {
	q := database.GetTx(ctx, s.db)

	secret, err := s.store.GetByName(ctx, q, name)
	if err != nil {
		return nil, err
	}

	version, err := s.store.VersionByTag(ctx, q, secret.ID, tag)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.engine.Decrypt(ctx, q, version.DekID, version.EncryptedKey)
	if err != nil {
		return nil, err
	}

	return &VersionResult{Name: name, VersionTag: version.VersionTag, Value: plaintext}, nil
}

// fetchUpstream resolves the provider factory for pc's integration type,
// builds a client bound to its decrypted config, and fetches name.
func (s *secretService) fetchUpstream(ctx context.Context, pc *connectionsService.PlaintextConnection, name string) (*providers.Secret, error) {
	factory, err := s.registry.Factory(pc.Connection.IntegrationType)
	if err != nil {
		return nil, err
	}

	provider, err := factory.NewProvider(string(pc.Config))
	if err != nil {
		return nil, err
	}

	return provider.GetSecret(ctx, name)
}
