package app

import (
	"fmt"

	secretsHTTP "github.com/allisson/secrets/internal/secrets/http"
	secretsRepository "github.com/allisson/secrets/internal/secrets/repository"
	secretsService "github.com/allisson/secrets/internal/secrets/service"
)

// SecretRepository returns the secret/secret-version repository.
func (c *Container) SecretRepository() (*secretsRepository.PostgreSQLSecretRepository, error) {
	return memoize(c, "secretRepository", &c.secretRepositoryInit, &c.secretRepository, c.initSecretRepository)
}

// SecretService returns the secret service implementing the proxied-refresh
// state machine.
func (c *Container) SecretService() (secretsService.SecretService, error) {
	return memoize(c, "secretService", &c.secretServiceInit, &c.secretService, c.initSecretService)
}

// SecretHandler returns the HTTP handler for secret management operations.
func (c *Container) SecretHandler() (*secretsHTTP.SecretHandler, error) {
	return memoize(c, "secretHandler", &c.secretHandlerInit, &c.secretHandler, c.initSecretHandler)
}

// initSecretRepository creates the secret/secret-version repository.
func (c *Container) initSecretRepository() (*secretsRepository.PostgreSQLSecretRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for secret repository: %w", err)
	}
	return secretsRepository.NewPostgreSQLSecretRepository(db), nil
}

// initSecretService wires the secret repository, crypto engine, connection
// service, and provider registry into the SecretService.
func (c *Container) initSecretService() (secretsService.SecretService, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for secret service: %w", err)
	}
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for secret service: %w", err)
	}
	secretRepository, err := c.SecretRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret repository for secret service: %w", err)
	}
	engine, err := c.CryptoEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to get crypto engine for secret service: %w", err)
	}
	connectionService, err := c.ConnectionService()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection service for secret service: %w", err)
	}

	return secretsService.NewSecretService(
		db,
		txManager,
		secretRepository,
		engine,
		connectionService,
		c.ProviderRegistry(),
		c.config.DefaultProxiedTTL,
	), nil
}

// initSecretHandler creates the secret HTTP handler.
func (c *Container) initSecretHandler() (*secretsHTTP.SecretHandler, error) {
	secretService, err := c.SecretService()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret service for secret handler: %w", err)
	}
	return secretsHTTP.NewSecretHandler(secretService, c.Logger()), nil
}
