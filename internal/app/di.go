// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/secrets/internal/authgate"
	"github.com/allisson/secrets/internal/config"
	connectionsHTTP "github.com/allisson/secrets/internal/connections/http"
	connectionsRepository "github.com/allisson/secrets/internal/connections/repository"
	connectionsService "github.com/allisson/secrets/internal/connections/service"
	cryptoRepository "github.com/allisson/secrets/internal/crypto/repository"
	cryptoService "github.com/allisson/secrets/internal/crypto/service"
	"github.com/allisson/secrets/internal/database"
	"github.com/allisson/secrets/internal/http"
	"github.com/allisson/secrets/internal/metrics"
	"github.com/allisson/secrets/internal/providers"
	"github.com/allisson/secrets/internal/providers/vaultkv"
	secretsHTTP "github.com/allisson/secrets/internal/secrets/http"
	secretsRepository "github.com/allisson/secrets/internal/secrets/repository"
	secretsService "github.com/allisson/secrets/internal/secrets/service"
)

// Container holds all application dependencies and provides methods to
// access them. It follows the lazy initialization pattern — components are
// created on first access, each guarded by its own sync.Once.
type Container struct {
	config *config.Config

	logger *slog.Logger
	db     *sql.DB

	txManager        database.TxManager
	kmsClient        cryptoService.KMSClient
	kekRepository    *cryptoRepository.PostgreSQLKekRepository
	dekRepository    *cryptoRepository.PostgreSQLDekRepository
	aeadManager      cryptoService.AEADManager
	cryptoEngine     cryptoService.CryptoEngine
	providerRegistry *providers.Registry

	connectionRepository *connectionsRepository.PostgreSQLConnectionRepository
	connectionService    connectionsService.ConnectionService
	connectionHandler    *connectionsHTTP.ConnectionHandler

	secretRepository *secretsRepository.PostgreSQLSecretRepository
	secretService    secretsService.SecretService
	secretHandler    *secretsHTTP.SecretHandler

	metricsProvider *metrics.Provider

	httpServer        *http.Server
	metricsHTTPServer *http.MetricsServer

	mu                    sync.Mutex
	loggerInit            sync.Once
	dbInit                sync.Once
	txManagerInit         sync.Once
	kmsClientInit         sync.Once
	kekRepositoryInit     sync.Once
	dekRepositoryInit     sync.Once
	aeadManagerInit       sync.Once
	cryptoEngineInit      sync.Once
	providerRegistryInit  sync.Once
	connectionRepoInit    sync.Once
	connectionServiceInit sync.Once
	connectionHandlerInit sync.Once
	secretRepositoryInit  sync.Once
	secretServiceInit     sync.Once
	secretHandlerInit     sync.Once
	metricsProviderInit   sync.Once
	httpServerInit        sync.Once
	metricsHTTPServerInit sync.Once
	initErrors            map[string]error
}

// NewContainer creates a new dependency injection container with the
// provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance, created on first access
// from the configured log level.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection, created and pinged on first access.
func (c *Container) DB() (*sql.DB, error) {
	return memoize(c, "db", &c.dbInit, &c.db, c.initDB)
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	return memoize(c, "txManager", &c.txManagerInit, &c.txManager, c.initTxManager)
}

// KMSClient returns the KMS client selected by config.KMSProvider.
func (c *Container) KMSClient() (cryptoService.KMSClient, error) {
	return memoize(c, "kmsClient", &c.kmsClientInit, &c.kmsClient, c.initKMSClient)
}

// KekRepository returns the KEK repository.
func (c *Container) KekRepository() (*cryptoRepository.PostgreSQLKekRepository, error) {
	return memoize(c, "kekRepository", &c.kekRepositoryInit, &c.kekRepository, c.initKekRepository)
}

// DekRepository returns the DEK repository.
func (c *Container) DekRepository() (*cryptoRepository.PostgreSQLDekRepository, error) {
	return memoize(c, "dekRepository", &c.dekRepositoryInit, &c.dekRepository, c.initDekRepository)
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// CryptoEngine returns the envelope-encryption engine composing the KMS
// client, KEK/DEK repositories and the AEAD manager.
func (c *Container) CryptoEngine() (cryptoService.CryptoEngine, error) {
	return memoize(c, "cryptoEngine", &c.cryptoEngineInit, &c.cryptoEngine, c.initCryptoEngine)
}

// ProviderRegistry returns the static registry of upstream provider
// factories, one per integration type.
func (c *Container) ProviderRegistry() *providers.Registry {
	c.providerRegistryInit.Do(func() {
		c.providerRegistry = c.initProviderRegistry()
	})
	return c.providerRegistry
}

// ConnectionRepository returns the vault connection repository.
func (c *Container) ConnectionRepository() (*connectionsRepository.PostgreSQLConnectionRepository, error) {
	return memoize(c, "connectionRepository", &c.connectionRepoInit, &c.connectionRepository, c.initConnectionRepository)
}

// ConnectionService returns the vault connection service.
func (c *Container) ConnectionService() (connectionsService.ConnectionService, error) {
	return memoize(c, "connectionService", &c.connectionServiceInit, &c.connectionService, c.initConnectionService)
}

// ConnectionHandler returns the vault connection HTTP handler.
func (c *Container) ConnectionHandler() (*connectionsHTTP.ConnectionHandler, error) {
	return memoize(c, "connectionHandler", &c.connectionHandlerInit, &c.connectionHandler, c.initConnectionHandler)
}

// MetricsProvider returns the OpenTelemetry/Prometheus metrics provider, or
// nil if metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	return memoize(c, "metricsProvider", &c.metricsProviderInit, &c.metricsProvider, c.initMetricsProvider)
}

// HTTPServer returns the main HTTP server, fully wired with the AuthGate
// middleware and every §6 route.
func (c *Container) HTTPServer() (*http.Server, error) {
	return memoize(c, "httpServer", &c.httpServerInit, &c.httpServer, c.initHTTPServer)
}

// MetricsHTTPServer returns the separate metrics-only HTTP server.
func (c *Container) MetricsHTTPServer() (*http.MetricsServer, error) {
	return memoize(c, "metricsHTTPServer", &c.metricsHTTPServerInit, &c.metricsHTTPServer, c.initMetricsHTTPServer)
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if c.metricsHTTPServer != nil {
		if err := c.metricsHTTPServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics http server shutdown: %w", err))
		}
	}
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}
	return nil
}

// memoize runs init exactly once for a (*Container, key) pair, stashing any
// error in c.initErrors so repeated calls keep returning it instead of
// silently retrying — the same lazy-init-with-sticky-error shape used
// throughout this container.
func memoize[T any](c *Container, key string, once *sync.Once, slot *T, init func() (T, error)) (T, error) {
	var err error
	once.Do(func() {
		*slot, err = init()
		if err != nil {
			c.initErrors[key] = err
		}
	})
	if err != nil {
		return *slot, err
	}
	if storedErr, ok := c.initErrors[key]; ok {
		return *slot, storedErr
	}
	return *slot, nil
}

// initLogger creates a structured JSON logger at the configured level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}

// initDB opens and pings the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initKMSClient selects and constructs the KMSClient implementation named
// by config.KMSProvider: "awskms" talks to a real (or localstack-emulated)
// AWS KMS; "gcloudkms" opens a gocloud.dev/secrets.Keeper for local
// development.
func (c *Container) initKMSClient() (cryptoService.KMSClient, error) {
	switch c.config.KMSProvider {
	case "awskms":
		return cryptoService.NewAWSKMSClient(context.Background(), c.config.AWSRegion, c.config.AWSKMSEndpoint)
	case "gcloudkms":
		return cryptoService.NewGCloudKMSClient(context.Background(), c.config.GCloudKMSKeyURI)
	default:
		return nil, fmt.Errorf("unsupported kms provider: %s (use awskms or gcloudkms)", c.config.KMSProvider)
	}
}

// initKekRepository creates the KEK repository.
func (c *Container) initKekRepository() (*cryptoRepository.PostgreSQLKekRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for kek repository: %w", err)
	}
	return cryptoRepository.NewPostgreSQLKekRepository(db), nil
}

// initDekRepository creates the DEK repository.
func (c *Container) initDekRepository() (*cryptoRepository.PostgreSQLDekRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for dek repository: %w", err)
	}
	return cryptoRepository.NewPostgreSQLDekRepository(db), nil
}

// initCryptoEngine wires the KMS client, KEK/DEK repositories, and AEAD
// manager into the CryptoEngine every encrypted-at-rest store depends on.
func (c *Container) initCryptoEngine() (cryptoService.CryptoEngine, error) {
	kmsClient, err := c.KMSClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get kms client for crypto engine: %w", err)
	}
	kekRepository, err := c.KekRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get kek repository for crypto engine: %w", err)
	}
	dekRepository, err := c.DekRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get dek repository for crypto engine: %w", err)
	}
	aeadManager := c.AEADManager()

	return cryptoService.NewCryptoEngine(kmsClient, kekRepository, dekRepository, aeadManager), nil
}

// initProviderRegistry registers every supported upstream integration type.
// vaultkv is the one concrete integration shipped today; new integrations
// register here and nowhere else.
func (c *Container) initProviderRegistry() *providers.Registry {
	registry := providers.NewRegistry()
	registry.Register("vaultkv", vaultkv.NewFactory())
	return registry
}

// initConnectionRepository creates the vault connection repository.
func (c *Container) initConnectionRepository() (*connectionsRepository.PostgreSQLConnectionRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for connection repository: %w", err)
	}
	return connectionsRepository.NewPostgreSQLConnectionRepository(db), nil
}

// initConnectionService wires the connection repository, provider registry,
// and crypto engine into the ConnectionService.
func (c *Container) initConnectionService() (connectionsService.ConnectionService, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for connection service: %w", err)
	}
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for connection service: %w", err)
	}
	connectionRepository, err := c.ConnectionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection repository for connection service: %w", err)
	}
	engine, err := c.CryptoEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to get crypto engine for connection service: %w", err)
	}

	return connectionsService.NewConnectionService(db, txManager, connectionRepository, c.ProviderRegistry(), engine), nil
}

// initConnectionHandler creates the vault connection HTTP handler.
func (c *Container) initConnectionHandler() (*connectionsHTTP.ConnectionHandler, error) {
	connectionService, err := c.ConnectionService()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection service for connection handler: %w", err)
	}
	return connectionsHTTP.NewConnectionHandler(connectionService, c.Logger()), nil
}

// initMetricsProvider creates the Prometheus-backed metrics provider.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	return metrics.NewProvider("secrets")
}

// initHTTPServer assembles the main HTTP server: router, AuthGate
// middleware, and both secrets/connections handlers.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	connectionHandler, err := c.ConnectionHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection handler for http server: %w", err)
	}

	secretHandler, err := c.SecretHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret handler for http server: %w", err)
	}

	verifyingKey, err := authgate.ParseVerifyingKey(c.config.AuthVerifyingKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse auth verifying key: %w", err)
	}
	authMiddleware := authgate.Middleware(verifyingKey, logger)

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(c.config, connectionHandler, secretHandler, authMiddleware, metricsProvider, "secrets")

	return server, nil
}

// initMetricsHTTPServer assembles the dedicated metrics server, when metrics
// are enabled.
func (c *Container) initMetricsHTTPServer() (*http.MetricsServer, error) {
	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics http server: %w", err)
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.ServerPort+1, c.Logger(), metricsProvider), nil
}
