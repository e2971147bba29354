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

	"github.com/redis/go-redis/v9"

	accessHTTP "github.com/allisson/controlplane/internal/accesscontrol/http"
	accessService "github.com/allisson/controlplane/internal/accesscontrol/service"
	accessUsecase "github.com/allisson/controlplane/internal/accesscontrol/usecase"
	"github.com/allisson/controlplane/internal/config"
	configstoreHTTP "github.com/allisson/controlplane/internal/configstore/http"
	configUsecase "github.com/allisson/controlplane/internal/configstore/usecase"
	cryptoService "github.com/allisson/controlplane/internal/crypto/service"
	"github.com/allisson/controlplane/internal/database"
	"github.com/allisson/controlplane/internal/http"
	"github.com/allisson/controlplane/internal/metrics"
	policyHTTP "github.com/allisson/controlplane/internal/policy/http"
	policyUsecase "github.com/allisson/controlplane/internal/policy/usecase"
	propagatorHTTP "github.com/allisson/controlplane/internal/propagator/http"
	propagatorUsecase "github.com/allisson/controlplane/internal/propagator/usecase"
	ratelimitHTTP "github.com/allisson/controlplane/internal/ratelimit/http"
	ratelimitStore "github.com/allisson/controlplane/internal/ratelimit/store"
	ratelimitUsecase "github.com/allisson/controlplane/internal/ratelimit/usecase"
	vaultHTTP "github.com/allisson/controlplane/internal/vault/http"
	vaultUsecase "github.com/allisson/controlplane/internal/vault/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger      *slog.Logger
	db          *sql.DB
	redisClient *redis.Client

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Crypto
	aeadManager   cryptoService.AEADManager
	keyProvider   cryptoService.KeyProvider
	dekManager    cryptoService.DekManager
	dekRepository vaultUsecase.DekRepository

	// Access control
	clientRepository accessUsecase.ClientRepository
	tokenRepository  accessUsecase.TokenRepository
	secretService    accessService.SecretService
	tokenService     accessService.TokenService
	clientUseCase    accessUsecase.ClientUseCase
	tokenUseCase     accessUsecase.TokenUseCase
	tokenHandler     *accessHTTP.TokenHandler

	// Config store
	configRepository configUsecase.ConfigRepository
	configUseCase    configUsecase.ConfigUseCase
	configHandler    *configstoreHTTP.ConfigHandler

	// Vault
	secretRepository         vaultUsecase.SecretRepository
	accessLogRepository      vaultUsecase.AccessLogRepository
	rotationPolicyRepository vaultUsecase.RotationPolicyRepository
	leaseRepository          vaultUsecase.LeaseRepository
	vaultUseCase             vaultUsecase.VaultUseCase
	scheduler                *vaultUsecase.Scheduler
	secretHandler            *vaultHTTP.SecretHandler

	// Rate limiting
	counterStore   ratelimitStore.CounterStore
	ruleRepository ratelimitUsecase.RuleRepository
	ruleCache      *ratelimitUsecase.RuleCache
	limiterUseCase ratelimitUsecase.LimiterUseCase
	ruleUseCase    ratelimitUsecase.RuleUseCase
	checkHandler   *ratelimitHTTP.CheckHandler
	ruleHandler    *ratelimitHTTP.RuleHandler

	// Policy
	policyRepository policyUsecase.PolicyRepository
	policyUseCase    policyUsecase.PolicyUseCase
	policyHandler    *policyHTTP.PolicyHandler

	// Change propagation
	outboxRepository propagatorUsecase.OutboxRepository
	outboxPublisher  *propagatorUsecase.OutboxPublisher
	broker           *propagatorUsecase.Broker
	dispatcher       *propagatorUsecase.Dispatcher
	subscribeHandler *propagatorHTTP.SubscribeHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                           sync.Mutex
	loggerInit                   sync.Once
	dbInit                       sync.Once
	txManagerInit                sync.Once
	metricsProviderInit          sync.Once
	businessMetricsInit          sync.Once
	aeadManagerInit              sync.Once
	keyProviderInit              sync.Once
	dekManagerInit               sync.Once
	dekRepositoryInit            sync.Once
	clientRepositoryInit         sync.Once
	tokenRepositoryInit          sync.Once
	secretServiceInit            sync.Once
	tokenServiceInit             sync.Once
	clientUseCaseInit            sync.Once
	tokenUseCaseInit             sync.Once
	tokenHandlerInit             sync.Once
	configRepositoryInit         sync.Once
	configUseCaseInit            sync.Once
	configHandlerInit            sync.Once
	secretRepositoryInit         sync.Once
	accessLogRepositoryInit      sync.Once
	rotationPolicyRepositoryInit sync.Once
	leaseRepositoryInit          sync.Once
	vaultUseCaseInit             sync.Once
	schedulerInit                sync.Once
	secretHandlerInit            sync.Once
	counterStoreInit             sync.Once
	ruleRepositoryInit           sync.Once
	ruleCacheInit                sync.Once
	limiterUseCaseInit           sync.Once
	ruleUseCaseInit              sync.Once
	checkHandlerInit             sync.Once
	ruleHandlerInit              sync.Once
	policyRepositoryInit         sync.Once
	policyUseCaseInit            sync.Once
	policyHandlerInit            sync.Once
	outboxRepositoryInit         sync.Once
	outboxPublisherInit          sync.Once
	brokerInit                   sync.Once
	dispatcherInit               sync.Once
	subscribeHandlerInit         sync.Once
	httpServerInit               sync.Once
	metricsServerInit            sync.Once
	initErrors                   map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
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

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the API server instance with all routes registered.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
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

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
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

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initHTTPServer creates the API server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	tokenHandler, err := c.TokenHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get token handler for http server: %w", err)
	}

	configHandler, err := c.ConfigHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get config handler for http server: %w", err)
	}

	secretHandler, err := c.SecretHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret handler for http server: %w", err)
	}

	checkHandler, err := c.CheckHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get check handler for http server: %w", err)
	}

	ruleHandler, err := c.RuleHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get rule handler for http server: %w", err)
	}

	policyHandler, err := c.PolicyHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy handler for http server: %w", err)
	}

	subscribeHandler, err := c.SubscribeHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscribe handler for http server: %w", err)
	}

	handlers := http.Handlers{
		Token:     tokenHandler,
		Config:    configHandler,
		Secret:    secretHandler,
		Check:     checkHandler,
		Rule:      ruleHandler,
		Policy:    policyHandler,
		Subscribe: subscribeHandler,
	}

	var middleware http.Middleware

	if c.config.AuthEnabled {
		tokenUseCase, err := c.TokenUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get token use case for http server: %w", err)
		}
		middleware.Authentication = accessHTTP.AuthenticationMiddleware(
			tokenUseCase,
			c.TokenService(),
			logger,
		)
	}

	if c.config.RateLimitAPIRule != "" {
		limiterUseCase, err := c.LimiterUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get limiter use case for http server: %w", err)
		}
		middleware.RateLimit = ratelimitHTTP.RateLimitMiddleware(
			limiterUseCase,
			c.config.RateLimitAPIRule,
			logger,
		)
	}

	if c.config.MetricsEnabled {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
		middleware.Metrics = metrics.HTTPMetricsMiddleware(
			provider.MeterProvider(),
			c.config.MetricsNamespace,
		)
	}

	return http.NewServer(db, c.config, handlers, middleware, logger), nil
}

// initMetricsServer creates the metrics server with its provider.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(
		c.config.ServerHost,
		c.config.MetricsPort,
		c.Logger(),
		provider,
	), nil
}
