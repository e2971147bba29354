package app

import (
	"fmt"

	cryptoDomain "github.com/allisson/controlplane/internal/crypto/domain"
	vaultHTTP "github.com/allisson/controlplane/internal/vault/http"
	vaultRepository "github.com/allisson/controlplane/internal/vault/repository"
	vaultUsecase "github.com/allisson/controlplane/internal/vault/usecase"
)

// SecretRepository returns the secret repository based on database driver.
func (c *Container) SecretRepository() (vaultUsecase.SecretRepository, error) {
	var err error
	c.secretRepositoryInit.Do(func() {
		c.secretRepository, err = c.initSecretRepository()
		if err != nil {
			c.initErrors["secretRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secretRepository"]; exists {
		return nil, storedErr
	}
	return c.secretRepository, nil
}

// AccessLogRepository returns the secret access log repository based on database driver.
func (c *Container) AccessLogRepository() (vaultUsecase.AccessLogRepository, error) {
	var err error
	c.accessLogRepositoryInit.Do(func() {
		c.accessLogRepository, err = c.initAccessLogRepository()
		if err != nil {
			c.initErrors["accessLogRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessLogRepository"]; exists {
		return nil, storedErr
	}
	return c.accessLogRepository, nil
}

// RotationPolicyRepository returns the rotation policy repository based on database driver.
func (c *Container) RotationPolicyRepository() (vaultUsecase.RotationPolicyRepository, error) {
	var err error
	c.rotationPolicyRepositoryInit.Do(func() {
		c.rotationPolicyRepository, err = c.initRotationPolicyRepository()
		if err != nil {
			c.initErrors["rotationPolicyRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rotationPolicyRepository"]; exists {
		return nil, storedErr
	}
	return c.rotationPolicyRepository, nil
}

// LeaseRepository returns the scheduler lease repository based on database driver.
func (c *Container) LeaseRepository() (vaultUsecase.LeaseRepository, error) {
	var err error
	c.leaseRepositoryInit.Do(func() {
		c.leaseRepository, err = c.initLeaseRepository()
		if err != nil {
			c.initErrors["leaseRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["leaseRepository"]; exists {
		return nil, storedErr
	}
	return c.leaseRepository, nil
}

// VaultUseCase returns the managed secrets use case.
func (c *Container) VaultUseCase() (vaultUsecase.VaultUseCase, error) {
	var err error
	c.vaultUseCaseInit.Do(func() {
		c.vaultUseCase, err = c.initVaultUseCase()
		if err != nil {
			c.initErrors["vaultUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["vaultUseCase"]; exists {
		return nil, storedErr
	}
	return c.vaultUseCase, nil
}

// Scheduler returns the rotation and sweep scheduler.
func (c *Container) Scheduler() (*vaultUsecase.Scheduler, error) {
	var err error
	c.schedulerInit.Do(func() {
		c.scheduler, err = c.initScheduler()
		if err != nil {
			c.initErrors["scheduler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["scheduler"]; exists {
		return nil, storedErr
	}
	return c.scheduler, nil
}

// SecretHandler returns the HTTP handler for managed secret operations.
func (c *Container) SecretHandler() (*vaultHTTP.SecretHandler, error) {
	var err error
	c.secretHandlerInit.Do(func() {
		c.secretHandler, err = c.initSecretHandler()
		if err != nil {
			c.initErrors["secretHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secretHandler"]; exists {
		return nil, storedErr
	}
	return c.secretHandler, nil
}

// initSecretRepository creates the secret repository based on the database driver.
func (c *Container) initSecretRepository() (vaultUsecase.SecretRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for secret repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return vaultRepository.NewPostgreSQLSecretRepository(db), nil
	case "mysql":
		return vaultRepository.NewMySQLSecretRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAccessLogRepository creates the access log repository based on the database driver.
func (c *Container) initAccessLogRepository() (vaultUsecase.AccessLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for access log repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return vaultRepository.NewPostgreSQLAccessLogRepository(db), nil
	case "mysql":
		return vaultRepository.NewMySQLAccessLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRotationPolicyRepository creates the rotation policy repository based on the database driver.
func (c *Container) initRotationPolicyRepository() (vaultUsecase.RotationPolicyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for rotation policy repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return vaultRepository.NewPostgreSQLRotationPolicyRepository(db), nil
	case "mysql":
		return vaultRepository.NewMySQLRotationPolicyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initLeaseRepository creates the lease repository based on the database driver.
func (c *Container) initLeaseRepository() (vaultUsecase.LeaseRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for lease repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return vaultRepository.NewPostgreSQLLeaseRepository(db), nil
	case "mysql":
		return vaultRepository.NewMySQLLeaseRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initVaultUseCase creates the vault use case with all its dependencies.
func (c *Container) initVaultUseCase() (vaultUsecase.VaultUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for vault use case: %w", err)
	}

	secretRepo, err := c.SecretRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret repository for vault use case: %w", err)
	}

	dekRepo, err := c.DekRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get dek repository for vault use case: %w", err)
	}

	accessRepo, err := c.AccessLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get access log repository for vault use case: %w", err)
	}

	policyRepo, err := c.RotationPolicyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get rotation policy repository for vault use case: %w", err)
	}

	dekManager, err := c.DekManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get dek manager for vault use case: %w", err)
	}

	publisher, err := c.OutboxPublisher()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox publisher for vault use case: %w", err)
	}

	baseUseCase := vaultUsecase.NewVaultUseCase(
		c.config,
		txManager,
		secretRepo,
		dekRepo,
		accessRepo,
		policyRepo,
		c.AEADManager(),
		dekManager,
		publisher,
		cryptoDomain.AESGCM,
		c.Logger(),
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for vault use case: %w", err)
		}
		return vaultUsecase.NewVaultUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initScheduler creates the scheduler with its dependencies.
func (c *Container) initScheduler() (*vaultUsecase.Scheduler, error) {
	useCase, err := c.VaultUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault use case for scheduler: %w", err)
	}

	leaseRepo, err := c.LeaseRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get lease repository for scheduler: %w", err)
	}

	return vaultUsecase.NewScheduler(c.config, useCase, leaseRepo, c.Logger()), nil
}

// initSecretHandler creates the secret HTTP handler.
func (c *Container) initSecretHandler() (*vaultHTTP.SecretHandler, error) {
	useCase, err := c.VaultUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault use case for secret handler: %w", err)
	}

	return vaultHTTP.NewSecretHandler(useCase, c.Logger()), nil
}
