package app

import (
	"fmt"

	configstoreHTTP "github.com/allisson/controlplane/internal/configstore/http"
	configRepository "github.com/allisson/controlplane/internal/configstore/repository"
	configUsecase "github.com/allisson/controlplane/internal/configstore/usecase"
)

// ConfigRepository returns the config entry repository based on database driver.
func (c *Container) ConfigRepository() (configUsecase.ConfigRepository, error) {
	var err error
	c.configRepositoryInit.Do(func() {
		c.configRepository, err = c.initConfigRepository()
		if err != nil {
			c.initErrors["configRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["configRepository"]; exists {
		return nil, storedErr
	}
	return c.configRepository, nil
}

// ConfigUseCase returns the versioned configuration use case.
func (c *Container) ConfigUseCase() (configUsecase.ConfigUseCase, error) {
	var err error
	c.configUseCaseInit.Do(func() {
		c.configUseCase, err = c.initConfigUseCase()
		if err != nil {
			c.initErrors["configUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["configUseCase"]; exists {
		return nil, storedErr
	}
	return c.configUseCase, nil
}

// ConfigHandler returns the HTTP handler for configuration operations.
func (c *Container) ConfigHandler() (*configstoreHTTP.ConfigHandler, error) {
	var err error
	c.configHandlerInit.Do(func() {
		c.configHandler, err = c.initConfigHandler()
		if err != nil {
			c.initErrors["configHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["configHandler"]; exists {
		return nil, storedErr
	}
	return c.configHandler, nil
}

// initConfigRepository creates the config repository based on the database driver.
func (c *Container) initConfigRepository() (configUsecase.ConfigRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for config repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return configRepository.NewPostgreSQLConfigRepository(db), nil
	case "mysql":
		return configRepository.NewMySQLConfigRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initConfigUseCase creates the config use case with all its dependencies.
func (c *Container) initConfigUseCase() (configUsecase.ConfigUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for config use case: %w", err)
	}

	configRepo, err := c.ConfigRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get config repository for config use case: %w", err)
	}

	publisher, err := c.OutboxPublisher()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox publisher for config use case: %w", err)
	}

	baseUseCase := configUsecase.NewConfigUseCase(txManager, configRepo, publisher, c.Logger())

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for config use case: %w", err)
		}
		return configUsecase.NewConfigUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initConfigHandler creates the config HTTP handler.
func (c *Container) initConfigHandler() (*configstoreHTTP.ConfigHandler, error) {
	configUseCase, err := c.ConfigUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get config use case for config handler: %w", err)
	}

	return configstoreHTTP.NewConfigHandler(configUseCase, c.Logger()), nil
}
