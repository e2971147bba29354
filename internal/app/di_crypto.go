package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/controlplane/internal/crypto/domain"
	cryptoMySQL "github.com/allisson/controlplane/internal/crypto/repository/mysql"
	cryptoPostgreSQL "github.com/allisson/controlplane/internal/crypto/repository/postgresql"
	cryptoService "github.com/allisson/controlplane/internal/crypto/service"
	vaultUsecase "github.com/allisson/controlplane/internal/vault/usecase"
)

// AEADManager returns the AEAD cipher factory.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KeyProvider returns the key provider used to wrap and unwrap DEKs.
// A KMS-backed provider is used when KMS_KEY_URI is configured; otherwise
// static master keys are loaded from the environment.
func (c *Container) KeyProvider() (cryptoService.KeyProvider, error) {
	var err error
	c.keyProviderInit.Do(func() {
		c.keyProvider, err = c.initKeyProvider()
		if err != nil {
			c.initErrors["keyProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyProvider"]; exists {
		return nil, storedErr
	}
	return c.keyProvider, nil
}

// DekManager returns the DEK lifecycle manager.
func (c *Container) DekManager() (cryptoService.DekManager, error) {
	var err error
	c.dekManagerInit.Do(func() {
		c.dekManager, err = c.initDekManager()
		if err != nil {
			c.initErrors["dekManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["dekManager"]; exists {
		return nil, storedErr
	}
	return c.dekManager, nil
}

// DekRepository returns the DEK repository based on database driver.
func (c *Container) DekRepository() (vaultUsecase.DekRepository, error) {
	var err error
	c.dekRepositoryInit.Do(func() {
		c.dekRepository, err = c.initDekRepository()
		if err != nil {
			c.initErrors["dekRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["dekRepository"]; exists {
		return nil, storedErr
	}
	return c.dekRepository, nil
}

// initKeyProvider creates the key provider based on configuration.
func (c *Container) initKeyProvider() (cryptoService.KeyProvider, error) {
	if c.config.KMSKeyURI != "" {
		provider, err := cryptoService.NewKMSKeyProvider(context.Background(), c.config.KMSKeyURI)
		if err != nil {
			return nil, fmt.Errorf("failed to create kms key provider: %w", err)
		}
		return provider, nil
	}

	chain, err := cryptoDomain.LoadMasterKeyChainFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load master key chain: %w", err)
	}

	return cryptoService.NewStaticKeyProvider(chain, c.AEADManager(), cryptoDomain.AESGCM), nil
}

// initDekManager creates the DEK manager with its key provider.
func (c *Container) initDekManager() (cryptoService.DekManager, error) {
	keyProvider, err := c.KeyProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get key provider for dek manager: %w", err)
	}
	return cryptoService.NewDekManager(keyProvider), nil
}

// initDekRepository creates the DEK repository based on the database driver.
func (c *Container) initDekRepository() (vaultUsecase.DekRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for dek repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return cryptoPostgreSQL.NewPostgreSQLDekRepository(db), nil
	case "mysql":
		return cryptoMySQL.NewMySQLDekRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}
