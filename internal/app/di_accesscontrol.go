package app

import (
	"fmt"

	accessHTTP "github.com/allisson/controlplane/internal/accesscontrol/http"
	accessRepository "github.com/allisson/controlplane/internal/accesscontrol/repository"
	accessService "github.com/allisson/controlplane/internal/accesscontrol/service"
	accessUsecase "github.com/allisson/controlplane/internal/accesscontrol/usecase"
)

// ClientRepository returns the client repository based on database driver.
func (c *Container) ClientRepository() (accessUsecase.ClientRepository, error) {
	var err error
	c.clientRepositoryInit.Do(func() {
		c.clientRepository, err = c.initClientRepository()
		if err != nil {
			c.initErrors["clientRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["clientRepository"]; exists {
		return nil, storedErr
	}
	return c.clientRepository, nil
}

// TokenRepository returns the token repository based on database driver.
func (c *Container) TokenRepository() (accessUsecase.TokenRepository, error) {
	var err error
	c.tokenRepositoryInit.Do(func() {
		c.tokenRepository, err = c.initTokenRepository()
		if err != nil {
			c.initErrors["tokenRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenRepository"]; exists {
		return nil, storedErr
	}
	return c.tokenRepository, nil
}

// SecretService returns the client secret hashing service.
func (c *Container) SecretService() accessService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = accessService.NewSecretService()
	})
	return c.secretService
}

// TokenService returns the token generation and hashing service.
func (c *Container) TokenService() accessService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = accessService.NewTokenService()
	})
	return c.tokenService
}

// ClientUseCase returns the client management use case.
func (c *Container) ClientUseCase() (accessUsecase.ClientUseCase, error) {
	var err error
	c.clientUseCaseInit.Do(func() {
		c.clientUseCase, err = c.initClientUseCase()
		if err != nil {
			c.initErrors["clientUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["clientUseCase"]; exists {
		return nil, storedErr
	}
	return c.clientUseCase, nil
}

// TokenUseCase returns the token issuance and authentication use case.
func (c *Container) TokenUseCase() (accessUsecase.TokenUseCase, error) {
	var err error
	c.tokenUseCaseInit.Do(func() {
		c.tokenUseCase, err = c.initTokenUseCase()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// TokenHandler returns the HTTP handler for token issuance.
func (c *Container) TokenHandler() (*accessHTTP.TokenHandler, error) {
	var err error
	c.tokenHandlerInit.Do(func() {
		c.tokenHandler, err = c.initTokenHandler()
		if err != nil {
			c.initErrors["tokenHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenHandler"]; exists {
		return nil, storedErr
	}
	return c.tokenHandler, nil
}

// initClientRepository creates the client repository based on the database driver.
func (c *Container) initClientRepository() (accessUsecase.ClientRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for client repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return accessRepository.NewPostgreSQLClientRepository(db), nil
	case "mysql":
		return accessRepository.NewMySQLClientRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initTokenRepository creates the token repository based on the database driver.
func (c *Container) initTokenRepository() (accessUsecase.TokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return accessRepository.NewPostgreSQLTokenRepository(db), nil
	case "mysql":
		return accessRepository.NewMySQLTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initClientUseCase creates the client use case with its dependencies.
func (c *Container) initClientUseCase() (accessUsecase.ClientUseCase, error) {
	clientRepo, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for client use case: %w", err)
	}

	return accessUsecase.NewClientUseCase(clientRepo, c.SecretService()), nil
}

// initTokenUseCase creates the token use case with its dependencies.
func (c *Container) initTokenUseCase() (accessUsecase.TokenUseCase, error) {
	clientRepo, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for token use case: %w", err)
	}

	tokenRepo, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for token use case: %w", err)
	}

	return accessUsecase.NewTokenUseCase(
		c.config,
		clientRepo,
		tokenRepo,
		c.SecretService(),
		c.TokenService(),
	), nil
}

// initTokenHandler creates the token HTTP handler.
func (c *Container) initTokenHandler() (*accessHTTP.TokenHandler, error) {
	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for token handler: %w", err)
	}

	return accessHTTP.NewTokenHandler(tokenUseCase, c.Logger()), nil
}
