package app

import (
	"fmt"

	policyHTTP "github.com/allisson/controlplane/internal/policy/http"
	policyRepository "github.com/allisson/controlplane/internal/policy/repository"
	policyService "github.com/allisson/controlplane/internal/policy/service"
	policyUsecase "github.com/allisson/controlplane/internal/policy/usecase"
)

// PolicyRepository returns the policy repository based on database driver.
func (c *Container) PolicyRepository() (policyUsecase.PolicyRepository, error) {
	var err error
	c.policyRepositoryInit.Do(func() {
		c.policyRepository, err = c.initPolicyRepository()
		if err != nil {
			c.initErrors["policyRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["policyRepository"]; exists {
		return nil, storedErr
	}
	return c.policyRepository, nil
}

// PolicyUseCase returns the policy management and evaluation use case.
func (c *Container) PolicyUseCase() (policyUsecase.PolicyUseCase, error) {
	var err error
	c.policyUseCaseInit.Do(func() {
		c.policyUseCase, err = c.initPolicyUseCase()
		if err != nil {
			c.initErrors["policyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["policyUseCase"]; exists {
		return nil, storedErr
	}
	return c.policyUseCase, nil
}

// PolicyHandler returns the HTTP handler for policy operations.
func (c *Container) PolicyHandler() (*policyHTTP.PolicyHandler, error) {
	var err error
	c.policyHandlerInit.Do(func() {
		c.policyHandler, err = c.initPolicyHandler()
		if err != nil {
			c.initErrors["policyHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["policyHandler"]; exists {
		return nil, storedErr
	}
	return c.policyHandler, nil
}

// initPolicyRepository creates the policy repository based on the database driver.
func (c *Container) initPolicyRepository() (policyUsecase.PolicyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for policy repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return policyRepository.NewPostgreSQLPolicyRepository(db), nil
	case "mysql":
		return policyRepository.NewMySQLPolicyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPolicyUseCase creates the policy use case with all its dependencies.
func (c *Container) initPolicyUseCase() (policyUsecase.PolicyUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for policy use case: %w", err)
	}

	policyRepo, err := c.PolicyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy repository for policy use case: %w", err)
	}

	publisher, err := c.OutboxPublisher()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox publisher for policy use case: %w", err)
	}

	baseUseCase := policyUsecase.NewPolicyUseCase(
		txManager,
		policyRepo,
		policyService.NewEvaluator(),
		publisher,
		c.Logger(),
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for policy use case: %w", err)
		}
		return policyUsecase.NewPolicyUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initPolicyHandler creates the policy HTTP handler.
func (c *Container) initPolicyHandler() (*policyHTTP.PolicyHandler, error) {
	policyUseCase, err := c.PolicyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy use case for policy handler: %w", err)
	}

	return policyHTTP.NewPolicyHandler(policyUseCase, c.Logger()), nil
}
