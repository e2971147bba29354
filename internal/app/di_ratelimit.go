package app

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	ratelimitHTTP "github.com/allisson/controlplane/internal/ratelimit/http"
	ratelimitRepository "github.com/allisson/controlplane/internal/ratelimit/repository"
	ratelimitStore "github.com/allisson/controlplane/internal/ratelimit/store"
	ratelimitUsecase "github.com/allisson/controlplane/internal/ratelimit/usecase"
)

// CounterStore returns the rate limit counter store.
// A Redis-backed store is used when REDIS_URL is configured so counters are
// shared across instances; otherwise a single-process in-memory store is used.
func (c *Container) CounterStore() (ratelimitStore.CounterStore, error) {
	var err error
	c.counterStoreInit.Do(func() {
		c.counterStore, err = c.initCounterStore()
		if err != nil {
			c.initErrors["counterStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["counterStore"]; exists {
		return nil, storedErr
	}
	return c.counterStore, nil
}

// RuleRepository returns the rate limit rule repository based on database driver.
func (c *Container) RuleRepository() (ratelimitUsecase.RuleRepository, error) {
	var err error
	c.ruleRepositoryInit.Do(func() {
		c.ruleRepository, err = c.initRuleRepository()
		if err != nil {
			c.initErrors["ruleRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["ruleRepository"]; exists {
		return nil, storedErr
	}
	return c.ruleRepository, nil
}

// RuleCache returns the TTL-bounded rule cache.
func (c *Container) RuleCache() (*ratelimitUsecase.RuleCache, error) {
	var err error
	c.ruleCacheInit.Do(func() {
		c.ruleCache, err = c.initRuleCache()
		if err != nil {
			c.initErrors["ruleCache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["ruleCache"]; exists {
		return nil, storedErr
	}
	return c.ruleCache, nil
}

// LimiterUseCase returns the admission check use case.
func (c *Container) LimiterUseCase() (ratelimitUsecase.LimiterUseCase, error) {
	var err error
	c.limiterUseCaseInit.Do(func() {
		c.limiterUseCase, err = c.initLimiterUseCase()
		if err != nil {
			c.initErrors["limiterUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["limiterUseCase"]; exists {
		return nil, storedErr
	}
	return c.limiterUseCase, nil
}

// RuleUseCase returns the rule management use case.
func (c *Container) RuleUseCase() (ratelimitUsecase.RuleUseCase, error) {
	var err error
	c.ruleUseCaseInit.Do(func() {
		c.ruleUseCase, err = c.initRuleUseCase()
		if err != nil {
			c.initErrors["ruleUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["ruleUseCase"]; exists {
		return nil, storedErr
	}
	return c.ruleUseCase, nil
}

// CheckHandler returns the HTTP handler for admission checks.
func (c *Container) CheckHandler() (*ratelimitHTTP.CheckHandler, error) {
	var err error
	c.checkHandlerInit.Do(func() {
		c.checkHandler, err = c.initCheckHandler()
		if err != nil {
			c.initErrors["checkHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["checkHandler"]; exists {
		return nil, storedErr
	}
	return c.checkHandler, nil
}

// RuleHandler returns the HTTP handler for rule management.
func (c *Container) RuleHandler() (*ratelimitHTTP.RuleHandler, error) {
	var err error
	c.ruleHandlerInit.Do(func() {
		c.ruleHandler, err = c.initRuleHandler()
		if err != nil {
			c.initErrors["ruleHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["ruleHandler"]; exists {
		return nil, storedErr
	}
	return c.ruleHandler, nil
}

// initCounterStore creates the counter store based on configuration.
func (c *Container) initCounterStore() (ratelimitStore.CounterStore, error) {
	if c.config.RedisURL == "" {
		return ratelimitStore.NewMemoryCounterStore(), nil
	}

	opts, err := redis.ParseURL(c.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	c.redisClient = redis.NewClient(opts)
	return ratelimitStore.NewRedisCounterStore(c.redisClient), nil
}

// initRuleRepository creates the rule repository based on the database driver.
func (c *Container) initRuleRepository() (ratelimitUsecase.RuleRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for rule repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return ratelimitRepository.NewPostgreSQLRuleRepository(db), nil
	case "mysql":
		return ratelimitRepository.NewMySQLRuleRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRuleCache creates the rule cache over the rule repository.
func (c *Container) initRuleCache() (*ratelimitUsecase.RuleCache, error) {
	ruleRepo, err := c.RuleRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get rule repository for rule cache: %w", err)
	}

	return ratelimitUsecase.NewRuleCache(ruleRepo, c.config.RuleCacheTTL), nil
}

// initLimiterUseCase creates the limiter use case with its dependencies.
func (c *Container) initLimiterUseCase() (ratelimitUsecase.LimiterUseCase, error) {
	counterStore, err := c.CounterStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get counter store for limiter use case: %w", err)
	}

	ruleCache, err := c.RuleCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get rule cache for limiter use case: %w", err)
	}

	baseUseCase := ratelimitUsecase.NewLimiterUseCase(counterStore, ruleCache)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for limiter use case: %w", err)
		}
		return ratelimitUsecase.NewLimiterUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initRuleUseCase creates the rule use case with its dependencies.
func (c *Container) initRuleUseCase() (ratelimitUsecase.RuleUseCase, error) {
	ruleRepo, err := c.RuleRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get rule repository for rule use case: %w", err)
	}

	ruleCache, err := c.RuleCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get rule cache for rule use case: %w", err)
	}

	return ratelimitUsecase.NewRuleUseCase(ruleRepo, ruleCache, c.Logger()), nil
}

// initCheckHandler creates the admission check HTTP handler.
func (c *Container) initCheckHandler() (*ratelimitHTTP.CheckHandler, error) {
	limiterUseCase, err := c.LimiterUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get limiter use case for check handler: %w", err)
	}

	return ratelimitHTTP.NewCheckHandler(limiterUseCase, c.Logger()), nil
}

// initRuleHandler creates the rule management HTTP handler.
func (c *Container) initRuleHandler() (*ratelimitHTTP.RuleHandler, error) {
	ruleUseCase, err := c.RuleUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get rule use case for rule handler: %w", err)
	}

	return ratelimitHTTP.NewRuleHandler(ruleUseCase, c.Logger()), nil
}
