package app

import (
	"fmt"

	propagatorHTTP "github.com/allisson/controlplane/internal/propagator/http"
	propagatorRepository "github.com/allisson/controlplane/internal/propagator/repository"
	propagatorUsecase "github.com/allisson/controlplane/internal/propagator/usecase"
)

// OutboxRepository returns the outbox event repository based on database driver.
func (c *Container) OutboxRepository() (propagatorUsecase.OutboxRepository, error) {
	var err error
	c.outboxRepositoryInit.Do(func() {
		c.outboxRepository, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepository"]; exists {
		return nil, storedErr
	}
	return c.outboxRepository, nil
}

// OutboxPublisher returns the publisher that enqueues change events into the outbox.
func (c *Container) OutboxPublisher() (*propagatorUsecase.OutboxPublisher, error) {
	var err error
	c.outboxPublisherInit.Do(func() {
		c.outboxPublisher, err = c.initOutboxPublisher()
		if err != nil {
			c.initErrors["outboxPublisher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxPublisher"]; exists {
		return nil, storedErr
	}
	return c.outboxPublisher, nil
}

// Broker returns the in-process fan-out broker for change events.
func (c *Container) Broker() (*propagatorUsecase.Broker, error) {
	c.brokerInit.Do(func() {
		c.broker = propagatorUsecase.NewBroker(
			c.config.PropagatorQueueSize,
			c.config.PropagatorSubscriberBuffer,
			c.config.PropagatorReplayWindow,
			c.Logger(),
		)
	})
	return c.broker, nil
}

// Dispatcher returns the outbox dispatcher that drains committed events into
// the broker.
func (c *Container) Dispatcher() (*propagatorUsecase.Dispatcher, error) {
	var err error
	c.dispatcherInit.Do(func() {
		c.dispatcher, err = c.initDispatcher()
		if err != nil {
			c.initErrors["dispatcher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["dispatcher"]; exists {
		return nil, storedErr
	}
	return c.dispatcher, nil
}

// SubscribeHandler returns the HTTP handler for change event subscriptions.
func (c *Container) SubscribeHandler() (*propagatorHTTP.SubscribeHandler, error) {
	var err error
	c.subscribeHandlerInit.Do(func() {
		c.subscribeHandler, err = c.initSubscribeHandler()
		if err != nil {
			c.initErrors["subscribeHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["subscribeHandler"]; exists {
		return nil, storedErr
	}
	return c.subscribeHandler, nil
}

// initOutboxRepository creates the outbox repository based on the database driver.
func (c *Container) initOutboxRepository() (propagatorUsecase.OutboxRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return propagatorRepository.NewPostgreSQLOutboxRepository(db), nil
	case "mysql":
		return propagatorRepository.NewMySQLOutboxRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOutboxPublisher creates the outbox publisher.
func (c *Container) initOutboxPublisher() (*propagatorUsecase.OutboxPublisher, error) {
	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox publisher: %w", err)
	}

	return propagatorUsecase.NewOutboxPublisher(outboxRepo), nil
}

// initDispatcher creates the dispatcher with all its dependencies.
func (c *Container) initDispatcher() (*propagatorUsecase.Dispatcher, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for dispatcher: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for dispatcher: %w", err)
	}

	broker, err := c.Broker()
	if err != nil {
		return nil, fmt.Errorf("failed to get broker for dispatcher: %w", err)
	}

	return propagatorUsecase.NewDispatcher(c.config, txManager, outboxRepo, broker, c.Logger()), nil
}

// initSubscribeHandler creates the subscription HTTP handler.
func (c *Container) initSubscribeHandler() (*propagatorHTTP.SubscribeHandler, error) {
	broker, err := c.Broker()
	if err != nil {
		return nil, fmt.Errorf("failed to get broker for subscribe handler: %w", err)
	}

	return propagatorHTTP.NewSubscribeHandler(broker, c.Logger()), nil
}
