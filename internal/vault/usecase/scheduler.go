package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/controlplane/internal/config"
	vaultDomain "github.com/allisson/controlplane/internal/vault/domain"
)

// Scheduler runs the background rotation and sweep loops. Both loops acquire
// a database lease before each pass so that only one instance of the service
// does the work at a time.
type Scheduler struct {
	config       *config.Config
	vaultUseCase VaultUseCase
	leaseRepo    LeaseRepository
	holder       string
	logger       *slog.Logger
}

// NewScheduler creates a new Scheduler. The holder identity is derived from
// the hostname so leases survive a restart on the same machine.
func NewScheduler(
	cfg *config.Config,
	vaultUseCase VaultUseCase,
	leaseRepo LeaseRepository,
	logger *slog.Logger,
) *Scheduler {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = uuid.Must(uuid.NewV7()).String()
	}

	return &Scheduler{
		config:       cfg,
		vaultUseCase: vaultUseCase,
		leaseRepo:    leaseRepo,
		holder:       fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		logger:       logger,
	}
}

// Start runs the rotation and sweep loops until the context is canceled.
// A pass already in flight finishes before Start returns.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("starting vault scheduler",
		slog.String("holder", s.holder),
		slog.Duration("rotation_interval", s.config.RotationInterval),
		slog.Duration("sweep_interval", s.config.SweepInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.loop(ctx, s.config.RotationInterval, vaultDomain.RotationLeaseName, s.rotatePass)
	})
	g.Go(func() error {
		return s.loop(ctx, s.config.SweepInterval, vaultDomain.SweepLeaseName, s.sweepPass)
	})

	err := g.Wait()
	s.logger.Info("vault scheduler stopped")
	return err
}

// loop runs fn on every tick while holding the named lease. Passes use a
// background-derived context so an in-flight pass completes on shutdown.
func (s *Scheduler) loop(
	ctx context.Context,
	interval time.Duration,
	leaseName string,
	fn func(ctx context.Context) error,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			acquired, err := s.leaseRepo.Acquire(ctx, leaseName, s.holder, s.config.RotationLeaseTTL)
			if err != nil {
				s.logger.Error("failed to acquire lease",
					slog.String("lease", leaseName),
					slog.Any("error", err),
				)
				continue
			}
			if !acquired {
				continue
			}

			passCtx, cancel := context.WithTimeout(context.Background(), s.config.RotationLeaseTTL)
			if err := fn(passCtx); err != nil {
				s.logger.Error("scheduler pass failed",
					slog.String("lease", leaseName),
					slog.Any("error", err),
				)
			}
			cancel()
		}
	}
}

func (s *Scheduler) rotatePass(ctx context.Context) error {
	rotated, err := s.vaultUseCase.RotateDue(ctx, time.Now().UTC(), s.config.RotationBatchSize)
	if rotated > 0 {
		s.logger.Info("rotated due secrets", slog.Int("count", rotated))
	}
	return err
}

func (s *Scheduler) sweepPass(ctx context.Context) error {
	revoked, err := s.vaultUseCase.SweepExpired(ctx, s.config.RotationBatchSize)
	if revoked > 0 {
		s.logger.Info("revoked expired secret versions", slog.Int("count", revoked))
	}
	return err
}
