package usecase

import (
	"context"
	"time"

	"github.com/allisson/controlplane/internal/metrics"
	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
)

// limiterUseCaseWithMetrics decorates LimiterUseCase with metrics
// instrumentation. Denied requests are healthy outcomes and get their own
// status so they never inflate error rates.
type limiterUseCaseWithMetrics struct {
	next    LimiterUseCase
	metrics metrics.BusinessMetrics
}

// NewLimiterUseCaseWithMetrics wraps a LimiterUseCase with metrics recording.
func NewLimiterUseCaseWithMetrics(useCase LimiterUseCase, m metrics.BusinessMetrics) LimiterUseCase {
	return &limiterUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (l *limiterUseCaseWithMetrics) Check(
	ctx context.Context,
	ruleName, identity string,
) (*ratelimitDomain.Decision, error) {
	start := time.Now()
	decision, err := l.next.Check(ctx, ruleName, identity)

	status := "allowed"
	switch {
	case err != nil:
		status = "error"
	case !decision.Allowed:
		status = "denied"
	}

	l.metrics.RecordOperation(ctx, "ratelimit", "check", status)
	l.metrics.RecordDuration(ctx, "ratelimit", "check", time.Since(start), status)

	return decision, err
}
