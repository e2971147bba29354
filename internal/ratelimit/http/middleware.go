package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	accesscontrolHTTP "github.com/allisson/controlplane/internal/accesscontrol/http"
	apperrors "github.com/allisson/controlplane/internal/errors"
	ratelimitUseCase "github.com/allisson/controlplane/internal/ratelimit/usecase"
)

// RateLimitMiddleware enforces the named rule on incoming requests. The
// identity is the authenticated client name when present, falling back to the
// caller's IP. Limiter failures let the request through: admission control
// degrades open, unlike the vault's audit path.
//
// Returns:
//   - 429 Too Many Requests: denied (includes Retry-After header)
//   - Continues: admitted or rule missing
func RateLimitMiddleware(
	limiter ratelimitUseCase.LimiterUseCase,
	ruleName string,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.ClientIP()
		if client, ok := accesscontrolHTTP.GetClient(c.Request.Context()); ok {
			identity = client.Name
		}

		decision, err := limiter.Check(c.Request.Context(), ruleName, identity)
		if err != nil {
			if !apperrors.Is(err, apperrors.ErrNotFound) {
				logger.Error("rate limit check failed",
					slog.String("rule", ruleName),
					slog.Any("error", err),
				)
			}
			c.Next()
			return
		}

		if !decision.Allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", decision.RetryAfterSeconds))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please retry after the specified delay.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
