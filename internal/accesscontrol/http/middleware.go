package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
	accessService "github.com/allisson/controlplane/internal/accesscontrol/service"
	accessUseCase "github.com/allisson/controlplane/internal/accesscontrol/usecase"
	apperrors "github.com/allisson/controlplane/internal/errors"
	"github.com/allisson/controlplane/internal/httputil"
)

// AuthenticationMiddleware authenticates requests via Bearer token in the
// Authorization header and stores the resolved client in the request context.
//
// Error handling:
//   - Missing or malformed Authorization header → 401 Unauthorized
//   - Invalid, expired, or revoked token → 401 Unauthorized
//   - Inactive client → 403 Forbidden
func AuthenticationMiddleware(
	tokenUseCase accessUseCase.TokenUseCase,
	tokenService accessService.TokenService,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		plainToken := authHeader[len(bearerPrefix):]
		if plainToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		tokenHash := tokenService.HashToken(plainToken)

		client, err := tokenUseCase.Authenticate(c.Request.Context(), tokenHash)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithClient(c.Request.Context(), client)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole authorizes the authenticated client against a required role.
// Roles are hierarchical: an admin satisfies an operator requirement, an
// operator satisfies a reader requirement. Must be used after
// AuthenticationMiddleware.
func RequireRole(required accessDomain.Role, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		client, ok := GetClient(c.Request.Context())
		if !ok || client == nil {
			logger.Debug("authorization failed: no authenticated client in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !client.Role.Allows(required) {
			logger.Debug("authorization failed: insufficient role",
				slog.String("client_id", client.ID.String()),
				slog.String("client_name", client.Name),
				slog.String("client_role", string(client.Role)),
				slog.String("required_role", string(required)))
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
