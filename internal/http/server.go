package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
	accessHTTP "github.com/allisson/controlplane/internal/accesscontrol/http"
	"github.com/allisson/controlplane/internal/config"
	configstoreHTTP "github.com/allisson/controlplane/internal/configstore/http"
	policyHTTP "github.com/allisson/controlplane/internal/policy/http"
	propagatorHTTP "github.com/allisson/controlplane/internal/propagator/http"
	ratelimitHTTP "github.com/allisson/controlplane/internal/ratelimit/http"
	vaultHTTP "github.com/allisson/controlplane/internal/vault/http"
)

// Handlers groups the API handlers wired into the server router.
type Handlers struct {
	Token     *accessHTTP.TokenHandler
	Config    *configstoreHTTP.ConfigHandler
	Secret    *vaultHTTP.SecretHandler
	Check     *ratelimitHTTP.CheckHandler
	Rule      *ratelimitHTTP.RuleHandler
	Policy    *policyHTTP.PolicyHandler
	Subscribe *propagatorHTTP.SubscribeHandler
}

// Middleware groups the optional middlewares applied to the API routes.
// Nil entries are skipped.
type Middleware struct {
	Authentication gin.HandlerFunc
	RateLimit      gin.HandlerFunc
	Metrics        gin.HandlerFunc
}

// Server represents the control plane API server.
type Server struct {
	db         *sql.DB
	server     *http.Server
	handlers   Handlers
	middleware Middleware
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered.
func NewServer(
	db *sql.DB,
	cfg *config.Config,
	handlers Handlers,
	middleware Middleware,
	logger *slog.Logger,
) *Server {
	server := &Server{
		db:         db,
		handlers:   handlers,
		middleware: middleware,
		logger:     logger,
	}

	router := server.createRouter(cfg)

	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

func (s *Server) createRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(
		requestid.WithGenerator(func() string {
			return uuid.Must(uuid.NewV7()).String()
		}),
	))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if s.middleware.Metrics != nil {
		router.Use(s.middleware.Metrics)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	if s.handlers.Token != nil {
		router.POST("/v1/auth/token", s.handlers.Token.IssueHandler)
	}

	api := router.Group("/v1")
	if s.middleware.Authentication != nil {
		api.Use(s.middleware.Authentication)
	}
	if s.middleware.RateLimit != nil {
		api.Use(s.middleware.RateLimit)
	}

	// Role checks only apply when authentication is enabled; without it there
	// is no client in the request context to check.
	guard := func(role accessDomain.Role) gin.HandlerFunc {
		if s.middleware.Authentication == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return accessHTTP.RequireRole(role, s.logger)
	}
	reader := guard(accessDomain.RoleReader)
	operator := guard(accessDomain.RoleOperator)
	admin := guard(accessDomain.RoleAdmin)

	if h := s.handlers.Config; h != nil {
		api.GET("/configs", reader, h.ListHandler)
		api.GET("/configs/*key", reader, h.GetHandler)
		api.PUT("/configs/*key", operator, h.PutHandler)
		api.DELETE("/configs/*key", operator, h.DeleteHandler)
		api.GET("/config-history/*key", reader, h.HistoryHandler)
	}

	if h := s.handlers.Secret; h != nil {
		api.GET("/secrets", reader, h.ListHandler)
		api.GET("/secrets/*name", reader, h.ReadHandler)
		api.POST("/secrets/*name", operator, h.CreateHandler)
		api.POST("/secret-rotations/*name", operator, h.RotateHandler)
		api.POST("/secret-revocations/*name", admin, h.RevokeHandler)
		api.GET("/secret-versions/*name", reader, h.ListVersionsHandler)
		api.GET("/secret-access-logs/*name", admin, h.ListAccessLogsHandler)
		api.PUT("/rotation-policies/*name", operator, h.SetRotationPolicyHandler)
		api.GET("/rotation-policies/*name", reader, h.GetRotationPolicyHandler)
	}

	if h := s.handlers.Check; h != nil {
		api.POST("/ratelimit/check", reader, h.CheckHandler)
	}

	if h := s.handlers.Rule; h != nil {
		api.POST("/ratelimit/rules", operator, h.CreateHandler)
		api.GET("/ratelimit/rules", reader, h.ListHandler)
		api.GET("/ratelimit/rules/:name", reader, h.GetHandler)
		api.PUT("/ratelimit/rules/:name", operator, h.UpdateHandler)
		api.DELETE("/ratelimit/rules/:name", operator, h.DeleteHandler)
	}

	if h := s.handlers.Policy; h != nil {
		api.POST("/policies", operator, h.CreateHandler)
		api.GET("/policies", reader, h.ListHandler)
		api.GET("/policies/:id", reader, h.GetHandler)
		api.PUT("/policies/:id", operator, h.UpdateHandler)
		api.POST("/policies/:id/evaluate", reader, h.EvaluateHandler)
	}

	if h := s.handlers.Subscribe; h != nil {
		api.GET("/subscribe", reader, h.SubscribeHandler)
	}

	return router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports readiness to serve traffic, checking the database
// connection.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.String("error", err.Error()))
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start http server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
