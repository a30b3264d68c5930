// Package api exposes the escalation engine over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/logitrack/internal/adapters/websocket"
	"github.com/example/logitrack/internal/config"
	"github.com/example/logitrack/internal/metrics"
	"github.com/example/logitrack/internal/ports/primary"
	"github.com/example/logitrack/internal/version"
)

// Controller registers a group of routes under a base path.
type Controller interface {
	BasePath() string
	Register(rg *gin.RouterGroup)
}

// Server is the HTTP front door: REST routes, the websocket endpoint and probes.
type Server struct {
	engine *gin.Engine
	cfg    config.ServerConfig
	auth   *AuthHandler
	hub    *websocket.Hub
	logger *zap.Logger
	health func(ctx context.Context) error
}

// Deps are the services the server dispatches to.
type Deps struct {
	Escalations primary.EscalationService
	Contacts    primary.ContactService
	Hub         *websocket.Hub
	Health      func(ctx context.Context) error // Optional readiness probe
}

// NewServer builds the router with logging, recovery and CORS middleware.
func NewServer(logger *zap.Logger, cfg config.ServerConfig, auth *AuthHandler, deps Deps) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		ginzap.Ginzap(logger, time.RFC3339, true),
		ginzap.RecoveryWithZap(logger, true),
	)
	if len(cfg.AllowedOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Authorization", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	s := &Server{
		engine: engine,
		cfg:    cfg,
		auth:   auth,
		hub:    deps.Hub,
		logger: logger,
		health: deps.Health,
	}

	engine.GET("/healthz", s.healthz)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	if s.hub != nil {
		engine.GET("/ws", auth.Middleware(), s.serveWebSocket)
	}

	s.registerAll(
		NewEscalationController(deps.Escalations),
		NewContactController(deps.Contacts),
	)
	return s
}

func (s *Server) registerAll(controllers ...Controller) {
	r := s.engine.Group("api", s.auth.Middleware())
	for _, c := range controllers {
		c.Register(r.Group(c.BasePath()))
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", s.cfg.ListenAddress))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if s.hub != nil {
		s.hub.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) healthz(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.String()})
}

func (s *Server) serveWebSocket(c *gin.Context) {
	actor := actorFrom(c)
	s.hub.Accept(c.Writer, c.Request, actor.UserID)
}
