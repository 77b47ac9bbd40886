// Package api exposes the risk engine over HTTP: inverse lookup, forward
// odds-ratio evaluation and multiplicative risk combination.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/genorisk-server/internal/domain"
	"github.com/genorisk-server/internal/middleware"
	"github.com/genorisk-server/internal/service"
)

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	logger        *logrus.Logger
	lookup        *service.LookupService
	model         *service.RiskModel
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, logger *logrus.Logger, lookup *service.LookupService, model *service.RiskModel) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	if cfg.Server.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst)
		router.Use(limiter.Handler())
	}

	server := &Server{
		configManager: configManager,
		logger:        logger,
		lookup:        lookup,
		model:         model,
		router:        router,
	}

	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Router returns the configured handler, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/lookup", s.handleLookup)
		v1.POST("/odds-ratio", s.handleOddsRatio)
		v1.POST("/combine", s.handleCombine)
		v1.GET("/table/stats", s.handleTableStats)
	}
}
