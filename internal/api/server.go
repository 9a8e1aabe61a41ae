package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/tphakala/birdnet-mcp/internal/api/middleware"
	"github.com/tphakala/birdnet-mcp/internal/buildinfo"
	"github.com/tphakala/birdnet-mcp/internal/conf"
	"github.com/tphakala/birdnet-mcp/internal/logger"
	"github.com/tphakala/birdnet-mcp/internal/observability"
)

// Invoker runs an exposed function by name.
type Invoker interface {
	Invoke(ctx context.Context, name string, params json.RawMessage) (any, error)
}

// Server is the function dispatch HTTP server.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger

	invoker Invoker
	metrics *observability.Metrics
	build   *buildinfo.Context

	startTime time.Time
	running   sync.Mutex
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the logger for the server.
func WithLogger(log logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithBuildInfo sets the version reported by /health.
func WithBuildInfo(build *buildinfo.Context) ServerOption {
	return func(s *Server) {
		s.build = build
	}
}

// New creates a new dispatch server for invoker.
func New(settings *conf.Settings, invoker Invoker, opts ...ServerOption) (*Server, error) {
	if invoker == nil {
		return nil, fmt.Errorf("invoker is required")
	}

	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		settings:  settings,
		invoker:   invoker,
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = GetLogger()
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug
	s.echo.HTTPErrorHandler = s.errorHandler

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.log.Info("HTTP server initialized",
		logger.String("address", config.Listen),
		logger.Bool("metrics", config.MetricsEnabled && s.metrics != nil),
		logger.Float64("rate_limit", config.RateLimit))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewRequestID())

	if s.metrics != nil {
		s.echo.Use(mw.NewRequestMetrics(s.metrics.HTTP))
	}

	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.log, func(c echo.Context) bool {
		return c.Path() == "/health" || c.Path() == "/metrics"
	}))

	securityConfig := mw.DefaultSecurityConfig()
	if len(s.config.AllowedOrigins) > 0 {
		securityConfig.AllowedOrigins = s.config.AllowedOrigins
	}
	s.echo.Use(mw.NewCORS(securityConfig))
	s.echo.Use(mw.NewSecureHeaders(securityConfig))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewRateLimiter(s.config.RateLimit))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/functions", s.listFunctions)
	s.echo.POST("/invoke", s.invoke)

	if s.config.MetricsEnabled && s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

// healthCheck handles the server health check endpoint.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)

	body := map[string]any{
		"status":         "healthy",
		"version":        s.build.GetVersion(),
		"build_date":     s.build.GetBuildDate(),
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
		"storage": map[string]StorageStatus{
			"data":  storageStatus(s.settings.Data.Path),
			"audio": storageStatus(s.settings.Audio.Path),
		},
	}
	if s.metrics != nil {
		body["detections_loaded"] = int(s.metrics.Datastore.DetectionsLoaded())
	}
	return c.JSON(http.StatusOK, body)
}

// Start serves HTTP requests until ctx is canceled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	if !s.running.TryLock() {
		return fmt.Errorf("server already running")
	}
	defer s.running.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", logger.String("address", s.config.Listen))
		errCh <- s.echo.Start(s.config.Listen)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutdown signal received, initiating graceful shutdown")
	if err := s.Shutdown(); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	s.log.Info("Server shutdown complete")
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("Error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

// Echo returns the underlying Echo instance.
// This is useful for testing or advanced configuration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
